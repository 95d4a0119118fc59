package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot is the delivery sink: plain text, rated template messages and
// heatmap photos. Sends are fire-and-forget from the monitor's point of
// view; failures surface as errors for the caller to log, never retried.
type Bot struct {
	API *tgbotapi.BotAPI
}

func New(token string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %v", err)
	}

	return &Bot{
		API: api,
	}, nil
}

func (b *Bot) SendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.API.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %v", err)
	}
	return nil
}

// SendRated sends a stored template with thumbs-up/down buttons so the
// recipient can rate it. The callback data carries the template id and the
// rating delta.
func (b *Bot) SendRated(chatID int64, text string, templateID int64) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👍", fmt.Sprintf("rate:%d:1", templateID)),
			tgbotapi.NewInlineKeyboardButtonData("👎", fmt.Sprintf("rate:%d:-1", templateID)),
		),
	)
	if _, err := b.API.Send(msg); err != nil {
		return fmt.Errorf("failed to send rated message: %v", err)
	}
	return nil
}

func (b *Bot) SendPhoto(chatID int64, path, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(path))
	photo.Caption = caption
	if _, err := b.API.Send(photo); err != nil {
		return fmt.Errorf("failed to send photo: %v", err)
	}
	return nil
}
