package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/contribot/contribot/internal/store"
)

// Monitors starts and stops per-chat monitor loops.
type Monitors interface {
	Start(ctx context.Context, chatID int64)
	Stop(chatID int64) bool
	Running(chatID int64) bool
}

// TokenValidator checks a GitHub token and returns the login it belongs to.
type TokenValidator func(ctx context.Context, token string) (string, error)

type Handler struct {
	Bot      *Bot
	store    store.Store
	monitors Monitors
	validate TokenValidator
	log      *zap.Logger
}

func NewHandler(bot *Bot, st store.Store, monitors Monitors, validate TokenValidator, log *zap.Logger) *Handler {
	return &Handler{
		Bot:      bot,
		store:    st,
		monitors: monitors,
		validate: validate,
		log:      log,
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		return h.handleCallback(update.CallbackQuery)
	}
	if update.Message == nil || !update.Message.IsCommand() {
		return nil
	}

	var err error
	switch update.Message.Command() {
	case "start":
		err = h.handleStart(update.Message)
	case "github":
		err = h.handleGithub(ctx, update.Message)
	case "stop":
		err = h.handleStop(update.Message)
	case "status":
		err = h.handleStatus(update.Message)
	case "help":
		err = h.handleHelp(update.Message)
	default:
		err = h.handleUnknown(update.Message)
	}

	if err != nil {
		reply := tgbotapi.NewMessage(update.Message.Chat.ID, fmt.Sprintf("Error: %v", err))
		_, _ = h.Bot.API.Send(reply)
	}

	return err
}

func (h *Handler) handleStart(message *tgbotapi.Message) error {
	text := `Welcome to the GitHub Contribution Bot!

I check your GitHub activity every few hours and nudge you to keep your streak alive, with a contribution heatmap included.

Available commands:
/github <username> <token> - Register your GitHub account and start monitoring
/stop - Stop monitoring
/status - Show your registered account
/help - Show this help message`

	return h.Bot.SendText(message.Chat.ID, text)
}

func (h *Handler) handleGithub(ctx context.Context, message *tgbotapi.Message) error {
	args := strings.Fields(message.CommandArguments())
	switch len(args) {
	case 0:
		return fmt.Errorf("missing GitHub username and token. Usage: /github <username> <token>")
	case 1:
		return fmt.Errorf("missing GitHub token. Usage: /github <username> <token>")
	case 2:
	default:
		return fmt.Errorf("usage: /github <username> <token>")
	}

	username, token := args[0], args[1]

	vctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	login, err := h.validate(vctx, token)
	if err != nil {
		return fmt.Errorf("invalid GitHub token, please check and try again")
	}
	if !strings.EqualFold(login, username) {
		h.log.Warn("token login differs from supplied username",
			zap.String("login", login), zap.String("username", username))
	}

	telegramUsername := ""
	if message.From != nil {
		telegramUsername = message.From.UserName
	}
	if err := h.store.UpsertUser(message.Chat.ID, telegramUsername, username, token); err != nil {
		h.log.Error("failed to store credentials", zap.Int64("chatID", message.Chat.ID), zap.Error(err))
		return fmt.Errorf("failed to save your account, please try again later")
	}

	h.monitors.Start(ctx, message.Chat.ID)

	return h.Bot.SendText(message.Chat.ID, fmt.Sprintf("GitHub username and token set for %s! Monitoring has started.", username))
}

func (h *Handler) handleStop(message *tgbotapi.Message) error {
	if !h.monitors.Stop(message.Chat.ID) {
		return h.Bot.SendText(message.Chat.ID, "Monitoring is not running for this chat.")
	}
	return h.Bot.SendText(message.Chat.ID, "Monitoring stopped. Use /github to start again.")
}

func (h *Handler) handleStatus(message *tgbotapi.Message) error {
	user, err := h.store.GetUser(message.Chat.ID)
	if err != nil {
		h.log.Error("failed to load user", zap.Int64("chatID", message.Chat.ID), zap.Error(err))
		return fmt.Errorf("failed to look up your account")
	}
	if user == nil {
		return h.Bot.SendText(message.Chat.ID, "No GitHub account registered. Use /github <username> <token> to get started.")
	}

	state := "🔴 stopped"
	if h.monitors.Running(message.Chat.ID) {
		state = "🟢 monitoring"
	}
	text := fmt.Sprintf("GitHub account: %s (%s)", user.GithubUsername, state)
	if user.LastNotifiedAt != nil {
		text += fmt.Sprintf("\nLast notified: %s", user.LastNotifiedAt.Format(time.RFC1123))
	}
	return h.Bot.SendText(message.Chat.ID, text)
}

func (h *Handler) handleHelp(message *tgbotapi.Message) error {
	return h.handleStart(message)
}

func (h *Handler) handleUnknown(message *tgbotapi.Message) error {
	return h.Bot.SendText(message.Chat.ID, "Unknown command. Use /help to see available commands.")
}

// handleCallback applies a rating button press: "rate:<id>:<delta>".
func (h *Handler) handleCallback(query *tgbotapi.CallbackQuery) error {
	// Answering the query clears the button's loading state.
	ack := func(text string) {
		_, _ = h.Bot.API.Request(tgbotapi.NewCallback(query.ID, text))
	}

	parts := strings.Split(query.Data, ":")
	if len(parts) != 3 || parts[0] != "rate" {
		ack("")
		return nil
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		ack("")
		return nil
	}
	delta, err := strconv.Atoi(parts[2])
	if err != nil {
		ack("")
		return nil
	}

	if err := h.store.AdjustRating(id, delta); err != nil {
		h.log.Error("failed to adjust template rating", zap.Int64("templateID", id), zap.Error(err))
		ack("")
		return err
	}

	ack("Thanks for the feedback!")
	return nil
}
