package selector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/contribot/contribot/internal/models"
	"github.com/contribot/contribot/internal/store"
)

// Generator produces a short notification text from a prompt. It may fail;
// the selector always has a fallback.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// prompts per category. The tone escalates; the 10-word cap keeps chat
// messages glanceable.
var prompts = map[string]string{
	models.CategoryGentle: "Generate a gentle notification for a GitHub user named %s to encourage them to code. Keep the tone friendly and motivational. No more than 10 words.",
	models.CategoryMedium: "Generate a moderate notification for a GitHub user named %s to encourage them to code. Keep the tone more direct but friendly. No more than 10 words.",
	models.CategoryHarsh:  "Generate a harsh notification for a GitHub user named %s to encourage them to code. Be assertive and urgent. No more than 10 words.",
}

// defaults guarantee Select never comes back empty-handed.
var defaults = map[string]string{
	models.CategoryGentle: "Nice progress! A little code today keeps the streak alive.",
	models.CategoryMedium: "Your repositories are waiting. Time to push something.",
	models.CategoryHarsh:  "No commits. No excuses. Open your editor right now.",
}

// Selector chooses the notification text for a category: freshly generated
// when the generator cooperates, a random stored template otherwise, and a
// hardcoded default as the last resort.
type Selector struct {
	gen   Generator
	store store.Store
	log   *zap.Logger
}

func New(gen Generator, st store.Store, log *zap.Logger) *Selector {
	return &Selector{
		gen:   gen,
		store: st,
		log:   log,
	}
}

// Select returns a non-empty message for the category. The returned id is
// the stored template's id when the fallback path was taken, zero
// otherwise; callers use it to attach rating controls.
func (s *Selector) Select(ctx context.Context, category, username string) (string, int64) {
	prompt, ok := prompts[category]
	if !ok {
		prompt = prompts[models.CategoryGentle]
	}

	text, err := s.gen.Generate(ctx, fmt.Sprintf(prompt, username))
	if err == nil {
		return text, 0
	}
	s.log.Warn("generator failed, falling back to stored template",
		zap.String("category", category), zap.Error(err))

	tmpl, err := s.store.RandomTemplate(category)
	if err != nil {
		s.log.Warn("failed to pick stored template", zap.String("category", category), zap.Error(err))
	} else if tmpl != nil {
		return tmpl.Message, tmpl.ID
	}

	def, ok := defaults[category]
	if !ok {
		def = defaults[models.CategoryGentle]
	}
	return def, 0
}

// Seed tops up each category to perCategory stored templates using the
// generator, so the fallback pool is never empty on a fresh database.
// Generator failures only shrink the seed batch, they never abort it.
func (s *Selector) Seed(ctx context.Context, perCategory int) error {
	for _, category := range models.Categories {
		have, err := s.store.CountTemplates(category)
		if err != nil {
			return fmt.Errorf("failed to count %s templates: %v", category, err)
		}
		for i := have; i < perCategory; i++ {
			text, err := s.gen.Generate(ctx, fmt.Sprintf(prompts[category], "you"))
			if err != nil {
				s.log.Warn("seed generation failed", zap.String("category", category), zap.Error(err))
				break
			}
			if err := s.store.InsertTemplate(category, text); err != nil {
				return fmt.Errorf("failed to insert %s template: %v", category, err)
			}
		}
	}
	return nil
}
