package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/contribot/contribot/internal/models"
	"github.com/contribot/contribot/internal/store"
)

// Fixed texts used by the decision policy.
const (
	AffirmativeFormat = "Yay! You've committed %d time(s) today. Keep it up!"
	GraphCaption      = "Here is your contribution graph:"
	NoActivityMessage = "Hey, you haven't committed today yet! Don't let your streak slip!"
	UrgentWarning     = "Final Coding Warning: Inactivity Detected. Get coding now!"
)

// Fetcher reads one user's contribution activity.
type Fetcher interface {
	TodayCount(ctx context.Context, login string) (int, error)
	ActivityGrid(ctx context.Context, login string) (models.ActivityGrid, error)
}

// FetcherFactory builds a Fetcher for a user's token. A fresh client per
// cycle keeps credentials out of long-lived state.
type FetcherFactory func(token string) Fetcher

// Renderer turns a grid into a deliverable image artifact.
type Renderer interface {
	Render(username string, grid models.ActivityGrid) (*models.RenderedImage, error)
}

// Selector picks the notification text for a category. The second return
// is the stored template id, zero for generated or default texts.
type Selector interface {
	Select(ctx context.Context, category, username string) (string, int64)
}

// Sink delivers messages to a chat.
type Sink interface {
	SendText(chatID int64, text string) error
	SendRated(chatID int64, text string, templateID int64) error
	SendPhoto(chatID int64, path, caption string) error
}

// Manager owns one monitor goroutine per registered chat. Loops are
// independent; the store is the only shared mutable state between them.
type Manager struct {
	store          store.Store
	newFetcher     FetcherFactory
	renderer       Renderer
	selector       Selector
	sink           Sink
	log            *zap.Logger
	interval       time.Duration
	loc            *time.Location
	escalationHour int
	now            func() time.Time

	mu      sync.Mutex
	cancels map[int64]context.CancelFunc
	wg      sync.WaitGroup
}

func NewManager(st store.Store, newFetcher FetcherFactory, renderer Renderer, sel Selector, sink Sink,
	interval time.Duration, loc *time.Location, escalationHour int, log *zap.Logger) *Manager {
	return &Manager{
		store:          st,
		newFetcher:     newFetcher,
		renderer:       renderer,
		selector:       sel,
		sink:           sink,
		log:            log,
		interval:       interval,
		loc:            loc,
		escalationHour: escalationHour,
		now:            time.Now,
		cancels:        make(map[int64]context.CancelFunc),
	}
}

// Start launches the monitor loop for a chat. Starting a chat that is
// already monitored is a no-op; the running loop picks up refreshed
// credentials from the store on its next cycle.
func (m *Manager) Start(ctx context.Context, chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, running := m.cancels[chatID]; running {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancels[chatID] = cancel
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.remove(chatID)
		m.run(runCtx, chatID)
	}()
	m.log.Info("monitor started", zap.Int64("chatID", chatID))
}

// StartAll resumes monitoring for every stored user, used at boot.
func (m *Manager) StartAll(ctx context.Context) error {
	users, err := m.store.ListUsers()
	if err != nil {
		return fmt.Errorf("failed to list users: %v", err)
	}
	for _, user := range users {
		m.Start(ctx, user.ChatID)
	}
	return nil
}

// Stop cancels a chat's monitor loop and reports whether one was running.
func (m *Manager) Stop(chatID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	cancel, running := m.cancels[chatID]
	if running {
		cancel()
		delete(m.cancels, chatID)
	}
	return running
}

func (m *Manager) Running(chatID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, running := m.cancels[chatID]
	return running
}

// Wait blocks until every monitor goroutine has exited.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) remove(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cancel, ok := m.cancels[chatID]; ok {
		cancel()
		delete(m.cancels, chatID)
	}
}

// run is the per-user loop: an explicit bounded loop, one cycle per poll
// interval, first cycle immediately. It exits on cancellation or when the
// chat has no stored credentials.
func (m *Manager) run(ctx context.Context, chatID int64) {
	for {
		if !m.cycle(ctx, chatID) {
			return
		}
		select {
		case <-ctx.Done():
			m.log.Info("monitor stopping", zap.Int64("chatID", chatID))
			return
		case <-time.After(m.interval):
		}
	}
}

// cycle runs one fetch-decide-render-deliver pass. It returns false only
// when the loop should stop for good; external failures never kill the
// loop, the cycle degrades and reaches the sleep.
func (m *Manager) cycle(ctx context.Context, chatID int64) bool {
	user, err := m.store.GetUser(chatID)
	if err != nil {
		m.log.Error("failed to load user, keeping loop", zap.Int64("chatID", chatID), zap.Error(err))
		return true
	}
	if user == nil {
		m.log.Info("no stored credentials, stopping monitor", zap.Int64("chatID", chatID))
		return false
	}

	fetcher := m.newFetcher(user.GithubToken)

	count, err := fetcher.TodayCount(ctx, user.GithubUsername)
	if err != nil {
		// Fetch failure is not a zero: skip the cycle without any
		// user-facing message rather than escalate on unknown data.
		m.log.Warn("failed to fetch today's count, skipping cycle",
			zap.Int64("chatID", chatID), zap.String("username", user.GithubUsername), zap.Error(err))
		return true
	}

	if count > 0 {
		m.commitCycle(ctx, chatID, user.GithubUsername, fetcher, count)
	} else {
		m.idleCycle(ctx, chatID, user.GithubUsername, fetcher)
	}

	if err := m.store.TouchLastNotified(chatID, m.now()); err != nil {
		m.log.Warn("failed to record notification time", zap.Int64("chatID", chatID), zap.Error(err))
	}
	return true
}

// commitCycle congratulates the user: exact count first, then a gentle
// nudge, then the heatmap.
func (m *Manager) commitCycle(ctx context.Context, chatID int64, username string, fetcher Fetcher, count int) {
	m.send(chatID, fmt.Sprintf(AffirmativeFormat, count))
	m.sendSelected(ctx, chatID, models.CategoryGentle, username)
	m.sendHeatmap(ctx, chatID, username, fetcher, GraphCaption)
}

// idleCycle delivers the empty heatmap and the no-activity nudge, and past
// the escalation hour adds the fixed warning plus a harsh message.
func (m *Manager) idleCycle(ctx context.Context, chatID int64, username string, fetcher Fetcher) {
	m.sendHeatmap(ctx, chatID, username, fetcher, "")
	m.send(chatID, NoActivityMessage)

	if m.now().In(m.loc).Hour() >= m.escalationHour {
		m.send(chatID, UrgentWarning)
		m.sendSelected(ctx, chatID, models.CategoryHarsh, username)
	}
}

func (m *Manager) send(chatID int64, text string) {
	if err := m.sink.SendText(chatID, text); err != nil {
		m.log.Error("failed to send message", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

func (m *Manager) sendSelected(ctx context.Context, chatID int64, category, username string) {
	text, templateID := m.selector.Select(ctx, category, username)
	var err error
	if templateID != 0 {
		err = m.sink.SendRated(chatID, text, templateID)
	} else {
		err = m.sink.SendText(chatID, text)
	}
	if err != nil {
		m.log.Error("failed to send selected message",
			zap.Int64("chatID", chatID), zap.String("category", category), zap.Error(err))
	}
}

// sendHeatmap fetches, renders and delivers the activity grid. A failed
// grid fetch renders as empty; a render failure skips only the image.
func (m *Manager) sendHeatmap(ctx context.Context, chatID int64, username string, fetcher Fetcher, caption string) {
	grid, err := fetcher.ActivityGrid(ctx, username)
	if err != nil {
		m.log.Warn("failed to fetch activity grid, rendering empty",
			zap.Int64("chatID", chatID), zap.String("username", username), zap.Error(err))
		grid = nil
	}

	img, err := m.renderer.Render(username, grid)
	if err != nil {
		m.log.Error("failed to render heatmap", zap.Int64("chatID", chatID), zap.Error(err))
		return
	}

	if err := m.sink.SendPhoto(chatID, img.Path, caption); err != nil {
		m.log.Error("failed to send heatmap", zap.Int64("chatID", chatID), zap.Error(err))
	}
}
