package main

import (
	"context"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/contribot/contribot/internal/bot"
	"github.com/contribot/contribot/internal/config"
	"github.com/contribot/contribot/internal/generator"
	"github.com/contribot/contribot/internal/github"
	"github.com/contribot/contribot/internal/heatmap"
	"github.com/contribot/contribot/internal/logger"
	"github.com/contribot/contribot/internal/monitor"
	"github.com/contribot/contribot/internal/selector"
	"github.com/contribot/contribot/internal/store"
	"github.com/contribot/contribot/internal/store/postgres"
	"github.com/contribot/contribot/internal/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("starting contribution bot",
		zap.String("driver", cfg.DatabaseDriver),
		zap.String("database", maskDatabaseURL(cfg.DatabaseURL)),
		zap.Duration("pollInterval", cfg.PollInterval),
		zap.String("timezone", cfg.Timezone),
	)

	st, err := openStore(cfg)
	if err != nil {
		log.Fatal("failed to initialize store", zap.Error(err))
	}
	defer st.Close()

	telegramBot, err := bot.New(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal("failed to initialize Telegram bot", zap.Error(err))
	}
	log.Info("Telegram bot authorized", zap.String("account", telegramBot.API.Self.UserName))

	renderer, err := heatmap.NewRenderer(cfg.ImageDir, cfg.ImageRetention)
	if err != nil {
		log.Fatal("failed to initialize renderer", zap.Error(err))
	}
	sweeper := heatmap.NewSweeper(cfg.ImageDir, cfg.ImageRetention, log)

	gen := generator.New(cfg.GeneratorURL, cfg.GeneratorToken, cfg.GeneratorModel, cfg.GeneratorTimeout)
	sel := selector.New(gen, st, log)

	loc := cfg.Location()
	newFetcher := func(token string) monitor.Fetcher {
		return github.NewClient(token, loc)
	}
	manager := monitor.NewManager(st, newFetcher, renderer, sel, telegramBot,
		cfg.PollInterval, loc, cfg.EscalationHour, log)

	handler := bot.NewHandler(telegramBot, st, manager, github.ValidateToken, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info("received signal, initiating shutdown", zap.String("signal", sig.String()))
		cancel()
	}()

	// Seed the fallback template pool before the first cycles fire.
	seedCtx, seedCancel := context.WithTimeout(ctx, time.Minute)
	if err := sel.Seed(seedCtx, cfg.SeedPerCategory); err != nil {
		log.Warn("template seeding incomplete", zap.Error(err))
	}
	seedCancel()

	scheduler, err := startJobs(st, sweeper, cfg, log)
	if err != nil {
		log.Fatal("failed to start background jobs", zap.Error(err))
	}
	defer func() { _ = scheduler.Shutdown() }()

	if err := manager.StartAll(ctx); err != nil {
		log.Error("failed to resume monitors", zap.Error(err))
	}

	botWorker(ctx, handler, cfg, log)

	manager.Wait()
	log.Info("shutdown complete")
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.DatabaseDriver == "postgres" {
		return postgres.New(cfg.DatabaseURL)
	}
	return sqlite.New(cfg.DatabaseURL)
}

// startJobs schedules the periodic maintenance work: pruning low-rated
// templates and sweeping expired heatmap files.
func startJobs(st store.Store, sweeper *heatmap.Sweeper, cfg *config.Config, log *zap.Logger) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DurationJob(cfg.PruneInterval),
		gocron.NewTask(func() {
			removed, err := st.PruneLowestRated(cfg.PruneFraction)
			if err != nil {
				log.Error("template pruning failed", zap.Error(err))
				return
			}
			log.Info("pruned low-rated templates", zap.Int("removed", removed))
		}),
	)
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DurationJob(cfg.SweepInterval),
		gocron.NewTask(sweeper.Sweep),
	)
	if err != nil {
		return nil, err
	}

	s.Start()
	return s, nil
}

func botWorker(ctx context.Context, handler *bot.Handler, cfg *config.Config, log *zap.Logger) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.PollingTimeout

	updates := handler.Bot.API.GetUpdatesChan(u)
	log.Info("bot is now listening for updates")

	for {
		select {
		case <-ctx.Done():
			log.Info("bot worker shutting down")
			return
		case update := <-updates:
			if update.Message != nil && update.Message.IsCommand() {
				log.Debug("received command",
					zap.String("command", update.Message.Command()),
					zap.Int64("chatID", update.Message.Chat.ID))
			}
			if err := handler.HandleUpdate(ctx, update); err != nil {
				log.Warn("error handling update", zap.Error(err))
			}
		}
	}
}

// maskDatabaseURL hides credentials while keeping the URL structure visible.
func maskDatabaseURL(url string) string {
	return regexp.MustCompile(`://[^:]+:[^@]+@`).ReplaceAllString(url, "://*****:*****@")
}
