package main

import (
	"context"
	"log"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/example/gclearnbot/internal/analytics"
	"github.com/example/gclearnbot/internal/config"
	"github.com/example/gclearnbot/internal/content"
	"github.com/example/gclearnbot/internal/database"
	"github.com/example/gclearnbot/internal/feedback"
	"github.com/example/gclearnbot/internal/logger"
	"github.com/example/gclearnbot/internal/platform"
	"github.com/example/gclearnbot/internal/platform/slack"
	"github.com/example/gclearnbot/internal/platform/telegram"
	"github.com/example/gclearnbot/internal/progress"
	"github.com/example/gclearnbot/internal/scheduler"
	"github.com/example/gclearnbot/internal/web"
	"github.com/example/gclearnbot/pkg/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New(cfg.Mode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logg.Sync()

	if err := database.Connect(cfg.DBType, cfg.DatabaseURL, cfg.DataDir); err != nil {
		logg.Fatal("failed to connect to database", "error", err)
	}
	defer database.Close()

	graph, err := content.Load(cfg.DataDir, logg)
	if err != nil {
		logg.Fatal("failed to load lesson content", "error", err)
	}
	logg.Info("lesson graph loaded", "nodes", graph.Len(), "head", graph.Head())

	var cache feedback.Cache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		cache = feedback.NewRedisCache(client, cfg.CacheTimeout)
		logg.Info("feedback cache backed by redis", "addr", cfg.RedisAddr)
	} else {
		cache = feedback.NewMemoryCache(cfg.CacheTimeout)
	}

	scorer := feedback.NewScorer(cache, logg)
	tracker := feedback.NewSkillTracker(database.NewSkillRepository(), logg)
	prog := progress.NewService(
		graph,
		database.NewUserRepository(),
		database.NewJournalRepository(),
		scorer,
		tracker,
		logg,
	)
	stats := analytics.NewService(
		graph,
		database.NewUserRepository(),
		database.NewJournalRepository(),
		database.NewSkillRepository(),
		logg,
	)

	var platforms []platform.Platform

	var bot *telegram.Bot
	if cfg.TelegramToken != "" {
		bot, err = telegram.New(cfg, graph, prog, stats, logg)
		if err != nil {
			logg.Fatal("failed to create telegram bot", "error", err)
		}
		platforms = append(platforms, bot)
	} else {
		logg.Warn("TELEGRAM_BOT_TOKEN not set, telegram disabled")
	}

	if cfg.SlackBotToken != "" && cfg.SlackSigningSecret != "" {
		adapter, err := slack.New(cfg, cfg.SlackAddr, graph, prog, logg)
		if err != nil {
			logg.Fatal("failed to create slack adapter", "error", err)
		}
		platforms = append(platforms, adapter)
	} else {
		logg.Warn("slack credentials not set, slack disabled")
	}

	platforms = append(platforms, web.New(cfg, graph, prog, stats, logg))

	if cfg.SchedulerEnabled {
		sched := scheduler.New(cfg, logg)
		if bot != nil {
			sched.Register(models.PlatformTelegram, bot)
		}
		sched.Start()
		defer sched.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for _, p := range platforms {
		wg.Add(1)
		go func(p platform.Platform) {
			defer wg.Done()
			logg.Info("starting platform", "platform", p.Name())
			if err := p.Start(ctx); err != nil && err != context.Canceled {
				logg.Error("platform stopped with error", "platform", p.Name(), "error", err)
			}
		}(p)
	}

	<-ctx.Done()
	logg.Info("shutdown signal received")
	for _, p := range platforms {
		p.Stop()
	}
	wg.Wait()
	logg.Info("all platforms stopped")
}
