package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pimtong/fieldworks-backend/internal/assistant"
	"github.com/pimtong/fieldworks-backend/internal/assistant/intent"
	"github.com/pimtong/fieldworks-backend/internal/jobs"
	"github.com/pimtong/fieldworks-backend/internal/projects"
	"github.com/pimtong/fieldworks-backend/internal/users"
	"github.com/pimtong/fieldworks-backend/pkg/config"
	"github.com/pimtong/fieldworks-backend/pkg/db"
	"github.com/pimtong/fieldworks-backend/pkg/genai"
	"github.com/pimtong/fieldworks-backend/pkg/logger"
	"github.com/pimtong/fieldworks-backend/pkg/metrics"
	"github.com/pimtong/fieldworks-backend/pkg/migrate"
	"github.com/pimtong/fieldworks-backend/pkg/redis"
	"github.com/pimtong/fieldworks-backend/pkg/telegram"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "assistant"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "assistant",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	usersService, err := users.NewService(users.NewRepository(dbClient.DB()), cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}
	jobsService, err := jobs.NewService(jobs.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create jobs service", err)
		os.Exit(1)
	}
	projectsService, err := projects.NewService(projects.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create projects service", err)
		os.Exit(1)
	}

	assistantMetrics := metrics.NewAssistantMetrics(prometheus.DefaultRegisterer)

	genaiClient, err := genai.NewClient(
		cfg.GenAI.APIKey,
		genai.WithModel(cfg.GenAI.Model),
		genai.WithHTTPClient(&http.Client{Timeout: cfg.GenAI.Timeout}),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create genai client", err)
		os.Exit(1)
	}

	resolver, err := intent.NewResolver(genaiClient, assistantMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create intent resolver", err)
		os.Exit(1)
	}

	dispatcher, err := assistant.NewService(
		usersService,
		jobsService,
		projectsService,
		resolver,
		redisClient,
		cfg.Assistant,
		logg,
		assistantMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create assistant dispatcher", err)
		os.Exit(1)
	}

	botClient, err := telegram.NewClient(
		cfg.Telegram.BotToken,
		telegram.WithHTTPClient(&http.Client{Timeout: cfg.Telegram.RequestTimeout}),
		telegram.WithPollTimeout(cfg.Telegram.PollTimeout),
		telegram.WithSendLimit(cfg.Telegram.SendRatePerSec, cfg.Telegram.SendBurst),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create telegram client", err)
		os.Exit(1)
	}

	poller, err := NewService(botClient, dispatcher, cfg.Assistant, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create poller", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting assistant worker")

	poller.Run(ctx)

	logg.Info(ctx, "assistant worker shutting down gracefully")
}
