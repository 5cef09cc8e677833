package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-chat-assistant/internal/auth"
	"github.com/lueurxax/telegram-chat-assistant/internal/bot"
	"github.com/lueurxax/telegram-chat-assistant/internal/config"
	"github.com/lueurxax/telegram-chat-assistant/internal/digest"
	"github.com/lueurxax/telegram-chat-assistant/internal/imagegen"
	"github.com/lueurxax/telegram-chat-assistant/internal/llm"
	"github.com/lueurxax/telegram-chat-assistant/internal/observability"
	"github.com/lueurxax/telegram-chat-assistant/internal/search"
	db "github.com/lueurxax/telegram-chat-assistant/internal/storage"
	"github.com/lueurxax/telegram-chat-assistant/internal/trigger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(ctx, cfg.PostgresDSN, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	preapproved, err := auth.LoadPreapproved(cfg.PreapprovedPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.PreapprovedPath).Msg("pre-approved user list unavailable")
	}

	registry := auth.New(database, preapproved, &logger)
	llmClient := llm.New(cfg, &logger)
	searcher := search.New(cfg, &logger)
	imager := imagegen.New(cfg, &logger)
	keeper := digest.NewKeeper(llmClient, cfg.SummaryWindowSize, cfg.SummaryMaxChars, &logger)
	evaluator := trigger.NewEvaluator(keeper, llmClient, cfg.CriteriaKeywords, cfg.CriteriaNL, &logger)

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to telegram")
	}

	logger.Info().Str("bot", api.Self.UserName).Msg("telegram api connected")

	assistant := bot.New(cfg, database, registry, evaluator, llmClient, searcher, imager, api, &logger)

	health := observability.NewServer(database, cfg.HealthPort, &logger)

	go func() {
		if err := health.Start(ctx); err != nil {
			logger.Error().Err(err).Msg("health server error")
		}
	}()

	if err := assistant.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("bot stopped")

			return
		}

		logger.Fatal().Err(err).Msg("bot error")
	}
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
