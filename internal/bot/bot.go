// Package bot wires the Telegram transport to the core: every inbound
// message is persisted first, explicit commands are gated by the
// authorization registry, and everything else goes through the trigger
// evaluator.
package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-chat-assistant/internal/auth"
	"github.com/lueurxax/telegram-chat-assistant/internal/config"
	"github.com/lueurxax/telegram-chat-assistant/internal/core/domain"
	"github.com/lueurxax/telegram-chat-assistant/internal/imagegen"
	"github.com/lueurxax/telegram-chat-assistant/internal/llm"
	"github.com/lueurxax/telegram-chat-assistant/internal/observability"
	"github.com/lueurxax/telegram-chat-assistant/internal/search"
	"github.com/lueurxax/telegram-chat-assistant/internal/trigger"
)

const updateTimeout = 60

// API is the Telegram transport surface the bot uses, satisfied by
// *tgbotapi.BotAPI.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

// Storage is the persistence surface the bot uses, satisfied by the
// database wrapper.
type Storage interface {
	SaveMessage(ctx context.Context, msg *domain.Message) error
	ChatMessagesSince(ctx context.Context, chatID int64, since time.Time) ([]string, error)
}

type Bot struct {
	cfg       *config.Config
	database  Storage
	registry  *auth.Registry
	evaluator *trigger.Evaluator
	llmClient llm.Client
	searcher  search.Client
	imager    imagegen.Client
	api       API
	names     Names
	logger    *zerolog.Logger
}

func New(
	cfg *config.Config,
	database Storage,
	registry *auth.Registry,
	evaluator *trigger.Evaluator,
	llmClient llm.Client,
	searcher search.Client,
	imager imagegen.Client,
	api API,
	logger *zerolog.Logger,
) *Bot {
	return &Bot{
		cfg:       cfg,
		database:  database,
		registry:  registry,
		evaluator: evaluator,
		llmClient: llmClient,
		searcher:  searcher,
		imager:    imager,
		api:       api,
		names: Names{
			Whitelist:      cfg.CmdWhitelist,
			WhitelistGroup: cfg.CmdWhitelistGroup,
			Summarize:      cfg.CmdSummarize,
			Research:       cfg.CmdResearch,
			Art:            cfg.CmdArt,
		},
		logger: logger,
	}
}

// Run polls for updates until the context is canceled. Each update is
// handled in its own goroutine so a slow collaborator call never stalls
// unrelated chats.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = updateTimeout

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info().Msg("bot started, polling for updates")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil {
				continue
			}

			go b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage persists the inbound message before anything else. A
// storage failure aborts handling: an unrecorded message gets no
// authorization check, no trigger evaluation, no reply.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	m := toDomainMessage(msg)

	if err := b.database.SaveMessage(ctx, m); err != nil {
		b.logger.Error().Err(err).Int64("message_id", m.ID).Msg("dropping message, persistence failed")

		return
	}

	observability.MessagesStored.WithLabelValues(string(m.Kind)).Inc()

	if msg.Text == "" {
		return
	}

	cmd := Parse(msg.Text, b.names)

	switch cmd.Kind {
	case KindWhitelist:
		b.handleWhitelist(ctx, msg, cmd)
	case KindWhitelistGroup:
		b.handleWhitelistGroup(ctx, msg)
	case KindSummarize:
		b.handleSummarize(ctx, msg, cmd)
	case KindResearch:
		b.handleResearch(ctx, msg, cmd)
	case KindArt:
		b.handleArt(ctx, msg, cmd)
	case KindNone:
		b.handleAutoResponse(ctx, msg, m)
	}
}

func toDomainMessage(msg *tgbotapi.Message) *domain.Message {
	m := &domain.Message{
		ID:      int64(msg.MessageID),
		ChatID:  msg.Chat.ID,
		Kind:    domain.KindText,
		Content: msg.Text,
		Date:    msg.Time(),
	}

	if msg.From != nil {
		userID := msg.From.ID
		m.UserID = &userID
		m.Username = msg.From.UserName
		m.IsBot = msg.From.IsBot
	}

	if msg.ReplyToMessage != nil {
		replyTo := int64(msg.ReplyToMessage.MessageID)
		m.ReplyToID = &replyTo
	}

	switch {
	case len(msg.Photo) > 0:
		m.Kind = domain.KindPhoto
		m.FileID = msg.Photo[len(msg.Photo)-1].FileID
		m.Content = msg.Caption
	case msg.Document != nil:
		m.Kind = domain.KindDocument
		m.FileID = msg.Document.FileID
		m.Content = msg.Caption
	}

	return m
}

func principal(msg *tgbotapi.Message) auth.Principal {
	if msg.From == nil {
		return auth.Principal{}
	}

	return auth.Principal{ID: msg.From.ID, Handle: msg.From.UserName}
}
