package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lueurxax/telegram-chat-assistant/internal/core/domain"
	apperrors "github.com/lueurxax/telegram-chat-assistant/internal/core/errors"
	"github.com/lueurxax/telegram-chat-assistant/internal/llm"
	"github.com/lueurxax/telegram-chat-assistant/internal/observability"
)

// User-visible replies. Failures stay generic: collaborator error text is
// never forwarded to the chat.
const (
	replyNotAuthorized    = "You are not authorized to use this bot."
	replyNotAuthorizedCmd = "You are not authorized to use this command."
	replyGroupOnly        = "This command can only be used in a group chat."
	replyGroupKnown       = "This group is already whitelisted."
	replyGroupAdded       = "Group has been successfully whitelisted. All members in this group can now use the bot."
	replyNoNewUsers       = "No new usernames were added to the whitelist."
	replyGenericError     = "An error occurred while processing your request."
	replySearchError      = "An error occurred while performing the search."
	replySummaryError     = "An error occurred while generating the summary."
	replyArtFailed        = "Sorry, I couldn't generate the art. Please try again later."
	replyArtError         = "An error occurred while generating the art. Please try again later."
)

func (b *Bot) handleWhitelist(ctx context.Context, msg *tgbotapi.Message, cmd Command) {
	if len(cmd.Handles) == 0 {
		b.reply(ctx, msg, fmt.Sprintf("Usage: /%s username1 username2 ...", b.names.Whitelist))
		observability.CommandsHandled.WithLabelValues(b.names.Whitelist, "usage").Inc()

		return
	}

	added, err := b.registry.AddUsers(ctx, principal(msg), cmd.Handles)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotAuthorized) {
			b.reply(ctx, msg, replyNotAuthorizedCmd)
			observability.CommandsHandled.WithLabelValues(b.names.Whitelist, "denied").Inc()

			return
		}

		b.logger.Error().Err(err).Msg("whitelist command failed")
		b.reply(ctx, msg, replyGenericError)
		observability.CommandsHandled.WithLabelValues(b.names.Whitelist, "error").Inc()

		return
	}

	if len(added) == 0 {
		b.reply(ctx, msg, replyNoNewUsers)
	} else {
		b.reply(ctx, msg, "Whitelisted usernames added: "+strings.Join(added, ", "))
	}

	observability.CommandsHandled.WithLabelValues(b.names.Whitelist, "ok").Inc()
}

func (b *Bot) handleWhitelistGroup(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.Chat.IsGroup() && !msg.Chat.IsSuperGroup() {
		b.reply(ctx, msg, replyGroupOnly)
		observability.CommandsHandled.WithLabelValues(b.names.WhitelistGroup, "rejected").Inc()

		return
	}

	added, err := b.registry.AddGroup(ctx, msg.Chat.ID)
	if err != nil {
		b.logger.Error().Err(err).Msg("whitelist group command failed")
		b.reply(ctx, msg, replyGenericError)
		observability.CommandsHandled.WithLabelValues(b.names.WhitelistGroup, "error").Inc()

		return
	}

	if added {
		b.reply(ctx, msg, replyGroupAdded)
	} else {
		b.reply(ctx, msg, replyGroupKnown)
	}

	observability.CommandsHandled.WithLabelValues(b.names.WhitelistGroup, "ok").Inc()
}

func (b *Bot) handleSummarize(ctx context.Context, msg *tgbotapi.Message, cmd Command) {
	if !b.authorize(ctx, msg) {
		return
	}

	if cmd.BadArg {
		b.reply(ctx, msg, fmt.Sprintf("Please provide a valid number of hours (e.g., /%s 4)", b.names.Summarize))
		observability.CommandsHandled.WithLabelValues(b.names.Summarize, "usage").Inc()

		return
	}

	hours := cmd.Hours
	if hours == 0 {
		hours = b.cfg.DefaultSummarizeHours
	}

	since := cmd.Since
	scope := fmt.Sprintf("the past %d hour(s)", hours)

	if since.IsZero() {
		since = time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	} else {
		scope = "messages since " + since.Format("2006-01-02 15:04")
	}

	lines, err := b.database.ChatMessagesSince(ctx, msg.Chat.ID, since)
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to fetch messages for summary")
		b.reply(ctx, msg, replySummaryError)
		observability.CommandsHandled.WithLabelValues(b.names.Summarize, "error").Inc()

		return
	}

	if len(lines) == 0 {
		b.reply(ctx, msg, fmt.Sprintf("No messages found for %s.", scope))
		observability.CommandsHandled.WithLabelValues(b.names.Summarize, "empty").Inc()

		return
	}

	summary, err := b.llmClient.Complete(ctx, llm.SummarizeChatPrompt(lines), llm.SummaryMaxTokens)
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to generate summary")
		b.reply(ctx, msg, replySummaryError)
		observability.CommandsHandled.WithLabelValues(b.names.Summarize, "error").Inc()

		return
	}

	b.reply(ctx, msg, fmt.Sprintf("Summary of %s:\n\n%s", scope, summary))
	observability.CommandsHandled.WithLabelValues(b.names.Summarize, "ok").Inc()
}

func (b *Bot) handleResearch(ctx context.Context, msg *tgbotapi.Message, cmd Command) {
	if !b.authorize(ctx, msg) {
		return
	}

	if cmd.Query == "" {
		b.reply(ctx, msg, fmt.Sprintf("Please provide a query after /%s.", b.names.Research))
		observability.CommandsHandled.WithLabelValues(b.names.Research, "usage").Inc()

		return
	}

	answer, err := b.searcher.Search(ctx, cmd.Query)
	if err != nil {
		b.logger.Error().Err(err).Msg("search command failed")
		b.reply(ctx, msg, replyGenericError)
		observability.CommandsHandled.WithLabelValues(b.names.Research, "error").Inc()

		return
	}

	b.reply(ctx, msg, answer)
	observability.CommandsHandled.WithLabelValues(b.names.Research, "ok").Inc()
}

func (b *Bot) handleArt(ctx context.Context, msg *tgbotapi.Message, cmd Command) {
	if !b.authorize(ctx, msg) {
		return
	}

	if cmd.Query == "" {
		b.reply(ctx, msg, fmt.Sprintf("Please provide a prompt after /%s command. Example: /%s sunset over mountains",
			b.names.Art, b.names.Art))
		observability.CommandsHandled.WithLabelValues(b.names.Art, "usage").Inc()

		return
	}

	img, err := b.imager.Generate(ctx, cmd.Query)

	switch {
	case apperrors.Is(err, apperrors.ErrNoImage):
		b.reply(ctx, msg, replyArtFailed)
		observability.CommandsHandled.WithLabelValues(b.names.Art, "no_image").Inc()
	case err != nil:
		b.logger.Error().Err(err).Msg("art command failed")
		b.reply(ctx, msg, replyArtError)
		observability.CommandsHandled.WithLabelValues(b.names.Art, "error").Inc()
	default:
		b.replyPhoto(ctx, msg, img, "Generated from prompt: "+cmd.Query)
		observability.CommandsHandled.WithLabelValues(b.names.Art, "ok").Inc()
	}
}

// handleAutoResponse runs the trigger evaluator for plain text messages and
// performs the search-and-reply action when one is warranted.
func (b *Bot) handleAutoResponse(ctx context.Context, msg *tgbotapi.Message, m *domain.Message) {
	if b.cfg.DisableAutoResponses {
		return
	}

	decision := b.evaluator.Evaluate(ctx, m.ChatID, m.DisplayName(), m.Content)
	if !decision.Act {
		return
	}

	b.logger.Info().Int64("chat_id", msg.Chat.ID).Str("query", decision.Query).Msg("auto-response triggered")

	answer, err := b.searcher.Search(ctx, decision.Query)
	if err != nil {
		b.logger.Error().Err(err).Msg("auto-response search failed")
		b.reply(ctx, msg, replySearchError)

		return
	}

	b.reply(ctx, msg, answer)
}

// authorize checks the sender and replies with the fixed denial text when
// the check fails. Denial is a normal outcome, not an error.
func (b *Bot) authorize(ctx context.Context, msg *tgbotapi.Message) bool {
	if b.registry.Authorize(ctx, principal(msg), msg.Chat.ID) {
		return true
	}

	b.logger.Warn().
		Int64("chat_id", msg.Chat.ID).
		Str("username", principal(msg).Handle).
		Msg("unauthorized access attempt")
	b.reply(ctx, msg, replyNotAuthorized)

	return false
}
