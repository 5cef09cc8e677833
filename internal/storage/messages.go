package db

import (
	"context"
	"fmt"
	"time"

	"github.com/lueurxax/telegram-chat-assistant/internal/core/domain"
	apperrors "github.com/lueurxax/telegram-chat-assistant/internal/core/errors"
)

const contentPreviewLen = 50

// SaveMessage upserts a message by its id. A collision replaces all fields
// of the existing row in a single statement.
func (db *DB) SaveMessage(ctx context.Context, msg *domain.Message) error {
	db.logger.Info().
		Int64("message_id", msg.ID).
		Int64("chat_id", msg.ChatID).
		Str("kind", string(msg.Kind)).
		Str("username", msg.Username).
		Bool("is_bot", msg.IsBot).
		Str("content", preview(msg.Content)).
		Msg("storing message")

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO messages
			(message_id, chat_id, user_id, username, kind, content, file_id, date, reply_to_id, is_bot)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (message_id) DO UPDATE SET
			chat_id = EXCLUDED.chat_id,
			user_id = EXCLUDED.user_id,
			username = EXCLUDED.username,
			kind = EXCLUDED.kind,
			content = EXCLUDED.content,
			file_id = EXCLUDED.file_id,
			date = EXCLUDED.date,
			reply_to_id = EXCLUDED.reply_to_id,
			is_bot = EXCLUDED.is_bot`,
		msg.ID, msg.ChatID, msg.UserID, nullText(msg.Username), string(msg.Kind),
		msg.Content, nullText(msg.FileID), msg.Date, msg.ReplyToID, msg.IsBot,
	)
	if err != nil {
		db.logger.Error().Err(err).Int64("message_id", msg.ID).Msg("failed to store message")

		return fmt.Errorf("%w: save message %d: %w", apperrors.ErrStorage, msg.ID, err)
	}

	return nil
}

// ChatMessagesSince returns the non-empty messages of a chat observed at or
// after the cutoff, oldest first, each rendered as "<name>: <content>".
// Attachment-only messages without captions contribute nothing.
func (db *DB) ChatMessagesSince(ctx context.Context, chatID int64, since time.Time) ([]string, error) {
	db.logger.Info().
		Int64("chat_id", chatID).
		Time("since", since).
		Msg("fetching chat messages")

	rows, err := db.Pool.Query(ctx, `
		SELECT username, content
		FROM messages
		WHERE chat_id = $1
		  AND date >= $2
		  AND content != ''
		ORDER BY date ASC`,
		chatID, since,
	)
	if err != nil {
		db.logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to fetch messages")

		return nil, fmt.Errorf("%w: fetch messages for chat %d: %w", apperrors.ErrStorage, chatID, err)
	}
	defer rows.Close()

	var lines []string

	for rows.Next() {
		var username *string

		var content string

		if err := rows.Scan(&username, &content); err != nil {
			return nil, fmt.Errorf("%w: scan message row: %w", apperrors.ErrStorage, err)
		}

		lines = append(lines, FormatLine(username, content))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read message rows: %w", apperrors.ErrStorage, err)
	}

	db.logger.Info().Int64("chat_id", chatID).Int("count", len(lines)).Msg("retrieved messages")

	return lines, nil
}

// FormatLine renders one history line for summarization prompts.
func FormatLine(username *string, content string) string {
	name := domain.AnonymousName
	if username != nil && *username != "" {
		name = *username
	}

	return name + ": " + content
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) > contentPreviewLen {
		return string(runes[:contentPreviewLen-3]) + "..."
	}

	return s
}

func nullText(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
