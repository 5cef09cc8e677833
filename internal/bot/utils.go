package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lueurxax/telegram-chat-assistant/internal/observability"
)

const messageLimit = 4096

// reply sends a text reply and persists the outgoing message. Reply
// durability is decoupled from delivery: a persistence failure after the
// send is logged, not surfaced.
func (b *Bot) reply(ctx context.Context, msg *tgbotapi.Message, text string) {
	for _, part := range splitText(text, messageLimit) {
		out := tgbotapi.NewMessage(msg.Chat.ID, part)

		sent, err := b.api.Send(out)
		if err != nil {
			b.logger.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("failed to send reply")

			return
		}

		b.storeBotMessage(ctx, &sent)
	}
}

// replyPhoto sends an image reply with a caption and persists it.
func (b *Bot) replyPhoto(ctx context.Context, msg *tgbotapi.Message, img []byte, caption string) {
	photo := tgbotapi.NewPhoto(msg.Chat.ID, tgbotapi.FileBytes{Name: "art.png", Bytes: img})
	photo.Caption = caption

	sent, err := b.api.Send(photo)
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("failed to send photo reply")

		return
	}

	b.storeBotMessage(ctx, &sent)
}

func (b *Bot) storeBotMessage(ctx context.Context, msg *tgbotapi.Message) {
	m := toDomainMessage(msg)

	if err := b.database.SaveMessage(ctx, m); err != nil {
		b.logger.Error().Err(err).Int64("message_id", m.ID).Msg("failed to persist outgoing reply")

		return
	}

	observability.MessagesStored.WithLabelValues(string(m.Kind)).Inc()
}

// splitText breaks text into chunks under the Telegram message size limit,
// preferring newline boundaries.
func splitText(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var parts []string

	for len(text) > limit {
		cut := strings.LastIndexByte(text[:limit], '\n')
		if cut <= 0 {
			cut = limit
			// Back off to a rune boundary.
			for cut > 0 && !isRuneStart(text[cut]) {
				cut--
			}

			if cut == 0 {
				cut = limit
			}
		}

		parts = append(parts, strings.TrimRight(text[:cut], "\n"))
		text = strings.TrimLeft(text[cut:], "\n")
	}

	if text != "" {
		parts = append(parts, text)
	}

	return parts
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
