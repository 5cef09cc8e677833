// Package digest maintains a rolling natural-language summary of recent
// conversation per chat. Every Nth observed message the accumulated window
// is compressed through the LLM collaborator into a short digest used by
// the trigger evaluator.
package digest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-chat-assistant/internal/llm"
	"github.com/lueurxax/telegram-chat-assistant/internal/observability"
)

const (
	summaryMaxTokens = 512
	msgSeparator     = "\n"
)

type pair struct {
	username string
	text     string
}

// chatState is created lazily on the first observed message of a chat and
// lives for the process lifetime.
type chatState struct {
	count  int
	digest string
	window []pair
}

// Keeper owns the per-chat digest state. The mutex only guards the state
// map; the LLM call runs outside it so a slow refresh never stalls
// recording for other chats.
type Keeper struct {
	llmClient  llm.Client
	windowSize int
	maxChars   int
	logger     *zerolog.Logger

	mu    sync.Mutex
	chats map[int64]*chatState
}

// NewKeeper creates a keeper refreshing every windowSize messages, feeding
// the LLM at most maxChars of joined history (most recent kept).
func NewKeeper(llmClient llm.Client, windowSize, maxChars int, logger *zerolog.Logger) *Keeper {
	return &Keeper{
		llmClient:  llmClient,
		windowSize: windowSize,
		maxChars:   maxChars,
		logger:     logger,
		chats:      make(map[int64]*chatState),
	}
}

// Record accounts one observed message and refreshes the digest when the
// chat's message count reaches a positive multiple of the window size.
// A failed refresh leaves the previous digest in place and is not retried
// before the next window boundary.
func (k *Keeper) Record(ctx context.Context, chatID int64, username, text string) {
	k.mu.Lock()

	state := k.chats[chatID]
	if state == nil {
		state = &chatState{}
		k.chats[chatID] = state
	}

	state.count++
	state.window = append(state.window, pair{username: username, text: text})

	refresh := state.count%k.windowSize == 0

	var block string
	if refresh {
		block = tail(joinWindow(state.window), k.maxChars)
		state.window = trimWindow(state.window, k.maxChars)
	}

	k.mu.Unlock()

	if !refresh {
		return
	}

	summary, err := k.llmClient.Complete(ctx, summaryPrompt(block), summaryMaxTokens)
	if err != nil {
		observability.DigestRefreshes.WithLabelValues("error").Inc()
		k.logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to refresh rolling digest")

		return
	}

	k.mu.Lock()
	state.digest = summary
	k.mu.Unlock()

	observability.DigestRefreshes.WithLabelValues("ok").Inc()
	k.logger.Info().Int64("chat_id", chatID).Int("summary_len", len(summary)).Msg("rolling digest refreshed")
}

// Digest returns the latest summary for a chat, empty until the first
// refresh completes.
func (k *Keeper) Digest(chatID int64) string {
	k.mu.Lock()
	defer k.mu.Unlock()

	if state := k.chats[chatID]; state != nil {
		return state.digest
	}

	return ""
}

func summaryPrompt(block string) string {
	return fmt.Sprintf(
		"Summarize the following chat:\n####CHAT_BEGIN####%s\n####CHAT_END####\n"+
			"Your summary should be no larger than two paragraphs of 4 sentences each.",
		block,
	)
}

func joinWindow(window []pair) string {
	lines := make([]string, len(window))
	for i, p := range window {
		lines[i] = p.username + ": " + p.text
	}

	return strings.Join(lines, msgSeparator)
}

// tail keeps the last maxChars characters so the most recent content
// survives truncation.
func tail(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}

	return string(runes[len(runes)-maxChars:])
}

// trimWindow drops the oldest pairs once the joined text exceeds the char
// cap. The survivors cover the tail a refresh feeds the LLM, so trimming
// bounds memory without materially changing summary input.
func trimWindow(window []pair, maxChars int) []pair {
	total := 0

	for i := len(window) - 1; i >= 0; i-- {
		total += len([]rune(window[i].username)) + len([]rune(window[i].text)) + len(": ") + len(msgSeparator)
		if total > maxChars {
			return append([]pair(nil), window[i+1:]...)
		}
	}

	return window
}
