// Package trigger decides, per non-command message, whether an automated
// search-and-reply action is warranted. Deterministic keyword matching is
// tried first; otherwise the LLM judges the message against the configured
// natural-language criteria using the rolling conversation digest as
// context.
package trigger

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-chat-assistant/internal/digest"
	"github.com/lueurxax/telegram-chat-assistant/internal/llm"
	"github.com/lueurxax/telegram-chat-assistant/internal/observability"
)

const (
	criteriaMaxTokens = 256
	yesPrefix         = "YES:"
)

// Decision is the evaluator outcome: either no action, or an action with
// the search query to run.
type Decision struct {
	Act   bool
	Query string
}

// None is the no-action decision.
func None() Decision {
	return Decision{}
}

// Act wraps a query into an action decision.
func Act(query string) Decision {
	return Decision{Act: true, Query: query}
}

// Evaluator combines the keyword scan and the criteria judgment.
type Evaluator struct {
	keeper    *digest.Keeper
	llmClient llm.Client
	keywords  []string
	criteria  string
	logger    *zerolog.Logger
}

// NewEvaluator builds an evaluator. Keywords are matched as case-insensitive
// substrings; an empty list disables the keyword path, an empty criteria
// string still goes to the model with an empty criteria clause.
func NewEvaluator(keeper *digest.Keeper, llmClient llm.Client, keywords []string, criteria string, logger *zerolog.Logger) *Evaluator {
	normalized := make([]string, 0, len(keywords))

	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			normalized = append(normalized, kw)
		}
	}

	return &Evaluator{
		keeper:    keeper,
		llmClient: llmClient,
		keywords:  normalized,
		criteria:  criteria,
		logger:    logger,
	}
}

// Evaluate records the message into the digest keeper, then decides. The
// digest used for judgment reflects history up to but excluding any refresh
// the current message itself completes only at window boundaries, so the
// message is judged against the state visible before it.
//
// Collaborator failures are logged and produce a no-action decision; no
// error ever reaches the dispatcher from this path.
func (e *Evaluator) Evaluate(ctx context.Context, chatID int64, username, text string) Decision {
	e.keeper.Record(ctx, chatID, username, text)

	if kw, ok := e.matchKeyword(text); ok {
		observability.TriggerDecisions.WithLabelValues("keyword").Inc()
		e.logger.Info().Int64("chat_id", chatID).Str("keyword", kw).Msg("keyword trigger matched")

		return Act(text)
	}

	prompt := judgmentPrompt(e.keeper.Digest(chatID), username, text, e.criteria)

	reply, err := e.llmClient.Complete(ctx, prompt, criteriaMaxTokens)
	if err != nil {
		observability.TriggerDecisions.WithLabelValues("error").Inc()
		e.logger.Error().Err(err).Int64("chat_id", chatID).Msg("criteria judgment failed")

		return None()
	}

	e.logger.Info().Int64("chat_id", chatID).Str("reply", reply).Msg("criteria judgment reply")

	if !strings.HasPrefix(reply, yesPrefix) {
		observability.TriggerDecisions.WithLabelValues("none").Inc()

		return None()
	}

	query := strings.TrimSpace(strings.TrimPrefix(reply, yesPrefix))
	if query == "" {
		query = text
	}

	observability.TriggerDecisions.WithLabelValues("criteria").Inc()

	return Act(query)
}

func (e *Evaluator) matchKeyword(text string) (string, bool) {
	lower := strings.ToLower(text)

	for _, kw := range e.keywords {
		if strings.Contains(lower, kw) {
			return kw, true
		}
	}

	return "", false
}

func judgmentPrompt(summary, username, text, criteria string) string {
	return fmt.Sprintf(`We have a conversation summary so far:
%s

A new user message from %s is:
%q

We have the following criteria:
%s

Respond ONLY with:
  YES: <some query here>   (if the criteria is met)
  NO                       (if criteria not met)
No extra text, no explanation.`, summary, username, text, criteria)
}
