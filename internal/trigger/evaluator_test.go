package trigger

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-chat-assistant/internal/digest"
)

type fakeLLM struct {
	calls int
	reply string
	err   error
}

func (f *fakeLLM) Complete(_ context.Context, _ string, _ int) (string, error) {
	f.calls++

	return f.reply, f.err
}

func newTestEvaluator(client *fakeLLM, keywords []string) *Evaluator {
	logger := zerolog.Nop()
	keeper := digest.NewKeeper(client, 100, 8000, &logger)

	return NewEvaluator(keeper, client, keywords, "If the message asks a question, say 'YES: <question>', else NO.", &logger)
}

func TestEvaluateKeywordShortCircuits(t *testing.T) {
	client := &fakeLLM{reply: "YES: should not be consulted"}
	evaluator := newTestEvaluator(client, []string{"urgent", " Deploy "})

	decision := evaluator.Evaluate(context.Background(), 1, "alice", "This is URGENT, please look")

	if !decision.Act {
		t.Fatal("keyword match must trigger an action")
	}

	if decision.Query != "This is URGENT, please look" {
		t.Errorf("query = %q, want the original message", decision.Query)
	}

	if client.calls != 0 {
		t.Errorf("keyword path consulted the model %d times", client.calls)
	}
}

func TestEvaluateCriteria(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		err       error
		wantAct   bool
		wantQuery string
	}{
		{"yes with query", "YES: best pizza in Rome", nil, true, "best pizza in Rome"},
		{"plain no", "NO", nil, false, ""},
		{"unparseable reply treated as no", "maybe?", nil, false, ""},
		{"yes without query falls back to message", "YES:", nil, true, "where do I start?"},
		{"model error yields no action", "", errors.New("model unavailable"), false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeLLM{reply: tt.reply, err: tt.err}
			evaluator := newTestEvaluator(client, nil)

			decision := evaluator.Evaluate(context.Background(), 1, "alice", "where do I start?")

			if decision.Act != tt.wantAct {
				t.Fatalf("Act = %v, want %v", decision.Act, tt.wantAct)
			}

			if decision.Query != tt.wantQuery {
				t.Errorf("query = %q, want %q", decision.Query, tt.wantQuery)
			}

			if client.calls != 1 {
				t.Errorf("model consulted %d times, want 1", client.calls)
			}
		})
	}
}

func TestEvaluateRecordsIntoDigest(t *testing.T) {
	logger := zerolog.Nop()
	client := &fakeLLM{reply: "NO"}
	keeper := digest.NewKeeper(client, 2, 8000, &logger)
	evaluator := NewEvaluator(keeper, client, nil, "criteria", &logger)

	// Second message hits the window boundary: one digest refresh plus two
	// judgment calls.
	evaluator.Evaluate(context.Background(), 1, "alice", "one")
	evaluator.Evaluate(context.Background(), 1, "bob", "two")

	if client.calls != 3 {
		t.Errorf("model consulted %d times, want 3", client.calls)
	}
}

func TestMatchKeyword(t *testing.T) {
	evaluator := newTestEvaluator(&fakeLLM{}, []string{"Urgent", "", "  help  "})

	tests := []struct {
		text  string
		match bool
	}{
		{"need urgent review", true},
		{"HELP me out", true},
		{"all quiet", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if _, got := evaluator.matchKeyword(tt.text); got != tt.match {
				t.Errorf("matchKeyword(%q) = %v, want %v", tt.text, got, tt.match)
			}
		})
	}
}
