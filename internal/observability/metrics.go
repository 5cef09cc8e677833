package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_messages_stored_total",
		Help: "The total number of messages persisted, by kind",
	}, []string{"kind"})

	CommandsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_commands_handled_total",
		Help: "The total number of explicit commands handled",
	}, []string{"command", "status"})

	TriggerDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_trigger_decisions_total",
		Help: "Trigger evaluator outcomes for non-command messages",
	}, []string{"outcome"})

	DigestRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_digest_refreshes_total",
		Help: "Rolling digest refresh attempts by status",
	}, []string{"status"})

	CollaboratorRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "assistant_collaborator_request_duration_seconds",
		Help:    "Duration of external collaborator requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"collaborator"})
)
