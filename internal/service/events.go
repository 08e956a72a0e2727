package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// EvaluationCompletedEvent announces a persisted evaluation to interested
// consumers (notification workers, realtime feeds).
type EvaluationCompletedEvent struct {
	UserID    uint      `json:"user_id"`
	HistoryID uint      `json:"history_id"`
	Score     int       `json:"score"`
	Points    int       `json:"points"`
	SentAt    time.Time `json:"sent_at"`
}

// EventPublisher emits evaluation lifecycle events. Publishing is best effort;
// failures are logged and never fail the evaluation.
type EventPublisher interface {
	EvaluationCompleted(ctx context.Context, event EvaluationCompletedEvent)
}

type natsEventPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
	now     func() time.Time
}

// NewNATSEventPublisher constructs a publisher over the given connection. A
// nil connection yields a publisher that only logs at debug level, so callers
// never need to special-case a disabled event bus.
func NewNATSEventPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) EventPublisher {
	if subject == "" {
		subject = "devmate.evaluations.completed"
	}

	return &natsEventPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "event_publisher").Logger(),
		now:     time.Now,
	}
}

func (p *natsEventPublisher) EvaluationCompleted(ctx context.Context, event EvaluationCompletedEvent) {
	event.SentAt = p.now()

	if p.conn == nil {
		p.logger.Debug().Uint("history_id", event.HistoryID).Msg("event bus disabled, dropping event")
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to marshal evaluation event")
		return
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		p.logger.Warn().Err(err).Str("subject", p.subject).Msg("failed to publish evaluation event")
	}
}
