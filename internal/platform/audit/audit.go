// Package audit records system events (batch runs, sent messages, flagged
// danger signs) for operational follow-up. Recording is fire-and-forget: a
// failing sink must never block or fail the operation being audited.
package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Event kinds written to the system log.
const (
	EventCronRun             = "CRON_RUN"
	EventSMSSent             = "SMS_SENT"
	EventSMSFailed           = "SMS_FAILED"
	EventMissedVisit         = "MISSED_VISIT"
	EventMissedVaccine       = "MISSED_VACCINE"
	EventDangerSign          = "DANGER_SIGN"
	EventPregnancyRegistered = "PREGNANCY_REGISTERED"
	EventDeliveryRecorded    = "DELIVERY_RECORDED"
)

// Sink accepts audit events. Implementations swallow their own failures.
type Sink interface {
	Record(ctx context.Context, eventKind, description string, metadata map[string]any)
}

// PGSink writes events to the system_logs table.
type PGSink struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewPGSink(pool *pgxpool.Pool, logger zerolog.Logger) *PGSink {
	return &PGSink{pool: pool, logger: logger}
}

func (s *PGSink) Record(ctx context.Context, eventKind, description string, metadata map[string]any) {
	var meta []byte
	if metadata != nil {
		meta, _ = json.Marshal(metadata)
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO system_logs (event_kind, description, metadata, created_at) VALUES ($1, $2, $3, $4)`,
		eventKind, description, meta, time.Now().UTC(),
	)
	if err != nil {
		// Auditing must never fail the audited operation.
		s.logger.Warn().Err(err).Str("event_kind", eventKind).Msg("audit write failed")
	}
}

// LogSink emits events to the logger only. Used for dry runs and tests.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(_ context.Context, eventKind, description string, metadata map[string]any) {
	s.logger.Info().
		Str("event_kind", eventKind).
		Interface("metadata", metadata).
		Msg(description)
}

// MemorySink collects events in memory for assertions in tests.
type MemorySink struct {
	mu     sync.Mutex
	events []RecordedEvent
}

// RecordedEvent is a single captured audit event.
type RecordedEvent struct {
	Kind        string
	Description string
	Metadata    map[string]any
}

func (s *MemorySink) Record(_ context.Context, eventKind, description string, metadata map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, RecordedEvent{Kind: eventKind, Description: description, Metadata: metadata})
}

// Events returns a copy of the captured events.
func (s *MemorySink) Events() []RecordedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedEvent, len(s.events))
	copy(out, s.events)
	return out
}
