package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/afyamama/afyamama/internal/platform/audit"
	"github.com/afyamama/afyamama/internal/platform/clock"
	"github.com/afyamama/afyamama/internal/platform/sms"
)

// Tracker pushes pending reminders through the SMS gateway and follows each
// message through its delivery lifecycle, retrying transient failures with
// exponential backoff.
type Tracker struct {
	sent    SentRepository
	sender  sms.Sender
	clk     clock.Clock
	auditor audit.Sink
	logger  zerolog.Logger
}

func NewTracker(sent SentRepository, sender sms.Sender, clk clock.Clock, auditor audit.Sink, logger zerolog.Logger) *Tracker {
	return &Tracker{
		sent:    sent,
		sender:  sender,
		clk:     clk,
		auditor: auditor,
		logger:  logger,
	}
}

// DispatchPending sends every PENDING reminder whose scheduled time has
// arrived. Returns (sent, failed) counts. A failing message is recorded and
// skipped; the batch always runs to completion.
func (t *Tracker) DispatchPending(ctx context.Context) (int, int, error) {
	now := t.clk.Now()
	pending, err := t.sent.ListPending(ctx, now)
	if err != nil {
		return 0, 0, err
	}

	sent, failed := 0, 0
	for _, r := range pending {
		if t.dispatch(ctx, r) {
			sent++
		} else {
			failed++
		}
	}
	return sent, failed, nil
}

// RetrySweep re-sends failed reminders whose backoff window has elapsed.
func (t *Tracker) RetrySweep(ctx context.Context) (int, int, error) {
	now := t.clk.Now()
	retryable, err := t.sent.ListRetryable(ctx, now)
	if err != nil {
		return 0, 0, err
	}

	sent, failed := 0, 0
	for _, r := range retryable {
		if t.dispatch(ctx, r) {
			sent++
		} else {
			failed++
		}
	}
	return sent, failed, nil
}

func (t *Tracker) dispatch(ctx context.Context, r *SentReminder) bool {
	result, err := t.sender.Send(ctx, r.PhoneNumber, r.MessageContent)
	if err != nil {
		t.recordFailure(ctx, r, err)
		return false
	}

	now := t.clk.Now()
	r.DeliveryStatus = StatusSent
	r.SentAt = &now
	r.GatewayMessageID = result.ProviderMessageID
	if err := t.sent.Update(ctx, r); err != nil {
		t.logger.Error().Err(err).Str("reminder_id", r.ID.String()).Msg("persist sent status failed")
		return false
	}

	t.auditor.Record(ctx, audit.EventSMSSent,
		fmt.Sprintf("%s SMS sent to %s", r.Kind, r.PhoneNumber),
		map[string]any{"reminder_id": r.ID.String(), "gateway_message_id": result.ProviderMessageID})
	return true
}

// recordFailure classifies the error. Invalid numbers and gateway rejections
// are terminal; everything else is retried with 2^n-hour backoff until
// retries are exhausted.
func (t *Tracker) recordFailure(ctx context.Context, r *SentReminder, sendErr error) {
	switch {
	case errors.Is(sendErr, sms.ErrInvalidNumber):
		r.DeliveryStatus = StatusInvalidNumber
	case errors.Is(sendErr, sms.ErrRejected):
		r.DeliveryStatus = StatusRejected
	default:
		r.DeliveryStatus = StatusFailed
		if r.RetryCount < r.MaxRetries {
			r.RetryCount++
			next := t.clk.Now().Add(time.Duration(1<<r.RetryCount) * time.Hour)
			r.NextRetryAt = &next
		}
	}
	r.GatewayResponse = sendErr.Error()

	if err := t.sent.Update(ctx, r); err != nil {
		t.logger.Error().Err(err).Str("reminder_id", r.ID.String()).Msg("persist failed status failed")
		return
	}
	t.auditor.Record(ctx, audit.EventSMSFailed,
		fmt.Sprintf("%s SMS to %s failed: %s", r.Kind, r.PhoneNumber, r.DeliveryStatus),
		map[string]any{"reminder_id": r.ID.String(), "error": sendErr.Error()})
}

// HandleDeliveryReport applies a gateway delivery callback. Unknown message
// ids are an error so misconfigured webhooks surface instead of vanishing.
func (t *Tracker) HandleDeliveryReport(ctx context.Context, gatewayMessageID, status string) error {
	r, err := t.sent.GetByGatewayMessageID(ctx, gatewayMessageID)
	if err != nil {
		return fmt.Errorf("unknown gateway message id %q: %w", gatewayMessageID, err)
	}

	switch status {
	case StatusDelivered:
		now := t.clk.Now()
		r.DeliveryStatus = StatusDelivered
		r.DeliveredAt = &now
	case StatusFailed:
		r.DeliveryStatus = StatusFailed
		if r.RetryCount < r.MaxRetries {
			r.RetryCount++
			next := t.clk.Now().Add(time.Duration(1<<r.RetryCount) * time.Hour)
			r.NextRetryAt = &next
		}
	case StatusRejected:
		r.DeliveryStatus = StatusRejected
	default:
		return fmt.Errorf("unknown delivery status %q", status)
	}
	return t.sent.Update(ctx, r)
}
