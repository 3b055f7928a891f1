package reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/afyamama/afyamama/internal/platform/audit"
	"github.com/afyamama/afyamama/internal/platform/clock"
	"github.com/afyamama/afyamama/internal/platform/sms"
)

func newTestTracker(now time.Time, sender sms.Sender) (*Tracker, *mockSentRepo, *audit.MemorySink) {
	clk := clock.NewFixed(now)
	sent := &mockSentRepo{records: make(map[uuid.UUID]*SentReminder), now: clk.Now}
	sink := &audit.MemorySink{}
	tr := NewTracker(sent, sender, clk, sink, zerolog.Nop())
	return tr, sent, sink
}

func pendingReminder(sent *mockSentRepo, scheduledAt time.Time) *SentReminder {
	r := &SentReminder{
		MotherID:       uuid.New(),
		PhoneNumber:    "+254712345678",
		Kind:           KindANCUpcoming,
		MessageContent: "Dear Mary, this is a reminder.",
		ScheduledAt:    scheduledAt,
	}
	_ = sent.Create(context.Background(), r)
	return r
}

func TestDispatchPending_Success(t *testing.T) {
	now := time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC)
	sender := &sms.MockSender{}
	tr, sent, sink := newTestTracker(now, sender)

	r := pendingReminder(sent, now.Add(-time.Hour))
	notDue := pendingReminder(sent, now.Add(time.Hour))

	sentCount, failed, err := tr.DispatchPending(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sentCount != 1 || failed != 0 {
		t.Fatalf("sent=%d failed=%d, want 1/0", sentCount, failed)
	}

	if r.DeliveryStatus != StatusSent {
		t.Errorf("status = %s, want SENT", r.DeliveryStatus)
	}
	if r.SentAt == nil || !r.SentAt.Equal(now) {
		t.Errorf("sent_at = %v, want %v", r.SentAt, now)
	}
	if r.GatewayMessageID == "" {
		t.Error("gateway message id should be recorded")
	}
	if notDue.DeliveryStatus != StatusPending {
		t.Errorf("future reminder status = %s, want PENDING", notDue.DeliveryStatus)
	}
	if len(sender.Calls()) != 1 {
		t.Errorf("gateway calls = %d, want 1", len(sender.Calls()))
	}

	found := false
	for _, e := range sink.Events() {
		if e.Kind == audit.EventSMSSent {
			found = true
		}
	}
	if !found {
		t.Error("expected an SMS_SENT audit event")
	}
}

func TestDispatchPending_FailureBacksOff(t *testing.T) {
	now := time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC)
	sender := &sms.MockSender{FailErr: errors.New("gateway timeout")}
	tr, sent, sink := newTestTracker(now, sender)

	r := pendingReminder(sent, now.Add(-time.Hour))

	sentCount, failed, err := tr.DispatchPending(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sentCount != 0 || failed != 1 {
		t.Fatalf("sent=%d failed=%d, want 0/1", sentCount, failed)
	}

	if r.DeliveryStatus != StatusFailed {
		t.Errorf("status = %s, want FAILED", r.DeliveryStatus)
	}
	if r.RetryCount != 1 {
		t.Errorf("retry_count = %d, want 1", r.RetryCount)
	}
	// First retry backs off 2^1 hours.
	wantRetry := now.Add(2 * time.Hour)
	if r.NextRetryAt == nil || !r.NextRetryAt.Equal(wantRetry) {
		t.Errorf("next_retry_at = %v, want %v", r.NextRetryAt, wantRetry)
	}

	found := false
	for _, e := range sink.Events() {
		if e.Kind == audit.EventSMSFailed {
			found = true
		}
	}
	if !found {
		t.Error("expected an SMS_FAILED audit event")
	}
}

func TestRetrySweep(t *testing.T) {
	now := time.Date(2025, 5, 12, 12, 0, 0, 0, time.UTC)
	sender := &sms.MockSender{}
	tr, sent, _ := newTestTracker(now, sender)

	due := pendingReminder(sent, now)
	due.DeliveryStatus = StatusFailed
	due.RetryCount = 1
	retryAt := now.Add(-time.Minute)
	due.NextRetryAt = &retryAt

	early := pendingReminder(sent, now)
	early.DeliveryStatus = StatusFailed
	early.RetryCount = 1
	laterAt := now.Add(time.Hour)
	early.NextRetryAt = &laterAt

	exhausted := pendingReminder(sent, now)
	exhausted.DeliveryStatus = StatusFailed
	exhausted.RetryCount = DefaultMaxRetries
	exhausted.NextRetryAt = &retryAt

	sentCount, failed, err := tr.RetrySweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sentCount != 1 || failed != 0 {
		t.Fatalf("sent=%d failed=%d, want 1/0", sentCount, failed)
	}
	if due.DeliveryStatus != StatusSent {
		t.Errorf("due retry status = %s, want SENT", due.DeliveryStatus)
	}
	if early.DeliveryStatus != StatusFailed || exhausted.DeliveryStatus != StatusFailed {
		t.Error("non-due retries must stay FAILED")
	}
}

func TestRetrySweep_BackoffDoubles(t *testing.T) {
	now := time.Date(2025, 5, 12, 12, 0, 0, 0, time.UTC)
	sender := &sms.MockSender{FailErr: errors.New("still down")}
	tr, sent, _ := newTestTracker(now, sender)

	r := pendingReminder(sent, now)
	r.DeliveryStatus = StatusFailed
	r.RetryCount = 1
	retryAt := now.Add(-time.Minute)
	r.NextRetryAt = &retryAt

	if _, _, err := tr.RetrySweep(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.RetryCount != 2 {
		t.Errorf("retry_count = %d, want 2", r.RetryCount)
	}
	wantRetry := now.Add(4 * time.Hour)
	if r.NextRetryAt == nil || !r.NextRetryAt.Equal(wantRetry) {
		t.Errorf("next_retry_at = %v, want %v", r.NextRetryAt, wantRetry)
	}
}

func TestDispatch_InvalidNumberIsTerminal(t *testing.T) {
	now := time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC)
	sender := &sms.MockSender{FailErr: sms.ErrInvalidNumber}
	tr, sent, _ := newTestTracker(now, sender)

	r := pendingReminder(sent, now.Add(-time.Hour))

	if _, _, err := tr.DispatchPending(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.DeliveryStatus != StatusInvalidNumber {
		t.Errorf("status = %s, want INVALID_NUMBER", r.DeliveryStatus)
	}
	if r.RetryCount != 0 || r.NextRetryAt != nil {
		t.Error("invalid numbers must not be scheduled for retry")
	}

	retryable, _ := sent.ListRetryable(context.Background(), now.Add(24*time.Hour))
	if len(retryable) != 0 {
		t.Errorf("retryable = %d, want 0", len(retryable))
	}
}

func TestHandleDeliveryReport(t *testing.T) {
	now := time.Date(2025, 5, 12, 9, 30, 0, 0, time.UTC)
	sender := &sms.MockSender{}
	tr, sent, _ := newTestTracker(now, sender)

	r := pendingReminder(sent, now.Add(-time.Hour))
	if _, _, err := tr.DispatchPending(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := tr.HandleDeliveryReport(context.Background(), r.GatewayMessageID, StatusDelivered); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.DeliveryStatus != StatusDelivered {
		t.Errorf("status = %s, want DELIVERED", r.DeliveryStatus)
	}
	if r.DeliveredAt == nil {
		t.Error("delivered_at should be set")
	}

	if err := tr.HandleDeliveryReport(context.Background(), "no-such-id", StatusDelivered); err == nil {
		t.Error("unknown gateway message id should error")
	}
	if err := tr.HandleDeliveryReport(context.Background(), r.GatewayMessageID, "WEIRD"); err == nil {
		t.Error("unknown status should error")
	}
}
