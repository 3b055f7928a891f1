// Package sms defines the outbound SMS transport boundary. The reminder
// delivery tracker hands rendered messages to a Sender and classifies the
// outcome; everything gateway-specific stays behind the interface.
package sms

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrInvalidNumber marks a permanently undeliverable recipient. Callers must
// not retry sends that fail with this error.
var ErrInvalidNumber = errors.New("invalid phone number")

// ErrRejected marks a message the gateway refused (spam filter, blocklist).
var ErrRejected = errors.New("message rejected by gateway")

// Result reports the outcome of a successful send.
type Result struct {
	ProviderMessageID string
}

// Sender delivers a single SMS. Implementations are expected to be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, to, message string) (*Result, error)
}

// phonePattern accepts Kenyan MSISDNs: +254712345678 or 0712345678.
var phonePattern = regexp.MustCompile(`^(\+254|0)[17]\d{8}$`)

// ValidNumber reports whether the recipient is a plausible Kenyan mobile number.
func ValidNumber(to string) bool {
	return phonePattern.MatchString(to)
}

// ConsoleSender writes messages to the log instead of a gateway. Used in
// development and dry runs.
type ConsoleSender struct {
	Logger   zerolog.Logger
	SenderID string
}

func NewConsoleSender(logger zerolog.Logger, senderID string) *ConsoleSender {
	return &ConsoleSender{Logger: logger, SenderID: senderID}
}

func (s *ConsoleSender) Send(_ context.Context, to, message string) (*Result, error) {
	if !ValidNumber(to) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidNumber, to)
	}
	s.Logger.Info().
		Str("sender_id", s.SenderID).
		Str("to", to).
		Str("message", message).
		Msg("sms (console)")
	return &Result{ProviderMessageID: "console-" + uuid.New().String()}, nil
}

// Call records a single Send invocation on the mock.
type Call struct {
	To      string
	Message string
}

// MockSender is a test double for Sender.
type MockSender struct {
	mu      sync.Mutex
	calls   []Call
	FailErr error // returned by every Send when non-nil
}

func (m *MockSender) Send(_ context.Context, to, message string) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{To: to, Message: message})
	if m.FailErr != nil {
		return nil, m.FailErr
	}
	return &Result{ProviderMessageID: fmt.Sprintf("mock-%d", len(m.calls))}, nil
}

// Calls returns a copy of recorded sends.
func (m *MockSender) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}
