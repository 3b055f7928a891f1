package sms

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestValidNumber(t *testing.T) {
	cases := []struct {
		number string
		want   bool
	}{
		{"+254712345678", true},
		{"0712345678", true},
		{"+254112345678", true},
		{"712345678", false},
		{"+25571234567", false},
		{"not-a-number", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := ValidNumber(tc.number); got != tc.want {
			t.Errorf("ValidNumber(%q) = %v, want %v", tc.number, got, tc.want)
		}
	}
}

func TestConsoleSenderRejectsInvalidNumber(t *testing.T) {
	s := NewConsoleSender(zerolog.Nop(), "AFYAMAMA")

	_, err := s.Send(context.Background(), "12345", "hello")
	if !errors.Is(err, ErrInvalidNumber) {
		t.Fatalf("expected ErrInvalidNumber, got %v", err)
	}

	res, err := s.Send(context.Background(), "+254712345678", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ProviderMessageID == "" {
		t.Error("expected a provider message id")
	}
}

func TestMockSenderRecordsCalls(t *testing.T) {
	m := &MockSender{}
	if _, err := m.Send(context.Background(), "+254712345678", "first"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.FailErr = errors.New("gateway timeout")
	if _, err := m.Send(context.Background(), "+254712345678", "second"); err == nil {
		t.Fatal("expected error from failing mock")
	}

	calls := m.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 recorded calls, got %d", len(calls))
	}
	if calls[1].Message != "second" {
		t.Errorf("unexpected second call: %+v", calls[1])
	}
}
