package payment

import (
	"errors"
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusInitiated, StatusSuccess, true},
		{StatusInitiated, StatusFailed, true},
		{StatusSuccess, StatusRefunded, true},
		{StatusInitiated, StatusRefunded, false},
		{StatusSuccess, StatusFailed, false},
		{StatusFailed, StatusSuccess, false},
		{StatusFailed, StatusRefunded, false},
		{StatusSuccess, StatusInitiated, false},
		{StatusRefunded, StatusSuccess, false},
		{StatusSuccess, StatusSuccess, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if st, ok := ParseStatus(" Success "); !ok || st != StatusSuccess {
		t.Fatalf("expected success, got %q ok=%v", st, ok)
	}
	if _, ok := ParseStatus("pending"); ok {
		t.Fatal("pending must not parse as a known status")
	}
}

func TestNewRecordRejectsRefundWithoutHistory(t *testing.T) {
	_, err := NewRecord(Notification{Reference: "tx-9", Status: StatusRefunded, Amount: 100})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestNewRecordValidates(t *testing.T) {
	if _, err := NewRecord(Notification{Status: StatusSuccess}); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected malformed payload for missing reference, got %v", err)
	}
	if _, err := NewRecord(Notification{Reference: "tx", Status: StatusSuccess, Amount: -1}); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected malformed payload for negative amount, got %v", err)
	}
}

func TestEvaluate(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rec, err := NewRecord(Notification{Reference: "tx-001", Status: StatusInitiated, Amount: 5000, Currency: ETB, ReceivedAt: at})
	if err != nil {
		t.Fatalf("new record: %v", err)
	}

	next, d := rec.Evaluate(Notification{Reference: "tx-001", Status: StatusSuccess, Amount: 5000, ReceivedAt: at.Add(time.Minute)})
	if d != DecisionApply || next.Status != StatusSuccess || next.Deliveries != 2 {
		t.Fatalf("unexpected apply result %+v decision=%v", next, d)
	}
	if !next.UpdatedAt.Equal(at.Add(time.Minute)) {
		t.Fatalf("updated_at not advanced: %v", next.UpdatedAt)
	}

	dup, d := next.Evaluate(Notification{Reference: "tx-001", Status: StatusSuccess, ReceivedAt: at.Add(2 * time.Minute)})
	if d != DecisionNoop || dup.Deliveries != 3 || !dup.UpdatedAt.Equal(next.UpdatedAt) {
		t.Fatalf("unexpected noop result %+v decision=%v", dup, d)
	}

	back, d := dup.Evaluate(Notification{Reference: "tx-001", Status: StatusInitiated})
	if d != DecisionReject || back != dup {
		t.Fatalf("regression must be rejected and leave record untouched, got %+v decision=%v", back, d)
	}

	refunded, d := dup.Evaluate(Notification{Reference: "tx-001", Status: StatusRefunded, Amount: 1})
	if d != DecisionApply || refunded.Status != StatusRefunded || refunded.Amount != 5000 {
		t.Fatalf("refund must apply and keep amount, got %+v decision=%v", refunded, d)
	}
}
