package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"payhook/internal/domain/payment"
	"payhook/internal/store/repositories"
)

func TestCompareAndSet(t *testing.T) {
	ctx := context.Background()
	s := NewRecordStore()

	if _, err := s.Get(ctx, "tx-1"); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	rec := payment.Record{Status: payment.StatusInitiated, Amount: 100, Deliveries: 1}
	if err := s.CompareAndSet(ctx, "tx-1", 0, rec); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CompareAndSet(ctx, "tx-1", 0, rec); !errors.Is(err, repositories.ErrVersionConflict) {
		t.Fatalf("second create must conflict, got %v", err)
	}

	got, _ := s.Get(ctx, "tx-1")
	if got.Version != 1 || got.Reference != "tx-1" {
		t.Fatalf("unexpected stored record %+v", got)
	}

	got.Status = payment.StatusSuccess
	if err := s.CompareAndSet(ctx, "tx-1", 1, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.CompareAndSet(ctx, "tx-1", 1, got); !errors.Is(err, repositories.ErrVersionConflict) {
		t.Fatalf("stale update must conflict, got %v", err)
	}

	got.Status = payment.StatusInitiated
	if err := s.CompareAndSet(ctx, "tx-1", 2, got); !errors.Is(err, repositories.ErrVersionConflict) {
		t.Fatalf("rank decrease must conflict, got %v", err)
	}

	if err := s.CompareAndSet(ctx, "tx-2", 3, rec); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("update of absent reference must be not found, got %v", err)
	}
}

func TestListByStatus(t *testing.T) {
	ctx := context.Background()
	s := NewRecordStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, ref := range []string{"c", "a", "b"} {
		_ = s.CompareAndSet(ctx, ref, 0, payment.Record{
			Status:    payment.StatusInitiated,
			UpdatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	_ = s.CompareAndSet(ctx, "d", 0, payment.Record{Status: payment.StatusSuccess, UpdatedAt: base})

	out, err := s.ListByStatus(ctx, payment.StatusInitiated, base.Add(90*time.Minute), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 2 || out[0].Reference != "c" || out[1].Reference != "a" {
		t.Fatalf("unexpected list %+v", out)
	}
}

func TestCancelledContextIsUnavailable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRecordStore().Get(ctx, "x"); !errors.Is(err, repositories.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
