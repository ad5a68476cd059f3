package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payhook/internal/domain/payment"
)

var (
	// ErrNotFound is returned when no record exists for a reference.
	ErrNotFound = errors.New("payment record not found")
	// ErrVersionConflict is returned by CompareAndSet when the stored version
	// is not the expected one, including a create racing another create.
	ErrVersionConflict = errors.New("payment record version conflict")
	// ErrUnavailable wraps backend failures. It is the only retryable class.
	ErrUnavailable = errors.New("payment store unavailable")
)

// RecordStore defines the contract for payment record data access
type RecordStore interface {
	Get(ctx context.Context, reference string) (payment.Record, error)
	// CompareAndSet writes next only if the stored version equals
	// expectedVersion. expectedVersion 0 creates the record and fails with
	// ErrVersionConflict if it already exists. The stored version after a
	// successful write is expectedVersion+1.
	CompareAndSet(ctx context.Context, reference string, expectedVersion int64, next payment.Record) error
	// ListByStatus returns records in status last updated before the cutoff,
	// oldest first. A zero cutoff means no bound.
	ListByStatus(ctx context.Context, status payment.Status, updatedBefore time.Time, limit int) ([]payment.Record, error)
}

// Unavailable wraps a backend error as ErrUnavailable.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
