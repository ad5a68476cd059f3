package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"payhook/internal/domain/payment"
	"payhook/internal/store/repositories"
)

// RecordStore keeps payment records in a map guarded by a mutex. It exists
// for tests and for running the receiver without external dependencies; it
// provides no persistence across restarts.
type RecordStore struct {
	mu      sync.Mutex
	records map[string]payment.Record
}

func NewRecordStore() *RecordStore {
	return &RecordStore{records: make(map[string]payment.Record)}
}

var _ repositories.RecordStore = (*RecordStore)(nil)

func (s *RecordStore) Get(ctx context.Context, reference string) (payment.Record, error) {
	if err := ctx.Err(); err != nil {
		return payment.Record{}, repositories.Unavailable(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[reference]
	if !ok {
		return payment.Record{}, repositories.ErrNotFound
	}
	return rec, nil
}

func (s *RecordStore) CompareAndSet(ctx context.Context, reference string, expectedVersion int64, next payment.Record) error {
	if err := ctx.Err(); err != nil {
		return repositories.Unavailable(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.records[reference]
	switch {
	case expectedVersion == 0 && ok:
		return repositories.ErrVersionConflict
	case expectedVersion != 0 && !ok:
		return repositories.ErrNotFound
	case ok && (cur.Version != expectedVersion || next.Rank() < cur.Rank()):
		return repositories.ErrVersionConflict
	}

	next.Reference = reference
	next.Version = expectedVersion + 1
	s.records[reference] = next
	return nil
}

func (s *RecordStore) ListByStatus(ctx context.Context, status payment.Status, updatedBefore time.Time, limit int) ([]payment.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, repositories.Unavailable(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []payment.Record
	for _, rec := range s.records {
		if rec.Status != status {
			continue
		}
		if !updatedBefore.IsZero() && !rec.UpdatedAt.Before(updatedBefore) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
