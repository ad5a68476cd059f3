package postgres

import (
	"context"
	"errors"
	"time"

	"payhook/internal/domain/payment"
	"payhook/internal/store/repositories"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the record store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// recordStore implements RecordStore on top of the payment_records table.
type recordStore struct {
	db DB
}

// NewRecordStore creates a new payment record store
func NewRecordStore(db DB) repositories.RecordStore {
	return &recordStore{db: db}
}

const recordColumns = `reference, status, amount, currency, deliveries, version, created_at, updated_at`

func (s *recordStore) Get(ctx context.Context, reference string) (payment.Record, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+recordColumns+`
		  FROM payment_records
		 WHERE reference = $1`, reference)

	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return payment.Record{}, repositories.ErrNotFound
	}
	if err != nil {
		return payment.Record{}, repositories.Unavailable(err)
	}
	return rec, nil
}

// CompareAndSet inserts when expectedVersion is 0, otherwise updates only the
// row still carrying expectedVersion. The rank guard in the UPDATE keeps the
// stored rank monotonic even if a caller misbehaves.
func (s *recordStore) CompareAndSet(ctx context.Context, reference string, expectedVersion int64, next payment.Record) error {
	if expectedVersion == 0 {
		tag, err := s.db.Exec(ctx, `
			INSERT INTO payment_records (
				reference, status, status_rank, amount, currency, deliveries, version, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8)
			ON CONFLICT (reference) DO NOTHING`,
			reference, string(next.Status), next.Rank(), int64(next.Amount), string(next.Currency),
			next.Deliveries, next.CreatedAt, next.UpdatedAt,
		)
		if err != nil {
			return repositories.Unavailable(err)
		}
		if tag.RowsAffected() == 0 {
			return repositories.ErrVersionConflict
		}
		return nil
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE payment_records
		   SET status      = $3,
		       status_rank = $4,
		       amount      = $5,
		       currency    = $6,
		       deliveries  = $7,
		       updated_at  = $8,
		       version     = version + 1
		 WHERE reference = $1
		   AND version = $2
		   AND status_rank <= $4`,
		reference, expectedVersion, string(next.Status), next.Rank(), int64(next.Amount),
		string(next.Currency), next.Deliveries, next.UpdatedAt,
	)
	if err != nil {
		return repositories.Unavailable(err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM payment_records WHERE reference = $1)`, reference).Scan(&exists); err != nil {
		return repositories.Unavailable(err)
	}
	if !exists {
		return repositories.ErrNotFound
	}
	return repositories.ErrVersionConflict
}

func (s *recordStore) ListByStatus(ctx context.Context, status payment.Status, updatedBefore time.Time, limit int) ([]payment.Record, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	var before *time.Time
	if !updatedBefore.IsZero() {
		before = &updatedBefore
	}

	rows, err := s.db.Query(ctx, `
		SELECT `+recordColumns+`
		  FROM payment_records
		 WHERE status = $1
		   AND ($2::timestamptz IS NULL OR updated_at < $2)
		 ORDER BY updated_at ASC
		 LIMIT $3`,
		string(status), before, limit,
	)
	if err != nil {
		return nil, repositories.Unavailable(err)
	}
	defer rows.Close()

	var out []payment.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, repositories.Unavailable(err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, repositories.Unavailable(err)
	}
	return out, nil
}

// scanRecord scans a single row into a payment record
func scanRecord(row pgx.Row) (payment.Record, error) {
	var (
		rec      payment.Record
		status   string
		amount   int64
		currency string
	)
	err := row.Scan(
		&rec.Reference, &status, &amount, &currency,
		&rec.Deliveries, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return payment.Record{}, err
	}
	rec.Status = payment.Status(status)
	rec.Amount = payment.Money(amount)
	rec.Currency = payment.Currency(currency)
	return rec, nil
}
