package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"payhook/internal/domain/payment"
	"payhook/internal/store/repositories"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RecordStore keeps each record as a JSON string under <prefix>:record:<ref>
// and indexes references per status in a sorted set scored by updated_at
// (unix millis). Compare-and-set uses WATCH/MULTI on the record key.
type RecordStore struct {
	client goredis.UniversalClient
	prefix string
}

var _ repositories.RecordStore = (*RecordStore)(nil)

func NewRecordStore(client goredis.UniversalClient, prefix string) *RecordStore {
	if prefix == "" {
		prefix = "payhook"
	}
	return &RecordStore{client: client, prefix: prefix}
}

// MustConnect opens a client and pings it, exiting the process on failure.
func MustConnect(ctx context.Context, addr, password string, db int) *goredis.Client {
	client := goredis.NewClient(&goredis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", addr).Msg("redis ping fail")
	}
	return client
}

func (s *RecordStore) recordKey(reference string) string {
	return s.prefix + ":record:" + reference
}

func (s *RecordStore) statusKey(status payment.Status) string {
	return s.prefix + ":status:" + string(status)
}

func (s *RecordStore) Get(ctx context.Context, reference string) (payment.Record, error) {
	raw, err := s.client.Get(ctx, s.recordKey(reference)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return payment.Record{}, repositories.ErrNotFound
	}
	if err != nil {
		return payment.Record{}, repositories.Unavailable(err)
	}
	return decode(raw)
}

func (s *RecordStore) CompareAndSet(ctx context.Context, reference string, expectedVersion int64, next payment.Record) error {
	key := s.recordKey(reference)
	var outcome error

	err := s.client.Watch(ctx, func(tx *goredis.Tx) error {
		var prev payment.Status

		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, goredis.Nil):
			if expectedVersion != 0 {
				outcome = repositories.ErrNotFound
				return nil
			}
		case err != nil:
			return err
		default:
			if expectedVersion == 0 {
				outcome = repositories.ErrVersionConflict
				return nil
			}
			cur, err := decode(raw)
			if err != nil {
				return err
			}
			if cur.Version != expectedVersion || next.Rank() < cur.Rank() {
				outcome = repositories.ErrVersionConflict
				return nil
			}
			prev = cur.Status
		}

		next.Reference = reference
		next.Version = expectedVersion + 1
		data, err := json.Marshal(next)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			if prev != "" && prev != next.Status {
				pipe.ZRem(ctx, s.statusKey(prev), reference)
			}
			pipe.ZAdd(ctx, s.statusKey(next.Status), goredis.Z{
				Score:  float64(next.UpdatedAt.UnixMilli()),
				Member: reference,
			})
			return nil
		})
		return err
	}, key)

	if errors.Is(err, goredis.TxFailedErr) {
		return repositories.ErrVersionConflict
	}
	if err != nil {
		return repositories.Unavailable(err)
	}
	return outcome
}

func (s *RecordStore) ListByStatus(ctx context.Context, status payment.Status, updatedBefore time.Time, limit int) ([]payment.Record, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	max := "+inf"
	if !updatedBefore.IsZero() {
		max = "(" + strconv.FormatInt(updatedBefore.UnixMilli(), 10)
	}

	refs, err := s.client.ZRangeByScore(ctx, s.statusKey(status), &goredis.ZRangeBy{
		Min:   "-inf",
		Max:   max,
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, repositories.Unavailable(err)
	}
	if len(refs) == 0 {
		return nil, nil
	}

	keys := make([]string, len(refs))
	for i, ref := range refs {
		keys[i] = s.recordKey(ref)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, repositories.Unavailable(err)
	}

	out := make([]payment.Record, 0, len(vals))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			// index entry without a record; skip rather than fail the listing
			log.Warn().Str("reference", refs[i]).Msg("redis status index points at missing record")
			continue
		}
		rec, err := decode([]byte(str))
		if err != nil {
			return nil, err
		}
		// the index may lag a concurrent transition
		if rec.Status == status {
			out = append(out, rec)
		}
	}
	return out, nil
}

func decode(raw []byte) (payment.Record, error) {
	var rec payment.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return payment.Record{}, fmt.Errorf("decode payment record: %w", err)
	}
	return rec, nil
}
