package notification

import (
	"context"
	"errors"
	"time"

	"payhook/internal/domain/payment"
	"payhook/internal/store/repositories"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Outcome classifies what a single Process call did to the stored record.
type Outcome string

const (
	OutcomeApplied          Outcome = "applied"
	OutcomeNoop             Outcome = "noop"
	OutcomeConflict         Outcome = "conflict"
	OutcomeInvalid          Outcome = "invalid"
	OutcomeTransientFailure Outcome = "transient_failure"
)

// Result is returned by Process. Record is the stored state after the call
// when it is known, and the zero value otherwise.
type Result struct {
	Outcome Outcome
	Record  payment.Record
}

const (
	DefaultMaxAttempts     = 5
	defaultInitialInterval = 5 * time.Millisecond
	defaultMaxInterval     = 100 * time.Millisecond
)

// Processor applies notifications to payment records. It is the only writer
// of the record store and is safe for concurrent use.
type Processor struct {
	store       repositories.RecordStore
	maxAttempts int
	interval    time.Duration
	metrics     *Metrics
	now         func() time.Time
}

type Option func(*Processor)

// WithMaxAttempts bounds the number of compare-and-set attempts per call.
func WithMaxAttempts(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithRetryInterval sets the initial backoff between compare-and-set attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(p *Processor) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

func NewProcessor(store repositories.RecordStore, opts ...Option) *Processor {
	p := &Processor{
		store:       store,
		maxAttempts: DefaultMaxAttempts,
		interval:    defaultInitialInterval,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process applies one notification. The returned error is nil for applied and
// noop, and otherwise matches one of payment.ErrMalformedPayload,
// payment.ErrInvalidTransition or payment.ErrTransientStorage.
func (p *Processor) Process(ctx context.Context, n payment.Notification) (Result, error) {
	start := time.Now()
	logger := zerolog.Ctx(ctx).With().
		Str("reference", n.Reference).
		Str("status", string(n.Status)).
		Logger()

	res, err := p.process(ctx, n, &logger)
	p.metrics.observe(res.Outcome, time.Since(start))

	ev := logger.Info()
	switch res.Outcome {
	case OutcomeNoop:
		ev = logger.Debug()
	case OutcomeConflict, OutcomeInvalid:
		ev = logger.Warn().Err(err)
	case OutcomeTransientFailure:
		ev = logger.Error().Err(err)
	}
	ev.Str("outcome", string(res.Outcome)).
		Int64("version", res.Record.Version).
		Int64("deliveries", res.Record.Deliveries).
		Msg("notification processed")

	return res, err
}

func (p *Processor) process(ctx context.Context, n payment.Notification, logger *zerolog.Logger) (Result, error) {
	if err := n.Validate(); err != nil {
		return Result{Outcome: OutcomeInvalid}, err
	}
	if n.ReceivedAt.IsZero() {
		n.ReceivedAt = p.now()
	}

	var (
		res      Result
		attempts int
	)
	op := func() error {
		attempts++
		r, err := p.attempt(ctx, n, logger)
		res = r
		if errors.Is(err, repositories.ErrVersionConflict) {
			p.metrics.casRetry()
			logger.Debug().Int("attempt", attempts).Msg("record changed underneath, re-evaluating")
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	err := backoff.Retry(op, p.newBackOff(ctx))
	switch {
	case err == nil:
		return res, nil
	case errors.Is(err, payment.ErrInvalidTransition):
		return Result{Outcome: OutcomeConflict, Record: res.Record}, err
	case errors.Is(err, payment.ErrMalformedPayload):
		return Result{Outcome: OutcomeInvalid}, err
	case errors.Is(err, repositories.ErrVersionConflict):
		logger.Warn().Int("attempts", attempts).Msg("compare-and-set attempts exhausted")
		return Result{Outcome: OutcomeTransientFailure}, payment.TransientStorage(err)
	default:
		// store unavailable or context done
		return Result{Outcome: OutcomeTransientFailure}, payment.TransientStorage(err)
	}
}

// attempt runs one read-evaluate-write cycle. A returned
// repositories.ErrVersionConflict means the cycle may be repeated.
func (p *Processor) attempt(ctx context.Context, n payment.Notification, logger *zerolog.Logger) (Result, error) {
	cur, err := p.store.Get(ctx, n.Reference)
	if errors.Is(err, repositories.ErrNotFound) {
		rec, err := payment.NewRecord(n)
		if err != nil {
			return Result{}, err
		}
		if err := p.store.CompareAndSet(ctx, n.Reference, 0, rec); err != nil {
			return Result{}, err
		}
		rec.Version = 1
		return Result{Outcome: OutcomeApplied, Record: rec}, nil
	}
	if err != nil {
		return Result{}, err
	}

	if n.Amount != 0 && (n.Amount != cur.Amount || (n.Currency != "" && n.Currency != cur.Currency)) {
		logger.Warn().
			Int64("stored_amount", int64(cur.Amount)).
			Int64("notified_amount", int64(n.Amount)).
			Str("stored_currency", string(cur.Currency)).
			Str("notified_currency", string(n.Currency)).
			Msg("amount differs from stored record; keeping stored amount")
	}

	next, decision := cur.Evaluate(n)
	if decision == payment.DecisionReject {
		return Result{Outcome: OutcomeConflict, Record: cur}, payment.InvalidTransition(cur.Status, n.Status, n.Reference)
	}
	if err := p.store.CompareAndSet(ctx, n.Reference, cur.Version, next); err != nil {
		return Result{Record: cur}, err
	}
	next.Version = cur.Version + 1

	outcome := OutcomeApplied
	if decision == payment.DecisionNoop {
		outcome = OutcomeNoop
	}
	return Result{Outcome: outcome, Record: next}, nil
}

func (p *Processor) newBackOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.interval
	eb.MaxInterval = defaultMaxInterval
	if eb.MaxInterval < p.interval {
		eb.MaxInterval = p.interval
	}
	eb.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(p.maxAttempts-1)), ctx)
}
