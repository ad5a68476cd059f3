package reconcile

import (
	"context"
	"errors"
	"time"

	"payhook/internal/domain/payment"
	"payhook/internal/provider/chapa"
	"payhook/internal/services/notification"
	"payhook/internal/store/repositories"

	"github.com/rs/zerolog/log"
)

// TransactionVerifier fetches the processor-side state of a transaction.
type TransactionVerifier interface {
	VerifyTransaction(ctx context.Context, txRef string) (payment.Notification, error)
}

type Processor interface {
	Process(ctx context.Context, n payment.Notification) (notification.Result, error)
}

// Worker polls Chapa for payments stuck in initiated and feeds any settled
// status back through the processor, so reconciliation writes go through the
// same state machine as webhooks.
type Worker struct {
	store      repositories.RecordStore
	verifier   TransactionVerifier
	processor  Processor
	pollEvery  time.Duration
	staleAfter time.Duration
	batch      int
	now        func() time.Time
}

func NewWorker(store repositories.RecordStore, verifier TransactionVerifier, processor Processor, pollEvery, staleAfter time.Duration) *Worker {
	if pollEvery <= 0 {
		pollEvery = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	return &Worker{
		store:      store,
		verifier:   verifier,
		processor:  processor,
		pollEvery:  pollEvery,
		staleAfter: staleAfter,
		batch:      50,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (w *Worker) Run(ctx context.Context) {
	log.Info().Dur("poll_every", w.pollEvery).Dur("stale_after", w.staleAfter).Msg("reconcile worker: started")
	t := time.NewTicker(w.pollEvery)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("reconcile worker: stopping")
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	cutoff := w.now().Add(-w.staleAfter)
	recs, err := w.store.ListByStatus(ctx, payment.StatusInitiated, cutoff, w.batch)
	if err != nil {
		log.Error().Err(err).Msg("reconcile worker: list pending failed")
		return
	}
	if len(recs) == 0 {
		return
	}
	log.Debug().Int("count", len(recs)).Msg("reconcile worker: checking pending payments")

	for _, rec := range recs {
		if ctx.Err() != nil {
			return
		}
		if err := w.handleOne(ctx, rec); err != nil {
			// left in initiated; picked up again next tick
			log.Error().Err(err).Str("reference", rec.Reference).Msg("reconcile worker: verification failed")
		}
	}
}

func (w *Worker) handleOne(ctx context.Context, rec payment.Record) error {
	n, err := w.verifier.VerifyTransaction(ctx, rec.Reference)
	if errors.Is(err, chapa.ErrTransactionNotFound) {
		log.Debug().Str("reference", rec.Reference).Msg("reconcile worker: unknown to chapa")
		return nil
	}
	if err != nil {
		return err
	}
	if n.Status != payment.StatusSuccess && n.Status != payment.StatusFailed {
		return nil
	}

	res, err := w.processor.Process(ctx, n)
	if res.Outcome == notification.OutcomeTransientFailure {
		return err
	}
	log.Info().
		Str("reference", rec.Reference).
		Str("status", string(n.Status)).
		Str("outcome", string(res.Outcome)).
		Msg("reconcile worker: payment settled")
	return nil
}
