package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"payhook/internal/domain/payment"
	"payhook/internal/provider/chapa"
	"payhook/internal/services/notification"

	"github.com/rs/zerolog"
)

// NotificationProcessor applies one verified notification.
type NotificationProcessor interface {
	Process(ctx context.Context, n payment.Notification) (notification.Result, error)
}

// WebhookOptions configures the Chapa webhook endpoint.
type WebhookOptions struct {
	SignatureHeader string
	MaxBodyBytes    int64
}

// ChapaWebhook receives payment-status notifications. The body is checked for
// well-formed JSON before the signature, and the processor runs exactly once
// per authenticated, parsable request.
func ChapaWebhook(verifier *chapa.Verifier, proc NotificationProcessor, opts WebhookOptions) http.HandlerFunc {
	if opts.SignatureHeader == "" {
		opts.SignatureHeader = chapa.SignatureHeader
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}

	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, opts.MaxBodyBytes))
		if err != nil {
			logger.Warn().Err(err).Msg("webhook body unreadable")
			http.Error(w, "unreadable body", http.StatusBadRequest)
			return
		}
		if !json.Valid(body) {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}

		sig := r.Header.Get(opts.SignatureHeader)
		if sig == "" {
			sig = r.Header.Get(chapa.LegacySignatureHeader)
		}
		if !verifier.Verify(body, sig) {
			logger.Warn().Bool("signature_present", sig != "").Msg("webhook signature rejected")
			http.Error(w, "invalid signature", http.StatusForbidden)
			return
		}

		n, err := chapa.ParseWebhook(body, sig, time.Now().UTC())
		if err != nil {
			logger.Warn().Err(err).Msg("webhook payload rejected")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		res, err := proc.Process(r.Context(), n)
		switch res.Outcome {
		case notification.OutcomeApplied:
			writeText(w, http.StatusOK, "ok")
		case notification.OutcomeNoop:
			writeText(w, http.StatusOK, "duplicate")
		case notification.OutcomeConflict:
			writeText(w, http.StatusBadRequest, "conflicting status")
		case notification.OutcomeInvalid:
			writeText(w, http.StatusBadRequest, "invalid notification")
		default:
			logger.Error().Err(err).Str("reference", n.Reference).Msg("webhook processing failed")
			writeText(w, http.StatusInternalServerError, "temporarily unavailable")
		}
	}
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, msg+"\n")
}
