package httpx

import (
	"encoding/json"
	"net/http"

	"payhook/internal/config"
	"payhook/internal/http/handlers"
	middlewarex "payhook/internal/http/middleware"
	"payhook/internal/provider/chapa"
	"payhook/internal/services/data"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RouterDependencies holds all dependencies for the HTTP router
type RouterDependencies struct {
	Config      config.Cfg
	Verifier    *chapa.Verifier
	Processor   handlers.NotificationProcessor
	DataService *data.Service
	Gatherer    prometheus.Gatherer // nil disables /metrics
	Logger      *zerolog.Logger     // defaults to the global logger
}

func NewRouter(deps RouterDependencies) http.Handler {
	logger := log.Logger
	if deps.Logger != nil {
		logger = *deps.Logger
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(middlewarex.RequestLogger(logger))
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"env":     deps.Config.App.Env,
			"backend": deps.Config.Store.Backend,
		})
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	// Webhook endpoints (public, authenticated by signature)
	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/chapa", handlers.ChapaWebhook(deps.Verifier, deps.Processor, handlers.WebhookOptions{
			SignatureHeader: deps.Config.Chapa.SignatureHeader,
			MaxBodyBytes:    deps.Config.Chapa.MaxBodyBytes,
		}))
	})

	// Read API for collaborators (protected by admin token)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarex.AdminAuth(deps.Config.Sec.AdminToken))

		r.Get("/payments", handlers.ListPayments(deps.DataService))
		r.Get("/payments/{reference}", handlers.GetPayment(deps.DataService))
	})

	return r
}
