package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payhook/internal/config"
	"payhook/internal/core/reconcile"
	httpx "payhook/internal/http"
	"payhook/internal/provider/chapa"
	"payhook/internal/services/data"
	"payhook/internal/services/notification"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook receiver",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			setupLogging(cfg.App)
			return serve(cfg)
		},
	}
}

func serve(cfg config.Cfg) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	verifier, err := chapa.NewVerifier(cfg.Chapa.WebhookSecret, cfg.Chapa.SignatureAlgorithm)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := notification.NewMetrics()
	if err := metrics.Register(reg); err != nil {
		return err
	}

	processor := notification.NewProcessor(store,
		notification.WithMaxAttempts(cfg.Processor.MaxCASAttempts),
		notification.WithMetrics(metrics),
	)

	if cfg.ReconcileEnabled() {
		client := chapa.NewClient(cfg.Chapa.APIBaseURL, cfg.Chapa.SecretKey, 15*time.Second)
		worker := reconcile.NewWorker(store, client, processor, cfg.Reconcile.Interval, cfg.Reconcile.StaleAfter)
		go worker.Run(ctx)
	}

	r := httpx.NewRouter(httpx.RouterDependencies{
		Config:      cfg,
		Verifier:    verifier,
		Processor:   processor,
		DataService: data.NewService(store),
		Gatherer:    reg,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.App.Port).
			Str("algorithm", verifier.Algorithm()).
			Str("backend", cfg.Store.Backend).
			Msg("payhook listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return err
	}
	cancel()

	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("server stopped")
	return nil
}
