// Package server wires the engine together and owns the HTTP server
// lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"minewatch/internal/api"
	"minewatch/internal/auth"
	"minewatch/internal/config"
	"minewatch/internal/events"
	"minewatch/internal/ledger"
	"minewatch/internal/logger"
	"minewatch/internal/registry"
	"minewatch/internal/store"
)

// Server is the high-level coordinator for the monitoring service.
type Server struct {
	cfg        *config.Config
	store      store.Store
	sink       events.Sink
	httpServer *http.Server
	wg         sync.WaitGroup
}

// New constructs the server: storage backend, change-event sink,
// access gate, registry, ledger, and the HTTP routing table.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	log := logger.WithComponent("server")

	var (
		st  store.Store
		err error
	)

	if cfg.DataPath != "" {
		st, err = store.OpenSQLite(ctx, cfg.DataPath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}

		log.Info().Str("path", cfg.DataPath).Msg("sqlite store opened")
	} else {
		st = store.NewMemoryStore()
		log.Warn().Msg("no data path configured, state is in-memory only")
	}

	var sink events.Sink = events.NopSink{}
	if len(cfg.Kafka.Brokers) > 0 {
		sink = events.NewKafkaSink(events.KafkaSinkConfig{
			Brokers:   cfg.Kafka.Brokers,
			Topic:     cfg.Kafka.Topic,
			QueueSize: cfg.Kafka.QueueSize,
		})

		log.Info().
			Strs("brokers", cfg.Kafka.Brokers).
			Str("topic", cfg.Kafka.Topic).
			Msg("kafka event sink initialized")
	}

	var provider auth.Provider
	if cfg.JWTSecret != "" {
		provider = auth.NewJWTProvider(cfg.JWTSecret)
	} else {
		log.Warn().Msg("no jwt secret configured, all mutations will be rejected")
	}

	reg := registry.New(registry.Config{
		Store:     st,
		Sink:      sink,
		Amplitude: cfg.RefreshAmplitude,
	})

	led := ledger.New(ledger.Config{
		Store: st,
		Sink:  sink,
	})

	handler := api.NewHandler(reg, led, auth.NewGate(provider))

	s := &Server{
		cfg:   cfg,
		store: st,
		sink:  sink,
		httpServer: &http.Server{
			Addr:         cfg.ListenAddr,
			Handler:      api.NewRouter(handler),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	return s, nil
}

// Run starts the HTTP server and blocks until the context is
// cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	log := logger.WithComponent("server")

	errCh := make(chan error, 1)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		log.Info().Str("addr", s.cfg.ListenAddr).Msg("starting HTTP server")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.reportStats(ctx)
	}()

	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("HTTP server error")
		return err
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	return s.shutdown()
}

// shutdown drains HTTP connections, flushes the event sink, and
// closes the store.
func (s *Server) shutdown() error {
	log := logger.WithComponent("server")
	log.Info().Msg("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if err := s.sink.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("event sink close error")
	}

	if err := s.store.Close(); err != nil {
		log.Error().Err(err).Msg("store close error")
	}

	s.wg.Wait()
	log.Info().Msg("server stopped gracefully")

	return nil
}

// reportStats periodically logs sink statistics.
func (s *Server) reportStats(ctx context.Context) {
	kafkaSink, ok := s.sink.(*events.KafkaSink)
	if !ok {
		return
	}

	log := logger.WithComponent("server")
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			published, dropped, failed := kafkaSink.Stats()
			log.Info().
				Uint64("events_published", published).
				Uint64("events_dropped", dropped).
				Uint64("events_failed", failed).
				Msg("stats")
		}
	}
}
