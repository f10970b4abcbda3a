package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/grump/agentguard/internal/config"
	"github.com/grump/agentguard/internal/pipeline"
	"github.com/grump/agentguard/internal/setup"
)

// Server exposes the safety pipeline over HTTP. The wired components
// sit behind a mutex so a config reload can swap them while requests
// are in flight.
type Server struct {
	configPath string
	log        zerolog.Logger

	mu     sync.RWMutex
	cfg    *config.Config
	deps   *setup.Deps
	listen string
}

// New wires a server from the config at configPath.
func New(configPath string, log zerolog.Logger) (*Server, error) {
	cfg, hash, err := config.LoadWithHash(configPath)
	if err != nil {
		return nil, err
	}

	deps, err := setup.Build(cfg, hash, log)
	if err != nil {
		return nil, err
	}

	return &Server{
		configPath: configPath,
		log:        log,
		cfg:        cfg,
		deps:       deps,
		listen:     cfg.Server.Listen,
	}, nil
}

// Pipeline returns the currently wired pipeline.
func (s *Server) Pipeline() *pipeline.Pipeline {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deps.Pipeline
}

func (s *Server) guardSanitize(content string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deps.Guard.Sanitize(content)
}

// Reload re-reads the config file and rebuilds the pipeline. Quota
// windows and risk profiles survive; an invalid config keeps the old
// pipeline running.
func (s *Server) Reload() error {
	cfg, hash, err := config.LoadWithHash(s.configPath)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	deps, err := setup.Rebuild(cfg, hash, s.log, s.deps)
	if err != nil {
		return err
	}

	old := s.deps
	s.cfg = cfg
	s.deps = deps
	if old.Audit != nil && old.Audit != deps.Audit {
		if err := old.Audit.Close(); err != nil {
			s.log.Error().Err(err).Msg("closing previous audit log")
		}
	}

	s.log.Info().Str("config_hash", hash).Msg("configuration reloaded")
	return nil
}

// Run serves the HTTP API until ctx is cancelled, then drains with a
// short grace period.
func (s *Server) Run(ctx context.Context) error {
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	srv := &http.Server{
		Addr:    s.listen,
		Handler: corsHandler.Handler(s.Container()),
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("address", s.listen).Msg("starting API server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return s.deps.Close()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
