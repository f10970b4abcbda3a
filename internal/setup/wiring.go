package setup

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/grump/agentguard/internal/alert"
	"github.com/grump/agentguard/internal/audit"
	"github.com/grump/agentguard/internal/config"
	"github.com/grump/agentguard/internal/filter"
	"github.com/grump/agentguard/internal/injection"
	"github.com/grump/agentguard/internal/monitor"
	"github.com/grump/agentguard/internal/pipeline"
	"github.com/grump/agentguard/internal/ratelimit"
)

// Deps holds the wired components behind a running pipeline. The
// limiter and store carry subject state, so reloads keep them.
type Deps struct {
	Pipeline *pipeline.Pipeline
	Guard    *injection.Guard
	Limiter  *ratelimit.Limiter
	Store    *monitor.Store
	Audit    *audit.Log
	Log      zerolog.Logger
}

// Build wires every component from a validated config.
func Build(cfg *config.Config, configHash string, log zerolog.Logger) (*Deps, error) {
	return build(cfg, configHash, log, nil, nil)
}

// Rebuild wires fresh checks from a new config while reusing the
// previous limiter and store. Quota windows and risk profiles survive
// a config reload; detection settings take effect immediately.
func Rebuild(cfg *config.Config, configHash string, log zerolog.Logger, prev *Deps) (*Deps, error) {
	if prev == nil {
		return Build(cfg, configHash, log)
	}
	return build(cfg, configHash, log, prev.Limiter, prev.Store)
}

func build(cfg *config.Config, configHash string, log zerolog.Logger, limiter *ratelimit.Limiter, store *monitor.Store) (*Deps, error) {
	f, err := filter.New(cfg.ContentFilter)
	if err != nil {
		return nil, fmt.Errorf("content filter: %w", err)
	}

	detector := injection.NewDetector(cfg.Injection)
	guard := injection.NewGuard(detector, cfg.Guard)

	if limiter == nil {
		limiter = ratelimit.New(cfg.RateLimit, log)
	}
	if store == nil {
		store = monitor.NewStore(cfg.Monitor, log)
	}

	var auditLog *audit.Log
	if cfg.AuditLog != "" {
		auditLog, err = audit.Open(cfg.AuditLog)
		if err != nil {
			return nil, fmt.Errorf("audit log: %w", err)
		}
	}

	p, err := pipeline.New(cfg.Pipeline, pipeline.Deps{
		Filter:     f,
		Detector:   detector,
		Limiter:    limiter,
		Store:      store,
		Audit:      auditLog,
		Alerts:     alert.NewDispatcher(cfg.Alerts),
		Log:        log,
		ConfigHash: configHash,
	})
	if err != nil {
		return nil, err
	}

	return &Deps{
		Pipeline: p,
		Guard:    guard,
		Limiter:  limiter,
		Store:    store,
		Audit:    auditLog,
		Log:      log,
	}, nil
}

// Close releases held resources, currently just the audit log handle.
func (d *Deps) Close() error {
	if d.Audit != nil {
		return d.Audit.Close()
	}
	return nil
}
