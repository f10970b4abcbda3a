package agentguard

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/grump/agentguard/internal/config"
	"github.com/grump/agentguard/internal/pipeline"
	"github.com/grump/agentguard/internal/setup"
)

// Client holds the safety pipeline for in-process enforcement.
// Thread-safe for concurrent tool calls.
type Client struct {
	cfg  clientConfig
	deps *setup.Deps
}

// New creates a Client with the given options. With no options it runs
// on the built-in defaults: all checks enforcing, no audit log.
func New(opts ...Option) (*Client, error) {
	cfg := clientConfig{subject: pipeline.AnonymousSubject}
	for _, o := range opts {
		o(&cfg)
	}

	log := zerolog.Nop()
	if cfg.logger != nil {
		log = *cfg.logger
	}

	guardCfg := cfg.cfg
	hash := "sha256:default"
	if guardCfg == nil {
		var err error
		guardCfg, hash, err = config.LoadWithHash(cfg.configPath)
		if err != nil {
			return nil, fmt.Errorf("agentguard: failed to load config: %w", err)
		}
	} else if err := guardCfg.Validate(); err != nil {
		return nil, fmt.Errorf("agentguard: %w", err)
	}

	deps, err := setup.Build(guardCfg, hash, log)
	if err != nil {
		return nil, fmt.Errorf("agentguard: failed to wire pipeline: %w", err)
	}

	return &Client{cfg: cfg, deps: deps}, nil
}

// Check evaluates a request without executing anything.
func (c *Client) Check(req Request) Result {
	subject := req.SubjectID
	if subject == "" {
		subject = c.cfg.subject
	}
	return toResult(c.deps.Pipeline.Evaluate(subject, req.Content, req.EstimatedCost))
}

// Sanitize strips role-token markers and redacts PII spans.
func (c *Client) Sanitize(content string) string {
	return c.deps.Pipeline.SanitizeContent(c.deps.Guard.Sanitize(content))
}

// ReportCost commits the actual cost of a completed request against
// the subject's quota.
func (c *Client) ReportCost(subjectID string, cost int) {
	if subjectID == "" {
		subjectID = c.cfg.subject
	}
	c.deps.Pipeline.OnRequestEnd(subjectID, cost)
}

// Stats exports the pipeline counters.
func (c *Client) Stats() pipeline.Stats {
	return c.deps.Pipeline.Stats()
}

// Close releases held resources.
func (c *Client) Close() error {
	return c.deps.Close()
}
