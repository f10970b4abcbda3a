package agentguard

import (
	"github.com/rs/zerolog"

	"github.com/grump/agentguard/internal/config"
)

// Option configures a Client at creation time.
type Option func(*clientConfig)

type clientConfig struct {
	configPath string
	cfg        *config.Config
	logger     *zerolog.Logger
	subject    string
}

// WithConfigFile loads settings from a YAML config file.
func WithConfigFile(path string) Option {
	return func(c *clientConfig) { c.configPath = path }
}

// WithConfig uses an already-built configuration.
func WithConfig(cfg *config.Config) Option {
	return func(c *clientConfig) { c.cfg = cfg }
}

// WithLogger sets the logger; default is silent.
func WithLogger(log zerolog.Logger) Option {
	return func(c *clientConfig) { c.logger = &log }
}

// WithSubject sets the default subject for requests that carry none.
func WithSubject(id string) Option {
	return func(c *clientConfig) { c.subject = id }
}

// WrapOption configures a single Wrap call.
type WrapOption func(*wrapConfig)

type wrapConfig struct {
	subject string
}

// WrapWithSubject pins the subject for every call through this wrap.
func WrapWithSubject(id string) WrapOption {
	return func(w *wrapConfig) { w.subject = id }
}
