package gitrag

import (
	"log/slog"

	"github.com/gitrag/gitrag/internal/config"
)

// clientConfig holds construction-time settings for Client.
type clientConfig struct {
	cfg    config.AppConfig
	logger *slog.Logger
}

func newClientConfig() *clientConfig {
	return &clientConfig{cfg: config.NewAppConfig()}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithConfig sets the full application configuration.
func WithConfig(cfg config.AppConfig) Option {
	return func(c *clientConfig) { c.cfg = cfg }
}

// WithLogger sets the logger. Without it, a logger is built from the
// configuration's LOG_LEVEL and LOG_FORMAT.
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) { c.logger = logger }
}

// WithConfigOptions applies functional options on top of the current
// configuration. Useful for tests and embedded use.
func WithConfigOptions(opts ...config.AppConfigOption) Option {
	return func(c *clientConfig) { c.cfg = c.cfg.Apply(opts...) }
}
