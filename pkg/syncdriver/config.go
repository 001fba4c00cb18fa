package syncdriver

import (
	"net/url"
	"strings"
	"time"
)

// Config holds environment-driven driver settings.
type Config struct {
	Endpoint         string        `env:"SYNC_ENDPOINT"`
	HealthPath       string        `env:"SYNC_HEALTH_PATH" envDefault:"/healthz"`
	Secret           string        `env:"SYNC_SECRET"`
	RetryFailed      bool          `env:"SYNC_RETRY_FAILED" envDefault:"true"`
	OperationTimeout time.Duration `env:"SYNC_OPERATION_TIMEOUT" envDefault:"30s"`
	Interval         time.Duration `env:"SYNC_INTERVAL" envDefault:"1m"`
	FailureThreshold int           `env:"SYNC_BREAKER_FAILURES" envDefault:"5"`
	BreakerCooldown  time.Duration `env:"SYNC_BREAKER_COOLDOWN" envDefault:"30s"`
}

// Options translates cfg into driver options.
func (cfg Config) Options() []Option {
	return []Option{
		WithRetryFailed(cfg.RetryFailed),
		WithOperationTimeout(cfg.OperationTimeout),
		WithInterval(cfg.Interval),
		WithBreaker(NewBreaker(cfg.FailureThreshold, 1, cfg.BreakerCooldown)),
	}
}

// ProbeURL returns the liveness URL of the sync service: the endpoint's scheme
// and host with HealthPath. It is empty when the endpoint is not an absolute URL.
func (cfg Config) ProbeURL() string {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	path := "/" + strings.TrimPrefix(cfg.HealthPath, "/")
	if path == "/" {
		path = "/healthz"
	}
	probe := url.URL{Scheme: u.Scheme, User: u.User, Host: u.Host, Path: path}
	return probe.String()
}
