package netstatus

import "time"

const (
	DefaultProbeTimeout  = 5 * time.Second
	DefaultPollInterval  = 30 * time.Second
	DefaultSlowThreshold = 2 * time.Second
)

// Config configures the reachability probe and polling.
// An empty ProbeURL disables probing; the detector then follows Set only.
type Config struct {
	ProbeURL      string        `env:"NETSTATUS_PROBE_URL"`
	ProbeMethod   string        `env:"NETSTATUS_PROBE_METHOD" envDefault:"HEAD"`
	ProbeTimeout  time.Duration `env:"NETSTATUS_PROBE_TIMEOUT" envDefault:"5s"`
	PollInterval  time.Duration `env:"NETSTATUS_POLL_INTERVAL" envDefault:"30s"`
	SlowThreshold time.Duration `env:"NETSTATUS_SLOW_THRESHOLD" envDefault:"2s"`
}
