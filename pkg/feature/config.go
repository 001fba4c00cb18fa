package feature

import "time"

// DefaultSnapshotKey is the storage key of the persisted client state.
const DefaultSnapshotKey = "feature-store"

// Config holds environment-driven store settings.
type Config struct {
	FlagsFile       string        `env:"FEATURE_FLAGS_FILE" envDefault:"flags.yaml"`
	RefreshInterval time.Duration `env:"FEATURE_REFRESH_INTERVAL" envDefault:"5m"`
	DefaultSegment  string        `env:"FEATURE_DEFAULT_SEGMENT" envDefault:"default"`
	DevelopmentMode bool          `env:"FEATURE_DEVELOPMENT_MODE" envDefault:"false"`
	SnapshotKey     string        `env:"FEATURE_SNAPSHOT_KEY" envDefault:"feature-store"`
	PersistTimeout  time.Duration `env:"FEATURE_PERSIST_TIMEOUT" envDefault:"2s"`
}

// Options translates cfg into store options.
func (cfg Config) Options() []Option {
	return []Option{
		WithUserSegment(cfg.DefaultSegment),
		WithDevelopmentMode(cfg.DevelopmentMode),
		WithSnapshotKey(cfg.SnapshotKey),
		WithPersistTimeout(cfg.PersistTimeout),
	}
}
