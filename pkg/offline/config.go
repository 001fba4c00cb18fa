package offline

import "time"

// DefaultSnapshotKey is the storage key of the persisted queue.
const DefaultSnapshotKey = "offline-queue"

// Config holds environment-driven queue settings.
type Config struct {
	DefaultMaxRetries int           `env:"OFFLINE_MAX_RETRIES" envDefault:"3"`
	PersistTimeout    time.Duration `env:"OFFLINE_PERSIST_TIMEOUT" envDefault:"2s"`
	EventBuffer       int           `env:"OFFLINE_EVENT_BUFFER" envDefault:"64"`
	SnapshotKey       string        `env:"OFFLINE_SNAPSHOT_KEY" envDefault:"offline-queue"`
}

// Options translates cfg into queue options.
func (cfg Config) Options() []Option {
	return []Option{
		WithDefaultMaxRetries(cfg.DefaultMaxRetries),
		WithPersistTimeout(cfg.PersistTimeout),
		WithEventBuffer(cfg.EventBuffer),
		WithSnapshotKey(cfg.SnapshotKey),
	}
}
