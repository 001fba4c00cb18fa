package snapshot

import "time"

// Backend names accepted by Config.Backend.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Config selects and configures a snapshot backend.
type Config struct {
	Backend string `env:"SNAPSHOT_BACKEND" envDefault:"file"`
	Dir     string `env:"SNAPSHOT_DIR" envDefault:".recipekit"`

	RedisURL    string        `env:"SNAPSHOT_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RedisPrefix string        `env:"SNAPSHOT_REDIS_PREFIX" envDefault:"recipekit:snapshot:"`
	RedisTTL    time.Duration `env:"SNAPSHOT_REDIS_TTL" envDefault:"0s"` // 0 keeps snapshots forever

	PostgresURL string `env:"SNAPSHOT_PG_URL"`

	MongoURL        string `env:"SNAPSHOT_MONGO_URL"`
	MongoDatabase   string `env:"SNAPSHOT_MONGO_DATABASE" envDefault:"recipekit"`
	MongoCollection string `env:"SNAPSHOT_MONGO_COLLECTION" envDefault:"client_snapshots"`

	ConnectTimeout time.Duration `env:"SNAPSHOT_CONNECT_TIMEOUT" envDefault:"30s"`
	RetryAttempts  int           `env:"SNAPSHOT_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"SNAPSHOT_RETRY_INTERVAL" envDefault:"2s"`
}
