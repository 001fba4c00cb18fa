// Package snapshot is the persistence boundary for client state containers.
//
// A state container (the offline queue, the feature store) serialises the
// subset of its state that must survive a restart into a typed value. Store[T]
// wraps that value in a versioned envelope and hands the bytes to a Storage
// backend under a fixed key. Writes are whole-value overwrites: the last
// writer wins, there is no merge.
//
// # Envelope
//
//	{"name":"offline-queue","version":1,"saved_at":"2026-01-02T15:04:05Z","data":{...}}
//
// Loading checks the name and version. Older versions are upgraded through
// migrations registered with WithMigration; newer versions yield
// ErrUnsupportedVersion; undecodable payloads yield ErrCorrupted. Callers are
// expected to fall back to default state on any of these.
//
// # Backends
//
//   - MemoryStorage: process-local, for tests and ephemeral sessions.
//   - FileStorage: one JSON file per key, written atomically.
//   - RedisStorage: github.com/redis/go-redis/v9.
//   - PostgresStorage: github.com/jackc/pgx/v5, schema managed by goose.
//   - MongoStorage: go.mongodb.org/mongo-driver/v2.
//
// Open builds the backend selected by Config.Backend.
package snapshot
