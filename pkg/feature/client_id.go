package feature

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/dmitrymomot/recipekit/pkg/snapshot"
)

// ClientIDKey is the storage key of the persisted client id.
const ClientIDKey = "client-id"

// LoadOrCreateClientID returns the client id stored in storage, creating and
// storing a random one on first use. If the new id cannot be stored it is
// still returned, together with an ErrClientID error, so the session can
// proceed with a non-persistent id.
func LoadOrCreateClientID(ctx context.Context, storage snapshot.Storage) (string, error) {
	store := snapshot.NewStore[string](storage, ClientIDKey, 1)

	id, err := store.Load(ctx)
	switch {
	case err == nil && id != "":
		return id, nil
	case err == nil,
		errors.Is(err, snapshot.ErrNotFound),
		errors.Is(err, snapshot.ErrCorrupted),
		errors.Is(err, snapshot.ErrUnsupportedVersion),
		errors.Is(err, snapshot.ErrNameMismatch):
	default:
		return uuid.NewString(), errors.Join(ErrClientID, err)
	}

	id = uuid.NewString()
	if err := store.Save(ctx, id); err != nil {
		return id, errors.Join(ErrClientID, err)
	}
	return id, nil
}
