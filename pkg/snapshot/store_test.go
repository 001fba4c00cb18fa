package snapshot_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/recipekit/pkg/snapshot"
)

type prefs struct {
	Segment string   `json:"segment"`
	Keys    []string `json:"keys,omitempty"`
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	storage := snapshot.NewMemoryStorage()
	fixed := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	store := snapshot.NewStore[prefs](storage, "prefs", 1, snapshot.WithClock(func() time.Time { return fixed }))

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, snapshot.ErrNotFound)

	want := prefs{Segment: "beta-testers", Keys: []string{"a", "b"}}
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	raw, err := storage.Load(ctx, "prefs")
	require.NoError(t, err)
	var env map[string]any
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, "prefs", env["name"])
	assert.Equal(t, float64(1), env["version"])
	assert.Equal(t, "2026-01-02T15:04:05Z", env["saved_at"])

	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	require.ErrorIs(t, err, snapshot.ErrNotFound)
}

func TestStore_Overwrite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := snapshot.NewStore[prefs](snapshot.NewMemoryStorage(), "prefs", 1)
	require.NoError(t, store.Save(ctx, prefs{Segment: "one", Keys: []string{"x"}}))
	require.NoError(t, store.Save(ctx, prefs{Segment: "two"}))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, prefs{Segment: "two"}, got, "last writer wins, no merge")
}

func TestStore_DecodeErrors(t *testing.T) {
	t.Parallel()

	store := snapshot.NewStore[prefs](snapshot.NewMemoryStorage(), "prefs", 2)

	tests := []struct {
		name string
		raw  string
		want error
	}{
		{name: "garbage", raw: "{not json", want: snapshot.ErrCorrupted},
		{name: "wrong name", raw: `{"name":"other","version":1,"data":{}}`, want: snapshot.ErrNameMismatch},
		{name: "newer version", raw: `{"name":"prefs","version":3,"data":{}}`, want: snapshot.ErrUnsupportedVersion},
		{name: "zero version", raw: `{"name":"prefs","version":0,"data":{}}`, want: snapshot.ErrUnsupportedVersion},
		{name: "missing migration", raw: `{"name":"prefs","version":1,"data":{}}`, want: snapshot.ErrUnsupportedVersion},
		{name: "empty data", raw: `{"name":"prefs","version":2}`, want: snapshot.ErrCorrupted},
		{name: "bad data", raw: `{"name":"prefs","version":2,"data":{"segment":42}}`, want: snapshot.ErrCorrupted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := store.Decode([]byte(tt.raw))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStore_Migrations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	storage := snapshot.NewMemoryStorage()
	v1 := snapshot.NewStore[map[string]string](storage, "prefs", 1)
	require.NoError(t, v1.Save(ctx, map[string]string{"group": "beta"}))

	renameGroup := func(data json.RawMessage) (json.RawMessage, error) {
		var old map[string]string
		if err := json.Unmarshal(data, &old); err != nil {
			return nil, err
		}
		return json.Marshal(prefs{Segment: old["group"]})
	}

	v2 := snapshot.NewStore[prefs](storage, "prefs", 2, snapshot.WithMigration(1, renameGroup))
	got, err := v2.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "beta", got.Segment)

	failing := snapshot.NewStore[prefs](storage, "prefs", 2, snapshot.WithMigration(1, func(json.RawMessage) (json.RawMessage, error) {
		return nil, errors.New("boom")
	}))
	_, err = failing.Load(ctx)
	require.ErrorIs(t, err, snapshot.ErrCorrupted)
}

func TestStore_EncodeError(t *testing.T) {
	t.Parallel()

	store := snapshot.NewStore[func()](snapshot.NewMemoryStorage(), "fn", 1)
	_, err := store.Encode(func() {})
	require.ErrorIs(t, err, snapshot.ErrEncode)
	assert.Equal(t, "fn", store.Name())
	assert.Equal(t, 1, store.Version())
}
