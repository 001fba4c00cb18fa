package snapshot_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/recipekit/pkg/snapshot"
)

// exerciseStorage runs the behaviour every backend must share.
func exerciseStorage(t *testing.T, s snapshot.Storage, key string) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx, key)
	require.ErrorIs(t, err, snapshot.ErrNotFound)

	require.NoError(t, s.Save(ctx, key, []byte(`{"v":1}`)))
	got, err := s.Load(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(got))

	require.NoError(t, s.Save(ctx, key, []byte(`{"v":2}`)))
	got, err = s.Load(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(got))

	require.NoError(t, s.Delete(ctx, key))
	require.NoError(t, s.Delete(ctx, key), "deleting a missing key is not an error")
	_, err = s.Load(ctx, key)
	require.ErrorIs(t, err, snapshot.ErrNotFound)

	require.ErrorIs(t, s.Save(ctx, "", []byte("x")), snapshot.ErrInvalidKey)
}

func TestMemoryStorage(t *testing.T) {
	t.Parallel()

	s := snapshot.NewMemoryStorage()
	exerciseStorage(t, s, "offline-queue")

	ctx := context.Background()
	buf := []byte("abc")
	require.NoError(t, s.Save(ctx, "b", buf))
	require.NoError(t, s.Save(ctx, "a", buf))
	buf[0] = 'X'

	got, err := s.Load(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got), "storage keeps its own copy")
	got[0] = 'Y'
	again, _ := s.Load(ctx, "b")
	assert.Equal(t, "abc", string(again))

	assert.Equal(t, []string{"a", "b"}, s.Keys())
	require.NoError(t, s.Close())
}

func TestFileStorage(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "state")
	s, err := snapshot.NewFileStorage(dir)
	require.NoError(t, err)
	exerciseStorage(t, s, "feature-store")

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "client-id", []byte(`"abc"`)))
	_, err = os.Stat(filepath.Join(dir, "client-id.json"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	for _, bad := range []string{"../escape", "a/b", ".hidden"} {
		_, err := s.Load(ctx, bad)
		assert.ErrorIs(t, err, snapshot.ErrInvalidKey, bad)
	}
	require.NoError(t, s.Close())
}

func TestFileStorage_ConcurrentSaves(t *testing.T) {
	t.Parallel()

	s, err := snapshot.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Save(ctx, "shared", []byte(`{"ok":true}`)))
		}()
	}
	wg.Wait()

	got, err := s.Load(ctx, "shared")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(got))
}

func TestOpen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, err := snapshot.Open(ctx, snapshot.Config{Backend: snapshot.BackendMemory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &snapshot.MemoryStorage{}, s)

	s, err = snapshot.Open(ctx, snapshot.Config{Backend: snapshot.BackendFile, Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &snapshot.FileStorage{}, s)

	_, err = snapshot.Open(ctx, snapshot.Config{Backend: "etcd"}, nil)
	require.ErrorIs(t, err, snapshot.ErrUnknownBackend)
}
