package netstatus_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/recipekit/pkg/netstatus"
)

func TestHTTPProber(t *testing.T) {
	t.Parallel()

	t.Run("2xx is reachable", func(t *testing.T) {
		t.Parallel()
		var method string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			method = r.Method
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		p := netstatus.NewHTTPProber(srv.URL, "", time.Second, nil)
		latency, err := p.Probe(context.Background())
		require.NoError(t, err)
		assert.Positive(t, latency)
		assert.Equal(t, http.MethodHead, method)
	})

	t.Run("non-2xx is unreachable", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		p := netstatus.NewHTTPProber(srv.URL, http.MethodGet, time.Second, srv.Client())
		_, err := p.Probe(context.Background())
		require.ErrorIs(t, err, netstatus.ErrUnreachable)
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		p := netstatus.NewHTTPProber(srv.URL, "", 50*time.Millisecond, nil)
		start := time.Now()
		_, err := p.Probe(context.Background())
		require.Error(t, err)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("missing url", func(t *testing.T) {
		t.Parallel()
		p := netstatus.NewHTTPProber("", "", 0, nil)
		_, err := p.Probe(context.Background())
		require.ErrorIs(t, err, netstatus.ErrNoProbeURL)
	})
}
