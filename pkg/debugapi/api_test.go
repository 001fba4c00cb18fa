package debugapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/recipekit/pkg/debugapi"
	"github.com/dmitrymomot/recipekit/pkg/feature"
	"github.com/dmitrymomot/recipekit/pkg/netstatus"
	"github.com/dmitrymomot/recipekit/pkg/offline"
	"github.com/dmitrymomot/recipekit/pkg/syncdriver"
)

type fixture struct {
	queue    *offline.Queue
	features *feature.Store
	handler  http.Handler
}

func newFixture(t *testing.T, opts ...debugapi.Option) fixture {
	t.Helper()
	q := offline.New()
	t.Cleanup(func() { _ = q.Close() })
	fs := feature.New(feature.WithClientID("client-7"))
	require.NoError(t, fs.SetFeatures([]feature.Flag{
		{Key: "meal-planner", Enabled: true},
		{Key: "pantry-scan", Enabled: false},
	}))
	return fixture{
		queue:    q,
		features: fs,
		handler:  debugapi.New(q, fs, opts...).Router(),
	}
}

func (f fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func addFailed(t *testing.T, q *offline.Queue, maxRetries int) string {
	t.Helper()
	id := q.Add(offline.NewOperation{
		Type:         offline.OperationCreate,
		ResourceType: "recipe",
		ResourceID:   "r1",
		MaxRetries:   offline.MaxRetries(maxRetries),
	})
	require.True(t, q.MoveToFailed(id, "boom"))
	return id
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	f = newFixture(t, debugapi.WithHealthCheck("storage", func(context.Context) error {
		return errors.New("disk full")
	}))
	rec = f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestQueueRoutes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	pending := f.queue.Add(offline.NewOperation{Type: offline.OperationUpdate, ResourceType: "recipe", ResourceID: "r2"})
	retryable := addFailed(t, f.queue, 3)
	exhausted := addFailed(t, f.queue, 0)

	rec := f.do(t, http.MethodGet, "/queue", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "online", body["network"])
	assert.Len(t, body["pending"], 1)
	assert.Len(t, body["failed"], 2)
	assert.EqualValues(t, 1, body["retryable"])

	rec = f.do(t, http.MethodPost, "/queue/failed/"+exhausted+"/retry", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/queue/failed/"+pending+"/retry", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/queue/failed/"+retryable+"/retry", "")
	require.Equal(t, http.StatusOK, rec.Code)
	op := decodeBody[offline.Operation](t, rec)
	assert.Equal(t, offline.StatusPending, op.Status)
	assert.Equal(t, 1, op.RetryCount)

	rec = f.do(t, http.MethodDelete, "/queue/failed/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodDelete, "/queue/failed/"+exhausted, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, f.queue.FailedCount())
}

func TestQueueRetryAllAndClear(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a := addFailed(t, f.queue, 3)
	addFailed(t, f.queue, 0)

	rec := f.do(t, http.MethodPost, "/queue/failed/retry", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{a}, decodeBody[map[string][]string](t, rec)["retried"])

	rec = f.do(t, http.MethodDelete, "/queue/failed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeBody[map[string]int](t, rec)["cleared"])
	assert.Equal(t, 1, f.queue.PendingCount())
}

func TestQueueRetryAllEmpty(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/queue/failed/retry", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"retried":[]}`, rec.Body.String())
}

func TestQueueReportsDroppedEvents(t *testing.T) {
	t.Parallel()

	q := offline.New(offline.WithEventBuffer(1))
	t.Cleanup(func() { _ = q.Close() })
	stalled := q.Subscribe(context.Background()) // never read
	defer stalled.Close()
	q.Add(offline.NewOperation{Type: offline.OperationCreate, ResourceType: "recipe", ResourceID: "r1"})
	q.Add(offline.NewOperation{Type: offline.OperationCreate, ResourceType: "recipe", ResourceID: "r2"})
	q.Add(offline.NewOperation{Type: offline.OperationCreate, ResourceType: "recipe", ResourceID: "r3"})

	h := debugapi.New(q, feature.New()).Router()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/queue", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decodeBody[map[string]any](t, w)["dropped_events"])
}

func TestQueueSync(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/queue/sync", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	q := offline.New()
	t.Cleanup(func() { _ = q.Close() })
	driver, err := syncdriver.New(q, syncdriver.ReplayerFunc(func(context.Context, offline.Operation) error {
		return nil
	}))
	require.NoError(t, err)
	h := debugapi.New(q, feature.New(), debugapi.WithDriver(driver)).Router()
	q.Add(offline.NewOperation{Type: offline.OperationDelete, ResourceType: "recipe", ResourceID: "r3"})

	req := httptest.NewRequest(http.MethodPost, "/queue/sync", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeBody[syncdriver.Result](t, w).Completed)
	assert.Zero(t, q.PendingCount())

	q.SetNetworkStatus(netstatus.Offline)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/queue/sync", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestNetworkRoutes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(t, http.MethodPut, "/network", `{"status":"offline"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "offline", decodeBody[map[string]any](t, rec)["status"])
	assert.False(t, f.queue.IsOnline())

	rec = f.do(t, http.MethodPut, "/network", `{"status":"slow"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPut, "/network", `{"status":"flaky"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/network", `{"status":"online","extra":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/network", `{"status":"online"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodGet, "/network", "")
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "online", body["status"])
	assert.Equal(t, true, body["online"])
}

func TestNetworkRoutesWithDetector(t *testing.T) {
	t.Parallel()

	d := netstatus.NewDetector(nil)
	t.Cleanup(func() { _ = d.Close() })
	f := newFixture(t, debugapi.WithDetector(d))

	rec := f.do(t, http.MethodPut, "/network", `{"status":"slow"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, netstatus.Slow, d.Status())
}

func TestFeatureRoutes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/features", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "client-7", body["client_id"])
	assert.Equal(t, []any{"meal-planner"}, body["enabled"])
	assert.Equal(t, []any{"pantry-scan"}, body["disabled"])

	rec = f.do(t, http.MethodPut, "/features/pantry-scan/override", `{"enabled":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.features.IsEnabled("pantry-scan"))

	rec = f.do(t, http.MethodPut, "/features/pantry-scan/override", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodDelete, "/features/pantry-scan/override", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, f.features.IsEnabled("pantry-scan"))

	rec = f.do(t, http.MethodDelete, "/features/pantry-scan/override", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	f.features.SetOverride("meal-planner", false)
	rec = f.do(t, http.MethodDelete, "/features/overrides", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, f.features.Overrides())

	rec = f.do(t, http.MethodPut, "/features/segment", `{"segment":"beta"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "beta", f.features.UserSegment())

	rec = f.do(t, http.MethodPut, "/features/development-mode", `{"enabled":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.features.DevelopmentMode())
}
