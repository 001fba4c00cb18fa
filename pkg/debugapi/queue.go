package debugapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/recipekit/pkg/netstatus"
	"github.com/dmitrymomot/recipekit/pkg/offline"
	"github.com/dmitrymomot/recipekit/pkg/syncdriver"
)

type queueResponse struct {
	Network        netstatus.Status    `json:"network"`
	Online         bool                `json:"online"`
	LastOnlineTime time.Time           `json:"last_online_time"`
	SyncInProgress bool                `json:"sync_in_progress"`
	OfflineCapable bool                `json:"offline_capable"`
	Retryable      int                 `json:"retryable"`
	DroppedEvents  uint64              `json:"dropped_events"`
	Pending        []offline.Operation `json:"pending"`
	Failed         []offline.Operation `json:"failed"`
}

func (a *API) getQueue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, queueResponse{
		Network:        a.queue.NetworkStatus(),
		Online:         a.queue.IsOnline(),
		LastOnlineTime: a.queue.LastOnlineTime(),
		SyncInProgress: a.queue.SyncInProgress(),
		OfflineCapable: a.queue.OfflineCapable(),
		Retryable:      len(a.queue.RetryableOperations()),
		DroppedEvents:  a.queue.DroppedEvents(),
		Pending:        a.queue.Pending(),
		Failed:         a.queue.Failed(),
	})
}

func (a *API) syncQueue(w http.ResponseWriter, r *http.Request) {
	if a.driver == nil {
		writeError(w, http.StatusNotImplemented, "sync driver is not configured")
		return
	}

	res, err := a.driver.Sync(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, syncdriver.ErrOffline), errors.Is(err, syncdriver.ErrSyncInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, syncdriver.ErrCircuitOpen):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (a *API) retryAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"retried": a.queue.RetryAll()})
}

func (a *API) retryOne(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if a.queue.Retry(id) {
		op, _ := a.queue.Operation(id)
		writeJSON(w, http.StatusOK, op)
		return
	}

	op, ok := a.queue.Operation(id)
	if !ok || op.Status != offline.StatusFailed {
		writeError(w, http.StatusNotFound, "failed operation not found")
		return
	}
	writeError(w, http.StatusConflict, "retry limit reached")
}

func (a *API) clearFailed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"cleared": a.queue.ClearFailed()})
}

func (a *API) removeFailed(w http.ResponseWriter, r *http.Request) {
	if !a.queue.RemoveFailed(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "failed operation not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
