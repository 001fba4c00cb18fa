package debugapi

import (
	"net/http"
	"time"

	"github.com/dmitrymomot/recipekit/pkg/netstatus"
)

type networkResponse struct {
	Status         netstatus.Status `json:"status"`
	Online         bool             `json:"online"`
	LastOnlineTime time.Time        `json:"last_online_time"`
	DroppedChanges uint64           `json:"dropped_changes,omitempty"`
}

type networkRequest struct {
	Status string `json:"status"`
}

func (a *API) networkState() networkResponse {
	if a.detector != nil {
		return networkResponse{
			Status:         a.detector.Status(),
			Online:         a.detector.IsOnline(),
			LastOnlineTime: a.detector.LastOnlineTime(),
			DroppedChanges: a.detector.DroppedChanges(),
		}
	}
	return networkResponse{
		Status:         a.queue.NetworkStatus(),
		Online:         a.queue.IsOnline(),
		LastOnlineTime: a.queue.LastOnlineTime(),
	}
}

func (a *API) getNetwork(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.networkState())
}

func (a *API) putNetwork(w http.ResponseWriter, r *http.Request) {
	var req networkRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	status, err := netstatus.Parse(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var changed bool
	if a.detector != nil {
		_, changed = a.detector.Set(status)
	} else {
		changed = a.queue.SetNetworkStatus(status)
	}

	state := a.networkState()
	if !changed && state.Status != status {
		writeError(w, http.StatusConflict, "cannot move network from "+state.Status.String()+" to "+status.String())
		return
	}
	writeJSON(w, http.StatusOK, state)
}
