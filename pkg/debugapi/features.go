package debugapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/recipekit/pkg/feature"
)

type featuresResponse struct {
	ClientID        string               `json:"client_id"`
	UserSegment     string               `json:"user_segment"`
	DevelopmentMode bool                 `json:"development_mode"`
	Enabled         []string             `json:"enabled"`
	Disabled        []string             `json:"disabled"`
	Overrides       map[string]bool      `json:"overrides"`
	Experiments     []feature.Experiment `json:"experiments"`
	Flags           []feature.Flag       `json:"flags"`
}

func (a *API) featureState() featuresResponse {
	return featuresResponse{
		ClientID:        a.features.ClientID(),
		UserSegment:     a.features.UserSegment(),
		DevelopmentMode: a.features.DevelopmentMode(),
		Enabled:         a.features.EnabledFeatures(),
		Disabled:        a.features.DisabledFeatures(),
		Overrides:       a.features.Overrides(),
		Experiments:     a.features.Experiments(),
		Flags:           a.features.Flags(),
	}
}

func (a *API) getFeatures(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.featureState())
}

func (a *API) putSegment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Segment string `json:"segment"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.features.SetUserSegment(req.Segment)
	writeJSON(w, http.StatusOK, a.featureState())
}

func (a *API) putDevelopmentMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.features.SetDevelopmentMode(req.Enabled)
	writeJSON(w, http.StatusOK, a.featureState())
}

func (a *API) putOverride(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}
	a.features.SetOverride(chi.URLParam(r, "key"), *req.Enabled)
	writeJSON(w, http.StatusOK, a.featureState())
}

func (a *API) deleteOverride(w http.ResponseWriter, r *http.Request) {
	if !a.features.RemoveOverride(chi.URLParam(r, "key")) {
		writeError(w, http.StatusNotFound, "override not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) clearOverrides(w http.ResponseWriter, r *http.Request) {
	a.features.ClearOverrides()
	w.WriteHeader(http.StatusNoContent)
}
