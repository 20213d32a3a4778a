package controller

import (
	"net/http"

	"github.com/go-jose/go-jose/v4/json"

	"github.com/naptholomew/tempest-attendance/pkg/rollup"
)

// HandleAttendance serves the latest roll-up snapshot. Per-player date lists
// are stripped unless ?dates=true; they are the bulky part of the payload.
func (c *Controller) HandleAttendance(w http.ResponseWriter, r *http.Request) {
	snap, err := c.App.Latest(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	if snap == nil {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "no roll-up has completed yet"})
		return
	}

	if r.URL.Query().Get("dates") != "true" {
		trimmed := *snap
		trimmed.PerPlayerDates = nil
		snap = &trimmed
	}
	_ = json.NewEncoder(w).Encode(snap)
}

// HandleRefresh forces a roll-up run and returns the fresh snapshot. A
// failure leaves the previously cached snapshot exactly as it was.
func (c *Controller) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := c.App.Refresh(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	c.writeSnapshot(w, snap)
}

func (c *Controller) writeSnapshot(w http.ResponseWriter, snap *rollup.Snapshot) {
	_ = json.NewEncoder(w).Encode(snap)
}
