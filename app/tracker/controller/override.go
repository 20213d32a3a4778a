package controller

import (
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"

	"github.com/naptholomew/tempest-attendance/pkg/db/models/roster"
)

// validNight validates a YYYY-MM-DD date key.
func validNight(night string) bool {
	_, err := time.Parse("2006-01-02", night)
	return err == nil
}

// HandleOverridesList returns all live overrides.
func (c *Controller) HandleOverridesList(w http.ResponseWriter, r *http.Request) {
	rows, err := c.App.Roster.ListOverrides(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	if rows == nil {
		rows = make([]roster.Override, 0)
	}
	_ = json.NewEncoder(w).Encode(rows)
}

// HandleOverrideUpsert records a manual attendance credit. Values must be
// finite and non-negative; values above 1 are accepted as bonus credit.
func (c *Controller) HandleOverrideUpsert(w http.ResponseWriter, r *http.Request) {
	var o roster.Override
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad json"})
		return
	}

	o.Name = strings.TrimSpace(o.Name)
	switch {
	case !validNight(o.Night):
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "night must be YYYY-MM-DD"})
		return
	case o.Name == "":
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "name is required"})
		return
	case math.IsNaN(o.Value) || math.IsInf(o.Value, 0) || o.Value < 0:
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "value must be a non-negative number"})
		return
	}

	if err := c.App.Roster.UpsertOverride(r.Context(), &o); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	c.App.RefreshAsync()
	_ = json.NewEncoder(w).Encode(o)
}

// HandleOverrideDelete removes an override.
func (c *Controller) HandleOverrideDelete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	night, name := vars["night"], vars["name"]
	if !validNight(night) || name == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "night and name are required"})
		return
	}

	if err := c.App.Roster.DeleteOverride(r.Context(), night, name); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	c.App.RefreshAsync()
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}
