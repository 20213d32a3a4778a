package controller

import (
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"

	"github.com/naptholomew/tempest-attendance/pkg/db/models/roster"
)

// HandleExclusionsList returns all live excluded dates.
func (c *Controller) HandleExclusionsList(w http.ResponseWriter, r *http.Request) {
	rows, err := c.App.Roster.ListExcludedDates(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	if rows == nil {
		rows = make([]roster.ExcludedDate, 0)
	}
	_ = json.NewEncoder(w).Encode(rows)
}

// HandleExclusionUpsert removes a calendar date from the roll-up denominator.
func (c *Controller) HandleExclusionUpsert(w http.ResponseWriter, r *http.Request) {
	var e roster.ExcludedDate
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad json"})
		return
	}

	if !validNight(e.Night) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "night must be YYYY-MM-DD"})
		return
	}

	if err := c.App.Roster.UpsertExcludedDate(r.Context(), &e); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	c.App.RefreshAsync()
	_ = json.NewEncoder(w).Encode(e)
}

// HandleExclusionDelete restores a previously excluded date.
func (c *Controller) HandleExclusionDelete(w http.ResponseWriter, r *http.Request) {
	night := mux.Vars(r)["night"]
	if !validNight(night) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "night must be YYYY-MM-DD"})
		return
	}

	if err := c.App.Roster.DeleteExcludedDate(r.Context(), night); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	c.App.RefreshAsync()
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}
