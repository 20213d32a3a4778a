package controller

import (
	"net/http"
	"strings"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"

	"github.com/naptholomew/tempest-attendance/pkg/db/models/roster"
)

// HandleAliasesList returns all live alias mappings.
func (c *Controller) HandleAliasesList(w http.ResponseWriter, r *http.Request) {
	rows, err := c.App.Roster.ListAliases(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	if rows == nil {
		rows = make([]roster.Alias, 0)
	}
	_ = json.NewEncoder(w).Encode(rows)
}

// HandleAliasUpsert creates or updates an alias mapping.
func (c *Controller) HandleAliasUpsert(w http.ResponseWriter, r *http.Request) {
	var a roster.Alias
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad json"})
		return
	}

	a.Alias = strings.TrimSpace(a.Alias)
	a.Canonical = strings.TrimSpace(a.Canonical)
	if a.Alias == "" || a.Canonical == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "alias and canonical are required"})
		return
	}
	if a.Alias == a.Canonical {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "alias must differ from canonical"})
		return
	}

	if err := c.App.Roster.UpsertAlias(r.Context(), &a); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	c.App.RefreshAsync()
	_ = json.NewEncoder(w).Encode(a)
}

// HandleAliasDelete removes an alias mapping.
func (c *Controller) HandleAliasDelete(w http.ResponseWriter, r *http.Request) {
	alias := mux.Vars(r)["alias"]
	if err := c.App.Roster.DeleteAlias(r.Context(), alias); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	c.App.RefreshAsync()
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}
