package controller

import (
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"

	"github.com/naptholomew/tempest-attendance/app/tracker/types"
	"github.com/naptholomew/tempest-attendance/pkg/utils"
)

type Controller struct {
	App        *types.App
	AdminToken string
	Users      map[string]types.User
	JWTSecret  []byte
}

// NewController returns a new controller.
func NewController(app *types.App) *Controller {
	adminUser := utils.Env("ADMIN_USER", "admin")
	adminPass := utils.Env("ADMIN_PASSWORD", "admin")
	adminUsersJSON := utils.Env("ADMIN_USERS", "")

	phash, _ := utils.HashOrRead(adminPass)
	users := map[string]types.User{}
	users[adminUser] = types.User{Username: adminUser, Hash: phash, Role: "admin"}
	if adminUsersJSON != "" {
		_ = json.Unmarshal([]byte(adminUsersJSON), &users)
	}

	return &Controller{
		App:        app,
		AdminToken: app.Cfg.AdminToken,
		Users:      users,
		JWTSecret:  []byte(app.Cfg.SessionSecret),
	}
}

// WithCORS is a middleware that adds CORS headers to the response.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", http.MethodGet+", "+http.MethodPost+", "+http.MethodDelete+", "+http.MethodOptions)

		// Fast-path the preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewRouter returns a new router with all the routes defined in this file.
func (c *Controller) NewRouter() (*mux.Router, error) {
	r := mux.NewRouter()

	r.Handle("/api/health", http.HandlerFunc(c.HandleHealth)).Methods(http.MethodGet)

	r.Handle("/api/login", http.HandlerFunc(c.HandleLogin)).Methods(http.MethodPost)
	r.Handle("/api/logout", http.HandlerFunc(c.HandleLogout)).Methods(http.MethodPost)

	// Attendance roll-up.
	r.Handle("/api/attendance", http.HandlerFunc(c.HandleAttendance)).Methods(http.MethodGet)
	r.Handle("/api/attendance/refresh", c.RequireAdmin(http.HandlerFunc(c.HandleRefresh))).Methods(http.MethodPost)

	// Curated inputs. Reads are public; writes are admin-only and each write
	// kicks off a background re-roll-up so cached snapshots stay consistent.
	r.Handle("/api/aliases", http.HandlerFunc(c.HandleAliasesList)).Methods(http.MethodGet)
	r.Handle("/api/aliases", c.RequireAdmin(http.HandlerFunc(c.HandleAliasUpsert))).Methods(http.MethodPost)
	r.Handle("/api/aliases/{alias}", c.RequireAdmin(http.HandlerFunc(c.HandleAliasDelete))).Methods(http.MethodDelete)

	r.Handle("/api/overrides", http.HandlerFunc(c.HandleOverridesList)).Methods(http.MethodGet)
	r.Handle("/api/overrides", c.RequireAdmin(http.HandlerFunc(c.HandleOverrideUpsert))).Methods(http.MethodPost)
	r.Handle("/api/overrides/{night}/{name}", c.RequireAdmin(http.HandlerFunc(c.HandleOverrideDelete))).Methods(http.MethodDelete)

	r.Handle("/api/exclusions", http.HandlerFunc(c.HandleExclusionsList)).Methods(http.MethodGet)
	r.Handle("/api/exclusions", c.RequireAdmin(http.HandlerFunc(c.HandleExclusionUpsert))).Methods(http.MethodPost)
	r.Handle("/api/exclusions/{night}", c.RequireAdmin(http.HandlerFunc(c.HandleExclusionDelete))).Methods(http.MethodDelete)

	r.Handle("/api/ws", http.HandlerFunc(c.HandleWebSocket)).Methods(http.MethodGet)

	return r, nil
}
