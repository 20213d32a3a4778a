package tracker

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/naptholomew/tempest-attendance/app/tracker/controller"
	"github.com/naptholomew/tempest-attendance/app/tracker/types"
)

// NewServer builds the HTTP server onto the App.
func NewServer(app *types.App) error {
	ctler := controller.NewController(app)
	router, err := ctler.NewRouter()
	if err != nil {
		return err
	}

	// use <ip>:<port> to bind to a specific interface or :<port> to bind to all interfaces
	app.Server = &http.Server{Addr: app.Cfg.Addr, Handler: controller.WithCORS(router)}
	app.Logger.Info("Starting server", zap.String("addr", app.Cfg.Addr))

	return nil
}
