package tracker

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/naptholomew/tempest-attendance/app/tracker/types"
	"github.com/naptholomew/tempest-attendance/pkg/config"
	"github.com/naptholomew/tempest-attendance/pkg/db"
	"github.com/naptholomew/tempest-attendance/pkg/logging"
	"github.com/naptholomew/tempest-attendance/pkg/redis"
	"github.com/naptholomew/tempest-attendance/pkg/rollup"
	"github.com/naptholomew/tempest-attendance/pkg/wcl"
)

// Initialize initializes the application.
func Initialize(ctx context.Context) *types.App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr
		panic(err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	rosterDb, err := db.NewRosterDB(ctx, logger)
	if err != nil {
		logger.Fatal("Unable to initialize roster database", zap.Error(err))
	}

	// Redis is optional: without it the latest snapshot is served from the
	// in-process cache and ClickHouse history.
	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient, err = redis.NewClient(ctx, logger)
		if err != nil {
			logger.Warn("Failed to initialize Redis client - snapshot cache and live refresh events disabled",
				zap.Error(err))
			redisClient = nil
		}
	} else {
		logger.Info("Redis disabled - live refresh events will not be available")
	}

	logs := wcl.NewWithOpts(ctx, wcl.Opts{
		BaseURL:      cfg.APIBase,
		TokenURL:     cfg.TokenURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	})

	app := &types.App{
		Cfg:         cfg,
		Roster:      rosterDb,
		RedisClient: redisClient,
		Logs:        logs,
		Pipeline: &rollup.Pipeline{
			Logger:   logger,
			Resolver: rollup.NewResolver(logs, cfg.AllowedTypes, cfg.DenyNames),
			Location: cfg.Location,
			RaidDays: cfg.RaidWeekdays,
			Workers:  4,
		},
		Snapshots: xsync.NewMap[string, *rollup.Snapshot](),
		Logger:    logger,
	}

	if err := setupScheduler(ctx, app); err != nil {
		logger.Fatal("Unable to set up refresh schedule", zap.Error(err))
	}

	return app
}

// setupScheduler wires the cron-driven roll-up refresh. Each run is bounded
// so a hung upstream cannot pile runs on top of each other forever.
func setupScheduler(ctx context.Context, app *types.App) error {
	app.Cron = cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger)))

	_, err := app.Cron.AddFunc(app.Cfg.CronSpec, func() {
		rctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		if _, err := app.Refresh(rctx); err != nil {
			app.Logger.Error("Scheduled roll-up refresh failed", zap.Error(err))
		}
	})
	return err
}
