package types

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/naptholomew/tempest-attendance/pkg/config"
	"github.com/naptholomew/tempest-attendance/pkg/db"
	"github.com/naptholomew/tempest-attendance/pkg/db/models/roster"
	"github.com/naptholomew/tempest-attendance/pkg/redis"
	"github.com/naptholomew/tempest-attendance/pkg/rollup"
	"github.com/naptholomew/tempest-attendance/pkg/wcl"
)

type App struct {
	Cfg    *config.Config
	Roster *db.RosterDB

	// RedisClient is nil when Redis is disabled; the service then serves from
	// the in-process cache and ClickHouse history only.
	RedisClient *redis.Client

	Logs     *wcl.Client
	Pipeline *rollup.Pipeline

	// Snapshots is the in-process latest-roll-up cache, keyed by guild name.
	Snapshots *xsync.Map[string, *rollup.Snapshot]

	// Cron drives the scheduled refresh, per CronSpec.
	Cron *cron.Cron

	// Zap Logger
	Logger *zap.Logger
	// Server handles incoming client requests and HTTP routes.
	Server *http.Server
}

// Refresh executes one full roll-up run: a consistent read of the curated
// stores, the complete upstream fetch, the pipeline, then cache and history
// writes. Any failure aborts before the caches are touched, so a failed run
// never replaces a previously good snapshot.
func (a *App) Refresh(ctx context.Context) (*rollup.Snapshot, error) {
	aliases, err := a.Roster.AliasMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("read aliases: %w", err)
	}
	overrides, err := a.Roster.OverrideTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("read overrides: %w", err)
	}
	excluded, err := a.Roster.ExcludedDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("read excluded dates: %w", err)
	}

	start, end := a.Cfg.Window(time.Now())
	reports, err := a.Logs.GuildReports(ctx, a.Cfg.Guild, a.Cfg.GuildServer, a.Cfg.GuildRegion, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch reports: %w", err)
	}

	snap, err := a.Pipeline.Run(ctx, start, end, rollup.Inputs{
		Reports:   reports,
		Aliases:   aliases,
		Overrides: overrides,
		Excluded:  excluded,
	})
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	a.Snapshots.Store(a.Cfg.Guild, snap)

	if a.RedisClient != nil {
		if err := a.RedisClient.SetLatest(ctx, body); err != nil {
			a.Logger.Warn("Failed to cache snapshot in Redis", zap.Error(err))
		}
		a.RedisClient.PublishRefreshed(ctx, snap.GeneratedAt.Format(time.RFC3339Nano))
	}

	if err := a.Roster.InsertSnapshot(ctx, &roster.Snapshot{
		GeneratedAt: snap.GeneratedAt,
		WindowStart: snap.WindowStart,
		WindowEnd:   snap.WindowEnd,
		Body:        string(body),
	}); err != nil {
		a.Logger.Warn("Failed to persist snapshot history", zap.Error(err))
	}

	a.Logger.Info("Roll-up refreshed",
		zap.Int("nights", len(snap.Nights)),
		zap.Int("members", len(snap.Rows)),
		zap.Int("reports", len(reports)))
	return snap, nil
}

// RefreshAsync runs Refresh on its own bounded context, for the post-mutation
// hooks where the admin request should not block on a full upstream fetch.
func (a *App) RefreshAsync() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := a.Refresh(ctx); err != nil {
			a.Logger.Error("Background roll-up refresh failed", zap.Error(err))
		}
	}()
}

// Latest returns the freshest available snapshot without recomputing:
// in-process cache, then Redis, then persisted history. Returns nil when no
// roll-up has ever completed.
func (a *App) Latest(ctx context.Context) (*rollup.Snapshot, error) {
	if snap, ok := a.Snapshots.Load(a.Cfg.Guild); ok {
		return snap, nil
	}

	if a.RedisClient != nil {
		body, err := a.RedisClient.GetLatest(ctx)
		if err != nil {
			a.Logger.Warn("Redis snapshot read failed", zap.Error(err))
		} else if body != nil {
			var snap rollup.Snapshot
			if err := json.Unmarshal(body, &snap); err == nil {
				a.Snapshots.Store(a.Cfg.Guild, &snap)
				return &snap, nil
			}
		}
	}

	stored, err := a.Roster.LatestSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, nil
	}
	var snap rollup.Snapshot
	if err := json.Unmarshal([]byte(stored.Body), &snap); err != nil {
		return nil, fmt.Errorf("decode stored snapshot: %w", err)
	}
	a.Snapshots.Store(a.Cfg.Guild, &snap)
	return &snap, nil
}

// Start starts the application.
func (a *App) Start(ctx context.Context) {
	go func() { _ = a.Server.ListenAndServe() }()
	if a.Cron != nil {
		a.Cron.Start()
		a.Logger.Info("Refresh schedule started", zap.String("cronSpec", a.Cfg.CronSpec))
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.Cron != nil {
		<-a.Cron.Stop().Done()
	}
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Logger.Error("Failed to close Redis connection", zap.Error(err))
		}
	}
	if err := a.Roster.Close(); err != nil {
		a.Logger.Error("Failed to close database connection", zap.Error(err))
	}

	_ = a.Server.Shutdown(shutdownCtx)
	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("Goodnight, Tempest.")
}
