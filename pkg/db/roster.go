package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/naptholomew/tempest-attendance/pkg/db/clickhouse"
	"github.com/naptholomew/tempest-attendance/pkg/db/models/roster"
	"github.com/naptholomew/tempest-attendance/pkg/utils"
	"go.uber.org/zap"
)

// RosterDB holds the curated attendance inputs (aliases, overrides, excluded
// dates) and the roll-up snapshot history. All tables are
// ReplacingMergeTree(updated_at) with soft-delete flags, so upsert and delete
// are both plain inserts and reads use FINAL.
type RosterDB struct {
	clickhouse.Client
	Name string
}

// NewRosterDB connects and ensures the database and tables exist.
func NewRosterDB(ctx context.Context, logger *zap.Logger) (*RosterDB, error) {
	name := clickhouse.SanitizeName(utils.Env("CLICKHOUSE_DATABASE", "attendance"))
	client, err := clickhouse.New(ctx, logger, name)
	if err != nil {
		return nil, err
	}
	db := &RosterDB{Client: client, Name: name}
	if err := db.InitializeDB(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// Close terminates the underlying ClickHouse connection.
func (db *RosterDB) Close() error {
	return db.Db.Close()
}

// Ping checks connectivity for health probes.
func (db *RosterDB) Ping(ctx context.Context) error {
	return db.Db.Ping(ctx)
}

// InitializeDB ensures the database and all tables exist.
func (db *RosterDB) InitializeDB(ctx context.Context) error {
	db.Logger.Debug("Initializing roster database", zap.String("name", db.Name))

	if err := db.Db.Exec(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db.Name)); err != nil {
		return fmt.Errorf("create database %s: %w", db.Name, err)
	}

	type table struct {
		name    string
		columns []roster.ColumnDef
		engine  string
		orderBy string
	}
	tables := []table{
		{roster.AliasesTableName, roster.AliasColumns, "ReplacingMergeTree(updated_at)", "(alias)"},
		{roster.OverridesTableName, roster.OverrideColumns, "ReplacingMergeTree(updated_at)", "(night, name)"},
		{roster.ExcludedDatesTableName, roster.ExcludedDateColumns, "ReplacingMergeTree(updated_at)", "(night)"},
		{roster.SnapshotsTableName, roster.SnapshotColumns, "MergeTree", "(generated_at)"},
	}

	for _, t := range tables {
		if err := roster.ValidateColumns(t.columns); err != nil {
			return err
		}
		query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.%s (
			%s
		) ENGINE = %s
		ORDER BY %s
	`, db.Name, t.name, roster.ColumnsToSchemaSQL(t.columns), t.engine, t.orderBy)
		if err := db.Db.Exec(ctx, query); err != nil {
			return fmt.Errorf("create table %s: %w", t.name, err)
		}
	}
	return nil
}

// ---- aliases ----

// UpsertAlias creates or updates an alias mapping.
func (db *RosterDB) UpsertAlias(ctx context.Context, a *roster.Alias) error {
	a.Deleted = 0
	a.UpdatedAt = time.Now().UTC()
	query := fmt.Sprintf(`INSERT INTO %s.%s (alias, canonical, deleted, updated_at) VALUES (?, ?, ?, ?)`,
		db.Name, roster.AliasesTableName)
	return db.Db.Exec(ctx, query, a.Alias, a.Canonical, a.Deleted, a.UpdatedAt)
}

// DeleteAlias soft-deletes an alias mapping.
func (db *RosterDB) DeleteAlias(ctx context.Context, alias string) error {
	query := fmt.Sprintf(`INSERT INTO %s.%s (alias, canonical, deleted, updated_at) VALUES (?, '', 1, ?)`,
		db.Name, roster.AliasesTableName)
	return db.Db.Exec(ctx, query, alias, time.Now().UTC())
}

// ListAliases returns all live alias mappings.
func (db *RosterDB) ListAliases(ctx context.Context) ([]roster.Alias, error) {
	var rows []roster.Alias
	query := fmt.Sprintf(`SELECT alias, canonical, deleted, updated_at FROM %s.%s FINAL WHERE deleted = 0 ORDER BY alias`,
		db.Name, roster.AliasesTableName)
	if err := db.Db.Select(ctx, &rows, query); err != nil {
		return nil, err
	}
	return rows, nil
}

// AliasMap reads the alias table once, as the consistent snapshot one
// roll-up run works from.
func (db *RosterDB) AliasMap(ctx context.Context) (map[string]string, error) {
	rows, err := db.ListAliases(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Alias] = r.Canonical
	}
	return out, nil
}

// ---- overrides ----

// UpsertOverride creates or updates a manual attendance credit.
func (db *RosterDB) UpsertOverride(ctx context.Context, o *roster.Override) error {
	o.Deleted = 0
	o.UpdatedAt = time.Now().UTC()
	query := fmt.Sprintf(`INSERT INTO %s.%s (night, name, value, deleted, updated_at) VALUES (?, ?, ?, ?, ?)`,
		db.Name, roster.OverridesTableName)
	return db.Db.Exec(ctx, query, o.Night, o.Name, o.Value, o.Deleted, o.UpdatedAt)
}

// DeleteOverride soft-deletes an override.
func (db *RosterDB) DeleteOverride(ctx context.Context, night, name string) error {
	query := fmt.Sprintf(`INSERT INTO %s.%s (night, name, value, deleted, updated_at) VALUES (?, ?, 0, 1, ?)`,
		db.Name, roster.OverridesTableName)
	return db.Db.Exec(ctx, query, night, name, time.Now().UTC())
}

// ListOverrides returns all live overrides.
func (db *RosterDB) ListOverrides(ctx context.Context) ([]roster.Override, error) {
	var rows []roster.Override
	query := fmt.Sprintf(`SELECT night, name, value, deleted, updated_at FROM %s.%s FINAL WHERE deleted = 0 ORDER BY night, name`,
		db.Name, roster.OverridesTableName)
	if err := db.Db.Select(ctx, &rows, query); err != nil {
		return nil, err
	}
	return rows, nil
}

// OverrideTable reads the overrides once, keyed night -> name -> value.
func (db *RosterDB) OverrideTable(ctx context.Context) (map[string]map[string]float64, error) {
	rows, err := db.ListOverrides(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]float64)
	for _, r := range rows {
		if out[r.Night] == nil {
			out[r.Night] = make(map[string]float64)
		}
		out[r.Night][r.Name] = r.Value
	}
	return out, nil
}

// ---- excluded dates ----

// UpsertExcludedDate adds or updates an excluded calendar date.
func (db *RosterDB) UpsertExcludedDate(ctx context.Context, e *roster.ExcludedDate) error {
	e.Deleted = 0
	e.UpdatedAt = time.Now().UTC()
	query := fmt.Sprintf(`INSERT INTO %s.%s (night, reason, deleted, updated_at) VALUES (?, ?, ?, ?)`,
		db.Name, roster.ExcludedDatesTableName)
	return db.Db.Exec(ctx, query, e.Night, e.Reason, e.Deleted, e.UpdatedAt)
}

// DeleteExcludedDate soft-deletes an excluded date.
func (db *RosterDB) DeleteExcludedDate(ctx context.Context, night string) error {
	query := fmt.Sprintf(`INSERT INTO %s.%s (night, reason, deleted, updated_at) VALUES (?, '', 1, ?)`,
		db.Name, roster.ExcludedDatesTableName)
	return db.Db.Exec(ctx, query, night, time.Now().UTC())
}

// ListExcludedDates returns all live exclusions.
func (db *RosterDB) ListExcludedDates(ctx context.Context) ([]roster.ExcludedDate, error) {
	var rows []roster.ExcludedDate
	query := fmt.Sprintf(`SELECT night, reason, deleted, updated_at FROM %s.%s FINAL WHERE deleted = 0 ORDER BY night`,
		db.Name, roster.ExcludedDatesTableName)
	if err := db.Db.Select(ctx, &rows, query); err != nil {
		return nil, err
	}
	return rows, nil
}

// ExcludedDates reads the exclusions once, keyed night -> reason.
func (db *RosterDB) ExcludedDates(ctx context.Context) (map[string]string, error) {
	rows, err := db.ListExcludedDates(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Night] = r.Reason
	}
	return out, nil
}

// ---- snapshots ----

// InsertSnapshot appends one roll-up result to the history.
func (db *RosterDB) InsertSnapshot(ctx context.Context, s *roster.Snapshot) error {
	query := fmt.Sprintf(`INSERT INTO %s.%s (generated_at, window_start, window_end, body) VALUES (?, ?, ?, ?)`,
		db.Name, roster.SnapshotsTableName)
	return db.Db.Exec(ctx, query, s.GeneratedAt, s.WindowStart, s.WindowEnd, s.Body)
}

// LatestSnapshot returns the most recent persisted roll-up, or nil when none
// has been recorded yet.
func (db *RosterDB) LatestSnapshot(ctx context.Context) (*roster.Snapshot, error) {
	var s roster.Snapshot
	query := fmt.Sprintf(`SELECT generated_at, window_start, window_end, body FROM %s.%s ORDER BY generated_at DESC LIMIT 1`,
		db.Name, roster.SnapshotsTableName)
	row := db.Db.QueryRow(ctx, query)
	if err := row.ScanStruct(&s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}
