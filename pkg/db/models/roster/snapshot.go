package roster

import "time"

const SnapshotsTableName = "rollup_snapshots"

// SnapshotColumns defines the schema for the rollup_snapshots table.
var SnapshotColumns = []ColumnDef{
	{Name: "generated_at", Type: "DateTime64(3)"},
	{Name: "window_start", Type: "DateTime"},
	{Name: "window_end", Type: "DateTime"},
	{Name: "body", Type: "String", Codec: "ZSTD(1)"},
}

// Snapshot is one persisted roll-up result, stored verbatim as the JSON the
// API serves. History is append-only; the latest row is the live snapshot.
type Snapshot struct {
	GeneratedAt time.Time `json:"generated_at" ch:"generated_at"`
	WindowStart time.Time `json:"window_start" ch:"window_start"`
	WindowEnd   time.Time `json:"window_end" ch:"window_end"`
	Body        string    `json:"body" ch:"body"`
}
