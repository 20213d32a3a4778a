package roster

import "time"

const AliasesTableName = "aliases"

// AliasColumns defines the schema for the aliases table.
var AliasColumns = []ColumnDef{
	{Name: "alias", Type: "String"},
	{Name: "canonical", Type: "String"},
	{Name: "deleted", Type: "UInt8"},
	{Name: "updated_at", Type: "DateTime"},
}

// Alias maps one raw log name to the canonical member name used for
// aggregation. Soft-deleted rows keep their key so ReplacingMergeTree can
// retire them by updated_at.
type Alias struct {
	Alias     string    `json:"alias" ch:"alias"`
	Canonical string    `json:"canonical" ch:"canonical"`
	Deleted   uint8     `json:"deleted" ch:"deleted"`
	UpdatedAt time.Time `json:"updated_at" ch:"updated_at"`
}
