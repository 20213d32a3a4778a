package roster

import "time"

const OverridesTableName = "overrides"

// OverrideColumns defines the schema for the overrides table.
var OverrideColumns = []ColumnDef{
	{Name: "night", Type: "String"},
	{Name: "name", Type: "String"},
	{Name: "value", Type: "Float64"},
	{Name: "deleted", Type: "UInt8"},
	{Name: "updated_at", Type: "DateTime"},
}

// Override is a manual attendance credit for one (night, canonical name)
// pair. It replaces resolved presence outright: 0 erases an observed
// attendance, values above 1 grant deliberate bonus credit.
type Override struct {
	Night     string    `json:"night" ch:"night"`
	Name      string    `json:"name" ch:"name"`
	Value     float64   `json:"value" ch:"value"`
	Deleted   uint8     `json:"deleted" ch:"deleted"`
	UpdatedAt time.Time `json:"updated_at" ch:"updated_at"`
}
