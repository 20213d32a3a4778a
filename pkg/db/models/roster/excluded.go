package roster

import "time"

const ExcludedDatesTableName = "excluded_dates"

// ExcludedDateColumns defines the schema for the excluded_dates table.
var ExcludedDateColumns = []ColumnDef{
	{Name: "night", Type: "String"},
	{Name: "reason", Type: "String"},
	{Name: "deleted", Type: "UInt8"},
	{Name: "updated_at", Type: "DateTime"},
}

// ExcludedDate removes one calendar date from the roll-up denominator
// entirely (holiday break, server outage). Not a zero score; the night
// simply does not exist.
type ExcludedDate struct {
	Night     string    `json:"night" ch:"night"`
	Reason    string    `json:"reason" ch:"reason"`
	Deleted   uint8     `json:"deleted" ch:"deleted"`
	UpdatedAt time.Time `json:"updated_at" ch:"updated_at"`
}
