package rollup

import (
	"time"

	"github.com/naptholomew/tempest-attendance/pkg/wcl"
)

// Inputs is everything one roll-up run consumes. Aliases, Overrides and
// Excluded are consistent snapshots read once at run start; the pipeline
// never re-reads them mid-run.
type Inputs struct {
	Reports []wcl.Report

	// Aliases maps raw names to canonical member names.
	Aliases map[string]string

	// Overrides maps dateKey -> canonical name -> attendance credit. A value
	// present here replaces resolved presence for that member on that night.
	Overrides map[string]map[string]float64

	// Excluded maps dateKey -> reason. Excluded nights leave the denominator
	// entirely.
	Excluded map[string]string
}

// Row is the aggregated attendance line for one canonical member.
type Row struct {
	Name     string  `json:"name"`
	Attended float64 `json:"attended"`
	Possible int     `json:"possible"`
	Pct      int     `json:"pct"`
	LastSeen string  `json:"lastSeen,omitempty"`
}

// ExcludedDate is one administratively excluded calendar date.
type ExcludedDate struct {
	DateKey string `json:"dateKey"`
	Reason  string `json:"reason,omitempty"`
}

// Snapshot is the output of one roll-up run. It is a pure function of Inputs
// plus the window bounds; identical inputs produce byte-identical Nights and
// Rows.
type Snapshot struct {
	GeneratedAt time.Time `json:"generatedAt"`
	WindowStart time.Time `json:"windowStart"`
	WindowEnd   time.Time `json:"windowEnd"`

	Nights         []string            `json:"nights"`
	Rows           []Row               `json:"rows"`
	PerPlayerDates map[string][]string `json:"perPlayerDates,omitempty"`
	Excluded       []ExcludedDate      `json:"excluded,omitempty"`
}
