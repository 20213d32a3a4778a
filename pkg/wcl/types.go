package wcl

import "time"

// Report is one uploaded combat log owned by the guild. Times are epoch
// milliseconds, as the log service reports them.
type Report struct {
	Code      string `json:"code"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
}

// Start returns the report start as a time.Time.
func (r Report) Start() time.Time {
	return time.UnixMilli(r.StartTime).UTC()
}

// End returns the report end as a time.Time.
func (r Report) End() time.Time {
	return time.UnixMilli(r.EndTime).UTC()
}

// Fight is one encounter within a report.
type Fight struct {
	ID   int  `json:"id"`
	Boss int  `json:"boss"`
	Kill bool `json:"kill"`
}

// Qualifying reports whether the fight counts toward attendance:
// a boss encounter that ended in a kill.
func (f Fight) Qualifying() bool {
	return f.Boss != 0 && f.Kill
}

// TableEntry is one participant row from an activity table. Type is the
// upstream classification tag and may be empty.
type TableEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// reportPage is the paged guild-reports response.
type reportPage struct {
	Reports      []Report `json:"reports"`
	HasMorePages bool     `json:"hasMorePages"`
}

// fightsResp wraps the fight list for a report.
type fightsResp struct {
	Fights []Fight `json:"fights"`
}
