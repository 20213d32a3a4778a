package rollup

import "time"

// DateKey returns the zero-padded YYYY-MM-DD calendar date of t in loc.
// Bucketing and the weekday test below must share the same conversion, or a
// report logged just past midnight splits its night in two.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// IsRaidNight reports whether t falls on one of the configured raid weekdays
// in loc. Uses real timezone conversion, not a fixed offset, so nights around
// daylight-saving transitions land on the right weekday.
func IsRaidNight(t time.Time, loc *time.Location, days []time.Weekday) bool {
	wd := t.In(loc).Weekday()
	for _, d := range days {
		if wd == d {
			return true
		}
	}
	return false
}
