package wcl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Activity table views unioned into presence. Presence is an OR across the
// two: appearing in either table counts.
const (
	TableDamageDone = "damage-done"
	TableHealing    = "healing"
)

// Table fetches one activity table for the given fights and extracts its
// participant entries. An unrecognized payload shape yields an empty slice,
// not an error; shape leniency is the one place the pipeline degrades
// instead of failing.
func (c *Client) Table(ctx context.Context, code, view string, fightIDs []int) ([]TableEntry, error) {
	ids := make([]string, 0, len(fightIDs))
	for _, id := range fightIDs {
		ids = append(ids, strconv.Itoa(id))
	}
	q := url.Values{}
	q.Set("fights", strings.Join(ids, ","))

	var raw json.RawMessage
	path := fmt.Sprintf("/reports/tables/%s/%s", url.PathEscape(view), url.PathEscape(code))
	if err := c.getJSON(ctx, path, q, &raw); err != nil {
		return nil, fmt.Errorf("table %s for %s: %w", view, code, err)
	}
	return ExtractEntries(raw), nil
}

// tableShape is one extraction strategy for a table payload. Strategies are
// tried in order; the first that recognizes the shape wins.
type tableShape struct {
	name    string
	extract func(raw json.RawMessage) ([]TableEntry, bool)
}

var tableShapes = []tableShape{
	{"direct", extractDirect},
	{"nested-data", extractNestedData},
	{"series", extractSeries},
}

// ExtractEntries pulls participant entries out of a table payload whose exact
// nesting varies by view and upstream version. Falls back to scanning
// top-level values for the first array of name-bearing objects, and finally
// to an empty list.
func ExtractEntries(raw json.RawMessage) []TableEntry {
	for _, shape := range tableShapes {
		if entries, ok := shape.extract(raw); ok {
			return entries
		}
	}
	return extractScan(raw)
}

func extractDirect(raw json.RawMessage) ([]TableEntry, bool) {
	var body struct {
		Entries []TableEntry `json:"entries"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Entries == nil {
		return nil, false
	}
	return body.Entries, true
}

func extractNestedData(raw json.RawMessage) ([]TableEntry, bool) {
	var body struct {
		Data struct {
			Entries []TableEntry `json:"entries"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Data.Entries == nil {
		return nil, false
	}
	return body.Data.Entries, true
}

func extractSeries(raw json.RawMessage) ([]TableEntry, bool) {
	var body struct {
		Series []struct {
			Entries []TableEntry `json:"entries"`
			Data    struct {
				Entries []TableEntry `json:"entries"`
			} `json:"data"`
		} `json:"series"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Series == nil {
		return nil, false
	}
	var out []TableEntry
	for _, s := range body.Series {
		out = append(out, s.Entries...)
		out = append(out, s.Data.Entries...)
	}
	return out, true
}

// extractScan is the last-resort strategy: walk top-level values in document
// order and take the first array whose objects carry a name. Document order
// keeps the result deterministic for identical payload bytes.
func extractScan(raw json.RawMessage) []TableEntry {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return nil
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil
		}
		var entries []TableEntry
		if err := json.Unmarshal(v, &entries); err != nil {
			continue
		}
		for _, e := range entries {
			if e.Name != "" {
				return entries
			}
		}
	}
	return nil
}
