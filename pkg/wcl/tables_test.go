package wcl

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractEntries_Direct(t *testing.T) {
	raw := json.RawMessage(`{"entries":[{"name":"Bob","type":"Warrior"},{"name":"Alice","type":"Priest"}]}`)
	entries := ExtractEntries(raw)
	assert.Equal(t, []TableEntry{{Name: "Bob", Type: "Warrior"}, {Name: "Alice", Type: "Priest"}}, entries)
}

func TestExtractEntries_NestedData(t *testing.T) {
	raw := json.RawMessage(`{"data":{"entries":[{"name":"Bob","type":"Warrior"}]}}`)
	entries := ExtractEntries(raw)
	assert.Equal(t, []TableEntry{{Name: "Bob", Type: "Warrior"}}, entries)
}

func TestExtractEntries_SeriesEntries(t *testing.T) {
	raw := json.RawMessage(`{"series":[{"entries":[{"name":"Bob","type":"Warrior"}]},{"entries":[{"name":"Alice","type":"Priest"}]}]}`)
	entries := ExtractEntries(raw)
	assert.Len(t, entries, 2)
	assert.Equal(t, "Bob", entries[0].Name)
	assert.Equal(t, "Alice", entries[1].Name)
}

func TestExtractEntries_SeriesNestedData(t *testing.T) {
	raw := json.RawMessage(`{"series":[{"data":{"entries":[{"name":"Bob","type":"Warrior"}]}}]}`)
	entries := ExtractEntries(raw)
	assert.Equal(t, []TableEntry{{Name: "Bob", Type: "Warrior"}}, entries)
}

func TestExtractEntries_ScanFallback(t *testing.T) {
	// No recognized key; the scan picks the first array of name-bearing objects.
	raw := json.RawMessage(`{"totalTime":12345,"players":[{"name":"Bob","type":"Warrior"}]}`)
	entries := ExtractEntries(raw)
	assert.Equal(t, []TableEntry{{Name: "Bob", Type: "Warrior"}}, entries)
}

// The scan must be deterministic for identical payload bytes: with several
// name-bearing arrays present, the first one in document order always wins,
// no matter how often the same payload is extracted.
func TestExtractEntries_ScanPicksFirstArrayInDocumentOrder(t *testing.T) {
	// "zeta" precedes "alpha" in the document, not alphabetically.
	raw := json.RawMessage(`{"zeta":[{"name":"FromZeta"}],"alpha":[{"name":"FromAlpha"}]}`)
	for i := 0; i < 200; i++ {
		entries := ExtractEntries(raw)
		assert.Equal(t, []TableEntry{{Name: "FromZeta"}}, entries)
	}
}

func TestExtractEntries_ScanIgnoresNamelessArrays(t *testing.T) {
	raw := json.RawMessage(`{"buckets":[{"count":3},{"count":9}]}`)
	assert.Empty(t, ExtractEntries(raw))

	// A nameless array earlier in the document does not mask a later match.
	raw = json.RawMessage(`{"buckets":[{"count":3}],"players":[{"name":"Bob"}]}`)
	assert.Equal(t, []TableEntry{{Name: "Bob"}}, ExtractEntries(raw))
}

func TestExtractEntries_UnrecognizedShape(t *testing.T) {
	assert.Empty(t, ExtractEntries(json.RawMessage(`{"totalTime":12345}`)))
	assert.Empty(t, ExtractEntries(json.RawMessage(`"just a string"`)))
	assert.Empty(t, ExtractEntries(json.RawMessage(`null`)))
}

func TestExtractEntries_DirectWinsOverScan(t *testing.T) {
	// entries key present: the direct shape must win even with other arrays around.
	raw := json.RawMessage(`{"entries":[{"name":"Bob"}],"players":[{"name":"Impostor"}]}`)
	entries := ExtractEntries(raw)
	assert.Equal(t, []TableEntry{{Name: "Bob"}}, entries)
}
