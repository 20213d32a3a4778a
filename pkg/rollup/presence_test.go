package rollup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naptholomew/tempest-attendance/pkg/wcl"
)

func TestResolve_UnionsDamageAndHealing(t *testing.T) {
	src := &fakeSource{
		fights: map[string][]wcl.Fight{"r": {
			{ID: 1, Boss: 610, Kill: true},
			{ID: 2, Boss: 611, Kill: false}, // wipe, does not qualify
			{ID: 3, Boss: 0, Kill: true},    // trash
		}},
		tables: map[string]map[string][]wcl.TableEntry{"r": {
			wcl.TableDamageDone: {{Name: "Bob", Type: "Warrior"}},
			wcl.TableHealing:    {{Name: "Alice", Type: "Priest"}, {Name: "Bob", Type: "Warrior"}},
		}},
	}
	r := NewResolver(src, nil, nil)

	present, err := r.Resolve(context.Background(), wcl.Report{Code: "r"})
	require.NoError(t, err)
	assert.Len(t, present, 2)
	assert.Contains(t, present, "Bob")
	assert.Contains(t, present, "Alice")
}

func TestResolve_NoQualifyingFights(t *testing.T) {
	src := &fakeSource{
		fights: map[string][]wcl.Fight{"r": {{ID: 1, Boss: 610, Kill: false}}},
		tables: map[string]map[string][]wcl.TableEntry{"r": {
			wcl.TableDamageDone: {{Name: "Bob"}},
		}},
	}
	r := NewResolver(src, nil, nil)

	present, err := r.Resolve(context.Background(), wcl.Report{Code: "r"})
	require.NoError(t, err)
	assert.Empty(t, present)
}

func TestResolve_FilteringRules(t *testing.T) {
	src := &fakeSource{
		fights: map[string][]wcl.Fight{"r": {{ID: 1, Boss: 610, Kill: true}}},
		tables: map[string]map[string][]wcl.TableEntry{"r": {
			wcl.TableDamageDone: {
				{Name: "Bob", Type: "Warrior"},
				{Name: "  Alice  ", Type: "Priest"}, // whitespace trimmed
				{Name: "Pet", Type: "Wolf"},         // type not on allow-list
				{Name: "Knownpet", Type: "Warrior"}, // deny-listed by name
				{Name: "", Type: "Warrior"},         // empty after trim
				{Name: "Mystery", Type: ""},         // empty type presumed member
			},
			wcl.TableHealing: nil,
		}},
	}
	r := NewResolver(src, []string{"Warrior", "Priest"}, []string{"Knownpet"})

	present, err := r.Resolve(context.Background(), wcl.Report{Code: "r"})
	require.NoError(t, err)

	assert.Len(t, present, 3)
	assert.Contains(t, present, "Bob")
	assert.Contains(t, present, "Alice")
	assert.Contains(t, present, "Mystery")
}

func TestResolve_TableErrorPropagates(t *testing.T) {
	// Fights succeed; the table fetch fails and must surface as the error.
	src := &fakeSource{
		fights:   map[string][]wcl.Fight{"r": {{ID: 1, Boss: 610, Kill: true}}},
		tableErr: assert.AnError,
	}
	r := NewResolver(src, nil, nil)

	_, err := r.Resolve(context.Background(), wcl.Report{Code: "r"})
	require.ErrorIs(t, err, assert.AnError)
}
