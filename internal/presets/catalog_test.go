package presets

import (
	"testing"

	"github.com/Conceptual-Machines/singalong-genie/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupKnownPreset(t *testing.T) {
	p := Lookup("nursery")
	assert.Equal(t, "Classic Nursery", p.Name)
	assert.Equal(t, "AABB", p.RhymeScheme)
}

func TestLookupFallsBackToDefault(t *testing.T) {
	assert.Equal(t, Default(), Lookup("does-not-exist"))
	assert.Equal(t, Default(), Lookup(""))
}

func TestFind(t *testing.T) {
	_, ok := Find("sea-shanty")
	assert.True(t, ok)

	_, ok = Find("polka")
	assert.False(t, ok)
}

func TestDefaultSelectionExists(t *testing.T) {
	p, ok := Find(DefaultSelectionID)
	require.True(t, ok)
	assert.Equal(t, models.CategoryGroup, p.Category)
}

func TestAllReturnsCopy(t *testing.T) {
	all := All()
	require.NotEmpty(t, all)
	all[0].Name = "mutated"

	assert.Equal(t, "Classic Nursery", All()[0].Name)
}

func TestIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range All() {
		assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
		assert.NotEmpty(t, p.RhythmStyle, p.ID)
		assert.NotEmpty(t, p.RhymeScheme, p.ID)
	}
}

func TestGroupedKeepsOrder(t *testing.T) {
	groups := Grouped()
	require.Len(t, groups, 3)

	assert.Equal(t, models.CategoryKids, groups[0].Category)
	assert.Equal(t, models.CategoryGroup, groups[1].Category)
	assert.Equal(t, models.CategorySolo, groups[2].Category)

	total := 0
	for _, g := range groups {
		for _, p := range g.Presets {
			assert.Equal(t, g.Category, p.Category)
		}
		total += len(g.Presets)
	}
	assert.Equal(t, len(All()), total)
	assert.Equal(t, "nursery", groups[0].Presets[0].ID)
}
