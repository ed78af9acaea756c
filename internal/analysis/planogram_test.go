package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlanogramDefaults(t *testing.T) {
	p, err := NewPlanogram(DefaultItems(), Thresholds{})
	require.NoError(t, err)

	assert.Equal(t, []string{"bottle", "tea bottle", "cup"}, p.Labels())
	assert.Equal(t, map[string]int{"bottle": 1, "tea bottle": 1, "cup": 2}, p.ExpectedInventory())
	assert.Equal(t, 4, p.TotalExpected())
	assert.True(t, p.IsPerishable("tea bottle"))
	assert.False(t, p.IsPerishable("bottle"))
	assert.False(t, p.IsPerishable("saucer"))
	assert.Equal(t, Thresholds{Overlap: DefaultOverlapThreshold, ZoneFraction: DefaultZoneFraction}, p.Thresholds())
	assert.Len(t, p.Zones(), 3)
}

func TestNewPlanogramRejectsInvalid(t *testing.T) {
	tests := []struct {
		name       string
		items      []Item
		thresholds Thresholds
	}{
		{"negative expected", []Item{{Label: "cup", Expected: -1}}, Thresholds{}},
		{"zero area zone", []Item{{Label: "cup", Expected: 1, Zones: []Rect{{0.1, 0.1, 0, 0.2}}}}, Thresholds{}},
		{"zone out of range", []Item{{Label: "cup", Expected: 1, Zones: []Rect{{0.9, 0.1, 0.5, 0.2}}}}, Thresholds{}},
		{"empty label", []Item{{Label: "  ", Expected: 1}}, Thresholds{}},
		{"duplicate label", []Item{{Label: "cup", Expected: 1}, {Label: "cup", Expected: 2}}, Thresholds{}},
		{"overlap threshold", DefaultItems(), Thresholds{Overlap: 1.5}},
		{"zone fraction", DefaultItems(), Thresholds{ZoneFraction: -0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPlanogram(tt.items, tt.thresholds)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidPlanogram)
		})
	}
}

func TestPlanogramCopiesZones(t *testing.T) {
	items := []Item{{Label: "cup", Expected: 1, Zones: []Rect{{0.1, 0.1, 0.2, 0.2}}}}
	p, err := NewPlanogram(items, Thresholds{})
	require.NoError(t, err)

	items[0].Zones[0].Left = 0.5
	assert.Equal(t, 0.1, p.ZonesFor("cup")[0].Left)
}

func TestInZone(t *testing.T) {
	p, err := NewPlanogram([]Item{
		{Label: "cup", Expected: 1, Zones: []Rect{{0, 0, 0.2, 0.2}, {0.6, 0.6, 0.2, 0.2}}},
		{Label: "lid", Expected: 1},
	}, Thresholds{})
	require.NoError(t, err)

	// 只要命中任一区域
	assert.True(t, p.InZone(Detection{Label: "cup", Confidence: 0.9, Box: Rect{0.65, 0.65, 0.1, 0.1}}))
	// 覆盖 20%
	assert.False(t, p.InZone(Detection{Label: "cup", Confidence: 0.9, Box: Rect{0.16, 0, 0.2, 0.1}}))
	// 覆盖 30%
	assert.True(t, p.InZone(Detection{Label: "cup", Confidence: 0.9, Box: Rect{0.14, 0, 0.2, 0.1}}))
	assert.False(t, p.InZone(Detection{Label: "lid", Confidence: 0.9, Box: Rect{0, 0, 1, 1}}))
	assert.False(t, p.InZone(Detection{Label: "saucer", Confidence: 0.9, Box: Rect{0, 0, 0.1, 0.1}}))
}
