package analysis

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestAnalyzer(t *testing.T, items []Item) *Analyzer {
	t.Helper()
	p, err := NewPlanogram(items, Thresholds{})
	require.NoError(t, err)
	return NewAnalyzer(p, WithClock(func() time.Time { return fixedNow }))
}

func det(label string, conf, left, top, width, height float64) Detection {
	return Detection{Label: label, Confidence: conf, Box: Rect{Left: left, Top: top, Width: width, Height: height}}
}

func TestAnalyzeDuplicateBottles(t *testing.T) {
	a := newTestAnalyzer(t, DefaultItems())
	input := []Detection{
		det("bottle", 0.9, 0.1, 0.1, 0.1, 0.1),
		det("bottle", 0.8, 0.12, 0.12, 0.1, 0.1),
	}

	result := a.Analyze(input)

	require.Len(t, result.Survivors, 1)
	assert.Equal(t, input[1], result.Survivors[0])
	assert.Equal(t, 1, result.DetectedCounts["bottle"])
}

func TestAnalyzeMissingCup(t *testing.T) {
	a := newTestAnalyzer(t, []Item{{Label: "cup", Expected: 2, Zones: []Rect{{0.65, 0.6, 0.2, 0.35}}}})

	result := a.Analyze([]Detection{det("cup", 0.9, 0.7, 0.65, 0.1, 0.2)})

	assert.Equal(t, map[string]int{"cup": 1}, result.Missing)
	assert.Empty(t, result.Extra)
	assert.Empty(t, result.Misplaced)
	require.Len(t, result.Alerts, 1)
	assert.Equal(t, Alert{
		Level:        AlertLevelWarning,
		Kind:         AlertKindStockout,
		Message:      "MISSING: 1 cup(s) not found",
		RelatedLabel: "cup",
	}, result.Alerts[0])
}

func TestAnalyzeUnexpectedLabel(t *testing.T) {
	a := newTestAnalyzer(t, []Item{{Label: "cup", Expected: 0, Zones: []Rect{{0.65, 0.6, 0.2, 0.35}}}})

	result := a.Analyze([]Detection{det("saucer", 0.7, 0.2, 0.2, 0.1, 0.1)})

	assert.Equal(t, map[string]int{"saucer": 1}, result.Extra)
	assert.Empty(t, result.Missing)
	require.Len(t, result.Misplaced, 1)
	assert.Equal(t, "saucer", result.Misplaced[0].Label)
	assert.Equal(t, map[string]int{"cup": 0, "saucer": 1}, result.DetectedCounts)

	require.Len(t, result.Alerts, 2)
	assert.Equal(t, AlertKindMisplacement, result.Alerts[0].Kind)
	assert.Equal(t, AlertLevelWarning, result.Alerts[0].Level)
	assert.Equal(t, Alert{
		Level:        AlertLevelInfo,
		Kind:         AlertKindOverstock,
		Message:      "EXTRA: 1 unexpected saucer(s) detected",
		RelatedLabel: "saucer",
	}, result.Alerts[1])
}

func TestAnalyzePerishableMisplaced(t *testing.T) {
	a := newTestAnalyzer(t, DefaultItems())

	result := a.Analyze([]Detection{det("tea bottle", 0.95, 0.0, 0.0, 0.1, 0.1)})

	require.Len(t, result.Misplaced, 1)
	assert.Empty(t, result.CorrectlyPlaced)
	assert.Equal(t, Alert{
		Level:        AlertLevelCritical,
		Kind:         AlertKindMisplacement,
		Message:      "MISPLACED: tea bottle is out of position",
		RelatedLabel: "tea bottle",
	}, result.Alerts[0])
	assert.True(t, result.HasCritical())
	assert.True(t, result.RequiresAttention())
}

func TestAnalyzeEmptyInput(t *testing.T) {
	a := newTestAnalyzer(t, DefaultItems())

	result := a.Analyze(nil)

	assert.Empty(t, result.Survivors)
	assert.Equal(t, map[string]int{"bottle": 1, "tea bottle": 1, "cup": 2}, result.Missing)
	assert.Equal(t, map[string]int{"bottle": 0, "tea bottle": 0, "cup": 0}, result.DetectedCounts)
	assert.Empty(t, result.Extra)

	require.Len(t, result.Alerts, 3)
	assert.Equal(t, []Alert{
		{Level: AlertLevelWarning, Kind: AlertKindStockout, Message: "MISSING: 1 bottle(s) not found", RelatedLabel: "bottle"},
		{Level: AlertLevelCritical, Kind: AlertKindStockout, Message: "MISSING: 1 tea bottle(s) not found", RelatedLabel: "tea bottle"},
		{Level: AlertLevelWarning, Kind: AlertKindStockout, Message: "MISSING: 2 cup(s) not found", RelatedLabel: "cup"},
	}, result.Alerts)
}

func TestAnalyzeLabelWithoutZones(t *testing.T) {
	a := newTestAnalyzer(t, []Item{{Label: "lid", Expected: 1}})

	result := a.Analyze([]Detection{det("lid", 0.9, 0, 0, 1, 1)})

	require.Len(t, result.Misplaced, 1)
	assert.Empty(t, result.Missing)
	assert.Empty(t, result.Extra)
}

func TestAnalyzeCleanShelf(t *testing.T) {
	a := newTestAnalyzer(t, DefaultItems())

	result := a.Analyze([]Detection{
		det("bottle", 0.9, 0.15, 0.1, 0.2, 0.7),
		det("tea bottle", 0.9, 0.42, 0.35, 0.2, 0.6),
		det("cup", 0.9, 0.66, 0.62, 0.08, 0.3),
		det("cup", 0.9, 0.76, 0.62, 0.08, 0.3),
	})

	assert.True(t, result.Clean())
	assert.Len(t, result.CorrectlyPlaced, 4)
	assert.Empty(t, result.Alerts)

	summary := a.Summarize(result)
	assert.Equal(t, Summary{TotalExpected: 4, TotalDetected: 4, CorrectlyPlaced: 4}, summary)
}

func TestAnalyzeRejectsMalformed(t *testing.T) {
	a := newTestAnalyzer(t, DefaultItems())

	result := a.Analyze([]Detection{
		det("", 0.9, 0.1, 0.1, 0.1, 0.1),
		det("cup", 1.5, 0.1, 0.1, 0.1, 0.1),
		det("cup", 0.9, 0.95, 0.1, 0.2, 0.1),
		det("cup", 0.9, 0.7, 0.65, 0.1, 0.2),
	})

	require.Len(t, result.Rejected, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{result.Rejected[0].Index, result.Rejected[1].Index, result.Rejected[2].Index})
	assert.Len(t, result.Survivors, 1)
}

func TestAnalyzeTrimsLabels(t *testing.T) {
	a := newTestAnalyzer(t, DefaultItems())

	result := a.Analyze([]Detection{
		det(" cup ", 0.9, 0.66, 0.62, 0.08, 0.3),
		det("cup\t", 0.9, 0.76, 0.62, 0.08, 0.3),
	})

	require.Len(t, result.CorrectlyPlaced, 2)
	assert.Equal(t, "cup", result.CorrectlyPlaced[0].Label)
	assert.Equal(t, 2, result.DetectedCounts["cup"])
	assert.NotContains(t, result.Extra, " cup ")
	assert.Empty(t, result.Misplaced)
}

func TestAnalyzeBatchMergesRejections(t *testing.T) {
	a := newTestAnalyzer(t, DefaultItems())

	result := a.AnalyzeBatch(Batch{
		Detections: []Detection{
			det("cup", 0.9, 0.66, 0.62, 0.08, 0.3),
			det("cup", 1.5, 0.76, 0.62, 0.08, 0.3),
		},
		Rejected:  []Rejection{{Index: 1, Reason: "missing boundingBox"}},
		Positions: []int{0, 2},
	})

	require.Len(t, result.Rejected, 2)
	assert.Equal(t, Rejection{Index: 1, Reason: "missing boundingBox"}, result.Rejected[0])
	assert.Equal(t, 2, result.Rejected[1].Index)
	assert.Contains(t, result.Rejected[1].Reason, ErrMalformedDetection.Error())
	assert.Len(t, result.Survivors, 1)
	assert.Equal(t, 1, result.DetectedCounts["cup"])
}

func TestAlertOrdering(t *testing.T) {
	a := newTestAnalyzer(t, DefaultItems())

	result := a.Analyze([]Detection{
		det("saucer", 0.9, 0.0, 0.0, 0.05, 0.05),
		det("cup", 0.9, 0.0, 0.5, 0.05, 0.05),
		det("plate", 0.9, 0.3, 0.0, 0.05, 0.05),
	})

	kinds := make([]AlertKind, 0, len(result.Alerts))
	labels := make([]string, 0, len(result.Alerts))
	for _, alert := range result.Alerts {
		kinds = append(kinds, alert.Kind)
		labels = append(labels, alert.RelatedLabel)
	}
	assert.Equal(t, []AlertKind{
		AlertKindMisplacement, AlertKindMisplacement, AlertKindMisplacement,
		AlertKindStockout, AlertKindStockout, AlertKindStockout,
		AlertKindOverstock, AlertKindOverstock,
	}, kinds)
	assert.Equal(t, []string{"saucer", "cup", "plate", "bottle", "tea bottle", "cup", "saucer", "plate"}, labels)
}

func randomDetections(r *rand.Rand, n int) []Detection {
	labels := []string{"bottle", "tea bottle", "cup", "saucer"}
	out := make([]Detection, n)
	for i := range out {
		w := 0.02 + r.Float64()*0.2
		h := 0.02 + r.Float64()*0.3
		out[i] = det(labels[r.Intn(len(labels))], 0.5+r.Float64()*0.5, r.Float64()*(1-w), r.Float64()*(1-h), w, h)
	}
	return out
}

func TestAnalyzeProperties(t *testing.T) {
	a := newTestAnalyzer(t, DefaultItems())
	expected := a.Planogram().ExpectedInventory()
	r := rand.New(rand.NewSource(7))

	for round := 0; round < 200; round++ {
		input := randomDetections(r, r.Intn(12))
		result := a.Analyze(input)

		// 在位与错位按原序划分全部幸存检测，互不重叠
		wantCorrect := make([]Detection, 0, len(result.Survivors))
		wantMisplaced := make([]Detection, 0)
		for _, d := range result.Survivors {
			if a.Planogram().InZone(d) {
				wantCorrect = append(wantCorrect, d)
			} else {
				wantMisplaced = append(wantMisplaced, d)
			}
		}
		assert.Equal(t, wantCorrect, result.CorrectlyPlaced)
		assert.Equal(t, wantMisplaced, result.Misplaced)
		for _, c := range result.CorrectlyPlaced {
			assert.NotContains(t, result.Misplaced, c)
		}

		total := 0
		for _, n := range result.DetectedCounts {
			total += n
		}
		assert.Equal(t, len(result.Survivors), total)

		for label, want := range expected {
			got, ok := result.DetectedCounts[label]
			require.True(t, ok, "expected label %q must be zero-filled", label)
			assert.Equal(t, got-want, result.Extra[label]-result.Missing[label])
		}
		for label, n := range result.Extra {
			assert.Positive(t, n)
			assert.Equal(t, result.DetectedCounts[label]-expected[label], n)
		}
		for _, n := range result.Missing {
			assert.Positive(t, n)
		}

		assert.Equal(t, Deduplicate(input, DefaultOverlapThreshold), result.Survivors)
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	a := newTestAnalyzer(t, DefaultItems())
	input := randomDetections(rand.New(rand.NewSource(11)), 10)

	first, err := json.Marshal(a.Analyze(input))
	require.NoError(t, err)
	second, err := json.Marshal(a.Analyze(input))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestResultJSONFieldNames(t *testing.T) {
	a := newTestAnalyzer(t, DefaultItems())
	raw, err := json.Marshal(a.Analyze([]Detection{det("tea bottle", 0.95, 0, 0, 0.1, 0.1)}))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	for _, key := range []string{"survivors", "correctlyPlaced", "misplaced", "detectedCounts", "missing", "extra", "alerts", "timestamp"} {
		assert.Contains(t, decoded, key)
	}
	assert.NotContains(t, decoded, "rejected")

	alert := decoded["alerts"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "tea bottle", alert["relatedLabel"])
	assert.Equal(t, "critical", alert["level"])
}
