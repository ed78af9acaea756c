package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iot-aicha/stock-counter/internal/analysis"
	"github.com/iot-aicha/stock-counter/internal/model"
)

func newTestDAO(t *testing.T, limit int) *HistoryDAO {
	t.Helper()
	dao, err := NewHistoryDAO("sqlite", filepath.Join(t.TempDir(), "history.db"), limit)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dao.Close() })
	return dao
}

func testEntry(i int) *model.CheckEntry {
	return &model.CheckEntry{
		Type:      model.EntryTypeNewProcessing,
		RunID:     fmt.Sprintf("run-%d", i),
		Source:    model.SourceCamera,
		Timestamp: time.Date(2024, 5, 1, 10, i, 0, 0, time.UTC),
		Summary:   analysis.Summary{TotalExpected: 4, TotalDetected: i, MissingItems: 1, RequiresAttention: true},
		Result: &analysis.AnalysisResult{
			Survivors:       []analysis.Detection{},
			CorrectlyPlaced: []analysis.Detection{},
			Misplaced:       []analysis.Detection{},
			DetectedCounts:  map[string]int{"cup": 1},
			Missing:         map[string]int{"cup": 1},
			Extra:           map[string]int{},
			Alerts:          []analysis.Alert{{Level: analysis.AlertLevelWarning, Kind: analysis.AlertKindStockout, Message: "MISSING: 1 cup(s) not found", RelatedLabel: "cup"}},
		},
	}
}

func TestHistoryDAOSaveAndGet(t *testing.T) {
	dao := newTestDAO(t, 10)
	ctx := context.Background()

	require.NoError(t, dao.Save(ctx, testEntry(1)))

	got, err := dao.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, model.SourceCamera, got.Source)
	assert.Equal(t, 1, got.Summary.TotalDetected)
	assert.Equal(t, map[string]int{"cup": 1}, got.Result.Missing)
	assert.Equal(t, "MISSING: 1 cup(s) not found", got.Result.Alerts[0].Message)
	assert.True(t, got.Timestamp.Equal(testEntry(1).Timestamp))

	_, err = dao.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHistoryDAOTrimsToLimit(t *testing.T) {
	dao := newTestDAO(t, 3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, dao.Save(ctx, testEntry(i)))
	}

	n, err := dao.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	entries, err := dao.List(ctx, 0)
	require.NoError(t, err)
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.RunID)
	}
	assert.Equal(t, []string{"run-5", "run-4", "run-3"}, ids)

	entries, err = dao.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "run-5", entries[0].RunID)
}

func TestHistoryDAODuplicateRunID(t *testing.T) {
	dao := newTestDAO(t, 3)
	ctx := context.Background()

	require.NoError(t, dao.Save(ctx, testEntry(1)))
	assert.Error(t, dao.Save(ctx, testEntry(1)))
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "dsn")
	assert.Error(t, err)
}
