package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/iot-aicha/stock-counter/internal/analysis"
	"github.com/iot-aicha/stock-counter/internal/model"
)

func TestHistoryWorkbook(t *testing.T) {
	entries := []*model.CheckEntry{{
		RunID:     "run-2",
		Source:    model.SourceCamera,
		Timestamp: time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
		Summary:   analysis.Summary{TotalExpected: 4, TotalDetected: 3, CorrectlyPlaced: 2, Misplaced: 1, AlertCount: 3, RequiresAttention: true},
		Result: &analysis.AnalysisResult{
			Missing: map[string]int{"tea bottle": 1, "cup": 1},
			Extra:   map[string]int{"saucer": 1},
		},
	}}

	buf, err := HistoryWorkbook(entries)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Timestamp", rows[0][0])
	assert.Equal(t, []string{
		"2024-05-01 10:30:00", "run-2", "camera", "ATTENTION",
		"4", "3", "2", "1", "cup:1, tea bottle:1", "saucer:1", "3",
	}, rows[1])
}

func TestHistoryWorkbookEmpty(t *testing.T) {
	buf, err := HistoryWorkbook(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
