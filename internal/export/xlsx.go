package export

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/iot-aicha/stock-counter/internal/model"
)

// SheetName 历史记录工作表名
const SheetName = "History"

var headers = []string{
	"Timestamp", "Run ID", "Source", "Status",
	"Expected", "Detected", "Correctly Placed", "Misplaced",
	"Missing", "Extra", "Alerts",
}

// HistoryWorkbook 将巡检历史导出为 XLSX，每条记录一行
func HistoryWorkbook(entries []*model.CheckEntry) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for col, h := range headers {
		if err := setCell(f, col+1, 1, h); err != nil {
			return nil, err
		}
	}

	for i, e := range entries {
		row := i + 2
		var missing, extra map[string]int
		if e.Result != nil {
			missing, extra = e.Result.Missing, e.Result.Extra
		}
		values := []interface{}{
			e.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			e.RunID,
			e.Source,
			e.Status(),
			e.Summary.TotalExpected,
			e.Summary.TotalDetected,
			e.Summary.CorrectlyPlaced,
			e.Summary.Misplaced,
			formatCounts(missing),
			formatCounts(extra),
			e.Summary.AlertCount,
		}
		for col, v := range values {
			if err := setCell(f, col+1, row, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

func setCell(f *excelize.File, col, row int, v interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(SheetName, cell, v)
}

// formatCounts "cup:1, lid:2"，按标签排序
func formatCounts(counts map[string]int) string {
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		parts = append(parts, fmt.Sprintf("%s:%d", label, counts[label]))
	}
	return strings.Join(parts, ", ")
}
