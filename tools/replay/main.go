package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/iot-aicha/stock-counter/internal/analysis"
	"github.com/iot-aicha/stock-counter/internal/detection"
	"github.com/iot-aicha/stock-counter/internal/model"
	"github.com/iot-aicha/stock-counter/pkg/config"
	"github.com/iot-aicha/stock-counter/pkg/infra/store"
)

var (
	configPath   = flag.String("config", "./config/worker.yaml", "配置文件路径")
	testcasePath = flag.String("testcase", "./tools/replay/testcase/replay.json", "测试用例路径")
	saveHistory  = flag.Bool("save", false, "将结果写入配置的历史库")
)

// TestCase 回放用例：检测服务原始响应 + 期望汇总
type TestCase struct {
	Name     string          `json:"name"`
	Response json.RawMessage `json:"response"`
	Expect   *Expectation    `json:"expect,omitempty"`
}

// Expectation 期望值，未填写的字段不校验
type Expectation struct {
	RequiresAttention *bool `json:"requires_attention,omitempty"`
	CorrectlyPlaced   *int  `json:"correctly_placed,omitempty"`
	Misplaced         *int  `json:"misplaced,omitempty"`
	MissingItems      *int  `json:"missing_items,omitempty"`
	ExtraItems        *int  `json:"extra_items,omitempty"`
	AlertCount        *int  `json:"alert_count,omitempty"`
}

func main() {
	flag.Parse()

	fmt.Println("========================================")
	fmt.Println("  Replay - 检测结果回放工具")
	fmt.Println("========================================")

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}
	planogram, err := cfg.Planogram.BuildPlanogram()
	if err != nil {
		fmt.Printf("❌ Invalid planogram: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Config loaded: %s, labels: %v\n", cfg.App.Name, planogram.Labels())

	// 2. 加载测试用例
	testCases, err := loadTestCases(*testcasePath)
	if err != nil {
		fmt.Printf("❌ Failed to load test cases: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Loaded %d test cases from %s\n", len(testCases), *testcasePath)

	// 3. 可选：历史库
	var dao *store.HistoryDAO
	if *saveHistory {
		if cfg.Storage.Driver == "" {
			fmt.Println("❌ storage.driver is empty, nothing to save to")
			os.Exit(1)
		}
		dao, err = store.NewHistoryDAO(cfg.Storage.Driver, cfg.Storage.DSN, cfg.Storage.HistoryLimit)
		if err != nil {
			fmt.Printf("❌ Failed to open history: %v\n", err)
			os.Exit(1)
		}
		defer dao.Close()
	}

	// 4. 回放
	analyzer := analysis.NewAnalyzer(planogram)
	failureCount := 0

	for i, tc := range testCases {
		fmt.Printf("\n[Case %d/%d] %s\n", i+1, len(testCases), tc.Name)
		fmt.Println("----------------------------------------")

		startTime := time.Now()
		entry, err := replay(analyzer, cfg.Detector.MinConfidence, tc)
		if err == nil {
			err = check(tc.Expect, entry.Summary)
		}
		if err == nil && dao != nil {
			err = dao.Save(context.Background(), entry)
		}

		if err != nil {
			fmt.Printf("❌ FAILED: %v\n", err)
			failureCount++
		} else {
			fmt.Printf("✅ PASSED\n")
		}
		fmt.Printf("⏱️  Duration: %v\n", time.Since(startTime))
	}

	// 5. 汇总
	fmt.Println("\n========================================")
	fmt.Printf("Total: %d, Passed: %d, Failed: %d\n", len(testCases), len(testCases)-failureCount, failureCount)
	fmt.Println("========================================")

	if failureCount > 0 {
		os.Exit(1)
	}
}

// loadTestCases 从 JSON 文件加载测试用例
func loadTestCases(path string) ([]TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read testcase file: %w", err)
	}

	var testCases []TestCase
	if err := json.Unmarshal(data, &testCases); err != nil {
		return nil, fmt.Errorf("failed to unmarshal testcase: %w", err)
	}
	return testCases, nil
}

// replay 解析检测响应并分析
func replay(analyzer *analysis.Analyzer, minConfidence float64, tc TestCase) (*model.CheckEntry, error) {
	parsed, err := detection.ParsePredictions(tc.Response, minConfidence)
	if err != nil {
		return nil, err
	}

	result := analyzer.AnalyzeBatch(parsed.Batch())
	summary := analyzer.Summarize(result)

	fmt.Printf("predictions=%d kept=%d below_threshold=%d malformed=%d\n",
		parsed.Total, len(parsed.Detections), parsed.BelowThreshold, len(parsed.Skipped))
	fmt.Printf("detected=%v missing=%v extra=%v\n", result.DetectedCounts, result.Missing, result.Extra)
	for _, a := range result.Alerts {
		fmt.Printf("  [%s] %s\n", a.Level, a.Message)
	}

	return &model.CheckEntry{
		Type:      model.EntryTypeNewProcessing,
		RunID:     uuid.New().String(),
		Source:    model.SourceJob,
		Timestamp: result.Timestamp,
		Summary:   summary,
		Result:    result,
	}, nil
}

// check 校验期望值
func check(expect *Expectation, got analysis.Summary) error {
	if expect == nil {
		return nil
	}
	if expect.RequiresAttention != nil && *expect.RequiresAttention != got.RequiresAttention {
		return fmt.Errorf("requires_attention: want %t, got %t", *expect.RequiresAttention, got.RequiresAttention)
	}
	ints := []struct {
		name string
		want *int
		got  int
	}{
		{"correctly_placed", expect.CorrectlyPlaced, got.CorrectlyPlaced},
		{"misplaced", expect.Misplaced, got.Misplaced},
		{"missing_items", expect.MissingItems, got.MissingItems},
		{"extra_items", expect.ExtraItems, got.ExtraItems},
		{"alert_count", expect.AlertCount, got.AlertCount},
	}
	for _, c := range ints {
		if c.want != nil && *c.want != c.got {
			return fmt.Errorf("%s: want %d, got %d", c.name, *c.want, c.got)
		}
	}
	return nil
}
