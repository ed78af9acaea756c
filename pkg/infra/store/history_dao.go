package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/iot-aicha/stock-counter/internal/analysis"
	"github.com/iot-aicha/stock-counter/internal/model"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("check record not found")

// HistoryDAO 巡检历史数据访问，只保留最近 limit 条
type HistoryDAO struct {
	db    *gorm.DB
	limit int
}

// Open 按驱动打开数据库（sqlite / mysql）
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}

// NewHistoryDAO 创建 HistoryDAO 并迁移表结构
func NewHistoryDAO(driver, dsn string, limit int) (*HistoryDAO, error) {
	db, err := Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&CheckRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate shelf_checks: %w", err)
	}
	if limit <= 0 {
		limit = 100
	}
	return &HistoryDAO{db: db, limit: limit}, nil
}

// Save 写入一条记录并裁剪到最近 limit 条
func (d *HistoryDAO) Save(ctx context.Context, entry *model.CheckEntry) error {
	record, err := toRecord(entry)
	if err != nil {
		return err
	}

	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("failed to insert check record: %w", err)
		}

		// 找到第 limit 新的记录，删除更早的
		var seqs []uint64
		if err := tx.Model(&CheckRecord{}).
			Order("seq DESC").
			Offset(d.limit - 1).
			Limit(1).
			Pluck("seq", &seqs).Error; err != nil {
			return fmt.Errorf("failed to locate trim cutoff: %w", err)
		}
		if len(seqs) == 0 {
			return nil
		}
		if err := tx.Where("seq < ?", seqs[0]).Delete(&CheckRecord{}).Error; err != nil {
			return fmt.Errorf("failed to trim history: %w", err)
		}
		return nil
	})
}

// List 最近的记录，新的在前
func (d *HistoryDAO) List(ctx context.Context, limit int) ([]*model.CheckEntry, error) {
	if limit <= 0 || limit > d.limit {
		limit = d.limit
	}

	var records []CheckRecord
	if err := d.db.WithContext(ctx).
		Order("seq DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list check records: %w", err)
	}

	entries := make([]*model.CheckEntry, 0, len(records))
	for i := range records {
		entry, err := toEntry(&records[i])
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Get 按 run_id 查询
func (d *HistoryDAO) Get(ctx context.Context, runID string) (*model.CheckEntry, error) {
	var record CheckRecord
	err := d.db.WithContext(ctx).Where("run_id = ?", runID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get check record: %w", err)
	}
	return toEntry(&record)
}

// Count 当前记录数
func (d *HistoryDAO) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := d.db.WithContext(ctx).Model(&CheckRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count check records: %w", err)
	}
	return n, nil
}

// Close 关闭数据库连接
func (d *HistoryDAO) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toRecord(e *model.CheckEntry) (*CheckRecord, error) {
	summary, err := json.Marshal(e.Summary)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary: %w", err)
	}
	result, err := json.Marshal(e.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &CheckRecord{
		RunID:             e.RunID,
		Source:            e.Source,
		RequiresAttention: e.Summary.RequiresAttention,
		TotalDetected:     e.Summary.TotalDetected,
		Misplaced:         e.Summary.Misplaced,
		MissingItems:      e.Summary.MissingItems,
		ExtraItems:        e.Summary.ExtraItems,
		Summary:           summary,
		Result:            result,
		CheckedAt:         e.Timestamp,
	}, nil
}

func toEntry(r *CheckRecord) (*model.CheckEntry, error) {
	entry := &model.CheckEntry{
		Type:      model.EntryTypeNewProcessing,
		RunID:     r.RunID,
		Source:    r.Source,
		Timestamp: r.CheckedAt,
	}
	if err := json.Unmarshal(r.Summary, &entry.Summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary of %s: %w", r.RunID, err)
	}
	var result analysis.AnalysisResult
	if err := json.Unmarshal(r.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result of %s: %w", r.RunID, err)
	}
	entry.Result = &result
	return entry, nil
}
