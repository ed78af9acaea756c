package store

import (
	"time"

	"gorm.io/datatypes"
)

// CheckRecord 巡检历史表
type CheckRecord struct {
	Seq               uint64         `gorm:"column:seq;primaryKey;autoIncrement"`
	RunID             string         `gorm:"column:run_id;type:varchar(64);uniqueIndex"`
	Source            string         `gorm:"column:source;type:varchar(32)"`
	RequiresAttention bool           `gorm:"column:requires_attention"`
	TotalDetected     int            `gorm:"column:total_detected"`
	Misplaced         int            `gorm:"column:misplaced"`
	MissingItems      int            `gorm:"column:missing_items"`
	ExtraItems        int            `gorm:"column:extra_items"`
	Summary           datatypes.JSON `gorm:"column:summary;type:json"`
	Result            datatypes.JSON `gorm:"column:result;type:json"`
	CheckedAt         time.Time      `gorm:"column:checked_at;index"`
	CreatedAt         time.Time      `gorm:"column:created_at"`
}

// TableName 表名
func (CheckRecord) TableName() string {
	return "shelf_checks"
}
