package analysis

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultOverlapThreshold 去重重叠率阈值
	DefaultOverlapThreshold = 0.20
	// DefaultZoneFraction 判定在位所需的最小区域覆盖比例
	DefaultZoneFraction = 0.25
)

// ErrInvalidPlanogram 货架布局配置不合法
var ErrInvalidPlanogram = errors.New("invalid planogram")

// Item 单个商品的布局配置
type Item struct {
	Label      string `mapstructure:"label" json:"label"`
	Expected   int    `mapstructure:"expected" json:"expected"`
	Perishable bool   `mapstructure:"perishable" json:"perishable"`
	Zones      []Rect `mapstructure:"zones" json:"zones"`
}

// Zone 期望摆放区域
type Zone struct {
	Label string
	Rect  Rect
}

// Thresholds 分析阈值，零值表示使用默认值
type Thresholds struct {
	Overlap      float64 `mapstructure:"overlap_threshold"`
	ZoneFraction float64 `mapstructure:"zone_fraction"`
}

// Planogram 货架布局：期望库存、期望区域、易腐标记
// 创建后只读，可在多个 Analyzer 间共享
type Planogram struct {
	items      []Item
	index      map[string]int
	thresholds Thresholds
}

// NewPlanogram 校验并创建货架布局
func NewPlanogram(items []Item, thresholds Thresholds) (*Planogram, error) {
	if thresholds.Overlap == 0 {
		thresholds.Overlap = DefaultOverlapThreshold
	}
	if thresholds.ZoneFraction == 0 {
		thresholds.ZoneFraction = DefaultZoneFraction
	}
	if thresholds.Overlap < 0 || thresholds.Overlap > 1 {
		return nil, fmt.Errorf("%w: overlap threshold %v out of (0,1]", ErrInvalidPlanogram, thresholds.Overlap)
	}
	if thresholds.ZoneFraction < 0 || thresholds.ZoneFraction > 1 {
		return nil, fmt.Errorf("%w: zone fraction %v out of (0,1]", ErrInvalidPlanogram, thresholds.ZoneFraction)
	}

	p := &Planogram{
		items:      make([]Item, 0, len(items)),
		index:      make(map[string]int, len(items)),
		thresholds: thresholds,
	}
	for i, item := range items {
		label := strings.TrimSpace(item.Label)
		if label == "" {
			return nil, fmt.Errorf("%w: item[%d] has empty label", ErrInvalidPlanogram, i)
		}
		if _, dup := p.index[label]; dup {
			return nil, fmt.Errorf("%w: duplicate label %q", ErrInvalidPlanogram, label)
		}
		if item.Expected < 0 {
			return nil, fmt.Errorf("%w: negative expected count %d for %q", ErrInvalidPlanogram, item.Expected, label)
		}
		for j, z := range item.Zones {
			if err := validateRect(z); err != nil {
				return nil, fmt.Errorf("%w: zone[%d] of %q: %v", ErrInvalidPlanogram, j, label, err)
			}
			if z.Area() == 0 {
				return nil, fmt.Errorf("%w: zone[%d] of %q has zero area", ErrInvalidPlanogram, j, label)
			}
		}

		item.Label = label
		item.Zones = append([]Rect(nil), item.Zones...)
		p.index[label] = len(p.items)
		p.items = append(p.items, item)
	}
	return p, nil
}

// DefaultItems 默认货架布局（瓶装水、茶饮、杯子）
func DefaultItems() []Item {
	return []Item{
		{Label: "bottle", Expected: 1, Zones: []Rect{{Left: 0.1, Top: 0.05, Width: 0.3, Height: 0.85}}},
		{Label: "tea bottle", Expected: 1, Perishable: true, Zones: []Rect{{Left: 0.4, Top: 0.3, Width: 0.25, Height: 0.7}}},
		{Label: "cup", Expected: 2, Zones: []Rect{{Left: 0.65, Top: 0.6, Width: 0.2, Height: 0.35}}},
	}
}

// Thresholds 生效的阈值
func (p *Planogram) Thresholds() Thresholds {
	return p.thresholds
}

// Labels 按配置顺序返回所有标签
func (p *Planogram) Labels() []string {
	labels := make([]string, len(p.items))
	for i, item := range p.items {
		labels[i] = item.Label
	}
	return labels
}

// Expected 标签的期望数量，未配置返回 0
func (p *Planogram) Expected(label string) int {
	if i, ok := p.index[label]; ok {
		return p.items[i].Expected
	}
	return 0
}

// ExpectedInventory 期望库存副本
func (p *Planogram) ExpectedInventory() map[string]int {
	inv := make(map[string]int, len(p.items))
	for _, item := range p.items {
		inv[item.Label] = item.Expected
	}
	return inv
}

// TotalExpected 期望总数
func (p *Planogram) TotalExpected() int {
	total := 0
	for _, item := range p.items {
		total += item.Expected
	}
	return total
}

// IsPerishable 是否易腐
func (p *Planogram) IsPerishable(label string) bool {
	if i, ok := p.index[label]; ok {
		return p.items[i].Perishable
	}
	return false
}

// ZonesFor 标签的期望区域
func (p *Planogram) ZonesFor(label string) []Rect {
	if i, ok := p.index[label]; ok {
		return p.items[i].Zones
	}
	return nil
}

// Zones 按配置顺序展开所有区域
func (p *Planogram) Zones() []Zone {
	var zones []Zone
	for _, item := range p.items {
		for _, r := range item.Zones {
			zones = append(zones, Zone{Label: item.Label, Rect: r})
		}
	}
	return zones
}
