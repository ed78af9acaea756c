package analysis

import (
	"sort"
	"strings"
)

// Batch 一批待分析的检测结果
// Rejected 为上游解析阶段已拒绝的条目，索引基于原始输入；
// Positions 非空时给出 Detections 各条在原始输入中的位置，用于换算 Ingest 的拒绝索引
type Batch struct {
	Detections []Detection
	Rejected   []Rejection
	Positions  []int
}

// Ingest 校验检测结果，不合法的单条拒绝，其余原序保留
// 标签去除首尾空白，与货架布局的标签规则一致
func Ingest(detections []Detection) ([]Detection, []Rejection) {
	valid := make([]Detection, 0, len(detections))
	var rejected []Rejection
	for i, d := range detections {
		if err := d.Validate(); err != nil {
			rejected = append(rejected, Rejection{Index: i, Reason: err.Error()})
			continue
		}
		d.Label = strings.TrimSpace(d.Label)
		valid = append(valid, d)
	}
	return valid, rejected
}

// ingestBatch 校验一批检测结果，合并解析阶段的拒绝记录并按原始索引排序
func ingestBatch(b Batch) ([]Detection, []Rejection) {
	valid, rejected := Ingest(b.Detections)
	if len(b.Positions) == len(b.Detections) {
		for i := range rejected {
			rejected[i].Index = b.Positions[rejected[i].Index]
		}
	}
	if len(b.Rejected) == 0 {
		return valid, rejected
	}

	all := make([]Rejection, 0, len(b.Rejected)+len(rejected))
	all = append(all, b.Rejected...)
	all = append(all, rejected...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].Index < all[j].Index })
	return valid, all
}
