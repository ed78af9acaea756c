package analysis

// CountDetections 统计各标签数量
// counts 对所有期望标签补零；order 为期望标签（配置顺序）加上首次出现的未知标签
func CountDetections(survivors []Detection, p *Planogram) (counts map[string]int, order []string) {
	order = p.Labels()
	counts = make(map[string]int, len(order))
	for _, label := range order {
		counts[label] = 0
	}
	for _, d := range survivors {
		if _, seen := counts[d.Label]; !seen {
			order = append(order, d.Label)
		}
		counts[d.Label]++
	}
	return counts, order
}

// Reconcile 对比检测数量与期望库存，零值不输出
//
//	missing[label] = max(0, expected - detected)，遍历期望库存
//	extra[label]   = max(0, detected - expected)，遍历检测结果，未配置标签期望为 0
func Reconcile(detected, expected map[string]int) (missing, extra map[string]int) {
	missing = make(map[string]int)
	extra = make(map[string]int)

	for label, want := range expected {
		if diff := want - detected[label]; diff > 0 {
			missing[label] = diff
		}
	}
	for label, got := range detected {
		if diff := got - expected[label]; diff > 0 {
			extra[label] = diff
		}
	}
	return missing, extra
}
