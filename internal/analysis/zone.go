package analysis

// InZone 检测框与任一期望区域的交集超过 zoneFraction * 检测框面积 即为在位
// 未配置区域的标签总是不在位
func (p *Planogram) InZone(d Detection) bool {
	zones := p.ZonesFor(d.Label)
	if len(zones) == 0 {
		return false
	}

	area := d.Box.Area()
	for _, z := range zones {
		if IntersectionArea(d.Box, z) > p.thresholds.ZoneFraction*area {
			return true
		}
	}
	return false
}

// Classify 将去重后的检测划分为在位与错位，两者各自保持原序
func Classify(survivors []Detection, p *Planogram) (correct, misplaced []Detection) {
	correct = make([]Detection, 0, len(survivors))
	misplaced = make([]Detection, 0)
	for _, d := range survivors {
		if p.InZone(d) {
			correct = append(correct, d)
		} else {
			misplaced = append(misplaced, d)
		}
	}
	return correct, misplaced
}
