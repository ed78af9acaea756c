package analysis

// Deduplicate 去除重复检测
//
// 对每一对 i<j 计算 交集面积/较小框面积，超过 threshold 时标记较早的 i 删除，
// 并停止 i 的后续比较。较小框面积为 0 视为不重叠。
// 结果保持原始顺序；同一输入总是得到同一输出。
func Deduplicate(detections []Detection, threshold float64) []Detection {
	n := len(detections)
	removed := make([]bool, n)

	for i := 0; i < n; i++ {
		areaI := detections[i].Box.Area()
		for j := i + 1; j < n; j++ {
			smallest := detections[j].Box.Area()
			if areaI < smallest {
				smallest = areaI
			}
			if smallest <= 0 {
				continue
			}

			overlap := IntersectionArea(detections[i].Box, detections[j].Box)
			if overlap/smallest > threshold {
				removed[i] = true
				break
			}
		}
	}

	survivors := make([]Detection, 0, n)
	for i, d := range detections {
		if !removed[i] {
			survivors = append(survivors, d)
		}
	}
	return survivors
}
