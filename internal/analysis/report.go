package analysis

import "fmt"

// BuildAlerts 生成告警：错位在前，缺货其次，多余最后
// 错位按检测顺序，缺货与多余按 order 中的标签顺序
func BuildAlerts(misplaced []Detection, missing, extra map[string]int, order []string, p *Planogram) []Alert {
	alerts := make([]Alert, 0, len(misplaced)+len(missing)+len(extra))

	for _, d := range misplaced {
		alerts = append(alerts, Alert{
			Level:        severity(p, d.Label),
			Kind:         AlertKindMisplacement,
			Message:      fmt.Sprintf("MISPLACED: %s is out of position", d.Label),
			RelatedLabel: d.Label,
		})
	}

	for _, label := range order {
		n, ok := missing[label]
		if !ok {
			continue
		}
		alerts = append(alerts, Alert{
			Level:        severity(p, label),
			Kind:         AlertKindStockout,
			Message:      fmt.Sprintf("MISSING: %d %s(s) not found", n, label),
			RelatedLabel: label,
		})
	}

	for _, label := range order {
		n, ok := extra[label]
		if !ok {
			continue
		}
		alerts = append(alerts, Alert{
			Level:        AlertLevelInfo,
			Kind:         AlertKindOverstock,
			Message:      fmt.Sprintf("EXTRA: %d unexpected %s(s) detected", n, label),
			RelatedLabel: label,
		})
	}

	return alerts
}

func severity(p *Planogram, label string) AlertLevel {
	if p.IsPerishable(label) {
		return AlertLevelCritical
	}
	return AlertLevelWarning
}
