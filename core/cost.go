package core

import (
	"math"

	"github.com/huangsam/ipaudit/schema"
)

// EstimateCost converts foreground lines of code into replacement effort and cost.
// Third-party and background LOC count toward the total only.
func EstimateCost(classes map[string]schema.ClassificationRecord, scores map[string]schema.ScoreRecord, model schema.CostModel) schema.CostRecord {
	var totalLOC, foregroundLOC int
	for path, s := range scores {
		totalLOC += s.LOC
		if rec, ok := classes[path]; ok && rec.Origin == schema.ForegroundOrigin {
			foregroundLOC += s.LOC
		}
	}

	days := round1(float64(foregroundLOC) / 1000 * model.DaysPerKLOC * model.ComplexityMultiplier)
	hours := round1(days * model.HoursPerDay)
	return schema.CostRecord{
		TotalLOC:       totalLOC,
		ForegroundLOC:  foregroundLOC,
		EstimatedDays:  days,
		EstimatedHours: hours,
		EstimatedCost:  round2(hours * model.HourlyRate),
		Currency:       model.Currency,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
