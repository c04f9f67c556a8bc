package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/huangsam/ipaudit/schema"
)

// PrintCost outputs the replacement cost estimate together with the model that produced it.
func PrintCost(cost schema.CostRecord, cfg *contract.Config, duration time.Duration) error {
	rows := costRows(cost, cfg)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, struct {
				schema.CostRecord
				Model schema.CostModel `json:"model"`
			}{cost, cfg.Cost})
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"metric", "value"}, func(cw *csv.Writer) error {
				return cw.WriteAll(rows)
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if err := renderTable(w, []string{"Metric", "Value"}, rows); err != nil {
				return err
			}
			_, err := fmt.Fprintf(w, "Estimate completed in %v\n", duration)
			return err
		}, "Wrote table")
	}
}

// costRows flattens the estimate and its model parameters into metric/value pairs.
func costRows(cost schema.CostRecord, cfg *contract.Config) [][]string {
	fmtFloat, intFmt := createFormatters(cfg.Precision)
	return [][]string{
		{"total_loc", fmt.Sprintf(intFmt, cost.TotalLOC)},
		{"foreground_loc", fmt.Sprintf(intFmt, cost.ForegroundLOC)},
		{"estimated_days", fmt.Sprintf("%.1f", cost.EstimatedDays)},
		{"estimated_hours", fmt.Sprintf("%.1f", cost.EstimatedHours)},
		{"estimated_cost", fmt.Sprintf("%.2f", cost.EstimatedCost)},
		{"currency", cost.Currency},
		{"days_per_kloc", fmtFloat(cfg.Cost.DaysPerKLOC)},
		{"hours_per_day", fmtFloat(cfg.Cost.HoursPerDay)},
		{"hourly_rate", fmtFloat(cfg.Cost.HourlyRate)},
		{"complexity_multiplier", fmtFloat(cfg.Cost.ComplexityMultiplier)},
	}
}
