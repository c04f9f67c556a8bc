package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/huangsam/ipaudit/schema"
)

// PrintAuditSummary outputs the headline aggregates of a full audit run.
func PrintAuditSummary(result *schema.AuditResult, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, struct {
				RepoPath   string                `json:"repo_path"`
				Aggregates schema.NarrativeInput `json:"aggregates"`
				Cost       schema.CostRecord     `json:"cost"`
			}{result.RepoPath, result.Aggregates, result.Cost})
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"metric", "value"}, func(cw *csv.Writer) error {
				return cw.WriteAll(summaryRows(result, cfg))
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSummaryText(w, result, cfg, duration)
		}, "Wrote text")
	}
}

// summaryRows flattens KPIs, risk, rewrite and recommendation into metric/value pairs.
func summaryRows(result *schema.AuditResult, cfg *contract.Config) [][]string {
	fmtFloat, intFmt := createFormatters(cfg.Precision)
	in := result.Aggregates
	return [][]string{
		{"total_files", fmt.Sprintf(intFmt, in.KPIs.TotalFiles)},
		{"foreground_files", fmt.Sprintf(intFmt, in.KPIs.ForegroundFiles)},
		{"third_party_files", fmt.Sprintf(intFmt, in.KPIs.ThirdPartyFiles)},
		{"background_files", fmt.Sprintf(intFmt, in.KPIs.BackgroundFiles)},
		{"foreground_pct", fmtFloat(in.KPIs.ForegroundPct)},
		{"third_party_pct", fmtFloat(in.KPIs.ThirdPartyPct)},
		{"high_risk_licenses", fmt.Sprintf(intFmt, in.KPIs.HighRiskLicenses)},
		{"secrets_found", fmt.Sprintf(intFmt, in.KPIs.SecretsFound)},
		{"similarity_matches", fmt.Sprintf(intFmt, in.KPIs.SimilarityMatches)},
		{"open_vulns", fmt.Sprintf(intFmt, in.Vulnerabilities.OpenVulns)},
		{"risk_score", fmtFloat(in.Risk.OverallScore)},
		{"risk_level", in.Risk.Level},
		{"rewrite_candidates", fmt.Sprintf(intFmt, in.Rewrite.Candidates)},
		{"rewriteable_pct", fmtFloat(in.Rewrite.RewriteablePct)},
		{"estimated_days", fmt.Sprintf("%.1f", result.Cost.EstimatedDays)},
		{"estimated_cost", fmt.Sprintf("%.2f", result.Cost.EstimatedCost)},
		{"currency", result.Cost.Currency},
		{"decision", in.Recommendation.Decision},
	}
}

func writeSummaryText(w io.Writer, result *schema.AuditResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)
	in := result.Aggregates

	if err := renderTable(w, []string{"Metric", "Value"}, summaryRows(result, cfg)); err != nil {
		return err
	}

	label := contract.GetPlainLabel(in.Risk.OverallScore)
	if cfg.UseColors {
		label = contract.GetColorLabel(in.Risk.OverallScore)
	}
	lines := []string{
		fmt.Sprintf("⚠️  Risk: %s (%s)", label, fmtFloat(in.Risk.OverallScore)),
		fmt.Sprintf("🧭 Recommendation: %s", in.Recommendation.Decision),
	}
	if in.Recommendation.Rationale != "" {
		lines = append(lines, "   "+in.Recommendation.Rationale)
	}
	if len(in.Rewrite.TopCandidates) > 0 {
		lines = append(lines, fmt.Sprintf("✂️  Top rewrite candidates: %s", strings.Join(in.Rewrite.TopCandidates, ", ")))
	}
	if len(in.Compliance.Findings) > 0 {
		lines = append(lines, "📜 Compliance:")
		for _, f := range in.Compliance.Findings {
			lines = append(lines, "   - "+f)
		}
	}
	lines = append(lines, fmt.Sprintf("Audit completed in %v with %d workers. Cache backend: %s", duration, cfg.Workers, cfg.CacheBackend))

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
