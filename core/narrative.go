package core

import (
	"fmt"
	"strings"

	"github.com/huangsam/ipaudit/schema"
)

// Fixed narrative sentences checked by report consumers.
const (
	NoHighRiskLicensesLine = "No high-risk licenses detected."
	VulnScanClearedLine    = "Dependency scan cleared with no open vulnerabilities."
	BaselineTheme          = "baseline monitoring"
)

// GenerateNarrative renders the executive, board and engineering sections.
// Output depends only on the input values, so identical inputs yield identical text.
func GenerateNarrative(in schema.NarrativeInput) schema.NarrativeBundle {
	theme := PrimaryRiskTheme(in.Risk.Items)
	return schema.NarrativeBundle{
		Executive:   executiveSection(in, theme),
		Board:       boardSection(in, theme),
		Engineering: engineeringSection(in),
	}
}

// PrimaryRiskTheme describes the risk item with the highest count.
// Ties go to the earliest item.
func PrimaryRiskTheme(items []schema.RiskItem) string {
	if len(items) == 0 {
		return BaselineTheme
	}
	top := items[0]
	for _, item := range items[1:] {
		if item.Count > top.Count {
			top = item
		}
	}
	return fmt.Sprintf("%s %s exposure", strings.ToLower(top.Severity), strings.ToLower(top.Area))
}

func executiveSection(in schema.NarrativeInput, theme string) []string {
	k := in.KPIs
	lines := []string{
		fmt.Sprintf("The audit covered %s: %.1f%% foreground and %.1f%% third-party.",
			plural(k.TotalFiles, "file", "files"), k.ForegroundPct, k.ThirdPartyPct),
		fmt.Sprintf("Overall risk is %s (score %.0f/100), driven by %s.",
			riskLevel(in.Risk), in.Risk.OverallScore, theme),
	}

	if k.HighRiskLicenses > 0 {
		lines = append(lines, fmt.Sprintf("High-risk licenses were detected in %s and need legal review.",
			plural(k.HighRiskLicenses, "file", "files")))
	} else {
		lines = append(lines, NoHighRiskLicensesLine)
	}

	v := in.Vulnerabilities
	if v.OpenVulns > 0 {
		lines = append(lines, fmt.Sprintf("Open dependency vulnerabilities: %d (%d critical, %d high).",
			v.OpenVulns, v.Critical, v.High))
	} else {
		lines = append(lines, VulnScanClearedLine)
	}

	r := in.Rewrite
	if r.Candidates > 0 {
		lines = append(lines, fmt.Sprintf("Low-cost rewrite candidates: %s (%.1f%% of scored code).",
			plural(r.Candidates, "file", "files"), r.RewriteablePct))
	}
	if r.EstimatedCost > 0 {
		lines = append(lines, fmt.Sprintf("Replacing foreground code is estimated at %.1f days, or %s.",
			r.EstimatedDays, money(r.EstimatedCost, r.Currency)))
	}

	if in.Recommendation.Decision != "" {
		lines = append(lines, fmt.Sprintf("Recommendation: %s.", in.Recommendation.Decision))
	}
	return lines
}

func boardSection(in schema.NarrativeInput, theme string) []string {
	k := in.KPIs
	lines := []string{
		fmt.Sprintf("Ownership mix: %d foreground, %d third-party and %d background files.",
			k.ForegroundFiles, k.ThirdPartyFiles, k.BackgroundFiles),
		fmt.Sprintf("The primary risk theme is %s.", theme),
	}

	if k.SecretsFound > 0 {
		lines = append(lines, fmt.Sprintf("Exposed credentials to rotate before any transfer: %d.", k.SecretsFound))
	}
	if k.SimilarityMatches > 0 {
		lines = append(lines, fmt.Sprintf("Files needing provenance checks against external sources: %d.", k.SimilarityMatches))
	}
	if len(in.Compliance.HighRiskLicenses) > 0 {
		lines = append(lines, fmt.Sprintf("Copyleft obligations apply under %s.",
			strings.Join(in.Compliance.HighRiskLicenses, ", ")))
	}

	r := in.Rewrite
	lines = append(lines, fmt.Sprintf("Estimated replacement cost is %s over %.1f engineering days.",
		money(r.EstimatedCost, r.Currency), r.EstimatedDays))

	if d := in.Recommendation; d.Decision != "" {
		line := fmt.Sprintf("Decision: %s.", d.Decision)
		if d.Rationale != "" {
			line += " " + d.Rationale
		}
		lines = append(lines, line)
	} else {
		lines = append(lines, "Decision: pending further review.")
	}
	return lines
}

func engineeringSection(in schema.NarrativeInput) []string {
	var lines []string
	if len(in.Risk.Items) == 0 {
		lines = append(lines, "No open risk items; continue baseline monitoring.")
	}
	for _, item := range in.Risk.Items {
		lines = append(lines, fmt.Sprintf("%s: %s at %s severity.",
			item.Area, plural(item.Count, "finding", "findings"), strings.ToLower(item.Severity)))
	}

	r := in.Rewrite
	lines = append(lines, fmt.Sprintf("Rewrite scoring covered %s with an average score of %.2f.",
		plural(r.ScoredFiles, "file", "files"), r.AverageScore))
	if len(r.TopCandidates) > 0 {
		lines = append(lines, "Top rewrite candidates: "+strings.Join(r.TopCandidates, ", ")+".")
	}

	for _, finding := range in.Compliance.Findings {
		lines = append(lines, "Compliance: "+finding)
	}

	if v := in.Vulnerabilities; v.OpenVulns > 0 {
		lines = append(lines, fmt.Sprintf("Vulnerabilities by severity: %d critical, %d high, %d medium, %d low.",
			v.Critical, v.High, v.Medium, v.Low))
	}
	return lines
}

func riskLevel(r schema.RiskSummary) string {
	if r.Level == "" {
		return "low"
	}
	return strings.ToLower(r.Level)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}

func money(amount float64, currency string) string {
	if currency == "" {
		return fmt.Sprintf("%.2f", amount)
	}
	return fmt.Sprintf("%s %.2f", currency, amount)
}
