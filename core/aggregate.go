package core

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/huangsam/ipaudit/core/algo"
	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/huangsam/ipaudit/schema"
)

// Risk areas and the points each finding adds to the overall risk score.
const (
	AreaLicensing       = "Licensing"
	AreaSecrets         = "Secrets"
	AreaVulnerabilities = "Vulnerabilities"
	AreaSimilarity      = "Similarity"

	licensePoints    = 10.0
	secretPoints     = 15.0
	similarityPoints = 5.0
	maxRiskScore     = 100.0
)

// vulnPoints weighs open vulnerabilities by severity.
var vulnPoints = map[string]float64{
	"critical": 20,
	"high":     10,
	"medium":   5,
	"low":      2,
}

// AggregateOptions tunes the derived aggregates.
type AggregateOptions struct {
	HighRiskLicenses []string // License prefixes treated as high risk
	TopCandidates    int      // Number of rewrite candidates to name
}

// BuildNarrativeInput derives the KPI, risk, rewrite, compliance, recommendation
// and vulnerability aggregates from one run's evidence and records.
func BuildNarrativeInput(findings *schema.FindingSet, classes map[string]schema.ClassificationRecord, scores map[string]schema.ScoreRecord, cost schema.CostRecord, opts AggregateOptions) schema.NarrativeInput {
	if findings == nil {
		findings = &schema.FindingSet{}
	}

	var in schema.NarrativeInput
	in.KPIs, in.Compliance = summarizeOwnership(findings, classes, opts.HighRiskLicenses)
	in.Vulnerabilities = summarizeVulnerabilities(findings.Vulnerabilities)
	in.Risk = summarizeRisk(in.KPIs, in.Vulnerabilities)
	in.Rewrite = summarizeRewrite(scores, cost, opts.TopCandidates)
	in.Recommendation = recommend(in)
	return in
}

func summarizeOwnership(findings *schema.FindingSet, classes map[string]schema.ClassificationRecord, highRisk []string) (schema.KPIs, schema.ComplianceSummary) {
	counts := schema.OriginCounts(classes)
	total := len(classes)
	kpis := schema.KPIs{
		TotalFiles:        total,
		ForegroundFiles:   counts[schema.ForegroundOrigin],
		ThirdPartyFiles:   counts[schema.ThirdPartyOrigin],
		BackgroundFiles:   counts[schema.BackgroundOrigin],
		ForegroundPct:     percent(counts[schema.ForegroundOrigin], total),
		ThirdPartyPct:     percent(counts[schema.ThirdPartyOrigin], total),
		SecretsFound:      len(findings.Secrets),
		SimilarityMatches: len(findings.Similarity),
	}

	perLicense := make(map[string]int)
	unknownThirdParty := 0
	for _, rec := range classes {
		if contract.IsHighRiskLicense(rec.License, highRisk) {
			kpis.HighRiskLicenses++
			perLicense[rec.License]++
		}
		if rec.Origin == schema.ThirdPartyOrigin && rec.License == schema.UnknownLicense {
			unknownThirdParty++
		}
	}

	var compliance schema.ComplianceSummary
	for license := range perLicense {
		compliance.HighRiskLicenses = append(compliance.HighRiskLicenses, license)
	}
	sort.Strings(compliance.HighRiskLicenses)
	for _, license := range compliance.HighRiskLicenses {
		compliance.Findings = append(compliance.Findings,
			fmt.Sprintf("%s applies to %s.", license, plural(perLicense[license], "file", "files")))
	}
	if unknownThirdParty > 0 {
		compliance.Findings = append(compliance.Findings,
			fmt.Sprintf("Third-party files with no identified license: %d.", unknownThirdParty))
	}
	return kpis, compliance
}

func summarizeVulnerabilities(vulns []schema.VulnerabilityFinding) schema.VulnerabilitySummary {
	s := schema.VulnerabilitySummary{OpenVulns: len(vulns)}
	for _, v := range vulns {
		switch strings.ToLower(v.Severity) {
		case "critical":
			s.Critical++
		case "high":
			s.High++
		case "medium", "moderate":
			s.Medium++
		case "low":
			s.Low++
		}
	}
	return s
}

func summarizeRisk(k schema.KPIs, v schema.VulnerabilitySummary) schema.RiskSummary {
	var items []schema.RiskItem
	if k.HighRiskLicenses > 0 {
		items = append(items, schema.RiskItem{Area: AreaLicensing, Severity: contract.HighValue, Count: k.HighRiskLicenses})
	}
	if k.SecretsFound > 0 {
		items = append(items, schema.RiskItem{Area: AreaSecrets, Severity: contract.CriticalValue, Count: k.SecretsFound})
	}
	if v.OpenVulns > 0 {
		items = append(items, schema.RiskItem{Area: AreaVulnerabilities, Severity: highestSeverity(v), Count: v.OpenVulns})
	}
	if k.SimilarityMatches > 0 {
		items = append(items, schema.RiskItem{Area: AreaSimilarity, Severity: "Medium", Count: k.SimilarityMatches})
	}

	score := float64(k.HighRiskLicenses)*licensePoints +
		float64(k.SecretsFound)*secretPoints +
		float64(k.SimilarityMatches)*similarityPoints +
		float64(v.Critical)*vulnPoints["critical"] +
		float64(v.High)*vulnPoints["high"] +
		float64(v.Medium)*vulnPoints["medium"] +
		float64(v.Low)*vulnPoints["low"]
	score = min(score, maxRiskScore)

	return schema.RiskSummary{
		Items:        items,
		OverallScore: score,
		Level:        contract.GetPlainLabel(score),
	}
}

func highestSeverity(v schema.VulnerabilitySummary) string {
	switch {
	case v.Critical > 0:
		return contract.CriticalValue
	case v.High > 0:
		return contract.HighValue
	case v.Medium > 0:
		return "Medium"
	default:
		return contract.LowValue
	}
}

func summarizeRewrite(scores map[string]schema.ScoreRecord, cost schema.CostRecord, top int) schema.RewriteSummary {
	s := schema.RewriteSummary{
		EstimatedDays: cost.EstimatedDays,
		EstimatedCost: cost.EstimatedCost,
		Currency:      cost.Currency,
	}

	var candidates []schema.ScoreRecord
	// Summed in path order so the rounded average is reproducible
	var sum float64
	for _, p := range slices.Sorted(maps.Keys(scores)) {
		rec := scores[p]
		if rec.Origin == schema.ThirdPartyOrigin {
			continue
		}
		s.ScoredFiles++
		sum += rec.Score
		if rec.Rewriteable {
			candidates = append(candidates, rec)
		}
	}
	s.Candidates = len(candidates)
	s.RewriteablePct = percent(s.Candidates, s.ScoredFiles)
	if s.ScoredFiles > 0 {
		s.AverageScore = round2(sum / float64(s.ScoredFiles))
	}

	for _, rec := range algo.RankScores(candidates, top) {
		s.TopCandidates = append(s.TopCandidates, rec.Path)
	}
	return s
}

func recommend(in schema.NarrativeInput) schema.Recommendation {
	switch {
	case in.KPIs.SecretsFound > 0 || in.Vulnerabilities.Critical > 0:
		return schema.Recommendation{
			Decision:  "Remediate before proceeding",
			Rationale: "Exposed credentials or critical vulnerabilities must be resolved first.",
		}
	case in.KPIs.HighRiskLicenses > 0:
		return schema.Recommendation{
			Decision:  "Proceed with license remediation",
			Rationale: fmt.Sprintf("Copyleft terms cover %s.", plural(in.KPIs.HighRiskLicenses, "file", "files")),
		}
	case in.Risk.OverallScore >= 40:
		return schema.Recommendation{
			Decision:  "Proceed with caution",
			Rationale: "Residual risk warrants follow-up review.",
		}
	default:
		return schema.Recommendation{
			Decision:  "Proceed",
			Rationale: "No blocking ownership or security findings.",
		}
	}
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(n) / float64(total) * 100)
}
