package core

import (
	"fmt"
	"testing"

	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/huangsam/ipaudit/schema"
	"github.com/stretchr/testify/assert"
)

func TestBuildNarrativeInput_Empty(t *testing.T) {
	in := BuildNarrativeInput(nil, nil, nil, schema.CostRecord{Currency: "USD"}, AggregateOptions{})

	assert.Zero(t, in.KPIs.TotalFiles)
	assert.Empty(t, in.Risk.Items)
	assert.Equal(t, 0.0, in.Risk.OverallScore)
	assert.Equal(t, contract.LowValue, in.Risk.Level)
	assert.Equal(t, "Proceed", in.Recommendation.Decision)
	assert.Equal(t, "USD", in.Rewrite.Currency)

	bundle := GenerateNarrative(in)
	assert.Contains(t, bundle.Executive, NoHighRiskLicensesLine)
	assert.Contains(t, bundle.Executive, VulnScanClearedLine)
}

func TestBuildNarrativeInput(t *testing.T) {
	findings := &schema.FindingSet{
		Secrets:    []schema.SecretFinding{{File: "src/a.go"}},
		Similarity: []schema.SimilarityMatch{{File: "src/b.go"}, {File: "src/c.go"}},
		Vulnerabilities: []schema.VulnerabilityFinding{
			{ID: "CVE-1", Severity: "high"},
			{ID: "CVE-2", Severity: "moderate"},
			{ID: "CVE-3", Severity: "unrated"},
		},
	}
	classes := map[string]schema.ClassificationRecord{
		"src/a.go":       {Path: "src/a.go", Origin: schema.ForegroundOrigin, License: "GPL-3.0"},
		"src/b.go":       {Path: "src/b.go", Origin: schema.ForegroundOrigin, License: schema.NoLicense},
		"src/c.go":       {Path: "src/c.go", Origin: schema.ForegroundOrigin, License: "gpl-2.0"},
		"vendor/x.js":    {Path: "vendor/x.js", Origin: schema.ThirdPartyOrigin, License: schema.UnknownLicense},
		"legacy/old.txt": {Path: "legacy/old.txt", Origin: schema.BackgroundOrigin, License: schema.NoLicense},
		"vendor/y.js":    {Path: "vendor/y.js", Origin: schema.ThirdPartyOrigin, License: "MIT"},
	}
	scores := map[string]schema.ScoreRecord{
		"src/a.go":       {Path: "src/a.go", Origin: schema.ForegroundOrigin, Score: 0.7, Rewriteable: true},
		"src/b.go":       {Path: "src/b.go", Origin: schema.ForegroundOrigin, Score: 0.9, Rewriteable: true},
		"src/c.go":       {Path: "src/c.go", Origin: schema.ForegroundOrigin, Score: 0.2},
		"legacy/old.txt": {Path: "legacy/old.txt", Origin: schema.BackgroundOrigin, Score: 0.4},
		"vendor/x.js":    {Path: "vendor/x.js", Origin: schema.ThirdPartyOrigin, Reason: schema.ThirdPartyReason},
	}
	cost := schema.CostRecord{EstimatedDays: 4.5, EstimatedCost: 5400, Currency: "USD"}

	in := BuildNarrativeInput(findings, classes, scores, cost, AggregateOptions{
		HighRiskLicenses: contract.DefaultHighRiskLicenses,
		TopCandidates:    1,
	})

	assert.Equal(t, schema.KPIs{
		TotalFiles: 6, ForegroundFiles: 3, ThirdPartyFiles: 2, BackgroundFiles: 1,
		ForegroundPct: 50, ThirdPartyPct: 33.3,
		HighRiskLicenses: 2, SecretsFound: 1, SimilarityMatches: 2,
	}, in.KPIs)

	assert.Equal(t, []schema.RiskItem{
		{Area: AreaLicensing, Severity: "High", Count: 2},
		{Area: AreaSecrets, Severity: "Critical", Count: 1},
		{Area: AreaVulnerabilities, Severity: "High", Count: 3},
		{Area: AreaSimilarity, Severity: "Medium", Count: 2},
	}, in.Risk.Items)
	// 2*10 + 15 + 2*5 + 10 + 5
	assert.Equal(t, 60.0, in.Risk.OverallScore)
	assert.Equal(t, contract.HighValue, in.Risk.Level)

	assert.Equal(t, schema.VulnerabilitySummary{OpenVulns: 3, High: 1, Medium: 1}, in.Vulnerabilities)

	assert.Equal(t, []string{"GPL-3.0", "gpl-2.0"}, in.Compliance.HighRiskLicenses)
	assert.Equal(t, []string{
		"GPL-3.0 applies to 1 file.",
		"gpl-2.0 applies to 1 file.",
		"Third-party files with no identified license: 1.",
	}, in.Compliance.Findings)

	assert.Equal(t, 4, in.Rewrite.ScoredFiles)
	assert.Equal(t, 2, in.Rewrite.Candidates)
	assert.Equal(t, 50.0, in.Rewrite.RewriteablePct)
	assert.Equal(t, 0.55, in.Rewrite.AverageScore)
	assert.Equal(t, []string{"src/b.go"}, in.Rewrite.TopCandidates)
	assert.Equal(t, 5400.0, in.Rewrite.EstimatedCost)

	assert.Equal(t, "Remediate before proceeding", in.Recommendation.Decision)
}

func TestBuildNarrativeInput_RiskScoreCapped(t *testing.T) {
	findings := &schema.FindingSet{}
	for range 20 {
		findings.Secrets = append(findings.Secrets, schema.SecretFinding{File: "k.pem"})
	}
	in := BuildNarrativeInput(findings, nil, nil, schema.CostRecord{}, AggregateOptions{})
	assert.Equal(t, 100.0, in.Risk.OverallScore)
	assert.Equal(t, contract.CriticalValue, in.Risk.Level)
	assert.Equal(t, "critical secrets exposure", PrimaryRiskTheme(in.Risk.Items))
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		name     string
		in       schema.NarrativeInput
		decision string
	}{
		{"critical vuln", schema.NarrativeInput{Vulnerabilities: schema.VulnerabilitySummary{Critical: 1}}, "Remediate before proceeding"},
		{"licenses", schema.NarrativeInput{KPIs: schema.KPIs{HighRiskLicenses: 1}}, "Proceed with license remediation"},
		{"moderate risk", schema.NarrativeInput{Risk: schema.RiskSummary{OverallScore: 45}}, "Proceed with caution"},
		{"clean", schema.NarrativeInput{}, "Proceed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.decision, recommend(tt.in).Decision)
		})
	}
}

func TestSummarizeRewrite_AverageIsStable(t *testing.T) {
	scores := make(map[string]schema.ScoreRecord, 300)
	var paths []string
	for i := range 300 {
		p := fmt.Sprintf("src/f%03d.go", i)
		paths = append(paths, p)
		scores[p] = schema.ScoreRecord{Path: p, Origin: schema.ForegroundOrigin, Score: []float64{0.1, 0.7, 0.33, 0.05}[i%4]}
	}

	var sum float64
	for _, p := range paths {
		sum += scores[p].Score
	}
	want := round2(sum / float64(len(paths)))

	for range 50 {
		got := summarizeRewrite(scores, schema.CostRecord{}, 0)
		assert.Equal(t, want, got.AverageScore)
	}
}
