package core

import (
	"encoding/json"
	"testing"

	"github.com/huangsam/ipaudit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimaryRiskTheme(t *testing.T) {
	tests := []struct {
		name     string
		items    []schema.RiskItem
		expected string
	}{
		{"no items", nil, "baseline monitoring"},
		{"empty items", []schema.RiskItem{}, "baseline monitoring"},
		{"single", []schema.RiskItem{{Area: "Secrets", Severity: "Critical", Count: 2}}, "critical secrets exposure"},
		{
			"highest count",
			[]schema.RiskItem{
				{Area: "Licensing", Severity: "High", Count: 3},
				{Area: "Vulnerabilities", Severity: "Medium", Count: 7},
			},
			"medium vulnerabilities exposure",
		},
		{
			"first wins ties",
			[]schema.RiskItem{
				{Area: "Similarity", Severity: "Medium", Count: 4},
				{Area: "Licensing", Severity: "High", Count: 4},
			},
			"medium similarity exposure",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PrimaryRiskTheme(tt.items))
		})
	}
}

func TestGenerateNarrative_ZeroInput(t *testing.T) {
	got := GenerateNarrative(schema.NarrativeInput{})

	assert.Contains(t, got.Executive, NoHighRiskLicensesLine)
	assert.Contains(t, got.Executive, VulnScanClearedLine)
	assert.Contains(t, got.Executive[0], "0 files")
	assert.Contains(t, got.Executive[1], "driven by baseline monitoring")
	assert.Contains(t, got.Board, "The primary risk theme is baseline monitoring.")
	assert.Contains(t, got.Board, "Decision: pending further review.")
	assert.Equal(t, "No open risk items; continue baseline monitoring.", got.Engineering[0])
}

func TestGenerateNarrative_ConditionalLines(t *testing.T) {
	in := schema.NarrativeInput{
		KPIs: schema.KPIs{
			TotalFiles: 1, ForegroundFiles: 1, ForegroundPct: 100,
			HighRiskLicenses: 2, SecretsFound: 1, SimilarityMatches: 3,
		},
		Risk: schema.RiskSummary{
			Items: []schema.RiskItem{
				{Area: "Licensing", Severity: "High", Count: 2},
				{Area: "Secrets", Severity: "Critical", Count: 1},
			},
			OverallScore: 35,
			Level:        "Low",
		},
		Rewrite: schema.RewriteSummary{
			ScoredFiles: 1, Candidates: 1, RewriteablePct: 100, AverageScore: 0.8,
			EstimatedDays: 1.5, EstimatedCost: 1800, Currency: "USD",
			TopCandidates: []string{"a.go"},
		},
		Compliance:      schema.ComplianceSummary{Findings: []string{"GPL-3.0 applies to 2 files."}, HighRiskLicenses: []string{"GPL-3.0"}},
		Recommendation:  schema.Recommendation{Decision: "Remediate before proceeding", Rationale: "Fix it."},
		Vulnerabilities: schema.VulnerabilitySummary{OpenVulns: 2, Critical: 1, Low: 1},
	}

	got := GenerateNarrative(in)

	assert.NotContains(t, got.Executive, NoHighRiskLicensesLine)
	assert.NotContains(t, got.Executive, VulnScanClearedLine)
	assert.Equal(t, []string{
		"The audit covered 1 file: 100.0% foreground and 0.0% third-party.",
		"Overall risk is low (score 35/100), driven by high licensing exposure.",
		"High-risk licenses were detected in 2 files and need legal review.",
		"Open dependency vulnerabilities: 2 (1 critical, 0 high).",
		"Low-cost rewrite candidates: 1 file (100.0% of scored code).",
		"Replacing foreground code is estimated at 1.5 days, or USD 1800.00.",
		"Recommendation: Remediate before proceeding.",
	}, got.Executive)
	assert.Contains(t, got.Board, "Exposed credentials to rotate before any transfer: 1.")
	assert.Contains(t, got.Board, "Copyleft obligations apply under GPL-3.0.")
	assert.Contains(t, got.Board, "Decision: Remediate before proceeding. Fix it.")
	assert.Contains(t, got.Engineering, "Licensing: 2 findings at high severity.")
	assert.Contains(t, got.Engineering, "Secrets: 1 finding at critical severity.")
	assert.Contains(t, got.Engineering, "Top rewrite candidates: a.go.")
	assert.Contains(t, got.Engineering, "Compliance: GPL-3.0 applies to 2 files.")
	assert.Contains(t, got.Engineering, "Vulnerabilities by severity: 1 critical, 0 high, 0 medium, 1 low.")
}

func TestGenerateNarrative_Deterministic(t *testing.T) {
	in := schema.NarrativeInput{
		KPIs: schema.KPIs{TotalFiles: 12, ForegroundPct: 41.7, ThirdPartyPct: 58.3},
		Risk: schema.RiskSummary{Items: []schema.RiskItem{{Area: "Similarity", Severity: "Medium", Count: 1}}},
	}
	first, err := json.Marshal(GenerateNarrative(in))
	require.NoError(t, err)
	for range 10 {
		again, err := json.Marshal(GenerateNarrative(in))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}
