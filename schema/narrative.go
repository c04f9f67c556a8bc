package schema

// KPIs are the headline counts and percentages of an audit.
type KPIs struct {
	TotalFiles        int     `json:"total_files" yaml:"total_files"`
	ForegroundFiles   int     `json:"foreground_files" yaml:"foreground_files"`
	ThirdPartyFiles   int     `json:"third_party_files" yaml:"third_party_files"`
	BackgroundFiles   int     `json:"background_files" yaml:"background_files"`
	ForegroundPct     float64 `json:"foreground_pct" yaml:"foreground_pct"`
	ThirdPartyPct     float64 `json:"third_party_pct" yaml:"third_party_pct"`
	HighRiskLicenses  int     `json:"high_risk_licenses" yaml:"high_risk_licenses"`
	SecretsFound      int     `json:"secrets_found" yaml:"secrets_found"`
	SimilarityMatches int     `json:"similarity_matches" yaml:"similarity_matches"`
}

// RiskItem is one risk area with its severity and finding count.
type RiskItem struct {
	Area     string `json:"area" yaml:"area"`
	Severity string `json:"severity" yaml:"severity"`
	Count    int    `json:"count" yaml:"count"`
}

// RiskSummary aggregates risk items into an overall 0-100 score.
type RiskSummary struct {
	Items        []RiskItem `json:"items" yaml:"items"`
	OverallScore float64    `json:"overall_score" yaml:"overall_score"`
	Level        string     `json:"level" yaml:"level"`
}

// RewriteSummary describes the rewrite opportunity.
type RewriteSummary struct {
	ScoredFiles    int      `json:"scored_files" yaml:"scored_files"`
	Candidates     int      `json:"candidates" yaml:"candidates"`
	RewriteablePct float64  `json:"rewriteable_pct" yaml:"rewriteable_pct"`
	AverageScore   float64  `json:"average_score" yaml:"average_score"`
	EstimatedDays  float64  `json:"estimated_days" yaml:"estimated_days"`
	EstimatedCost  float64  `json:"estimated_cost" yaml:"estimated_cost"`
	Currency       string   `json:"currency" yaml:"currency"`
	TopCandidates  []string `json:"top_candidates" yaml:"top_candidates"`
}

// ComplianceSummary lists license compliance observations.
type ComplianceSummary struct {
	Findings         []string `json:"findings" yaml:"findings"`
	HighRiskLicenses []string `json:"high_risk_licenses" yaml:"high_risk_licenses"`
}

// Recommendation is the overall decision and why.
type Recommendation struct {
	Decision  string `json:"decision" yaml:"decision"`
	Rationale string `json:"rationale" yaml:"rationale"`
}

// VulnerabilitySummary counts open vulnerabilities by severity.
type VulnerabilitySummary struct {
	OpenVulns int `json:"open_vulns" yaml:"open_vulns"`
	Critical  int `json:"critical" yaml:"critical"`
	High      int `json:"high" yaml:"high"`
	Medium    int `json:"medium" yaml:"medium"`
	Low       int `json:"low" yaml:"low"`
}

// NarrativeInput groups every aggregate the narrative generator reads.
type NarrativeInput struct {
	KPIs            KPIs                 `json:"kpis" yaml:"kpis"`
	Risk            RiskSummary          `json:"risk" yaml:"risk"`
	Rewrite         RewriteSummary       `json:"rewrite" yaml:"rewrite"`
	Compliance      ComplianceSummary    `json:"compliance" yaml:"compliance"`
	Recommendation  Recommendation       `json:"recommendation" yaml:"recommendation"`
	Vulnerabilities VulnerabilitySummary `json:"vulnerabilities" yaml:"vulnerabilities"`
}

// NarrativeBundle holds audience-specific bullet text.
type NarrativeBundle struct {
	Executive   []string `json:"executive"`
	Board       []string `json:"board"`
	Engineering []string `json:"engineering"`
}
