package schema

// ClassificationRecord is the origin verdict for one file.
type ClassificationRecord struct {
	Path          string `json:"path"`
	Origin        Origin `json:"origin"`
	License       string `json:"license"`
	PrimaryAuthor string `json:"primary_author,omitempty"`
	Rule          string `json:"rule"` // Name of the cascade rule that matched
}

// ScoreRecord estimates how cheaply a file could be rewritten.
type ScoreRecord struct {
	Path         string  `json:"path"`
	Origin       Origin  `json:"origin"`
	LOC          int     `json:"loc"`
	Complexity   float64 `json:"complexity"`
	Coupling     float64 `json:"coupling"`
	TestCoverage float64 `json:"test_coverage"`
	Score        float64 `json:"score"`
	Rewriteable  bool    `json:"rewriteable"`
	Reason       string  `json:"reason,omitempty"`
}

// CostModel holds the parameters of the replacement cost estimate.
type CostModel struct {
	DaysPerKLOC          float64 `json:"days_per_kloc"`
	HoursPerDay          float64 `json:"hours_per_day"`
	HourlyRate           float64 `json:"hourly_rate"`
	ComplexityMultiplier float64 `json:"complexity_multiplier"`
	Currency             string  `json:"currency"`
}

// CostRecord is the replacement cost estimate for one run.
type CostRecord struct {
	TotalLOC       int     `json:"total_loc"`
	ForegroundLOC  int     `json:"foreground_loc"`
	EstimatedDays  float64 `json:"estimated_days"`
	EstimatedHours float64 `json:"estimated_hours"`
	EstimatedCost  float64 `json:"estimated_cost"`
	Currency       string  `json:"currency"`
}

// AuditResult gathers every stage output of a single audit run.
type AuditResult struct {
	RepoPath       string                          `json:"repo_path"`
	FindingsPath   string                          `json:"findings_path,omitempty"`
	Classification map[string]ClassificationRecord `json:"classification"`
	Scores         map[string]ScoreRecord          `json:"scores"`
	Cost           CostRecord                      `json:"cost"`
	Aggregates     NarrativeInput                  `json:"aggregates"`
	Narrative      NarrativeBundle                 `json:"narrative"`
}

// OriginCounts tallies classification records per origin.
func OriginCounts(records map[string]ClassificationRecord) map[Origin]int {
	counts := make(map[Origin]int, len(ValidOrigins))
	for _, r := range records {
		counts[r.Origin]++
	}
	return counts
}

// ChurnOutput holds lines changed per author, derived from the commit log.
type ChurnOutput struct {
	FileChurn   map[string]map[string]int `json:"file_churn"`   // path -> author -> lines changed
	AuthorChurn map[string]int            `json:"author_churn"` // author -> lines changed
}
