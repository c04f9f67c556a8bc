package evidence

import (
	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/huangsam/ipaudit/schema"
)

// FindingsCoverage serves coverage ratios recorded in a Finding Set.
type FindingsCoverage struct {
	ratios map[string]float64
}

var _ contract.CoverageProvider = &FindingsCoverage{} // Compile-time check

// NewFindingsCoverage creates a provider backed by the coverage section of findings.
func NewFindingsCoverage(fs *schema.FindingSet) *FindingsCoverage {
	if fs == nil {
		return &FindingsCoverage{}
	}
	return &FindingsCoverage{ratios: fs.Coverage}
}

// Coverage implements the CoverageProvider interface.
func (fc *FindingsCoverage) Coverage(path string) (float64, bool) {
	ratio, ok := fc.ratios[path]
	return ratio, ok
}
