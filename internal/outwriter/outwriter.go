// Package outwriter renders audit results as tables, CSV or JSON and writes the output bundle.
package outwriter

import (
	"time"

	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/huangsam/ipaudit/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteClassification prints origin verdicts using the configured output format.
func (ow *OutWriter) WriteClassification(records []schema.ClassificationRecord, cfg *contract.Config, duration time.Duration) error {
	return PrintClassification(records, cfg, duration)
}

// WriteScores prints rewriteability scores using the configured output format.
func (ow *OutWriter) WriteScores(scores []schema.ScoreRecord, cfg *contract.Config, duration time.Duration) error {
	return PrintScores(scores, cfg, duration)
}

// WriteCost prints the replacement cost estimate using the configured output format.
func (ow *OutWriter) WriteCost(cost schema.CostRecord, cfg *contract.Config, duration time.Duration) error {
	return PrintCost(cost, cfg, duration)
}

// WriteNarrative prints the narrative bundle using the configured output format.
func (ow *OutWriter) WriteNarrative(bundle schema.NarrativeBundle, cfg *contract.Config) error {
	return PrintNarrative(bundle, cfg)
}

// WriteAuditSummary prints the headline aggregates of a full audit.
func (ow *OutWriter) WriteAuditSummary(result *schema.AuditResult, cfg *contract.Config, duration time.Duration) error {
	return PrintAuditSummary(result, cfg, duration)
}

// WriteBundle writes the JSON output bundle into dir.
func (ow *OutWriter) WriteBundle(dir string, result *schema.AuditResult) ([]string, error) {
	return WriteBundle(dir, result)
}
