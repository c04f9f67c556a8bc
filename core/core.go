// Package core has the audit pipeline: classification, scoring, costing and narrative.
package core

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/huangsam/ipaudit/core/algo"
	"github.com/huangsam/ipaudit/internal/archive"
	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/huangsam/ipaudit/internal/outwriter"
	"github.com/huangsam/ipaudit/schema"
)

// ExecutorFunc defines the function signature for executing the audit commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

// newAuditDeps wires the production collaborators of an audit run.
func newAuditDeps(mgr contract.StoreManager) AuditDeps {
	return AuditDeps{
		Client: contract.NewLocalGitClient(),
		Stores: mgr,
	}
}

// GetClassificationResults classifies every file and returns the records ordered by path.
func GetClassificationResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) ([]schema.ClassificationRecord, time.Duration, error) {
	start := time.Now()
	result, err := RunAudit(ctx, cfg, newAuditDeps(mgr), StageClassify)
	if err != nil {
		return nil, 0, err
	}
	records := algo.SortClassifications(slices.Collect(maps.Values(result.Classification)), 0)
	return records, time.Since(start), nil
}

// GetScoreResults scores every first-party file and returns the records ranked by score.
func GetScoreResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) ([]schema.ScoreRecord, time.Duration, error) {
	start := time.Now()
	result, err := RunAudit(ctx, cfg, newAuditDeps(mgr), StageScore)
	if err != nil {
		return nil, 0, err
	}
	ranked := algo.RankScores(slices.Collect(maps.Values(result.Scores)), 0)
	return ranked, time.Since(start), nil
}

// GetCostResults estimates the replacement cost of the repository.
func GetCostResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (schema.CostRecord, time.Duration, error) {
	start := time.Now()
	result, err := RunAudit(ctx, cfg, newAuditDeps(mgr), StageCost)
	if err != nil {
		return schema.CostRecord{}, 0, err
	}
	return result.Cost, time.Since(start), nil
}

// GetNarrativeResults runs every stage and returns the full result, narrative included.
func GetNarrativeResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (*schema.AuditResult, time.Duration, error) {
	start := time.Now()
	result, err := RunAudit(ctx, cfg, newAuditDeps(mgr), StageNarrative)
	if err != nil {
		return nil, 0, err
	}
	return result, time.Since(start), nil
}

// ExecuteClassify prints the origin verdict of every file.
func ExecuteClassify(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	records, duration, err := GetClassificationResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteClassification(records, cfg, duration)
}

// ExecuteScore prints rewriteability scores ranked from most to least rewriteable.
func ExecuteScore(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	ranked, duration, err := GetScoreResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteScores(ranked, cfg, duration)
}

// ExecuteCost prints the replacement cost estimate.
func ExecuteCost(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	cost, duration, err := GetCostResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteCost(cost, cfg, duration)
}

// ExecuteNarrative prints the executive, board and engineering narratives.
func ExecuteNarrative(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	result, _, err := GetNarrativeResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteNarrative(result.Narrative, cfg)
}

// ExecuteAudit runs the full pipeline, writes the output bundle, records the
// run in history and archives the bundle when an archive root is configured.
// History and archive failures are reported but do not fail the audit.
func ExecuteAudit(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	ow := outwriter.NewOutWriter()

	result, err := RunAudit(ctx, cfg, newAuditDeps(mgr), StageNarrative)
	if err != nil {
		return err
	}

	written, err := ow.WriteBundle(cfg.OutputDir, result)
	if err != nil {
		return err
	}
	if !shouldSuppressHeader(ctx) {
		_, _ = fmt.Fprintf(os.Stderr, "📦 Wrote %d files to %s\n", len(written), cfg.OutputDir)
	}

	recordHistory(cfg, mgr, start, result)

	if err := ow.WriteAuditSummary(result, cfg, time.Since(start)); err != nil {
		return err
	}

	entry, err := archive.NewManager(cfg.Archive, nil).Archive(cfg.RepoPath, cfg.OutputDir, cfg.Metadata)
	if err != nil {
		contract.LogWarn("Archiving failed", err)
		return nil
	}
	if entry != nil && !shouldSuppressHeader(ctx) {
		_, _ = fmt.Fprintf(os.Stderr, "🗄️  Archived run %s to %s\n", entry.RunID, entry.ArchivedOutput)
	}
	return nil
}

// ExecuteArchive archives an existing output directory without re-running the audit.
func ExecuteArchive(_ context.Context, cfg *contract.Config, outputDir string) error {
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	entry, err := archive.NewManager(cfg.Archive, nil).Archive(cfg.RepoPath, outputDir, cfg.Metadata)
	if err != nil {
		return err
	}
	if entry == nil {
		return errors.New("archiving is disabled or output.archive.root_dir is not set")
	}
	_, _ = fmt.Fprintf(os.Stderr, "🗄️  Archived run %s to %s\n", entry.RunID, entry.ArchivedOutput)
	return nil
}
