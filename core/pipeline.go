package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/huangsam/ipaudit/core/agg"
	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/huangsam/ipaudit/internal/evidence"
	"github.com/huangsam/ipaudit/schema"
)

// Stage marks how far an audit run proceeds.
type Stage int

// Audit stages in pipeline order.
const (
	StageClassify Stage = iota
	StageScore
	StageCost
	StageNarrative
)

// defaultTopCandidates is how many rewrite candidates the aggregates name.
const defaultTopCandidates = 5

// AuditDeps bundles the collaborators of an audit run. Nil fields fall back to defaults.
type AuditDeps struct {
	Client   contract.GitClient
	Stores   contract.StoreManager
	Coupling contract.CouplingEstimator
	FS       fs.FS // Repository contents; defaults to os.DirFS(cfg.RepoPath)
}

// RunAudit executes the pipeline through the given stage and returns every
// output produced so far. Stages after 'through' are left zero-valued.
func RunAudit(ctx context.Context, cfg *contract.Config, deps AuditDeps, through Stage) (*schema.AuditResult, error) {
	if !shouldSuppressHeader(ctx) {
		logAuditHeader(cfg)
	}

	findings, err := evidence.Load(cfg.FindingsPath)
	if err != nil {
		return nil, err
	}

	files, err := evidence.Inventory(ctx, deps.Client, evidence.InventoryOptions{
		RepoPath:  cfg.RepoPath,
		IsGitRepo: cfg.IsGitRepo,
		Excludes:  cfg.Excludes,
		SkipDirs:  outputSkipDirs(cfg),
	}, findings)
	if err != nil {
		return nil, fmt.Errorf("failed to list repository files: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no files found")
	}

	findings = withLocalChurn(ctx, cfg, deps, findings, files)

	result := &schema.AuditResult{
		RepoPath:       cfg.RepoPath,
		FindingsPath:   cfg.FindingsPath,
		Classification: NewClassifier(cfg.Classify).Classify(findings, files),
	}
	if through < StageScore {
		return result, nil
	}

	fsys := deps.FS
	if fsys == nil {
		fsys = os.DirFS(cfg.RepoPath)
	}
	coupling := deps.Coupling
	if coupling == nil {
		coupling = evidence.NewImportCoupling()
	}
	scorer := NewScorer(fsys, coupling, evidence.NewFindingsCoverage(findings), cfg.Workers)
	if result.Scores, err = scorer.Score(ctx, result.Classification); err != nil {
		return nil, err
	}
	if through < StageCost {
		return result, nil
	}

	result.Cost = EstimateCost(result.Classification, result.Scores, cfg.Cost)
	if through < StageNarrative {
		return result, nil
	}

	if cfg.AggregatesPath != "" {
		in, err := evidence.LoadAggregates(cfg.AggregatesPath)
		if err != nil {
			return nil, err
		}
		result.Aggregates = *in
	} else {
		result.Aggregates = BuildNarrativeInput(findings, result.Classification, result.Scores, result.Cost, AggregateOptions{
			HighRiskLicenses: cfg.Classify.HighRiskLicenses,
			TopCandidates:    defaultTopCandidates,
		})
	}
	result.Narrative = GenerateNarrative(result.Aggregates)
	return result, nil
}

// withLocalChurn fills missing authorship churn from the commit log.
// Failures degrade to the recorded evidence.
func withLocalChurn(ctx context.Context, cfg *contract.Config, deps AuditDeps, findings *schema.FindingSet, files []string) *schema.FindingSet {
	if !cfg.IsGitRepo || deps.Client == nil {
		return findings
	}
	if len(findings.Git.Churn) > 0 && len(findings.Git.FileChurn) > 0 {
		return findings
	}

	var store contract.CacheStore
	if deps.Stores != nil {
		store = deps.Stores.GetChurnStore()
	}
	churn, err := agg.CachedAggregateChurn(ctx, cfg.RepoPath, deps.Client, store)
	if err != nil {
		contract.LogWarn("Commit history unavailable for authorship", err)
		return findings
	}
	return agg.MergeIntoFindings(findings, agg.FilterToFiles(churn, files))
}

// outputSkipDirs keeps the bundle directory out of the inventory.
func outputSkipDirs(cfg *contract.Config) []string {
	if cfg.OutputDir == "" {
		return nil
	}
	abs, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return nil
	}
	dirs := []string{abs}
	if cfg.Archive.RootDir != "" {
		dirs = append(dirs, cfg.Archive.RootDir)
	}
	return dirs
}

// logAuditHeader prints a concise, 2-line header for each audit run.
func logAuditHeader(cfg *contract.Config) {
	repoName := filepath.Base(cfg.RepoPath)
	if repoName == "" || repoName == "." {
		repoName = "current"
	}
	source := "directory"
	if cfg.IsGitRepo {
		source = "git"
	}
	_, _ = fmt.Fprintf(os.Stderr, "🔎 Repo: %s (Source: %s)\n", repoName, source)

	findings := "none"
	if cfg.FindingsPath != "" {
		findings = filepath.Base(cfg.FindingsPath)
	}
	_, _ = fmt.Fprintf(os.Stderr, "🧾 Findings: %s\n", findings)
}
