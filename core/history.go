package core

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/huangsam/ipaudit/schema"
)

// recordHistory stores the run and its per-file records in the history store.
// Every failure is logged and swallowed so tracking never breaks an audit.
func recordHistory(cfg *contract.Config, mgr contract.StoreManager, start time.Time, result *schema.AuditResult) {
	if mgr == nil {
		return
	}
	store := mgr.GetHistoryStore()
	if store == nil {
		return
	}

	configParams := map[string]any{
		"repo_path":     cfg.RepoPath,
		"findings_path": cfg.FindingsPath,
		"workers":       cfg.Workers,
		"result_limit":  cfg.ResultLimit,
		"cost_model":    cfg.Cost,
	}
	runID, err := store.BeginRun(start, cfg.RepoPath, configParams)
	if err != nil {
		contract.LogWarn("History tracking initialization failed", err)
		return
	}
	if runID <= 0 {
		return
	}

	now := time.Now()
	for _, path := range slices.Sorted(maps.Keys(result.Classification)) {
		record := fileHistoryRecord(runID, now, result.Classification[path], result.Scores)
		if err := store.RecordFile(runID, record); err != nil {
			logTrackingError("RecordFile", path, err)
		}
	}

	summary := schema.RunSummary{
		EndTime:    time.Now(),
		TotalFiles: len(result.Classification),
		Cost:       result.Cost,
	}
	if err := store.EndRun(runID, summary); err != nil {
		contract.LogWarn("Failed to finalize history tracking", err)
	}
}

// fileHistoryRecord merges the classification of a file with its score, if any.
func fileHistoryRecord(runID int64, at time.Time, class schema.ClassificationRecord, scores map[string]schema.ScoreRecord) schema.FileHistoryRecord {
	record := schema.FileHistoryRecord{
		RunID:      runID,
		FilePath:   class.Path,
		RecordedAt: at,
		Origin:     string(class.Origin),
		License:    class.License,
	}
	if class.PrimaryAuthor != "" && class.PrimaryAuthor != schema.UnknownAuthor {
		author := class.PrimaryAuthor
		record.PrimaryAuthor = &author
	}
	if s, ok := scores[class.Path]; ok {
		record.LOC = int32(s.LOC)
		record.Complexity = s.Complexity
		record.Coupling = s.Coupling
		record.TestCoverage = s.TestCoverage
		record.Score = s.Score
		record.Rewriteable = s.Rewriteable
	}
	return record
}

// logTrackingError logs history tracking errors to stderr without disrupting the audit.
func logTrackingError(operation, path string, err error) {
	contract.LogWarn(fmt.Sprintf("History tracking failed for %s on %s", operation, path), err)
}
