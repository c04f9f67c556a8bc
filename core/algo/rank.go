// Package algo has ranking helpers shared by the audit views.
package algo

import (
	"sort"

	"github.com/huangsam/ipaudit/schema"
)

// RankScores sorts score records by score in descending order and returns
// the top 'limit' records. Equal scores are ordered by path. A limit of zero
// or less returns every record.
func RankScores(records []schema.ScoreRecord, limit int) []schema.ScoreRecord {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Score != records[j].Score {
			return records[i].Score > records[j].Score
		}
		return records[i].Path < records[j].Path
	})
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}

// SortClassifications orders classification records by path and returns
// the first 'limit' records. A limit of zero or less returns every record.
func SortClassifications(records []schema.ClassificationRecord, limit int) []schema.ClassificationRecord {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Path < records[j].Path
	})
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}
