// Package agg derives authorship churn from the Git commit log.
package agg

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/huangsam/ipaudit/schema"
)

// AggregateChurn runs a single repository-wide git log and totals the lines
// changed per file and author. Every path in the log is kept; callers narrow
// the result to known files with FilterToFiles.
func AggregateChurn(ctx context.Context, repoPath string, client contract.GitClient) (*schema.ChurnOutput, error) {
	out, err := client.GetActivityLog(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	fileChurn, authorChurn := initializeChurnMaps()
	parseAndAggregateGitLog(out, nil, fileChurn, authorChurn)
	return &schema.ChurnOutput{FileChurn: fileChurn, AuthorChurn: authorChurn}, nil
}

// FilterToFiles returns a copy of churn restricted to the given files.
// Author totals are kept as they describe the whole repository.
func FilterToFiles(churn *schema.ChurnOutput, files []string) *schema.ChurnOutput {
	fileChurn, authorChurn := initializeChurnMaps()
	if churn == nil {
		return &schema.ChurnOutput{FileChurn: fileChurn, AuthorChurn: authorChurn}
	}
	for a, n := range churn.AuthorChurn {
		authorChurn[a] = n
	}
	for _, f := range files {
		authors, ok := churn.FileChurn[f]
		if !ok {
			continue
		}
		copied := make(map[string]int, len(authors))
		for a, n := range authors {
			copied[a] = n
		}
		fileChurn[f] = copied
	}
	return &schema.ChurnOutput{FileChurn: fileChurn, AuthorChurn: authorChurn}
}

// MergeIntoFindings returns findings with Git churn filled from the commit log
// wherever the Finding Set recorded none. The input is not modified.
func MergeIntoFindings(findings *schema.FindingSet, churn *schema.ChurnOutput) *schema.FindingSet {
	var merged schema.FindingSet
	if findings != nil {
		merged = *findings
	}
	if churn == nil {
		return &merged
	}
	if len(merged.Git.Churn) == 0 && len(churn.AuthorChurn) > 0 {
		merged.Git.Churn = churn.AuthorChurn
	}
	if len(merged.Git.FileChurn) == 0 && len(churn.FileChurn) > 0 {
		merged.Git.FileChurn = churn.FileChurn
	}
	return &merged
}

// initializeChurnMaps creates the maps used for aggregating git data.
func initializeChurnMaps() (map[string]map[string]int, map[string]int) {
	return make(map[string]map[string]int), make(map[string]int)
}

// parseAndAggregateGitLog processes the git log output and aggregates data into the maps.
// A nil fileExists map accepts every path.
func parseAndAggregateGitLog(out []byte, fileExists map[string]bool, fileChurn map[string]map[string]int, authorChurn map[string]int) {
	lines := strings.Split(string(out), "\n")
	var currentAuthor string

	for _, l := range lines {
		l = strings.Trim(l, " \t\r\n'")

		if strings.HasPrefix(l, "--") {
			// Commit header line
			currentAuthor = parseCommitHeader(l)
			continue
		}
		if l == "" {
			continue
		}

		// File stats line
		pathsToAggregate, add, del := parseFileStatsLine(l, fileExists)
		if currentAuthor != "" {
			authorChurn[currentAuthor] += add + del
		}
		for _, p := range pathsToAggregate {
			aggregateForPath(p, add+del, currentAuthor, fileChurn)
		}
	}
}

// parseCommitHeader extracts the author from a "--hash|author|date" line.
// Headers with a missing hash or an unparseable date yield "".
func parseCommitHeader(line string) string {
	if !strings.HasPrefix(line, "--") || len(line) < 5 { // --x|y|z minimum
		return ""
	}
	parts := strings.SplitN(line[2:], "|", 3) // commit|author|date
	if len(parts) != 3 || parts[0] == "" {
		return ""
	}
	if _, err := time.Parse(time.RFC3339, parts[2]); err != nil {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// parseFileStatsLine parses a numstat line and returns paths to aggregate and churn values.
func parseFileStatsLine(line string, fileExists map[string]bool) ([]string, int, int) {
	parts := strings.SplitN(line, "\t", 3)
	if len(parts) < 3 {
		return nil, 0, 0
	}

	add := parseChurnValue(parts[0])
	del := parseChurnValue(parts[1])
	return determinePathsToAggregate(parts[2], fileExists), add, del
}

// parseChurnValue converts a churn string to int, handling "-" (binary) as 0.
func parseChurnValue(s string) int {
	if s == "-" {
		return 0
	}
	if val, err := strconv.Atoi(s); err == nil && val >= 0 {
		return val
	}
	return 0
}

// determinePathsToAggregate handles renames and determines which paths should be aggregated.
func determinePathsToAggregate(path string, fileExists map[string]bool) []string {
	known := func(p string) bool {
		return p != "" && (fileExists == nil || fileExists[p])
	}

	if !strings.Contains(path, " => ") {
		if known(path) {
			return []string{path}
		}
		return nil
	}

	oldPath, newPath := parseRenamePath(path)
	var paths []string
	if known(oldPath) {
		paths = append(paths, oldPath)
	}
	if known(newPath) && newPath != oldPath {
		paths = append(paths, newPath)
	}
	return paths
}

// parseRenamePath extracts old and new paths from "old => new" or "prefix{old => new}suffix".
func parseRenamePath(path string) (string, string) {
	if !strings.Contains(path, "{") {
		parts := strings.SplitN(path, " => ", 2)
		if len(parts) == 2 {
			return parts[0], parts[1]
		}
		return "", ""
	}

	braceStart := strings.Index(path, "{")
	braceEnd := strings.Index(path, "}")
	if braceStart == -1 || braceEnd == -1 || braceStart >= braceEnd {
		return "", ""
	}

	prefix := path[:braceStart]
	renamePart := path[braceStart+1 : braceEnd]
	suffix := path[braceEnd+1:]

	renameParts := strings.SplitN(renamePart, " => ", 2)
	if len(renameParts) != 2 {
		return "", ""
	}
	// An empty side collapses the doubled separator, as in "a/{ => b}/c.go".
	oldPath := strings.ReplaceAll(prefix+renameParts[0]+suffix, "//", "/")
	newPath := strings.ReplaceAll(prefix+renameParts[1]+suffix, "//", "/")
	return oldPath, newPath
}

// aggregateForPath credits churn on one path to the commit author.
func aggregateForPath(path string, churn int, author string, fileChurn map[string]map[string]int) {
	if author == "" {
		return
	}
	if fileChurn[path] == nil {
		fileChurn[path] = make(map[string]int)
	}
	fileChurn[path][author] += churn
}
