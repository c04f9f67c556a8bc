package agg

import (
	"fmt"
	"strings"
	"time"
)

// gitLogScenario represents a single commit scenario for test data generation.
type gitLogScenario struct {
	commitHash string
	author     string
	date       time.Time
	files      []fileChange
}

// fileChange represents a single file change in a commit.
type fileChange struct {
	path      string
	additions int
	deletions int
}

// generateTestGitLog creates a programmatic git log fixture for testing.
func generateTestGitLog(scenarios []gitLogScenario) []byte {
	var lines []string
	for _, scenario := range scenarios {
		lines = append(lines, fmt.Sprintf("--%s|%s|%s", scenario.commitHash, scenario.author, scenario.date.Format(time.RFC3339)))
		for _, file := range scenario.files {
			lines = append(lines, fmt.Sprintf("%d\t%d\t%s", file.additions, file.deletions, file.path))
		}
		lines = append(lines, "") // Empty line between commits
	}
	return []byte(strings.Join(lines, "\n"))
}

// sampleGitLog covers two authors, a rename and a binary file.
func sampleGitLog() []byte {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	log := generateTestGitLog([]gitLogScenario{
		{"abc123", "Alice Developer", base, []fileChange{
			{"src/main.go", 50, 10},
			{"src/util.go", 100, 5},
		}},
		{"def456", "Bob Tester", base.Add(time.Hour), []fileChange{
			{"src/main.go", 25, 5},
			{"src/{util.go => helpers.go}", 8, 2},
		}},
		{"ghi789", "Alice Developer", base.Add(2 * time.Hour), []fileChange{
			{"src/helpers.go", 20, 0},
		}},
	})
	// Binary change as git reports it
	return append(log, []byte("\n--jkl012|Bob Tester|2024-01-02T10:00:00Z\n-\t-\tassets/logo.png\n")...)
}
