package contract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPlainLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{name: "smallest value possible", input: 0.0, expected: LowValue},
		{name: "just before moderate", input: 39.9, expected: LowValue},
		{name: "exactly moderate", input: 40.0, expected: ModerateValue},
		{name: "just before high", input: 59.9, expected: ModerateValue},
		{name: "exactly high", input: 60.0, expected: HighValue},
		{name: "just before critical", input: 79.9, expected: HighValue},
		{name: "exactly critical", input: 80.0, expected: CriticalValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetPlainLabel(tt.input))
		})
	}
}

func TestGetColorLabel(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		label string
	}{
		{"low", 30, LowValue},
		{"moderate", 50, ModerateValue},
		{"high", 70, HighValue},
		{"critical", 90, CriticalValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, GetColorLabel(tt.score), tt.label)
		})
	}
}

func TestShouldIgnore(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		excludes []string
		expected bool
	}{
		{"no excludes", "main.go", nil, false},
		{"git directory", ".git/config", []string{".git/"}, true},
		{"nested directory prefix", "web/node_modules/x.js", []string{"node_modules/"}, true},
		{"extension suffix", "assets/app.min.js", []string{".min.js"}, true},
		{"glob on base name", "assets/app.min.js", []string{"*.min.js"}, true},
		{"doublestar glob", "third_party/a/b/c.c", []string{"third_party/**"}, true},
		{"glob miss", "src/app.js", []string{"*.min.js"}, false},
		{"substring", "docs/generated/api.go", []string{"generated"}, true},
		{"blank entries", "main.go", []string{"", "  "}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShouldIgnore(tt.path, tt.excludes))
		})
	}
}

func TestMatchesAnyPattern(t *testing.T) {
	patterns := []string{"legacy/**", "**/*.proto"}
	assert.True(t, MatchesAnyPattern("legacy/a/b.go", patterns))
	assert.True(t, MatchesAnyPattern("api/v1/service.proto", patterns))
	assert.False(t, MatchesAnyPattern("src/main.go", patterns))
	assert.False(t, MatchesAnyPattern("src/main.go", nil))
}

func TestIsHighRiskLicense(t *testing.T) {
	prefixes := []string{"GPL", "AGPL", "LGPL", "SSPL"}
	assert.True(t, IsHighRiskLicense("GPL-3.0-only", prefixes))
	assert.True(t, IsHighRiskLicense("agpl-3.0", prefixes))
	assert.True(t, IsHighRiskLicense("LGPL-2.1", prefixes))
	assert.False(t, IsHighRiskLicense("MIT", prefixes))
	assert.False(t, IsHighRiskLicense("", prefixes))
	assert.False(t, IsHighRiskLicense("GPL-2.0", nil))
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v)
	}
	_, err := ParseBoolString("maybe")
	assert.Error(t, err)
}

func TestTruncatePath(t *testing.T) {
	assert.Equal(t, "short.go", TruncatePath("short.go", 20))
	assert.Equal(t, "...ng/file.go", TruncatePath("a/very/long/file.go", 13))
	assert.Equal(t, "abcdef", TruncatePath("abcdef", 3))
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "archive"), ExpandHome("~/archive"))
	assert.Equal(t, "/abs/path", ExpandHome("/abs/path"))
	assert.Equal(t, "rel/~x", ExpandHome("rel/~x"))
}

func TestSelectOutputFile(t *testing.T) {
	f, err := SelectOutputFile("")
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, f)

	path := filepath.Join(t.TempDir(), "out.json")
	f, err = SelectOutputFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.FileExists(t, path)
}

func TestDBFilePaths(t *testing.T) {
	assert.Contains(t, GetCacheDBFilePath(), ".ipaudit_cache.db")
	assert.Contains(t, GetHistoryDBFilePath(), ".ipaudit_history.db")
	assert.NotEqual(t, GetCacheDBFilePath(), GetHistoryDBFilePath())
}
