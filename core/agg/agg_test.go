package agg

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/huangsam/ipaudit/internal/iocache"
	"github.com/huangsam/ipaudit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestParseAndAggregateGitLog(t *testing.T) {
	fileChurn, authorChurn := initializeChurnMaps()
	parseAndAggregateGitLog(sampleGitLog(), nil, fileChurn, authorChurn)

	assert.Equal(t, map[string]int{"Alice Developer": 60, "Bob Tester": 30}, fileChurn["src/main.go"])
	assert.Equal(t, map[string]int{"Alice Developer": 105, "Bob Tester": 10}, fileChurn["src/util.go"])
	assert.Equal(t, map[string]int{"Bob Tester": 10, "Alice Developer": 20}, fileChurn["src/helpers.go"])
	assert.Equal(t, map[string]int{"Bob Tester": 0}, fileChurn["assets/logo.png"])
	assert.Equal(t, map[string]int{"Alice Developer": 185, "Bob Tester": 40}, authorChurn)
}

func TestParseAndAggregateGitLog_ExistenceFilter(t *testing.T) {
	fileChurn, authorChurn := initializeChurnMaps()
	parseAndAggregateGitLog(sampleGitLog(), map[string]bool{"src/helpers.go": true}, fileChurn, authorChurn)

	assert.Len(t, fileChurn, 1)
	assert.Equal(t, 30, fileChurn["src/helpers.go"]["Alice Developer"]+fileChurn["src/helpers.go"]["Bob Tester"])
	assert.Equal(t, 185, authorChurn["Alice Developer"], "author totals cover every file")
}

func TestParseCommitHeader(t *testing.T) {
	testCases := []struct {
		name     string
		line     string
		expected string
	}{
		{"valid header", "--abc123|John Doe|2024-01-15T10:30:00Z", "John Doe"},
		{"timezone offset", "--abc123|Jane Smith|2024-01-15T10:30:00-08:00", "Jane Smith"},
		{"invalid date", "--abc123|John Doe|invalid-date", ""},
		{"malformed header", "--abc123|John Doe", ""},
		{"missing hash", "--|John Doe|2024-01-15T10:30:00Z", ""},
		{"empty line", "", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, parseCommitHeader(tc.line))
		})
	}
}

func TestParseFileStatsLine(t *testing.T) {
	fileExists := map[string]bool{"src/main.go": true, "src/utils.go": true}

	testCases := []struct {
		name          string
		line          string
		expectedPaths []string
		expectedAdd   int
		expectedDel   int
	}{
		{"normal file", "10\t5\tsrc/main.go", []string{"src/main.go"}, 10, 5},
		{"binary file", "-\t-\tsrc/binary.dll", nil, 0, 0},
		{"non-existent file", "5\t2\told_file.go", nil, 5, 2},
		{"too few parts", "10\tsrc/main.go", nil, 0, 0},
		{"invalid numbers", "abc\tdef\tsrc/main.go", []string{"src/main.go"}, 0, 0},
		{"rename into known file", "8\t1\told.go => src/utils.go", []string{"src/utils.go"}, 8, 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			paths, add, del := parseFileStatsLine(tc.line, fileExists)
			assert.Equal(t, tc.expectedPaths, paths)
			assert.Equal(t, tc.expectedAdd, add)
			assert.Equal(t, tc.expectedDel, del)
		})
	}
}

func TestParseChurnValue(t *testing.T) {
	for input, expected := range map[string]int{"42": 42, "0": 0, "-": 0, "": 0, "abc": 0, "-5": 0, " 42 ": 0} {
		assert.Equal(t, expected, parseChurnValue(input), "%q", input)
	}
}

func TestParseRenamePath(t *testing.T) {
	testCases := []struct {
		name        string
		path        string
		expectedOld string
		expectedNew string
	}{
		{"simple rename", "old/file.go => new/file.go", "old/file.go", "new/file.go"},
		{"braced rename", "src/{old => new}/file.go", "src/old/file.go", "src/new/file.go"},
		{"complex braced rename", "a/b/{c/d => e/f}/file.go", "a/b/c/d/file.go", "a/b/e/f/file.go"},
		{"move into subdir", "src/{ => pkg}/file.go", "src/file.go", "src/pkg/file.go"},
		{"no arrow", "src/file.go", "", ""},
		{"empty braces", "src/{}/file.go", "", ""},
		{"unclosed brace", "src/{old => new/file.go", "", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			o, n := parseRenamePath(tc.path)
			assert.Equal(t, tc.expectedOld, o)
			assert.Equal(t, tc.expectedNew, n)
		})
	}
}

func TestDeterminePathsToAggregate(t *testing.T) {
	assert.Equal(t, []string{"a.go"}, determinePathsToAggregate("a.go", nil))
	assert.Equal(t, []string{"old.go", "new.go"}, determinePathsToAggregate("old.go => new.go", nil))
	assert.Equal(t, []string{"new.go"}, determinePathsToAggregate(" => new.go", nil))
	assert.Nil(t, determinePathsToAggregate("gone.go", map[string]bool{"a.go": true}))
}

func TestAggregateChurn(t *testing.T) {
	client := new(contract.MockGitClient)
	client.On("GetActivityLog", mock.Anything, "/repo").Return(sampleGitLog(), nil)

	churn, err := AggregateChurn(context.Background(), "/repo", client)
	require.NoError(t, err)
	assert.Equal(t, 185, churn.AuthorChurn["Alice Developer"])
	client.AssertExpectations(t)

	failing := new(contract.MockGitClient)
	failing.On("GetActivityLog", mock.Anything, "/repo").Return(nil, errors.New("not a repo"))
	_, err = AggregateChurn(context.Background(), "/repo", failing)
	assert.Error(t, err)
}

func TestFilterToFiles(t *testing.T) {
	churn := &schema.ChurnOutput{
		FileChurn:   map[string]map[string]int{"a.go": {"x": 1}, "b.go": {"y": 2}},
		AuthorChurn: map[string]int{"x": 1, "y": 2},
	}
	got := FilterToFiles(churn, []string{"a.go", "missing.go"})
	assert.Equal(t, map[string]map[string]int{"a.go": {"x": 1}}, got.FileChurn)
	assert.Equal(t, churn.AuthorChurn, got.AuthorChurn)

	got.FileChurn["a.go"]["x"] = 99
	assert.Equal(t, 1, churn.FileChurn["a.go"]["x"], "filtering copies nested maps")

	empty := FilterToFiles(nil, []string{"a.go"})
	assert.NotNil(t, empty.FileChurn)
	assert.NotNil(t, empty.AuthorChurn)
}

func TestMergeIntoFindings(t *testing.T) {
	churn := &schema.ChurnOutput{
		FileChurn:   map[string]map[string]int{"a.go": {"log": 5}},
		AuthorChurn: map[string]int{"log": 5},
	}

	recorded := &schema.FindingSet{Git: schema.GitEvidence{Churn: map[string]int{"scanner": 9}}}
	merged := MergeIntoFindings(recorded, churn)
	assert.Equal(t, map[string]int{"scanner": 9}, merged.Git.Churn, "recorded churn wins")
	assert.Equal(t, churn.FileChurn, merged.Git.FileChurn)
	assert.Nil(t, recorded.Git.FileChurn, "input is not modified")

	fromNil := MergeIntoFindings(nil, churn)
	assert.Equal(t, churn.AuthorChurn, fromNil.Git.Churn)

	unchanged := MergeIntoFindings(recorded, nil)
	assert.Equal(t, recorded.Git, unchanged.Git)
}

func TestCheckCacheHit(t *testing.T) {
	valid, _ := json.Marshal(schema.ChurnOutput{AuthorChurn: map[string]int{"alice": 5}})
	now := time.Now().Unix()
	stale := time.Now().Add(-8 * 24 * time.Hour).Unix()

	tests := []struct {
		name    string
		data    []byte
		version int
		ts      int64
		err     error
		hit     bool
	}{
		{"hit", valid, currentCacheVersion, now, nil, true},
		{"version mismatch", valid, currentCacheVersion + 1, now, nil, false},
		{"stale", valid, currentCacheVersion, stale, nil, false},
		{"store error", []byte{}, 0, 0, assert.AnError, false},
		{"bad json", []byte("invalid json"), currentCacheVersion, now, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &iocache.MockCacheStore{}
			store.On("Get", "key").Return(tt.data, tt.version, tt.ts, tt.err)

			got := checkCacheHit(store, "key")
			if tt.hit {
				require.NotNil(t, got)
				assert.Equal(t, 5, got.AuthorChurn["alice"])
				assert.NotNil(t, got.FileChurn)
			} else {
				assert.Nil(t, got)
			}
			store.AssertExpectations(t)
		})
	}
}

func TestCachedAggregateChurn(t *testing.T) {
	ctx := context.Background()

	t.Run("miss computes and stores", func(t *testing.T) {
		client := new(contract.MockGitClient)
		client.On("GetRepoHash", mock.Anything, "/repo").Return("deadbeef", nil)
		client.On("GetActivityLog", mock.Anything, "/repo").Return(sampleGitLog(), nil)

		store := &iocache.MockCacheStore{}
		key := generateCacheKey(ctx, "/repo", client)
		store.On("Get", key).Return([]byte{}, 0, int64(0), assert.AnError)
		store.On("Set", key, mock.Anything, currentCacheVersion, mock.AnythingOfType("int64")).Return(nil)

		churn, err := CachedAggregateChurn(ctx, "/repo", client, store)
		require.NoError(t, err)
		assert.Equal(t, 40, churn.AuthorChurn["Bob Tester"])
		store.AssertExpectations(t)
	})

	t.Run("hit skips git log", func(t *testing.T) {
		client := new(contract.MockGitClient)
		client.On("GetRepoHash", mock.Anything, "/repo").Return("deadbeef", nil)

		data, _ := json.Marshal(schema.ChurnOutput{AuthorChurn: map[string]int{"cached": 1}})
		store := &iocache.MockCacheStore{}
		store.On("Get", mock.Anything).Return(data, currentCacheVersion, time.Now().Unix(), nil)

		churn, err := CachedAggregateChurn(ctx, "/repo", client, store)
		require.NoError(t, err)
		assert.Equal(t, 1, churn.AuthorChurn["cached"])
		client.AssertNotCalled(t, "GetActivityLog", mock.Anything, mock.Anything)
	})

	t.Run("nil store", func(t *testing.T) {
		client := new(contract.MockGitClient)
		client.On("GetActivityLog", mock.Anything, "/repo").Return(sampleGitLog(), nil)
		churn, err := CachedAggregateChurn(ctx, "/repo", client, nil)
		require.NoError(t, err)
		assert.NotEmpty(t, churn.FileChurn)
	})
}

func TestGenerateCacheKey(t *testing.T) {
	ctx := context.Background()
	a := new(contract.MockGitClient)
	a.On("GetRepoHash", mock.Anything, "/repo").Return("aaa", nil)
	b := new(contract.MockGitClient)
	b.On("GetRepoHash", mock.Anything, "/repo").Return("bbb", nil)
	failing := new(contract.MockGitClient)
	failing.On("GetRepoHash", mock.Anything, "/repo").Return("", errors.New("no HEAD"))

	keyA := generateCacheKey(ctx, "/repo", a)
	assert.Len(t, keyA, 64)
	assert.Equal(t, keyA, generateCacheKey(ctx, "/repo", a))
	assert.NotEqual(t, keyA, generateCacheKey(ctx, "/repo", b))
	assert.NotEmpty(t, generateCacheKey(ctx, "/repo", failing))
}
