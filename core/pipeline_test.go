package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/huangsam/ipaudit/internal/iocache"
	"github.com/huangsam/ipaudit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const sampleFindings = `
sbom:
  packages:
    - name: lib
      file: vendor/lib
      license: MIT
coverage:
  files:
    main.go: 80
git:
  file_churn:
    main.go: {alice: 12, bob: 3}
`

// writeRepo lays out a small plain directory and its findings document.
func writeRepo(t *testing.T) (repo, findings string) {
	t.Helper()
	repo = t.TempDir()
	files := map[string]string{
		"main.go":           "package main\n\nfunc main() {}\n",
		"util/strings.go":   "package util\n\n// Upper is a stub.\nfunc Upper() {}\n",
		"vendor/lib/lib.go": "package lib\n\nvar X = 1\n",
	}
	for name, content := range files {
		p := filepath.Join(repo, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	findings = filepath.Join(t.TempDir(), "findings.yaml")
	require.NoError(t, os.WriteFile(findings, []byte(sampleFindings), 0o644))
	return repo, findings
}

// auditConfig mirrors the validated defaults for a plain directory.
func auditConfig(t *testing.T, repo, findings string) *contract.Config {
	t.Helper()
	return &contract.Config{
		RepoPath:     repo,
		FindingsPath: findings,
		ResultLimit:  contract.DefaultResultLimit,
		Workers:      2,
		Precision:    contract.DefaultPrecision,
		Output:       schema.JSONOut,
		OutputFile:   filepath.Join(t.TempDir(), "out.json"),
		OutputDir:    filepath.Join(t.TempDir(), "bundle"),
		Excludes:     []string{".git/"},
		Cost: schema.CostModel{
			DaysPerKLOC:          contract.DefaultDaysPerKLOC,
			HoursPerDay:          contract.DefaultHoursPerDay,
			HourlyRate:           contract.DefaultHourlyRate,
			ComplexityMultiplier: contract.DefaultComplexityMultiplier,
			Currency:             contract.DefaultCurrency,
		},
		Classify: contract.ClassifyConfig{
			PermissiveLicenses: contract.DefaultPermissiveLicenses,
			HighRiskLicenses:   contract.DefaultHighRiskLicenses,
		},
		Metadata:       map[string]any{},
		CacheBackend:   schema.NoneBackend,
		HistoryBackend: schema.NoneBackend,
	}
}

func TestRunAudit_Stages(t *testing.T) {
	repo, findings := writeRepo(t)
	cfg := auditConfig(t, repo, findings)
	ctx := WithSuppressHeader(context.Background())

	tests := []struct {
		name    string
		through Stage
		check   func(t *testing.T, r *schema.AuditResult)
	}{
		{"classify", StageClassify, func(t *testing.T, r *schema.AuditResult) {
			assert.Len(t, r.Classification, 3)
			assert.Nil(t, r.Scores)
			assert.Zero(t, r.Cost)
		}},
		{"score", StageScore, func(t *testing.T, r *schema.AuditResult) {
			assert.Len(t, r.Scores, 3)
			assert.Zero(t, r.Cost)
		}},
		{"cost", StageCost, func(t *testing.T, r *schema.AuditResult) {
			assert.Equal(t, 10, r.Cost.TotalLOC)
			assert.Equal(t, 7, r.Cost.ForegroundLOC)
			assert.Empty(t, r.Narrative.Executive)
		}},
		{"narrative", StageNarrative, func(t *testing.T, r *schema.AuditResult) {
			assert.Equal(t, 3, r.Aggregates.KPIs.TotalFiles)
			assert.NotEmpty(t, r.Narrative.Executive)
			assert.NotEmpty(t, r.Narrative.Board)
			assert.NotEmpty(t, r.Narrative.Engineering)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := RunAudit(ctx, cfg, AuditDeps{}, tt.through)
			require.NoError(t, err)
			assert.Equal(t, repo, result.RepoPath)
			tt.check(t, result)
		})
	}
}

func TestRunAudit_ClassifiesFromFindings(t *testing.T) {
	repo, findings := writeRepo(t)
	result, err := RunAudit(WithSuppressHeader(context.Background()), auditConfig(t, repo, findings), AuditDeps{}, StageScore)
	require.NoError(t, err)

	vendored := result.Classification["vendor/lib/lib.go"]
	assert.Equal(t, schema.ThirdPartyOrigin, vendored.Origin)
	assert.Equal(t, "MIT", vendored.License)
	assert.Equal(t, RuleSBOM, vendored.Rule)

	main := result.Classification["main.go"]
	assert.Equal(t, schema.ForegroundOrigin, main.Origin)
	assert.Equal(t, "alice", main.PrimaryAuthor)

	assert.Equal(t, schema.ThirdPartyReason, result.Scores["vendor/lib/lib.go"].Reason)
	assert.InDelta(t, 0.8, result.Scores["main.go"].TestCoverage, 1e-9)
	assert.InDelta(t, 0.5, result.Scores["util/strings.go"].TestCoverage, 1e-9)
}

func TestRunAudit_Errors(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())

	t.Run("missing findings", func(t *testing.T) {
		repo, _ := writeRepo(t)
		cfg := auditConfig(t, repo, filepath.Join(t.TempDir(), "absent.yaml"))
		_, err := RunAudit(ctx, cfg, AuditDeps{}, StageClassify)
		assert.ErrorContains(t, err, "failed to read findings")
	})

	t.Run("no files", func(t *testing.T) {
		cfg := auditConfig(t, t.TempDir(), "")
		_, err := RunAudit(ctx, cfg, AuditDeps{}, StageClassify)
		assert.EqualError(t, err, "no files found")
	})

	t.Run("bad aggregates", func(t *testing.T) {
		repo, findings := writeRepo(t)
		cfg := auditConfig(t, repo, findings)
		cfg.AggregatesPath = filepath.Join(t.TempDir(), "absent.json")
		_, err := RunAudit(ctx, cfg, AuditDeps{}, StageNarrative)
		assert.Error(t, err)
	})
}

func TestRunAudit_SkipsOutputDir(t *testing.T) {
	repo, findings := writeRepo(t)
	cfg := auditConfig(t, repo, findings)
	cfg.OutputDir = filepath.Join(repo, "ipaudit-output")
	require.NoError(t, os.MkdirAll(cfg.OutputDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.OutputDir, "scores.json"), []byte("{}"), 0o644))

	result, err := RunAudit(WithSuppressHeader(context.Background()), cfg, AuditDeps{}, StageClassify)
	require.NoError(t, err)
	assert.NotContains(t, result.Classification, "ipaudit-output/scores.json")
	assert.Len(t, result.Classification, 3)
}

func TestRunAudit_LocalChurn(t *testing.T) {
	repo, _ := writeRepo(t)
	cfg := auditConfig(t, repo, "")
	cfg.IsGitRepo = true
	ctx := WithSuppressHeader(context.Background())

	log := "--abc123|carol|2024-01-01T10:00:00Z\n40\t2\tutil/strings.go\n1\t0\tmain.go\n\n" +
		"--def456|dave|2024-02-01T10:00:00Z\n5\t5\tmain.go\n"

	client := &contract.MockGitClient{}
	client.On("ListTrackedFiles", mock.Anything, repo).Return([]string{"main.go", "util/strings.go"}, nil)
	client.On("GetActivityLog", mock.Anything, repo).Return([]byte(log), nil)

	result, err := RunAudit(ctx, cfg, AuditDeps{Client: client}, StageClassify)
	require.NoError(t, err)
	assert.Len(t, result.Classification, 2)
	assert.Equal(t, "carol", result.Classification["util/strings.go"].PrimaryAuthor)
	assert.Equal(t, "dave", result.Classification["main.go"].PrimaryAuthor)
	client.AssertExpectations(t)
}

func TestRunAudit_LocalChurnCached(t *testing.T) {
	repo, _ := writeRepo(t)
	cfg := auditConfig(t, repo, "")
	cfg.IsGitRepo = true

	client := &contract.MockGitClient{}
	client.On("ListTrackedFiles", mock.Anything, repo).Return([]string{"main.go"}, nil)
	client.On("GetRepoHash", mock.Anything, repo).Return("deadbeef", nil)
	client.On("GetActivityLog", mock.Anything, repo).Return([]byte("--abc|erin|2024-01-01T10:00:00Z\n3\t1\tmain.go\n"), nil)

	store := &iocache.MockCacheStore{}
	store.On("Get", mock.Anything).Return([]byte(nil), 0, int64(0), assert.AnError)
	store.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	mgr := &iocache.MockStoreManager{}
	mgr.On("GetChurnStore").Return(store)

	result, err := RunAudit(WithSuppressHeader(context.Background()), cfg, AuditDeps{Client: client, Stores: mgr}, StageClassify)
	require.NoError(t, err)
	assert.Equal(t, "erin", result.Classification["main.go"].PrimaryAuthor)
	store.AssertCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunAudit_LocalChurnFailureDegrades(t *testing.T) {
	repo, _ := writeRepo(t)
	cfg := auditConfig(t, repo, "")
	cfg.IsGitRepo = true

	client := &contract.MockGitClient{}
	client.On("ListTrackedFiles", mock.Anything, repo).Return([]string{"main.go"}, nil)
	client.On("GetActivityLog", mock.Anything, repo).Return(nil, assert.AnError)

	result, err := RunAudit(WithSuppressHeader(context.Background()), cfg, AuditDeps{Client: client}, StageClassify)
	require.NoError(t, err)
	assert.Equal(t, schema.UnknownAuthor, result.Classification["main.go"].PrimaryAuthor)
}

func TestOutputSkipDirs(t *testing.T) {
	assert.Nil(t, outputSkipDirs(&contract.Config{}))

	cfg := &contract.Config{OutputDir: "out", Archive: contract.ArchiveConfig{RootDir: "/srv/archive"}}
	dirs := outputSkipDirs(cfg)
	require.Len(t, dirs, 2)
	assert.True(t, filepath.IsAbs(dirs[0]))
	assert.Equal(t, "/srv/archive", dirs[1])
}
