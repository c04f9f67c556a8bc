// Package archive stores each audit output directory under a per-repository,
// date-partitioned tree with metadata, retention and a "latest" pointer.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/huangsam/ipaudit/schema"
	"github.com/oklog/ulid/v2"
)

// maxCollisionSuffix bounds the -NN suffixes tried for runs in the same second.
const maxCollisionSuffix = 99

// runGlob matches run directories below a repository bucket.
var runGlob = filepath.Join("[0-9][0-9][0-9][0-9]", "[0-9][0-9]", "[0-9][0-9]", "*")

// Manager archives audit output directories.
type Manager struct {
	cfg       contract.ArchiveConfig
	inspector contract.RepoInspector
	pointer   PointerInstaller
	now       func() time.Time
}

// NewManager creates an archive manager. A nil inspector defaults to go-git.
func NewManager(cfg contract.ArchiveConfig, inspector contract.RepoInspector) *Manager {
	if inspector == nil {
		inspector = contract.NewGoGitInspector()
	}
	return &Manager{
		cfg:       cfg,
		inspector: inspector,
		pointer:   NewPointerInstaller(cfg.Pointer),
		now:       time.Now,
	}
}

// Archive copies outputDir into the archive and returns the new entry.
// It returns nil, nil when archiving is disabled or no root is configured.
func (m *Manager) Archive(sourceRepo, outputDir string, metadata map[string]any) (*schema.ArchiveEntry, error) {
	if !m.cfg.Enabled || m.cfg.RootDir == "" {
		return nil, nil
	}

	source, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(source); err != nil {
		return nil, fmt.Errorf("output directory %q is not readable: %w", outputDir, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("output directory %q is not a directory", outputDir)
	}
	root, err := filepath.Abs(m.cfg.RootDir)
	if err != nil {
		return nil, err
	}
	if isWithin(source, root) {
		return nil, fmt.Errorf("output directory %q lies inside the archive root", outputDir)
	}

	repo, err := filepath.Abs(sourceRepo)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve source repo %q: %w", sourceRepo, err)
	}

	var signer *openpgp.Entity
	if m.cfg.SigningKey != "" {
		if signer, err = loadSigner(m.cfg.SigningKey); err != nil {
			return nil, err
		}
	}

	info, isRepo := m.inspector.Inspect(repo)
	id := resolveIdentity(repo, info, isRepo)
	bucket := filepath.Join(root, id.Owner, id.Repo)

	now := m.now().UTC()
	runDir, err := claimRunDir(bucket, now)
	if err != nil {
		return nil, err
	}

	entry, err := m.populate(runDir, source, root, repo, id, now, metadata, signer)
	if err != nil {
		_ = os.RemoveAll(runDir)
		removeEmptyParents(filepath.Dir(runDir), bucket)
		return nil, err
	}

	if err := prune(bucket, runDir, m.cfg.MaxRunsPerRepo); err != nil {
		contract.LogWarn("Archive pruning incomplete", err)
	}
	if err := m.pointer.Install(filepath.Join(bucket, schema.LatestPointerName), runDir); err != nil {
		contract.LogWarn("Latest archive pointer not updated", err)
	}
	return entry, nil
}

// populate copies the outputs and writes the (optionally signed) metadata.
func (m *Manager) populate(runDir, source, root, sourceRepo string, id Identity, now time.Time, metadata map[string]any, signer *openpgp.Entity) (*schema.ArchiveEntry, error) {
	skip := ""
	if isWithin(root, source) {
		skip = root
	}
	files, err := copyTree(source, runDir, skip)
	if err != nil {
		return nil, err
	}

	clientMetadata := make(map[string]any, len(metadata))
	maps.Copy(clientMetadata, metadata)

	entry := &schema.ArchiveEntry{
		RunID:          ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		ArchivedAt:     now,
		SourceRepo:     sourceRepo,
		SourceOutput:   source,
		ArchivedOutput: runDir,
		Owner:          id.Owner,
		Repo:           id.Repo,
		OutputFiles:    files,
		ClientMetadata: clientMetadata,
		GitCommit:      id.Git.Commit,
		GitBranch:      id.Git.Branch,
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode archive metadata: %w", err)
	}
	metaPath := filepath.Join(runDir, schema.ArchiveMetadataFile)
	if err := atomicWriteFile(metaPath, append(data, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write archive metadata: %w", err)
	}
	if signer != nil {
		if _, err := signFile(signer, metaPath); err != nil {
			return nil, err
		}
	}

	// Retention orders runs by modification time
	if err := os.Chtimes(runDir, now, now); err != nil {
		return nil, err
	}
	return entry, nil
}

// claimRunDir creates bucket/YYYY/MM/DD/HHMMSS, adding -01, -02, ... when a
// run from the same second already exists. os.Mkdir makes each claim atomic.
func claimRunDir(bucket string, now time.Time) (string, error) {
	dayDir := filepath.Join(bucket, now.Format("2006"), now.Format("01"), now.Format("02"))
	if err := os.MkdirAll(dayDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	base := now.Format("150405")
	for i := 0; i <= maxCollisionSuffix; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s-%02d", base, i)
		}
		dir := filepath.Join(dayDir, name)
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("failed to create run directory: %w", err)
		}
	}
	return "", fmt.Errorf("too many archived runs at %s", now.Format(time.RFC3339))
}

// listRuns returns the run directories of a bucket, oldest first. Ties in
// modification time are ordered by path.
func listRuns(bucket string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(bucket, runGlob))
	if err != nil {
		return nil, err
	}

	type run struct {
		path  string
		mtime time.Time
	}
	runs := make([]run, 0, len(matches))
	for _, p := range matches {
		info, err := os.Lstat(p)
		if err != nil || !info.IsDir() {
			continue
		}
		runs = append(runs, run{path: p, mtime: info.ModTime()})
	}
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].mtime.Equal(runs[j].mtime) {
			return runs[i].mtime.Before(runs[j].mtime)
		}
		return runs[i].path < runs[j].path
	})

	paths := make([]string, len(runs))
	for i, r := range runs {
		paths[i] = r.path
	}
	return paths, nil
}

// prune deletes the oldest runs until at most maxRuns remain, never touching
// keep. A maxRuns of zero disables pruning.
func prune(bucket, keep string, maxRuns int) error {
	if maxRuns <= 0 {
		return nil
	}
	runs, err := listRuns(bucket)
	if err != nil {
		return err
	}

	excess := len(runs) - maxRuns
	var errs []error
	for _, run := range runs {
		if excess <= 0 {
			break
		}
		if run == keep {
			continue
		}
		if err := os.RemoveAll(run); err != nil {
			errs = append(errs, err)
			continue
		}
		removeEmptyParents(filepath.Dir(run), bucket)
		excess--
	}
	return errors.Join(errs...)
}

// removeEmptyParents removes empty date directories from dir up to, not including, stop.
func removeEmptyParents(dir, stop string) {
	for dir != stop && isWithin(dir, stop) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
