package evidence

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/huangsam/ipaudit/schema"
)

// InventoryOptions controls how the list of known files is assembled.
type InventoryOptions struct {
	RepoPath  string
	IsGitRepo bool
	Excludes  []string
	SkipDirs  []string // Absolute directories to leave out, such as the output bundle
}

// Inventory lists the repository-relative files known to the audit.
// Git repositories use the tracked file list; other directories are walked.
// When the directory yields nothing, paths referenced by the findings are used.
func Inventory(ctx context.Context, client contract.GitClient, opts InventoryOptions, findings *schema.FindingSet) ([]string, error) {
	var files []string
	var err error

	if opts.RepoPath != "" {
		if opts.IsGitRepo && client != nil {
			files, err = client.ListTrackedFiles(ctx, opts.RepoPath)
			if err != nil {
				contract.LogWarn("Falling back to directory walk", err)
				files, err = walkFiles(opts.RepoPath)
			}
		} else {
			files, err = walkFiles(opts.RepoPath)
		}
		if err != nil {
			return nil, err
		}
	}

	skips := relativeSkips(opts.RepoPath, opts.SkipDirs)
	seen := make(map[string]struct{}, len(files))
	var out []string
	for _, f := range files {
		f = cleanPath(f)
		if f == "" || contract.ShouldIgnore(f, opts.Excludes) || underAny(f, skips) {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}

	if len(out) == 0 {
		for _, f := range findings.ReferencedPaths() {
			if !contract.ShouldIgnore(f, opts.Excludes) {
				out = append(out, f)
			}
		}
	}

	sort.Strings(out)
	return out, nil
}

// walkFiles returns every regular file under root as a slash-separated relative path.
func walkFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	return files, err
}

// relativeSkips converts absolute skip directories into relative prefixes inside root.
func relativeSkips(root string, dirs []string) []string {
	var out []string
	for _, d := range dirs {
		if d == "" {
			continue
		}
		abs := d
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(root, d)
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		out = append(out, filepath.ToSlash(rel)+"/")
	}
	return out
}

func underAny(p string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}
