package contract

import (
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/huangsam/ipaudit/schema"
)

// GoGitInspector implements RepoInspector by reading repository metadata
// in-process, without shelling out to git.
type GoGitInspector struct{}

var _ RepoInspector = &GoGitInspector{} // Compile-time check

// NewGoGitInspector creates a new repository inspector.
func NewGoGitInspector() *GoGitInspector {
	return &GoGitInspector{}
}

// Inspect implements the RepoInspector interface.
func (g *GoGitInspector) Inspect(path string) (schema.GitInfo, bool) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return schema.GitInfo{}, false
	}

	var info schema.GitInfo
	if wt, err := repo.Worktree(); err == nil {
		info.Root = wt.Filesystem.Root()
	}
	info.RemoteURL = preferredRemoteURL(repo)

	// An empty repository has no HEAD yet
	if head, err := repo.Head(); err == nil {
		info.Commit = head.Hash().String()
		if head.Name().IsBranch() {
			info.Branch = head.Name().Short()
		}
	}
	return info, true
}

// preferredRemoteURL returns the URL of "origin", else of the first remote by name.
func preferredRemoteURL(repo *git.Repository) string {
	if remote, err := repo.Remote("origin"); err == nil {
		if urls := remote.Config().URLs; len(urls) > 0 {
			return urls[0]
		}
	}
	remotes, err := repo.Remotes()
	if err != nil {
		return ""
	}
	sort.Slice(remotes, func(i, j int) bool {
		return remotes[i].Config().Name < remotes[j].Config().Name
	})
	for _, remote := range remotes {
		if urls := remote.Config().URLs; len(urls) > 0 {
			return urls[0]
		}
	}
	return ""
}
