package archive

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/huangsam/ipaudit/schema"
)

// Fallback identity values.
const (
	LocalOwner      = "local"
	DefaultRepoName = "repository"
	emptySlug       = "repo"
)

var slugInvalid = regexp.MustCompile(`[^a-z0-9._-]+`)

// Identity names the archive bucket of a repository.
type Identity struct {
	Owner string
	Repo  string
	Git   schema.GitInfo
}

// resolveIdentity derives owner and repo slugs from git metadata, falling back
// to the local directory name.
func resolveIdentity(sourceRepo string, info schema.GitInfo, isRepo bool) Identity {
	id := Identity{Git: info}
	if isRepo {
		if owner, repo, ok := ParseRemote(info.RemoteURL); ok {
			id.Owner, id.Repo = Slugify(owner), Slugify(repo)
			return id
		}
	}

	root := sourceRepo
	if isRepo && info.Root != "" {
		root = info.Root
	}
	name := filepath.Base(filepath.Clean(root))
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = DefaultRepoName
	}
	id.Owner, id.Repo = LocalOwner, Slugify(name)
	return id
}

// ParseRemote extracts owner and repository name from a remote URL. It accepts
// URL forms (https, ssh, file) and scp-like "host:owner/name" forms, strips a
// trailing ".git" and takes the last two non-empty path segments.
func ParseRemote(remote string) (owner, repo string, ok bool) {
	remote = strings.TrimSpace(remote)
	if remote == "" {
		return "", "", false
	}

	p := remote
	switch {
	case strings.Contains(remote, "://"):
		u, err := url.Parse(remote)
		if err != nil {
			return "", "", false
		}
		p = u.Path
	case isSCPLike(remote):
		p = remote[strings.Index(remote, ":")+1:]
	}

	p = strings.TrimRight(strings.ReplaceAll(p, `\`, "/"), "/")
	p = strings.TrimSuffix(p, ".git")

	var segments []string
	for s := range strings.SplitSeq(p, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) < 2 {
		return "", "", false
	}
	return segments[len(segments)-2], segments[len(segments)-1], true
}

// isSCPLike reports whether the remote looks like "[user@]host:path".
func isSCPLike(remote string) bool {
	colon := strings.Index(remote, ":")
	if colon <= 0 {
		return false
	}
	// Windows drive letters such as C:\repo are paths, not hosts
	if colon == 1 {
		return false
	}
	slash := strings.IndexAny(remote, `/\`)
	return slash < 0 || colon < slash
}

// Slugify lowercases s and replaces runs of characters outside [a-z0-9._-]
// with a single '-'. Leading and trailing separators are trimmed.
func Slugify(s string) string {
	slug := slugInvalid.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	slug = strings.Trim(slug, "-._")
	if slug == "" {
		return emptySlug
	}
	return slug
}
