package schema

import "time"

// ArchiveMetadataFile is the metadata document written into every archived run.
const ArchiveMetadataFile = "archive_metadata.json"

// ArchiveSignatureFile is the detached signature of the metadata document.
const ArchiveSignatureFile = ArchiveMetadataFile + ".asc"

// LatestPointerName is the per-repository entry resolving to the newest run.
const LatestPointerName = "latest"

// ArchiveEntry describes one archived run. It is never mutated after creation.
type ArchiveEntry struct {
	RunID          string         `json:"run_id"`
	ArchivedAt     time.Time      `json:"archived_at_utc"`
	SourceRepo     string         `json:"source_repo"`
	SourceOutput   string         `json:"source_output"`
	ArchivedOutput string         `json:"archived_output"`
	Owner          string         `json:"owner"`
	Repo           string         `json:"repo"`
	OutputFiles    []string       `json:"output_files"`
	ClientMetadata map[string]any `json:"client_metadata"`
	GitCommit      string         `json:"git_commit,omitempty"`
	GitBranch      string         `json:"git_branch,omitempty"`
}

// GitInfo is what can be learned about a repository from its git metadata.
type GitInfo struct {
	Root      string
	RemoteURL string
	Commit    string
	Branch    string
}
