package schema

// SBOMPackage is one package entry from a software bill of materials.
// File is the repository-relative location the package was found at.
type SBOMPackage struct {
	File      string `json:"file" yaml:"file"`
	Name      string `json:"name,omitempty" yaml:"name"`
	Version   string `json:"version,omitempty" yaml:"version"`
	License   string `json:"license,omitempty" yaml:"license"`
	Ecosystem string `json:"ecosystem,omitempty" yaml:"ecosystem"`
}

// LicenseFinding records the license a scanner detected for one file.
type LicenseFinding struct {
	File    string `json:"file" yaml:"file"`
	License string `json:"license" yaml:"license"`
}

// GitEvidence holds authorship and churn recorded in version control.
type GitEvidence struct {
	Authors   map[string]any            `json:"authors,omitempty" yaml:"authors"`
	Churn     map[string]int            `json:"churn,omitempty" yaml:"churn"`           // author -> lines changed
	FileChurn map[string]map[string]int `json:"file_churn,omitempty" yaml:"file_churn"` // path -> author -> lines changed
}

// SimilarityMatch links a file to an external source it resembles.
type SimilarityMatch struct {
	File   string  `json:"file" yaml:"file"`
	Source string  `json:"source,omitempty" yaml:"source"`
	Score  float64 `json:"score,omitempty" yaml:"score"`
}

// SecretFinding is a potential credential found in a file.
type SecretFinding struct {
	File string `json:"file" yaml:"file"`
	Rule string `json:"rule,omitempty" yaml:"rule"`
	Line int    `json:"line,omitempty" yaml:"line"`
}

// VulnerabilityFinding is an open advisory against a dependency.
type VulnerabilityFinding struct {
	ID       string `json:"id" yaml:"id"`
	Package  string `json:"package,omitempty" yaml:"package"`
	Severity string `json:"severity,omitempty" yaml:"severity"`
}

// FindingSet is an immutable snapshot of scanner outputs for one run.
// Every collection may be empty; none are required.
type FindingSet struct {
	Packages        []SBOMPackage          `json:"packages"`
	Licenses        []LicenseFinding       `json:"licenses"`
	Git             GitEvidence            `json:"git"`
	Similarity      []SimilarityMatch      `json:"similarity"`
	Secrets         []SecretFinding        `json:"secrets"`
	Vulnerabilities []VulnerabilityFinding `json:"vulnerabilities"`
	Coverage        map[string]float64     `json:"coverage"` // path -> ratio in [0,1]
}

// ReferencedPaths returns every file path mentioned by per-file evidence.
// SBOM package locations are excluded since they often name directories.
func (fs *FindingSet) ReferencedPaths() []string {
	if fs == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		if p == "" {
			return
		}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	for _, l := range fs.Licenses {
		add(l.File)
	}
	for _, s := range fs.Similarity {
		add(s.File)
	}
	for _, s := range fs.Secrets {
		add(s.File)
	}
	for p := range fs.Coverage {
		add(p)
	}
	for p := range fs.Git.FileChurn {
		add(p)
	}
	return out
}
