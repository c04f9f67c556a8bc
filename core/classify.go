package core

import (
	"sort"
	"strings"

	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/huangsam/ipaudit/schema"
)

// Names of the classification rules, in cascade order.
const (
	RuleSBOM       = "sbom"
	RulePermissive = "permissive-license"
	RuleBackground = "background"
	RuleForeground = "foreground"
	RuleNone       = "none"
)

// classifyRule decides the origin of one path or passes to the next rule.
type classifyRule struct {
	name  string
	match func(ix *evidenceIndex, path string) (schema.ClassificationRecord, bool)
}

// evidenceIndex is the per-call lookup view over a Finding Set.
type evidenceIndex struct {
	findings   *schema.FindingSet
	licenses   map[string]string // path -> first recorded license
	repoAuthor string
}

func newEvidenceIndex(fs *schema.FindingSet) *evidenceIndex {
	if fs == nil {
		fs = &schema.FindingSet{}
	}
	licenses := make(map[string]string, len(fs.Licenses))
	for _, l := range fs.Licenses {
		if l.File == "" || l.License == "" {
			continue
		}
		if _, ok := licenses[l.File]; !ok {
			licenses[l.File] = l.License
		}
	}
	return &evidenceIndex{
		findings:   fs,
		licenses:   licenses,
		repoAuthor: topAuthor(fs.Git.Churn),
	}
}

// primaryAuthor prefers per-file churn and falls back to repository churn.
func (ix *evidenceIndex) primaryAuthor(path string) string {
	if author := topAuthor(ix.findings.Git.FileChurn[path]); author != "" {
		return author
	}
	if ix.repoAuthor != "" {
		return ix.repoAuthor
	}
	return schema.UnknownAuthor
}

// topAuthor returns the author with the most churn. Ties go to the
// alphabetically first name; an empty map yields "".
func topAuthor(churn map[string]int) string {
	if len(churn) == 0 {
		return ""
	}
	authors := make([]string, 0, len(churn))
	for a := range churn {
		authors = append(authors, a)
	}
	sort.Strings(authors)
	best := authors[0]
	for _, a := range authors[1:] {
		if churn[a] > churn[best] {
			best = a
		}
	}
	return best
}

// Classifier assigns an origin, license and primary author to every known file.
type Classifier struct {
	permissive map[string]struct{}
	background []string
	rules      []classifyRule
}

// NewClassifier builds the rule cascade sbom, permissive-license, background, foreground.
func NewClassifier(cfg contract.ClassifyConfig) *Classifier {
	c := &Classifier{
		permissive: make(map[string]struct{}, len(cfg.PermissiveLicenses)),
		background: cfg.BackgroundPatterns,
	}
	for _, l := range cfg.PermissiveLicenses {
		c.permissive[l] = struct{}{}
	}
	c.rules = []classifyRule{
		{name: RuleSBOM, match: c.matchSBOM},
		{name: RulePermissive, match: c.matchPermissive},
		{name: RuleBackground, match: c.matchBackground},
		{name: RuleForeground, match: c.matchForeground},
	}
	return c
}

// Classify returns exactly one record per file. The first matching rule wins.
func (c *Classifier) Classify(findings *schema.FindingSet, files []string) map[string]schema.ClassificationRecord {
	ix := newEvidenceIndex(findings)
	out := make(map[string]schema.ClassificationRecord, len(files))
	for _, path := range files {
		out[path] = c.classifyOne(ix, path)
	}
	return out
}

func (c *Classifier) classifyOne(ix *evidenceIndex, path string) schema.ClassificationRecord {
	for _, rule := range c.rules {
		if rec, ok := rule.match(ix, path); ok {
			rec.Path = path
			rec.Rule = rule.name
			return rec
		}
	}
	return schema.ClassificationRecord{
		Path:    path,
		Origin:  schema.UnknownOrigin,
		License: schema.UnknownLicense,
		Rule:    RuleNone,
	}
}

func (c *Classifier) matchSBOM(ix *evidenceIndex, path string) (schema.ClassificationRecord, bool) {
	for _, pkg := range ix.findings.Packages {
		if pkg.File == "" || !strings.Contains(path, pkg.File) {
			continue
		}
		license := ix.licenses[path]
		if license == "" {
			license = pkg.License
		}
		if license == "" {
			license = schema.UnknownLicense
		}
		return schema.ClassificationRecord{Origin: schema.ThirdPartyOrigin, License: license}, true
	}
	return schema.ClassificationRecord{}, false
}

func (c *Classifier) matchPermissive(ix *evidenceIndex, path string) (schema.ClassificationRecord, bool) {
	license, ok := ix.licenses[path]
	if !ok {
		return schema.ClassificationRecord{}, false
	}
	if _, permissive := c.permissive[license]; !permissive {
		return schema.ClassificationRecord{}, false
	}
	return schema.ClassificationRecord{Origin: schema.ThirdPartyOrigin, License: license}, true
}

func (c *Classifier) matchBackground(ix *evidenceIndex, path string) (schema.ClassificationRecord, bool) {
	if len(c.background) == 0 || !contract.MatchesAnyPattern(path, c.background) {
		return schema.ClassificationRecord{}, false
	}
	return schema.ClassificationRecord{Origin: schema.BackgroundOrigin, License: recordedLicense(ix, path)}, true
}

func (c *Classifier) matchForeground(ix *evidenceIndex, path string) (schema.ClassificationRecord, bool) {
	return schema.ClassificationRecord{
		Origin:        schema.ForegroundOrigin,
		License:       recordedLicense(ix, path),
		PrimaryAuthor: ix.primaryAuthor(path),
	}, true
}

func recordedLicense(ix *evidenceIndex, path string) string {
	if license, ok := ix.licenses[path]; ok {
		return license
	}
	return schema.NoLicense
}
