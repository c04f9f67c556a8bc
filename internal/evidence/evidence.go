// Package evidence loads scanner outputs into a FindingSet.
//
// Documents may be YAML or JSON. Every top-level category is optional and
// entries of the wrong shape are dropped rather than failing the load.
package evidence

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/huangsam/ipaudit/schema"
	"gopkg.in/yaml.v3"
)

// Load reads a Finding Set document from disk. An empty path yields an empty set.
func Load(path string) (*schema.FindingSet, error) {
	if path == "" {
		return Empty(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read findings %s: %w", path, err)
	}
	fs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse findings %s: %w", path, err)
	}
	return fs, nil
}

// Empty returns a Finding Set with every category present and empty.
func Empty() *schema.FindingSet {
	return &schema.FindingSet{
		Packages:        []schema.SBOMPackage{},
		Licenses:        []schema.LicenseFinding{},
		Similarity:      []schema.SimilarityMatch{},
		Secrets:         []schema.SecretFinding{},
		Vulnerabilities: []schema.VulnerabilityFinding{},
		Coverage:        map[string]float64{},
		Git: schema.GitEvidence{
			Authors:   map[string]any{},
			Churn:     map[string]int{},
			FileChurn: map[string]map[string]int{},
		},
	}
}

// Parse decodes a Finding Set document. YAML is a superset of JSON so one decoder serves both.
func Parse(data []byte) (*schema.FindingSet, error) {
	fs := Empty()
	if strings.TrimSpace(string(data)) == "" {
		return fs, nil
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	root, ok := asMap(raw)
	if !ok {
		if raw == nil {
			return fs, nil
		}
		return nil, fmt.Errorf("top-level value must be a mapping")
	}

	sbom, _ := asMap(root["sbom"])
	for _, item := range asList(sbom["packages"]) {
		if pkg, ok := parsePackage(item); ok {
			fs.Packages = append(fs.Packages, pkg)
		}
	}

	licenses, _ := asMap(root["licenses"])
	for _, item := range asList(licenses["findings"]) {
		m, ok := asMap(item)
		if !ok {
			continue
		}
		file, license := cleanPath(asString(m["file"])), strings.TrimSpace(asString(m["license"]))
		if file == "" || license == "" {
			continue
		}
		fs.Licenses = append(fs.Licenses, schema.LicenseFinding{File: file, License: license})
	}

	if git, ok := asMap(root["git"]); ok {
		parseGit(git, &fs.Git)
	}

	similarity, _ := asMap(root["similarity"])
	for _, item := range asList(similarity["matches"]) {
		m, ok := asMap(item)
		if !ok {
			continue
		}
		file := cleanPath(asString(m["file"]))
		if file == "" {
			continue
		}
		score, _ := asFloat(m["score"])
		fs.Similarity = append(fs.Similarity, schema.SimilarityMatch{File: file, Source: asString(m["source"]), Score: score})
	}

	secrets, _ := asMap(root["secrets"])
	for _, item := range asList(secrets["findings"]) {
		m, ok := asMap(item)
		if !ok {
			continue
		}
		file := cleanPath(asString(m["file"]))
		if file == "" {
			continue
		}
		line, _ := asInt(m["line"])
		fs.Secrets = append(fs.Secrets, schema.SecretFinding{File: file, Rule: asString(m["rule"]), Line: line})
	}

	vulns, _ := asMap(root["vulnerabilities"])
	for _, item := range asList(vulns["findings"]) {
		m, ok := asMap(item)
		if !ok {
			continue
		}
		id, pkg := asString(m["id"]), asString(m["package"])
		if id == "" && pkg == "" {
			continue
		}
		fs.Vulnerabilities = append(fs.Vulnerabilities, schema.VulnerabilityFinding{
			ID:       id,
			Package:  pkg,
			Severity: strings.ToLower(strings.TrimSpace(asString(m["severity"]))),
		})
	}

	coverage, _ := asMap(root["coverage"])
	files, _ := asMap(coverage["files"])
	for path, v := range files {
		ratio, ok := asFloat(v)
		if !ok {
			continue
		}
		if ratio > 1 && ratio <= 100 {
			ratio /= 100 // percentages
		}
		if ratio < 0 || ratio > 1 {
			continue
		}
		if p := cleanPath(path); p != "" {
			fs.Coverage[p] = ratio
		}
	}

	return fs, nil
}

func parsePackage(item any) (schema.SBOMPackage, bool) {
	m, ok := asMap(item)
	if !ok {
		return schema.SBOMPackage{}, false
	}
	pkg := schema.SBOMPackage{
		File:      cleanPath(asString(m["file"])),
		Name:      asString(m["name"]),
		Version:   asString(m["version"]),
		License:   strings.TrimSpace(asString(m["license"])),
		Ecosystem: asString(m["ecosystem"]),
	}
	if pkg.File == "" && pkg.Name == "" {
		return schema.SBOMPackage{}, false
	}
	return pkg, true
}

func parseGit(git map[string]any, out *schema.GitEvidence) {
	if authors, ok := asMap(git["authors"]); ok {
		out.Authors = authors
	}
	if churn, ok := asMap(git["churn"]); ok {
		for author, v := range churn {
			if n, ok := asInt(v); ok && author != "" {
				out.Churn[author] = n
			}
		}
	}
	if fileChurn, ok := asMap(git["file_churn"]); ok {
		for path, v := range fileChurn {
			byAuthor, ok := asMap(v)
			p := cleanPath(path)
			if !ok || p == "" {
				continue
			}
			inner := make(map[string]int, len(byAuthor))
			for author, n := range byAuthor {
				if count, ok := asInt(n); ok && author != "" {
					inner[author] = count
				}
			}
			if len(inner) > 0 {
				out.FileChurn[p] = inner
			}
		}
	}
}

// cleanPath normalizes a repository-relative path to forward slashes.
func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.ToSlash(p)
	return strings.TrimPrefix(p, "./")
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func asList(v any) []any {
	l, _ := v.([]any)
	return l
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case int, int64, float64, bool:
		return fmt.Sprint(s)
	default:
		return ""
	}
}

// asFloat accepts finite numbers and numeric strings.
func asFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func asInt(v any) (int, bool) {
	f, ok := asFloat(v)
	if !ok || f < 0 || f >= math.MaxInt {
		return 0, false
	}
	return int(f), true
}
