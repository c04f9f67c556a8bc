package outwriter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/huangsam/ipaudit/schema"
)

// Output bundle file names.
const (
	ClassificationFile = "classification.json"
	ScoresFile         = "scores.json"
	CostFile           = "cost.json"
	AggregatesFile     = "aggregates.json"
	NarrativeFile      = "narrative.json"
)

// WriteBundle writes every stage output of result as JSON documents into dir,
// creating it when needed. It returns the paths written.
func WriteBundle(dir string, result *schema.AuditResult) ([]string, error) {
	if dir == "" {
		return nil, errors.New("output directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	documents := []struct {
		name string
		data any
	}{
		{ClassificationFile, nonNilMap(result.Classification)},
		{ScoresFile, nonNilMap(result.Scores)},
		{CostFile, result.Cost},
		{AggregatesFile, result.Aggregates},
		{NarrativeFile, result.Narrative},
	}

	written := make([]string, 0, len(documents))
	for _, doc := range documents {
		path := filepath.Join(dir, doc.name)
		if err := writeJSONFile(path, doc.data); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// writeJSONFile writes data as indented JSON to path.
func writeJSONFile(path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = f.Close() }()

	if err := writeJSON(f, data); err != nil {
		return err
	}
	return f.Close()
}

// nonNilMap keeps empty stage outputs encoded as {} rather than null.
func nonNilMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return map[string]V{}
	}
	return m
}
