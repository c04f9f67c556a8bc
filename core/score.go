package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"sort"

	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/huangsam/ipaudit/schema"
	"golang.org/x/sync/errgroup"
)

// Rewriteability model constants.
const (
	complexityLOCCap     = 500.0 // LOC at which complexity saturates
	neutralSignal        = 0.5   // Used when coupling or coverage is unknown
	rewriteableThreshold = 0.6
	complexityWeight     = 0.4
	couplingWeight       = 0.4
	coverageWeight       = 0.2
)

// Scorer measures files on disk and estimates how cheaply each could be rewritten.
type Scorer struct {
	fsys     fs.FS
	coupling contract.CouplingEstimator
	coverage contract.CoverageProvider
	workers  int
}

// NewScorer creates a scorer reading files from fsys. Nil providers fall back to neutral signals.
func NewScorer(fsys fs.FS, coupling contract.CouplingEstimator, coverage contract.CoverageProvider, workers int) *Scorer {
	return &Scorer{
		fsys:     fsys,
		coupling: coupling,
		coverage: coverage,
		workers:  max(workers, 1),
	}
}

// Score produces a record for every classified file except unknown-origin
// and unreadable ones. Files are read concurrently; the result does not
// depend on scheduling order.
func (s *Scorer) Score(ctx context.Context, classes map[string]schema.ClassificationRecord) (map[string]schema.ScoreRecord, error) {
	paths := make([]string, 0, len(classes))
	for p, rec := range classes {
		if rec.Origin == schema.UnknownOrigin {
			continue
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)

	results := make([]*schema.ScoreRecord, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.scoreFile(p, classes[p].Origin)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]schema.ScoreRecord, len(paths))
	for _, r := range results {
		if r != nil {
			out[r.Path] = *r
		}
	}
	return out, nil
}

// scoreFile returns nil when the file cannot be read.
func (s *Scorer) scoreFile(path string, origin schema.Origin) *schema.ScoreRecord {
	if !fs.ValidPath(path) {
		contract.LogWarn("Skipping file", fmt.Errorf("invalid path %q", path))
		return nil
	}
	content, err := fs.ReadFile(s.fsys, path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			contract.LogWarn("Skipping file", err)
		}
		return nil
	}

	loc := CountLOC(content)
	if origin == schema.ThirdPartyOrigin {
		return &schema.ScoreRecord{
			Path:   path,
			Origin: origin,
			LOC:    loc,
			Reason: schema.ThirdPartyReason,
		}
	}

	complexity := math.Min(float64(loc)/complexityLOCCap, 1)
	coupling := neutralSignal
	if s.coupling != nil {
		if v, ok := s.coupling.Estimate(path, content); ok && isUnitSignal(v) {
			coupling = v
		}
	}
	coverage := neutralSignal
	if s.coverage != nil {
		if v, ok := s.coverage.Coverage(path); ok && isUnitSignal(v) {
			coverage = v
		}
	}

	score, rewriteable := RewriteScore(complexity, coupling, coverage)
	return &schema.ScoreRecord{
		Path:         path,
		Origin:       origin,
		LOC:          loc,
		Complexity:   round2(complexity),
		Coupling:     round2(coupling),
		TestCoverage: round2(coverage),
		Score:        score,
		Rewriteable:  rewriteable,
	}
}

// isUnitSignal reports whether v is a usable proxy value in [0, 1]. NaN fails both bounds.
func isUnitSignal(v float64) bool {
	return v >= 0 && v <= 1
}

// RewriteScore combines the three proxies into a score in [0, 1] rounded to two decimals.
// Small, loosely coupled, well-tested files score highest.
func RewriteScore(complexity, coupling, coverage float64) (float64, bool) {
	score := round2(complexityWeight*(1-complexity) + couplingWeight*(1-coupling) + coverageWeight*coverage)
	return score, score > rewriteableThreshold
}

// CountLOC counts newline-terminated lines plus a final unterminated line.
func CountLOC(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := bytes.Count(content, []byte{'\n'})
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}
