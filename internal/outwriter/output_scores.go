package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/huangsam/ipaudit/schema"
)

// scoreColumnsWidth is the space taken by every column except the path.
const scoreColumnsWidth = 75

// Verdict labels for score records.
const (
	RewriteVerdict = "Rewrite"
	KeepVerdict    = "Keep"
	VendorVerdict  = "Vendor"
)

// verdictFor returns the plain verdict label of a score record.
func verdictFor(r schema.ScoreRecord) string {
	switch {
	case r.Origin == schema.ThirdPartyOrigin:
		return VendorVerdict
	case r.Rewriteable:
		return RewriteVerdict
	default:
		return KeepVerdict
	}
}

// PrintScores outputs rewriteability scores, dispatching based on the output format configured.
// Records are printed in the given (ranked) order; only the table honors the result limit.
func PrintScores(scores []schema.ScoreRecord, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScoresJSON(w, scores)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScoresCSV(w, scores, fmtFloat, intFmt)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScoresTable(w, scores, cfg, fmtFloat, intFmt, duration)
		}, "Wrote table")
	}
	return nil
}

// writeScoresJSON adds rank and verdict to each record.
func writeScoresJSON(w io.Writer, scores []schema.ScoreRecord) error {
	type JSONScoreRecord struct {
		Rank    int    `json:"rank"`
		Verdict string `json:"verdict"`
		schema.ScoreRecord
	}

	output := make([]JSONScoreRecord, len(scores))
	for i, r := range scores {
		output[i] = JSONScoreRecord{Rank: i + 1, Verdict: verdictFor(r), ScoreRecord: r}
	}
	return writeJSON(w, output)
}

func writeScoresCSV(w io.Writer, scores []schema.ScoreRecord, fmtFloat func(float64) string, intFmt string) error {
	header := []string{"rank", "path", "origin", "loc", "complexity", "coupling", "test_coverage", "score", "rewriteable", "verdict", "reason"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, r := range scores {
			rec := []string{
				strconv.Itoa(i + 1),
				r.Path,
				string(r.Origin),
				fmt.Sprintf(intFmt, r.LOC),
				fmtFloat(r.Complexity),
				fmtFloat(r.Coupling),
				fmtFloat(r.TestCoverage),
				fmtFloat(r.Score),
				strconv.FormatBool(r.Rewriteable),
				verdictFor(r),
				r.Reason,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeScoresTable(w io.Writer, scores []schema.ScoreRecord, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	pathWidth := getMaxTablePathWidth(cfg, scoreColumnsWidth)

	shown := scores
	if cfg.ResultLimit > 0 && len(shown) > cfg.ResultLimit {
		shown = shown[:cfg.ResultLimit]
	}

	var data [][]string
	for i, r := range shown {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			contract.TruncatePath(r.Path, pathWidth),
			string(r.Origin),
			fmt.Sprintf(intFmt, r.LOC),
			fmtFloat(r.Complexity),
			fmtFloat(r.Coupling),
			fmtFloat(r.TestCoverage),
			fmtFloat(r.Score),
			verdictLabel(cfg, r),
		})
	}
	headers := []string{"Rank", "Path", "Origin", "LOC", "Cplx", "Coupling", "Coverage", "Score", "Verdict"}
	if err := renderTable(w, headers, data); err != nil {
		return err
	}

	candidates, totalLOC := 0, 0
	for _, r := range scores {
		totalLOC += r.LOC
		if r.Rewriteable {
			candidates++
		}
	}
	if _, err := fmt.Fprintf(w, "Showing top %d of %d files (rewrite candidates: %d, total LOC: %d)\n", len(shown), len(scores), candidates, totalLOC); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Scoring completed in %v with %d workers. Cache backend: %s\n", duration, cfg.Workers, cfg.CacheBackend)
	return err
}

// verdictLabel colors the verdict for table output.
func verdictLabel(cfg *contract.Config, r schema.ScoreRecord) string {
	v := verdictFor(r)
	switch v {
	case RewriteVerdict:
		return paint(cfg, contract.GoodColor)(v)
	case VendorVerdict:
		return paint(cfg, contract.LowColor)(v)
	default:
		return paint(cfg, contract.ModerateColor)(v)
	}
}
