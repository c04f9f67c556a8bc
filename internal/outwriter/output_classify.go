package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/huangsam/ipaudit/schema"
)

// classifyColumnsWidth is the space taken by every column except the path.
const classifyColumnsWidth = 55

// PrintClassification outputs origin verdicts, dispatching based on the output format configured.
// Records are printed in the given order; only the table honors the result limit.
func PrintClassification(records []schema.ClassificationRecord, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, records)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeClassificationCSV(w, records)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeClassificationTable(w, records, cfg, duration)
		}, "Wrote table")
	}
}

func writeClassificationCSV(w io.Writer, records []schema.ClassificationRecord) error {
	header := []string{"path", "origin", "license", "primary_author", "rule"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range records {
			if err := cw.Write([]string{r.Path, string(r.Origin), r.License, r.PrimaryAuthor, r.Rule}); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeClassificationTable(w io.Writer, records []schema.ClassificationRecord, cfg *contract.Config, duration time.Duration) error {
	pathWidth := getMaxTablePathWidth(cfg, classifyColumnsWidth)

	shown := records
	if cfg.ResultLimit > 0 && len(shown) > cfg.ResultLimit {
		shown = shown[:cfg.ResultLimit]
	}

	var data [][]string
	for i, r := range shown {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			contract.TruncatePath(r.Path, pathWidth),
			originLabel(cfg, r.Origin),
			r.License,
			r.PrimaryAuthor,
			r.Rule,
		})
	}
	if err := renderTable(w, []string{"#", "Path", "Origin", "License", "Author", "Rule"}, data); err != nil {
		return err
	}

	byOrigin := make(map[schema.Origin]int, len(schema.AllOrigins))
	for _, r := range records {
		byOrigin[r.Origin]++
	}
	var parts []string
	for _, o := range schema.AllOrigins {
		if n := byOrigin[o]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", o, n))
		}
	}
	if _, err := fmt.Fprintf(w, "Showing %d of %d files (%s)\n", len(shown), len(records), strings.Join(parts, ", ")); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Classification completed in %v. Cache backend: %s\n", duration, cfg.CacheBackend)
	return err
}

// originLabel colors an origin for table output.
func originLabel(cfg *contract.Config, origin schema.Origin) string {
	switch origin {
	case schema.ForegroundOrigin:
		return paint(cfg, contract.GoodColor)(string(origin))
	case schema.ThirdPartyOrigin:
		return paint(cfg, contract.ModerateColor)(string(origin))
	case schema.BackgroundOrigin:
		return paint(cfg, contract.LowColor)(string(origin))
	default:
		return paint(cfg, contract.HighColor)(string(origin))
	}
}
