package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/huangsam/ipaudit/schema"
)

// narrativeSection pairs an audience with its bullets.
type narrativeSection struct {
	Audience string
	Title    string
	Lines    []string
}

func narrativeSections(bundle schema.NarrativeBundle) []narrativeSection {
	return []narrativeSection{
		{"executive", "📣 Executive", bundle.Executive},
		{"board", "🏛️  Board", bundle.Board},
		{"engineering", "🛠️  Engineering", bundle.Engineering},
	}
}

// PrintNarrative outputs the audience-specific narrative.
func PrintNarrative(bundle schema.NarrativeBundle, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, bundle)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"audience", "index", "text"}, func(cw *csv.Writer) error {
				for _, s := range narrativeSections(bundle) {
					for i, line := range s.Lines {
						if err := cw.Write([]string{s.Audience, strconv.Itoa(i + 1), line}); err != nil {
							return err
						}
					}
				}
				return nil
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeNarrativeText(w, bundle)
		}, "Wrote text")
	}
}

func writeNarrativeText(w io.Writer, bundle schema.NarrativeBundle) error {
	for i, s := range narrativeSections(bundle) {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s\n", s.Title); err != nil {
			return err
		}
		for _, line := range s.Lines {
			if _, err := fmt.Fprintf(w, "  - %s\n", line); err != nil {
				return err
			}
		}
	}
	return nil
}
