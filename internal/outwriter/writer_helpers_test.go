package outwriter

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFormatters(t *testing.T) {
	tests := []struct {
		name      string
		precision int
		value     float64
		expected  string
	}{
		{"precision 2", 2, 3.14159, "3.14"},
		{"precision 0", 0, 3.14159, "3"},
		{"precision 4", 4, 3.14159, "3.1416"},
		{"negative value", 2, -42.567, "-42.57"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fmtFloat, intFmt := createFormatters(tt.precision)
			assert.Equal(t, tt.expected, fmtFloat(tt.value))
			assert.Equal(t, "%d", intFmt)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name     string
		data     any
		expected string
	}{
		{"object", map[string]any{"origin": "foreground", "loc": 42}, "{\n  \"loc\": 42,\n  \"origin\": \"foreground\"\n}\n"},
		{"array", []string{"a", "b"}, "[\n  \"a\",\n  \"b\"\n]\n"},
		{"string", "hello", "\"hello\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeJSON(&buf, tt.data))
			assert.Equal(t, tt.expected, buf.String())
		})
	}

	t.Run("unencodable", func(t *testing.T) {
		var buf bytes.Buffer
		err := writeJSON(&buf, make(chan int))
		assert.ErrorContains(t, err, "failed to encode JSON")
	})
}

func TestWriteCSVWithHeader(t *testing.T) {
	tests := []struct {
		name     string
		header   []string
		rows     [][]string
		expected string
	}{
		{"simple", []string{"path", "origin"}, [][]string{{"a.go", "foreground"}, {"b.go", "third_party"}}, "path,origin\na.go,foreground\nb.go,third_party\n"},
		{"empty rows", []string{"col1", "col2"}, nil, "col1,col2\n"},
		{"quoted values", []string{"audience", "text"}, [][]string{{"board", "Risk is low, keep going"}}, "audience,text\nboard,\"Risk is low, keep going\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := writeCSVWithHeader(&buf, tt.header, func(w *csv.Writer) error {
				return w.WriteAll(tt.rows)
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, buf.String())
		})
	}

	t.Run("row error", func(t *testing.T) {
		var buf bytes.Buffer
		err := writeCSVWithHeader(&buf, []string{"col"}, func(*csv.Writer) error { return assert.AnError })
		assert.Equal(t, assert.AnError, err)
	})
}

func TestWriteWithFile(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		called := false
		err := writeWithFile("", func(io.Writer) error {
			called = true
			return nil
		}, "Wrote test")
		require.NoError(t, err)
		assert.True(t, called)
	})

	t.Run("file", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out.txt")
		err := writeWithFile(out, func(w io.Writer) error {
			_, err := io.WriteString(w, "content")
			return err
		}, "Wrote test")
		require.NoError(t, err)
		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "content", string(data))
	})

	t.Run("writer error", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out.txt")
		err := writeWithFile(out, func(io.Writer) error { return assert.AnError }, "Wrote test")
		assert.Equal(t, assert.AnError, err)
	})

	t.Run("invalid path", func(t *testing.T) {
		err := writeWithFile("/nonexistent/dir/out.txt", func(io.Writer) error { return nil }, "Wrote test")
		assert.Error(t, err)
	})
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderTable(&buf, []string{"Metric", "Value"}, [][]string{{"total_loc", "1200"}}))
	out := buf.String()
	assert.Contains(t, strings.ToUpper(out), "METRIC")
	assert.Contains(t, out, "total_loc")
	assert.Contains(t, out, "1200")
}

func TestPaint(t *testing.T) {
	c := color.New(color.FgGreen)
	c.EnableColor()
	assert.Equal(t, "plain", paint(&contract.Config{UseColors: false}, c)("plain"))
	assert.Contains(t, paint(&contract.Config{UseColors: true}, c)("green"), "\x1b[")
}
