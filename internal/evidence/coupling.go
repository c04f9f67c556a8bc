package evidence

import (
	"bufio"
	"bytes"
	"path"
	"regexp"
	"strings"

	"github.com/huangsam/ipaudit/internal/contract"
)

// DefaultFanOutThreshold is the import count at which coupling saturates at 1.
const DefaultFanOutThreshold = 15

// importPatterns maps a file extension to the line patterns that count as one import.
var importPatterns = map[string][]*regexp.Regexp{
	".py": {
		regexp.MustCompile(`^\s*import\s+\w`),
		regexp.MustCompile(`^\s*from\s+\S+\s+import\s`),
	},
	".js":   jsPatterns,
	".jsx":  jsPatterns,
	".mjs":  jsPatterns,
	".ts":   jsPatterns,
	".tsx":  jsPatterns,
	".java": {regexp.MustCompile(`^\s*import\s+(static\s+)?[\w.*]+\s*;`)},
	".kt":   {regexp.MustCompile(`^\s*import\s+[\w.*]+`)},
	".rs":   {regexp.MustCompile(`^\s*(pub\s+)?use\s+\S`)},
	".c":    cPatterns,
	".h":    cPatterns,
	".cc":   cPatterns,
	".cpp":  cPatterns,
	".hpp":  cPatterns,
	".rb": {
		regexp.MustCompile(`^\s*require(_relative)?\s+['"]`),
	},
	".php": {
		regexp.MustCompile(`^\s*use\s+[\w\\]+`),
		regexp.MustCompile(`^\s*(require|include)(_once)?\s*[('"]`),
	},
	".cs":    {regexp.MustCompile(`^\s*using\s+[\w.]+\s*;`)},
	".swift": {regexp.MustCompile(`^\s*import\s+\w+`)},
}

var (
	jsPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\s*import\s.*from\s+['"]`),
		regexp.MustCompile(`^\s*import\s+['"]`),
		regexp.MustCompile(`require\(\s*['"]`),
	}
	cPatterns = []*regexp.Regexp{regexp.MustCompile(`^\s*#\s*include\s*[<"]`)}

	goSingleImport = regexp.MustCompile(`^\s*import\s+(\w+\s+|\.\s+|_\s+)?"`)
	goBlockStart   = regexp.MustCompile(`^\s*import\s*\($`)
	goBlockEntry   = regexp.MustCompile(`^\s*(\w+\s+|\.\s+|_\s+)?"[^"]+"`)
)

// ImportCoupling estimates coupling as imports / fan-out threshold, capped at 1.
type ImportCoupling struct {
	FanOutThreshold int
}

var _ contract.CouplingEstimator = &ImportCoupling{} // Compile-time check

// NewImportCoupling creates an estimator with the default fan-out threshold.
func NewImportCoupling() *ImportCoupling {
	return &ImportCoupling{FanOutThreshold: DefaultFanOutThreshold}
}

// Estimate implements the CouplingEstimator interface.
func (ic *ImportCoupling) Estimate(p string, content []byte) (float64, bool) {
	count, ok := CountImports(p, content)
	if !ok {
		return 0, false
	}
	threshold := ic.FanOutThreshold
	if threshold <= 0 {
		threshold = DefaultFanOutThreshold
	}
	return min(float64(count)/float64(threshold), 1), true
}

// CountImports counts import statements. The boolean is false for unsupported languages.
func CountImports(p string, content []byte) (int, bool) {
	ext := strings.ToLower(path.Ext(p))
	if ext == ".go" {
		return countGoImports(content), true
	}
	patterns, ok := importPatterns[ext]
	if !ok {
		return 0, false
	}

	count := 0
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		for _, re := range patterns {
			if re.MatchString(line) {
				count++
				break
			}
		}
	}
	return count, true
}

// countGoImports handles both single-line imports and import blocks.
func countGoImports(content []byte) int {
	count := 0
	inBlock := false
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case inBlock:
			if strings.TrimSpace(line) == ")" {
				inBlock = false
			} else if goBlockEntry.MatchString(line) {
				count++
			}
		case goBlockStart.MatchString(line):
			inBlock = true
		case goSingleImport.MatchString(line):
			count++
		}
	}
	return count
}
