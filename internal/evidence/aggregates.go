package evidence

import (
	"fmt"
	"os"

	"github.com/huangsam/ipaudit/schema"
	"gopkg.in/yaml.v3"
)

// LoadAggregates reads externally computed narrative aggregates.
// Fields that are absent stay at their zero value.
func LoadAggregates(path string) (*schema.NarrativeInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read aggregates %s: %w", path, err)
	}
	var in schema.NarrativeInput
	if err := yaml.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("failed to parse aggregates %s: %w", path, err)
	}
	return &in, nil
}
