package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"tasknest/internal/budget"
)

// distributionFile is the layout of DISTRIBUTION_FILE, in TOML
//
//	[percentages]
//	food = 30
//	transport = 15
//
// or, for .yaml and .yml files, YAML with the same keys.
type distributionFile struct {
	Percentages map[string]float64 `toml:"percentages" yaml:"percentages"`
}

// LoadDistribution returns the default percentages for new budgets. An
// empty path yields the built-in defaults.
func LoadDistribution(path string) (map[string]float64, error) {
	if path == "" {
		return budget.DefaultPercentages(), nil
	}

	var (
		f   distributionFile
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = decodeYAML(path, &f)
	default:
		err = decodeTOML(path, &f)
	}
	if err != nil {
		return nil, err
	}

	pct := make(map[string]float64, len(f.Percentages))
	for category, p := range f.Percentages {
		pct[strings.ToLower(strings.TrimSpace(category))] = p
	}
	if err := budget.ValidatePercentages(pct); err != nil {
		return nil, fmt.Errorf("distribution file %s: %w", path, err)
	}
	return pct, nil
}

func decodeTOML(path string, f *distributionFile) error {
	md, err := toml.DecodeFile(path, f)
	if err != nil {
		return fmt.Errorf("read distribution file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("distribution file %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func decodeYAML(path string, f *distributionFile) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read distribution file %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil {
		return fmt.Errorf("distribution file %s: %w", path, err)
	}
	return nil
}
