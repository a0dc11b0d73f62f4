package mask

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads masking rules from a YAML file. File order becomes rule
// priority order. Shape:
//
//	rules:
//	  - name: DIGITS
//	    pattern: '\d+'
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mask: read rules file: %w", err)
	}
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("mask: parse rules file: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("mask: rules file %s defines no rules", path)
	}
	for i, r := range f.Rules {
		if r.Name == "" {
			return nil, fmt.Errorf("mask: rule %d has no name", i)
		}
		if r.Pattern == "" {
			return nil, fmt.Errorf("mask: rule %q has no pattern", r.Name)
		}
	}
	return f.Rules, nil
}
