package rules

import (
	"fmt"
	"os"

	"github.com/aescanero/dago-node-intent-router/internal/eval/cel"
	"github.com/aescanero/dago-node-intent-router/internal/router"
	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a fast rules file
type File struct {
	Rules []router.FastRule `yaml:"rules"`
}

// Load reads and validates fast rules from a YAML file
func Load(path string) ([]router.FastRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	rules, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return rules, nil
}

// Parse decodes and validates fast rules
func Parse(data []byte) ([]router.FastRule, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}

	if err := Validate(file.Rules); err != nil {
		return nil, err
	}

	return file.Rules, nil
}

// Validate checks that every rule has a compilable condition and a known label
func Validate(rules []router.FastRule) error {
	evaluator := cel.NewEvaluator()

	for i, rule := range rules {
		if rule.Condition == "" {
			return fmt.Errorf("rule %d: condition is required", i)
		}
		if !rule.Label.Valid() {
			return fmt.Errorf("rule %d: unknown decision %q", i, rule.Label)
		}
		if err := evaluator.ValidateExpression(rule.Condition); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}

	return nil
}
