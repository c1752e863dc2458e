package rules

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lexops/legalintel/internal/core/domain"
)

// Loader reads the versioned compliance rule set from YAML and the
// clause risk-weight table from YAML or an XLSX workbook. The returned
// RuleSet is immutable for the analysis run that uses it; updated files
// only affect later runs.
type Loader struct {
	rulesPath   string
	weightsPath string
}

func NewLoader(rulesPath, weightsPath string) *Loader {
	return &Loader{rulesPath: rulesPath, weightsPath: weightsPath}
}

type rulesFile struct {
	Version string                  `yaml:"version"`
	Rules   []domain.ComplianceRule `yaml:"rules"`
	Weights []domain.ClauseWeight   `yaml:"weights"`
}

func (l *Loader) Load(_ context.Context) (*domain.RuleSet, error) {
	raw, err := os.ReadFile(l.rulesPath)
	if err != nil {
		return nil, fmt.Errorf("read rule set: %w", err)
	}

	var file rulesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse rule set yaml: %w", err)
	}
	if strings.TrimSpace(file.Version) == "" {
		return nil, fmt.Errorf("rule set %s: version required", l.rulesPath)
	}

	rs := &domain.RuleSet{
		Version: file.Version,
		Rules:   file.Rules,
		Weights: make(map[domain.ClauseKind]domain.ClauseWeight, len(file.Weights)),
	}
	for _, w := range file.Weights {
		if err := validateWeight(w); err != nil {
			return nil, fmt.Errorf("rule set %s: %w", l.rulesPath, err)
		}
		rs.Weights[w.Kind] = w
	}

	// A separate weight source overrides the inline table, so legal-ops
	// teams can maintain the matrix as a spreadsheet.
	if l.weightsPath != "" {
		weights, err := loadWeights(l.weightsPath)
		if err != nil {
			return nil, err
		}
		for _, w := range weights {
			rs.Weights[w.Kind] = w
		}
	}

	for i, rule := range rs.Rules {
		if rule.Severity == "" {
			rs.Rules[i].Severity = domain.RiskMedium
		}
	}
	return rs, nil
}

func loadWeights(path string) ([]domain.ClauseWeight, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return loadWeightWorkbook(path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weight table: %w", err)
	}
	var file struct {
		Weights []domain.ClauseWeight `yaml:"weights"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse weight table yaml: %w", err)
	}
	for _, w := range file.Weights {
		if err := validateWeight(w); err != nil {
			return nil, fmt.Errorf("weight table %s: %w", path, err)
		}
	}
	return file.Weights, nil
}

func validateWeight(w domain.ClauseWeight) error {
	if w.Kind == "" {
		return fmt.Errorf("weight row without clause kind")
	}
	if w.Weight <= 0 {
		return fmt.Errorf("clause %s: weight must be positive", w.Kind)
	}
	switch w.BaseRisk {
	case domain.RiskLow, domain.RiskMedium, domain.RiskHigh, domain.RiskCritical:
		return nil
	default:
		return fmt.Errorf("clause %s: unknown base risk %q", w.Kind, w.BaseRisk)
	}
}
