package rules

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/lexops/legalintel/internal/core/domain"
)

const sampleRules = `
version: "2026.08"
rules:
  - id: gdpr-dpa
    framework: GDPR
    predicate:
      type: require_clause
      clause_kind: data_protection
    severity: critical
    remediation: Add a data processing clause.
  - id: unrated
    framework: BASELINE
    predicate:
      type: forbid_clause
      clause_kind: non_compete
weights:
  - kind: limitation_of_liability
    weight: 3.0
    base_risk: high
    expected: true
  - kind: governing_law
    weight: 1.0
    base_risk: low
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadParsesRulesAndWeights(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rules.yaml", sampleRules)

	rs, err := NewLoader(path, "").Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if rs.Version != "2026.08" {
		t.Fatalf("version = %q", rs.Version)
	}
	if len(rs.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rs.Rules))
	}
	if rs.Rules[0].Severity != domain.RiskCritical {
		t.Fatalf("severity = %s", rs.Rules[0].Severity)
	}
	if rs.Rules[1].Severity != domain.RiskMedium {
		t.Fatalf("missing severity must default to medium, got %s", rs.Rules[1].Severity)
	}

	w, ok := rs.WeightFor(domain.ClauseLimitationOfLiability)
	if !ok || w.Weight != 3.0 || !w.Expected {
		t.Fatalf("unexpected weight row: %+v", w)
	}
	expected := rs.ExpectedClauses()
	if len(expected) != 1 || expected[0] != domain.ClauseLimitationOfLiability {
		t.Fatalf("expected clauses = %v", expected)
	}
}

func TestLoadRequiresVersion(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rules.yaml", "rules: []\n")

	_, err := NewLoader(path, "").Load(context.Background())
	if err == nil || !strings.Contains(err.Error(), "version required") {
		t.Fatalf("expected version error, got %v", err)
	}
}

func TestLoadRejectsInvalidWeight(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rules.yaml", `
version: "1"
weights:
  - kind: payment
    weight: -2
    base_risk: medium
`)

	_, err := NewLoader(path, "").Load(context.Background())
	if err == nil || !strings.Contains(err.Error(), "weight must be positive") {
		t.Fatalf("expected weight validation error, got %v", err)
	}
}

func TestLoadRejectsUnknownBaseRisk(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rules.yaml", `
version: "1"
weights:
  - kind: payment
    weight: 1
    base_risk: enormous
`)

	_, err := NewLoader(path, "").Load(context.Background())
	if err == nil || !strings.Contains(err.Error(), "unknown base risk") {
		t.Fatalf("expected base risk error, got %v", err)
	}
}

func TestLoadSeparateWeightFileOverridesInline(t *testing.T) {
	dir := t.TempDir()
	rulesPath := writeFile(t, dir, "rules.yaml", sampleRules)
	weightsPath := writeFile(t, dir, "weights.yaml", `
weights:
  - kind: limitation_of_liability
    weight: 5.0
    base_risk: critical
`)

	rs, err := NewLoader(rulesPath, weightsPath).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	w, ok := rs.WeightFor(domain.ClauseLimitationOfLiability)
	if !ok || w.Weight != 5.0 || w.BaseRisk != domain.RiskCritical {
		t.Fatalf("override not applied: %+v", w)
	}
	// Inline rows without an override survive.
	if _, ok := rs.WeightFor(domain.ClauseGoverningLaw); !ok {
		t.Fatalf("inline weight lost")
	}
}

func TestLoadWeightWorkbook(t *testing.T) {
	dir := t.TempDir()
	rulesPath := writeFile(t, dir, "rules.yaml", sampleRules)

	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	rows := [][]any{
		{"kind", "weight", "base_risk", "expected"},
		{"indemnification", 2.5, "high", "true"},
		{"payment", 1.5, "medium", ""},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	workbookPath := filepath.Join(dir, "weights.xlsx")
	if err := wb.SaveAs(workbookPath); err != nil {
		t.Fatalf("save workbook: %v", err)
	}

	rs, err := NewLoader(rulesPath, workbookPath).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	w, ok := rs.WeightFor(domain.ClauseIndemnification)
	if !ok || w.Weight != 2.5 || w.BaseRisk != domain.RiskHigh {
		t.Fatalf("workbook row not loaded: %+v", w)
	}
	if _, ok := rs.WeightFor(domain.ClausePayment); !ok {
		t.Fatalf("second workbook row not loaded")
	}
}

func TestLoadWorkbookRejectsMissingHeader(t *testing.T) {
	dir := t.TempDir()
	rulesPath := writeFile(t, dir, "rules.yaml", sampleRules)

	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	header := []any{"name", "value"}
	if err := wb.SetSheetRow(sheet, "A1", &header); err != nil {
		t.Fatalf("set row: %v", err)
	}
	row := []any{"payment", 1.0}
	if err := wb.SetSheetRow(sheet, "A2", &row); err != nil {
		t.Fatalf("set row: %v", err)
	}
	workbookPath := filepath.Join(dir, "weights.xlsx")
	if err := wb.SaveAs(workbookPath); err != nil {
		t.Fatalf("save workbook: %v", err)
	}

	_, err := NewLoader(rulesPath, workbookPath).Load(context.Background())
	if err == nil || !strings.Contains(err.Error(), "header must contain") {
		t.Fatalf("expected header error, got %v", err)
	}
}
