package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/lexops/legalintel/internal/core/domain"
)

// loadWeightWorkbook reads the clause risk-weight table from the first
// sheet of an XLSX workbook. Expected header: kind, weight, base_risk,
// expected.
func loadWeightWorkbook(path string) ([]domain.ClauseWeight, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open weight workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("weight workbook %s: no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read weight workbook rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("weight workbook %s: header and at least one row required", path)
	}

	cols, err := headerColumns(rows[0])
	if err != nil {
		return nil, fmt.Errorf("weight workbook %s: %w", path, err)
	}

	out := make([]domain.ClauseWeight, 0, len(rows)-1)
	for i, row := range rows[1:] {
		w, err := weightFromRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("weight workbook %s row %d: %w", path, i+2, err)
		}
		if err := validateWeight(w); err != nil {
			return nil, fmt.Errorf("weight workbook %s row %d: %w", path, i+2, err)
		}
		out = append(out, w)
	}
	return out, nil
}

type weightColumns struct {
	kind, weight, baseRisk, expected int
}

func headerColumns(header []string) (weightColumns, error) {
	cols := weightColumns{kind: -1, weight: -1, baseRisk: -1, expected: -1}
	for i, cell := range header {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case "kind":
			cols.kind = i
		case "weight":
			cols.weight = i
		case "base_risk":
			cols.baseRisk = i
		case "expected":
			cols.expected = i
		}
	}
	if cols.kind < 0 || cols.weight < 0 || cols.baseRisk < 0 {
		return cols, fmt.Errorf("header must contain kind, weight, base_risk")
	}
	return cols, nil
}

func weightFromRow(row []string, cols weightColumns) (domain.ClauseWeight, error) {
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	weight, err := strconv.ParseFloat(cell(cols.weight), 64)
	if err != nil {
		return domain.ClauseWeight{}, fmt.Errorf("parse weight %q: %w", cell(cols.weight), err)
	}

	expected := false
	if v := cell(cols.expected); v != "" {
		expected, err = strconv.ParseBool(v)
		if err != nil {
			return domain.ClauseWeight{}, fmt.Errorf("parse expected %q: %w", v, err)
		}
	}

	return domain.ClauseWeight{
		Kind:     domain.ClauseKind(strings.ToLower(cell(cols.kind))),
		Weight:   weight,
		BaseRisk: domain.RiskLevel(strings.ToLower(cell(cols.baseRisk))),
		Expected: expected,
	}, nil
}
