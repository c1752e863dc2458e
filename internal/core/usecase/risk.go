package usecase

import (
	"fmt"
	"sort"

	"github.com/lexops/legalintel/internal/core/domain"
)

// GraphContext is the knowledge-graph evidence relevant to one clause.
type GraphContext struct {
	// SupersededAuthorities lists cited authority node IDs that carry a
	// superseding edge in the graph.
	SupersededAuthorities []string
}

// RiskEngine scores clauses against the configured weight table and the
// knowledge-graph context.
type RiskEngine struct {
	rules *domain.RuleSet
}

func NewRiskEngine(rules *domain.RuleSet) *RiskEngine {
	return &RiskEngine{rules: rules}
}

// ScoreClause derives risk level, enforceability, and rationale for one
// clause span.
func (e *RiskEngine) ScoreClause(clause domain.ExtractedSpan, graphCtx GraphContext) domain.ClauseRecord {
	record := domain.ClauseRecord{
		Span: clause,
		Kind: clause.ClauseKind,
	}

	weight, known := e.rules.WeightFor(clause.ClauseKind)
	if known {
		record.Risk = weight.BaseRisk
	} else {
		record.Risk = domain.RiskMedium
		record.Rationale = append(record.Rationale, fmt.Sprintf("no weight table entry for %s, defaulting to medium", clause.ClauseKind))
	}

	record.Enforceability = enforceabilityFromConfidence(clause.Confidence)

	if len(graphCtx.SupersededAuthorities) > 0 {
		record.Enforceability = record.Enforceability.Downgrade()
		record.Rationale = append(record.Rationale, fmt.Sprintf("cited authority superseded (%d affected)", len(graphCtx.SupersededAuthorities)))
	}

	if record.Enforceability == domain.Uncertain || record.Enforceability == domain.Unenforceable {
		raised := domain.RiskFromScore(record.Risk.Score() + 1)
		if raised != record.Risk {
			record.Risk = raised
			record.Rationale = append(record.Rationale, "risk raised due to doubtful enforceability")
		}
	}

	return record
}

// MissingClauseFindings scores the absence of policy-expected clauses.
// A missing limitation-of-liability where policy requires one is a
// High-risk finding, not a silent omission.
func (e *RiskEngine) MissingClauseFindings(clauses []domain.ClauseRecord) []domain.ClauseRecord {
	present := make(map[domain.ClauseKind]bool, len(clauses))
	for _, c := range clauses {
		present[c.Kind] = true
	}

	var out []domain.ClauseRecord
	for _, kind := range sortedClauseKinds(e.rules.ExpectedClauses()) {
		if present[kind] {
			continue
		}
		out = append(out, domain.ClauseRecord{
			Kind:           kind,
			Risk:           domain.RiskHigh,
			Enforceability: domain.Uncertain,
			Missing:        true,
			Rationale:      []string{fmt.Sprintf("expected clause %s absent", kind)},
		})
	}
	return out
}

// Aggregate combines per-clause risk into the document risk. A single
// Critical clause dominates; otherwise a weight-table weighted mean.
func (e *RiskEngine) Aggregate(clauses []domain.ClauseRecord) domain.RiskLevel {
	if len(clauses) == 0 {
		return domain.RiskLow
	}

	var weightedSum, weightTotal float64
	for _, c := range clauses {
		if c.Risk == domain.RiskCritical {
			return domain.RiskCritical
		}
		w := 1.0
		if entry, ok := e.rules.WeightFor(c.Kind); ok {
			w = entry.Weight
		}
		weightedSum += w * c.Risk.Score()
		weightTotal += w
	}
	if weightTotal == 0 {
		return domain.RiskLow
	}
	return domain.RiskFromScore(weightedSum / weightTotal)
}

func enforceabilityFromConfidence(confidence float64) domain.Enforceability {
	switch {
	case confidence >= 0.85:
		return domain.Enforceable
	case confidence >= 0.7:
		return domain.LikelyEnforceable
	case confidence >= 0.5:
		return domain.Uncertain
	default:
		return domain.Unenforceable
	}
}

func sortedClauseKinds(kinds []domain.ClauseKind) []domain.ClauseKind {
	out := append([]domain.ClauseKind(nil), kinds...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
