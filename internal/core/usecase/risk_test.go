package usecase

import (
	"testing"

	"github.com/lexops/legalintel/internal/core/domain"
)

func testRuleSet() *domain.RuleSet {
	return &domain.RuleSet{
		Version: "test",
		Weights: map[domain.ClauseKind]domain.ClauseWeight{
			domain.ClauseLimitationOfLiability: {Kind: domain.ClauseLimitationOfLiability, Weight: 3, BaseRisk: domain.RiskHigh, Expected: true},
			domain.ClauseTermination:           {Kind: domain.ClauseTermination, Weight: 2, BaseRisk: domain.RiskMedium, Expected: true},
			domain.ClauseGoverningLaw:          {Kind: domain.ClauseGoverningLaw, Weight: 1, BaseRisk: domain.RiskLow},
			domain.ClauseDataProtection:        {Kind: domain.ClauseDataProtection, Weight: 2.5, BaseRisk: domain.RiskCritical},
		},
	}
}

func clauseSpan(kind domain.ClauseKind, confidence float64) domain.ExtractedSpan {
	return domain.ExtractedSpan{
		ID:         string(kind),
		Kind:       domain.SpanClause,
		ClauseKind: kind,
		Start:      0,
		End:        10,
		Confidence: confidence,
	}
}

func TestScoreClauseUsesWeightTableBaseRisk(t *testing.T) {
	engine := NewRiskEngine(testRuleSet())

	record := engine.ScoreClause(clauseSpan(domain.ClauseLimitationOfLiability, 0.9), GraphContext{})
	if record.Risk != domain.RiskHigh {
		t.Fatalf("risk = %s, want high", record.Risk)
	}
	if record.Enforceability != domain.Enforceable {
		t.Fatalf("enforceability = %s, want enforceable", record.Enforceability)
	}
}

func TestScoreClauseUnknownKindDefaultsMediumWithRationale(t *testing.T) {
	engine := NewRiskEngine(testRuleSet())

	record := engine.ScoreClause(clauseSpan(domain.ClauseForceMajeure, 0.9), GraphContext{})
	if record.Risk != domain.RiskMedium {
		t.Fatalf("risk = %s, want medium", record.Risk)
	}
	if len(record.Rationale) == 0 {
		t.Fatalf("defaulted risk must carry a rationale")
	}
}

func TestScoreClauseSupersededAuthorityDowngradesEnforceability(t *testing.T) {
	engine := NewRiskEngine(testRuleSet())

	record := engine.ScoreClause(clauseSpan(domain.ClauseGoverningLaw, 0.9), GraphContext{
		SupersededAuthorities: []string{"authority-1"},
	})
	if record.Enforceability != domain.LikelyEnforceable {
		t.Fatalf("enforceability = %s, want likely_enforceable", record.Enforceability)
	}
}

func TestScoreClauseDoubtfulEnforceabilityRaisesRisk(t *testing.T) {
	engine := NewRiskEngine(testRuleSet())

	// confidence 0.55 → uncertain, so the low base risk is raised.
	record := engine.ScoreClause(clauseSpan(domain.ClauseGoverningLaw, 0.55), GraphContext{})
	if record.Enforceability != domain.Uncertain {
		t.Fatalf("enforceability = %s, want uncertain", record.Enforceability)
	}
	if record.Risk != domain.RiskMedium {
		t.Fatalf("risk = %s, want medium after raise", record.Risk)
	}
}

func TestMissingClauseFindingsAreHighRisk(t *testing.T) {
	engine := NewRiskEngine(testRuleSet())

	present := []domain.ClauseRecord{
		{Kind: domain.ClauseTermination, Risk: domain.RiskMedium},
	}
	findings := engine.MissingClauseFindings(present)
	if len(findings) != 1 {
		t.Fatalf("expected 1 missing-clause finding, got %d", len(findings))
	}
	f := findings[0]
	if f.Kind != domain.ClauseLimitationOfLiability {
		t.Fatalf("missing kind = %s, want limitation_of_liability", f.Kind)
	}
	if !f.Missing || f.Risk != domain.RiskHigh {
		t.Fatalf("missing finding must be high risk, got %+v", f)
	}
}

func TestAggregateCriticalDominates(t *testing.T) {
	engine := NewRiskEngine(testRuleSet())

	clauses := []domain.ClauseRecord{
		{Kind: domain.ClauseGoverningLaw, Risk: domain.RiskLow},
		{Kind: domain.ClauseTermination, Risk: domain.RiskLow},
		{Kind: domain.ClauseDataProtection, Risk: domain.RiskCritical},
		{Kind: domain.ClauseGoverningLaw, Risk: domain.RiskLow},
	}
	if got := engine.Aggregate(clauses); got != domain.RiskCritical {
		t.Fatalf("aggregate = %s, want critical regardless of other clauses", got)
	}
}

func TestAggregateWeightedMean(t *testing.T) {
	engine := NewRiskEngine(testRuleSet())

	// (3*3 + 2*2 + 1*1) / 6 = 2.33 → medium
	clauses := []domain.ClauseRecord{
		{Kind: domain.ClauseLimitationOfLiability, Risk: domain.RiskHigh},
		{Kind: domain.ClauseTermination, Risk: domain.RiskMedium},
		{Kind: domain.ClauseGoverningLaw, Risk: domain.RiskLow},
	}
	if got := engine.Aggregate(clauses); got != domain.RiskMedium {
		t.Fatalf("aggregate = %s, want medium", got)
	}
}

func TestAggregateEmptyIsLow(t *testing.T) {
	engine := NewRiskEngine(testRuleSet())
	if got := engine.Aggregate(nil); got != domain.RiskLow {
		t.Fatalf("aggregate of no clauses = %s, want low", got)
	}
}
