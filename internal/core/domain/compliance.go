package domain

type PredicateType string

const (
	PredicateRequireClause     PredicateType = "require_clause"
	PredicateRequireDisclosure PredicateType = "require_disclosure"
	PredicateForbidClause      PredicateType = "forbid_clause"
)

// RulePredicate describes what a compliance rule demands of a document.
// RequireClause/ForbidClause test clause presence by kind;
// RequireDisclosure tests obligation spans for any of the keywords.
type RulePredicate struct {
	Type       PredicateType `json:"type" yaml:"type"`
	ClauseKind ClauseKind    `json:"clause_kind,omitempty" yaml:"clause_kind,omitempty"`
	Keywords   []string      `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

type ComplianceRule struct {
	ID          string        `json:"id" yaml:"id"`
	Framework   string        `json:"framework" yaml:"framework"`
	Predicate   RulePredicate `json:"predicate" yaml:"predicate"`
	Severity    RiskLevel     `json:"severity" yaml:"severity"`
	Remediation string        `json:"remediation" yaml:"remediation"`
}

// ClauseWeight is one row of the clause risk-weight table.
type ClauseWeight struct {
	Kind     ClauseKind `json:"kind" yaml:"kind"`
	Weight   float64    `json:"weight" yaml:"weight"`
	BaseRisk RiskLevel  `json:"base_risk" yaml:"base_risk"`
	// Expected marks clauses whose absence is itself a High-risk finding.
	Expected bool `json:"expected,omitempty" yaml:"expected,omitempty"`
}

// RuleSet is an immutable, versioned bundle of compliance rules and the
// clause risk-weight table. A loaded version never changes for the
// lifetime of an analysis run.
type RuleSet struct {
	Version string                      `json:"version" yaml:"version"`
	Rules   []ComplianceRule            `json:"rules" yaml:"rules"`
	Weights map[ClauseKind]ClauseWeight `json:"weights" yaml:"-"`
}

func (rs *RuleSet) WeightFor(kind ClauseKind) (ClauseWeight, bool) {
	w, ok := rs.Weights[kind]
	return w, ok
}

// ExpectedClauses lists clause kinds whose absence must be scored.
func (rs *RuleSet) ExpectedClauses() []ClauseKind {
	var out []ClauseKind
	for _, w := range rs.Weights {
		if w.Expected {
			out = append(out, w.Kind)
		}
	}
	return out
}

type ComplianceGap struct {
	RuleID      string    `json:"rule_id"`
	Framework   string    `json:"framework"`
	Severity    RiskLevel `json:"severity"`
	Remediation string    `json:"remediation"`
	Detail      string    `json:"detail,omitempty"`
}

// SkippedRule flags a rule that could not be evaluated. The remaining
// rules are still checked; skipping is never silent.
type SkippedRule struct {
	RuleID    string `json:"rule_id"`
	Framework string `json:"framework"`
	Reason    string `json:"reason"`
}

type ComplianceReport struct {
	Gaps    []ComplianceGap `json:"gaps"`
	Skipped []SkippedRule   `json:"skipped,omitempty"`
}
