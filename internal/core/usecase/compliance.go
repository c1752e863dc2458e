package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lexops/legalintel/internal/core/domain"
)

// GapMatcher evaluates a document's clause and obligation set against
// compliance rule sets. Rule evaluations share no mutable state, so they
// run concurrently; the merged output ordering is stable across re-runs
// for audit comparison.
type GapMatcher struct{}

func NewGapMatcher() *GapMatcher {
	return &GapMatcher{}
}

type ruleOutcome struct {
	gap     *domain.ComplianceGap
	skipped *domain.SkippedRule
}

// Check evaluates every selected rule. A malformed rule is skipped and
// flagged; the remaining rules are still evaluated.
func (m *GapMatcher) Check(
	ctx context.Context,
	clauses []domain.ClauseRecord,
	spans []domain.ExtractedSpan,
	rules *domain.RuleSet,
	frameworks []string,
) domain.ComplianceReport {
	selected := selectRules(rules.Rules, frameworks)

	presentClauses := make(map[domain.ClauseKind]bool, len(clauses))
	for _, c := range clauses {
		if !c.Missing {
			presentClauses[c.Kind] = true
		}
	}
	obligations := obligationTexts(spans)

	outcomes := make([]ruleOutcome, len(selected))
	var wg sync.WaitGroup
	for i, rule := range selected {
		wg.Add(1)
		go func(i int, rule domain.ComplianceRule) {
			defer wg.Done()
			outcomes[i] = evaluateRule(rule, presentClauses, obligations)
		}(i, rule)
	}
	wg.Wait()

	var report domain.ComplianceReport
	for _, o := range outcomes {
		if o.gap != nil {
			report.Gaps = append(report.Gaps, *o.gap)
		}
		if o.skipped != nil {
			report.Skipped = append(report.Skipped, *o.skipped)
		}
	}

	sortGaps(report.Gaps)
	sort.Slice(report.Skipped, func(i, j int) bool {
		if report.Skipped[i].Framework != report.Skipped[j].Framework {
			return report.Skipped[i].Framework < report.Skipped[j].Framework
		}
		return report.Skipped[i].RuleID < report.Skipped[j].RuleID
	})
	return report
}

func evaluateRule(rule domain.ComplianceRule, present map[domain.ClauseKind]bool, obligations []string) ruleOutcome {
	if err := validateRule(rule); err != nil {
		return ruleOutcome{skipped: &domain.SkippedRule{
			RuleID:    rule.ID,
			Framework: rule.Framework,
			Reason:    domain.WrapError(domain.ErrRuleEvaluation, "validate rule", err).Error(),
		}}
	}

	switch rule.Predicate.Type {
	case domain.PredicateRequireClause:
		if !present[rule.Predicate.ClauseKind] {
			return gapOutcome(rule, fmt.Sprintf("required clause %s not found", rule.Predicate.ClauseKind))
		}
	case domain.PredicateForbidClause:
		if present[rule.Predicate.ClauseKind] {
			return gapOutcome(rule, fmt.Sprintf("forbidden clause %s present", rule.Predicate.ClauseKind))
		}
	case domain.PredicateRequireDisclosure:
		if !anyKeywordPresent(obligations, rule.Predicate.Keywords) {
			return gapOutcome(rule, fmt.Sprintf("no obligation matching %s", strings.Join(rule.Predicate.Keywords, "|")))
		}
	}
	return ruleOutcome{}
}

func gapOutcome(rule domain.ComplianceRule, detail string) ruleOutcome {
	return ruleOutcome{gap: &domain.ComplianceGap{
		RuleID:      rule.ID,
		Framework:   rule.Framework,
		Severity:    rule.Severity,
		Remediation: rule.Remediation,
		Detail:      detail,
	}}
}

func validateRule(rule domain.ComplianceRule) error {
	if strings.TrimSpace(rule.ID) == "" {
		return fmt.Errorf("empty rule id")
	}
	switch rule.Predicate.Type {
	case domain.PredicateRequireClause, domain.PredicateForbidClause:
		if rule.Predicate.ClauseKind == "" {
			return fmt.Errorf("rule %s: clause predicate without clause kind", rule.ID)
		}
	case domain.PredicateRequireDisclosure:
		if len(rule.Predicate.Keywords) == 0 {
			return fmt.Errorf("rule %s: disclosure predicate without keywords", rule.ID)
		}
	default:
		return fmt.Errorf("rule %s: unknown predicate type %q", rule.ID, rule.Predicate.Type)
	}
	return nil
}

func selectRules(rules []domain.ComplianceRule, frameworks []string) []domain.ComplianceRule {
	if len(frameworks) == 0 {
		return rules
	}
	allowed := make(map[string]bool, len(frameworks))
	for _, f := range frameworks {
		allowed[strings.ToUpper(strings.TrimSpace(f))] = true
	}
	var out []domain.ComplianceRule
	for _, r := range rules {
		if allowed[strings.ToUpper(r.Framework)] {
			out = append(out, r)
		}
	}
	return out
}

func obligationTexts(spans []domain.ExtractedSpan) []string {
	var out []string
	for _, s := range PreferredSpans(spans) {
		if s.Kind != domain.SpanObligation {
			continue
		}
		out = append(out, strings.ToLower(s.Text+" "+s.Normalized))
	}
	return out
}

func anyKeywordPresent(obligations []string, keywords []string) bool {
	for _, o := range obligations {
		for _, k := range keywords {
			if strings.Contains(o, strings.ToLower(k)) {
				return true
			}
		}
	}
	return false
}

// sortGaps orders by framework, then severity descending, then rule ID.
func sortGaps(gaps []domain.ComplianceGap) {
	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].Framework != gaps[j].Framework {
			return gaps[i].Framework < gaps[j].Framework
		}
		si, sj := gaps[i].Severity.Score(), gaps[j].Severity.Score()
		if si != sj {
			return si > sj
		}
		return gaps[i].RuleID < gaps[j].RuleID
	})
}
