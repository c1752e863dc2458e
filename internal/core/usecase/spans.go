package usecase

import (
	"sort"

	"github.com/lexops/legalintel/internal/core/domain"
)

// DefaultConfidenceFloor is the minimum extractor confidence kept.
const DefaultConfidenceFloor = 0.5

// NormalizeSpans enforces the extractor output contract: spans below the
// confidence floor are dropped, confidentiality is inherited from the
// document (a span can never be weaker than its source), output is
// ordered by offset, and overlapping same-kind spans are resolved in
// favor of the higher confidence unless they share an alternative group.
func NormalizeSpans(doc *domain.Document, spans []domain.ExtractedSpan, floor float64) []domain.ExtractedSpan {
	if floor <= 0 {
		floor = DefaultConfidenceFloor
	}

	kept := make([]domain.ExtractedSpan, 0, len(spans))
	for _, s := range spans {
		if s.Confidence < floor {
			continue
		}
		if s.End <= s.Start {
			continue
		}
		s.DocumentID = doc.ID
		if !s.Confidentiality.Covers(doc.Confidentiality) {
			s.Confidentiality = doc.Confidentiality
		}
		kept = append(kept, s)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Confidence != kept[j].Confidence {
			return kept[i].Confidence > kept[j].Confidence
		}
		if kept[i].Start != kept[j].Start {
			return kept[i].Start < kept[j].Start
		}
		return kept[i].End < kept[j].End
	})

	out := make([]domain.ExtractedSpan, 0, len(kept))
	for _, s := range kept {
		if conflictsWithKept(s, out) {
			continue
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		if out[i].End != out[j].End {
			return out[i].End < out[j].End
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// conflictsWithKept reports whether s overlaps an already kept span of
// the same kind. Spans sharing a non-empty alternative group coexist;
// the winner among them is chosen at use time.
func conflictsWithKept(s domain.ExtractedSpan, kept []domain.ExtractedSpan) bool {
	for _, k := range kept {
		if k.Kind != s.Kind || !k.Overlaps(s) {
			continue
		}
		if s.AltGroup != "" && s.AltGroup == k.AltGroup {
			continue
		}
		return true
	}
	return false
}

// PreferredSpans collapses alternative-hypothesis groups to their
// highest-confidence member. Downstream stages consume this view.
func PreferredSpans(spans []domain.ExtractedSpan) []domain.ExtractedSpan {
	best := make(map[string]domain.ExtractedSpan)
	out := make([]domain.ExtractedSpan, 0, len(spans))
	for _, s := range spans {
		if s.AltGroup == "" {
			out = append(out, s)
			continue
		}
		cur, ok := best[s.AltGroup]
		if !ok || s.Confidence > cur.Confidence {
			best[s.AltGroup] = s
		}
	}
	for _, s := range spans {
		if s.AltGroup == "" {
			continue
		}
		if best[s.AltGroup].ID == s.ID {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// ClauseSpans selects the clause-kind spans from the preferred view.
func ClauseSpans(spans []domain.ExtractedSpan) []domain.ExtractedSpan {
	var out []domain.ExtractedSpan
	for _, s := range PreferredSpans(spans) {
		if s.Kind == domain.SpanClause {
			out = append(out, s)
		}
	}
	return out
}
