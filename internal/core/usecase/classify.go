package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lexops/legalintel/internal/core/domain"
	"github.com/lexops/legalintel/internal/core/ports"
)

// DefaultClassifyFloor is the minimum winning confidence below which a
// document is reported Unclassified instead of guessed.
const DefaultClassifyFloor = 0.6

// ClassifyStage turns raw classifier candidates into a deterministic
// classification. For identical (document, spans, model version) the
// result is identical, which legal audit trails depend on.
type ClassifyStage struct {
	classifier ports.DocumentClassifier
	floor      float64
}

func NewClassifyStage(classifier ports.DocumentClassifier, floor float64) *ClassifyStage {
	if floor <= 0 {
		floor = DefaultClassifyFloor
	}
	return &ClassifyStage{classifier: classifier, floor: floor}
}

func (s *ClassifyStage) Classify(ctx context.Context, doc *domain.Document, spans []domain.ExtractedSpan) (domain.Classification, error) {
	candidates, err := s.classifier.Candidates(ctx, doc, spans)
	if err != nil {
		return domain.Classification{}, fmt.Errorf("classifier candidates: %w", err)
	}

	version := s.classifier.ModelVersion()
	if len(candidates) == 0 {
		return unclassified(0, version), nil
	}

	winner := pickCandidate(candidates)
	if winner.Confidence < s.floor {
		return unclassified(winner.Confidence, version), nil
	}

	areas := append([]string(nil), winner.PracticeAreas...)
	sort.Strings(areas)
	return domain.Classification{
		DocumentType:  winner.Label,
		PracticeAreas: areas,
		Confidence:    winner.Confidence,
		ModelVersion:  version,
	}, nil
}

// pickCandidate breaks ties by highest confidence, then most specific
// label (a subtype beats its parent type), then lexical order of the tag.
func pickCandidate(candidates []ports.TypeCandidate) ports.TypeCandidate {
	sorted := append([]ports.TypeCandidate(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Confidence != sorted[j].Confidence {
			return sorted[i].Confidence > sorted[j].Confidence
		}
		si, sj := labelSpecificity(sorted[i].Label), labelSpecificity(sorted[j].Label)
		if si != sj {
			return si > sj
		}
		return sorted[i].Label < sorted[j].Label
	})
	return sorted[0]
}

func labelSpecificity(label string) int {
	return strings.Count(label, "/") + 1
}

func unclassified(confidence float64, version string) domain.Classification {
	return domain.Classification{
		DocumentType:  domain.DocumentTypeUnclassified,
		PracticeAreas: []string{},
		Confidence:    confidence,
		ModelVersion:  version,
	}
}
