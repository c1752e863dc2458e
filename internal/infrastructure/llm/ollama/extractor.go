package ollama

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/lexops/legalintel/internal/core/domain"
)

// SpanExtractor implements the entity and clause extraction capability
// over the Ollama client.
type SpanExtractor struct {
	client *Client
}

func NewSpanExtractor(client *Client) *SpanExtractor {
	return &SpanExtractor{client: client}
}

func (e *SpanExtractor) PrivilegeCapable() bool {
	return e.client.privilegeCapable
}

type wireSpan struct {
	Kind       string  `json:"kind"`
	ClauseKind string  `json:"clause_kind,omitempty"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Text       string  `json:"text"`
	Normalized string  `json:"normalized,omitempty"`
	Confidence float64 `json:"confidence"`
	AltGroup   string  `json:"alt_group,omitempty"`
}

func (e *SpanExtractor) ExtractSpans(ctx context.Context, doc *domain.Document, text string) ([]domain.ExtractedSpan, error) {
	raw, err := e.client.generateJSON(ctx, "extract", buildExtractionPrompt(doc, text))
	if err != nil {
		return nil, err
	}

	var payload struct {
		Spans []wireSpan `json:"spans"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return nil, fmt.Errorf("parse extraction json: %w", err)
	}

	out := make([]domain.ExtractedSpan, 0, len(payload.Spans))
	for i, ws := range payload.Spans {
		span, err := toDomainSpan(doc, ws, len(text))
		if err != nil {
			return nil, fmt.Errorf("span %d: %w", i, err)
		}
		out = append(out, span)
	}
	return out, nil
}

func toDomainSpan(doc *domain.Document, ws wireSpan, textLen int) (domain.ExtractedSpan, error) {
	kind, ok := spanKinds[ws.Kind]
	if !ok {
		return domain.ExtractedSpan{}, fmt.Errorf("unknown span kind %q", ws.Kind)
	}
	if ws.Start < 0 || ws.End > textLen || ws.End <= ws.Start {
		return domain.ExtractedSpan{}, fmt.Errorf("offsets [%d,%d) out of range for text length %d", ws.Start, ws.End, textLen)
	}
	if ws.Confidence < 0 || ws.Confidence > 1 {
		return domain.ExtractedSpan{}, fmt.Errorf("confidence %f outside [0,1]", ws.Confidence)
	}

	span := domain.ExtractedSpan{
		ID:              uuid.NewString(),
		DocumentID:      doc.ID,
		Kind:            kind,
		Start:           ws.Start,
		End:             ws.End,
		Text:            ws.Text,
		Normalized:      ws.Normalized,
		Confidence:      ws.Confidence,
		AltGroup:        ws.AltGroup,
		Confidentiality: doc.Confidentiality,
	}
	if kind == domain.SpanClause {
		ck, ok := clauseKinds[ws.ClauseKind]
		if !ok {
			return domain.ExtractedSpan{}, fmt.Errorf("unknown clause kind %q", ws.ClauseKind)
		}
		span.ClauseKind = ck
	}
	return span, nil
}

var spanKinds = map[string]domain.SpanKind{
	"party":           domain.SpanParty,
	"monetary_amount": domain.SpanMonetaryAmount,
	"date":            domain.SpanDate,
	"clause":          domain.SpanClause,
	"citation":        domain.SpanCitation,
	"obligation":      domain.SpanObligation,
	"jurisdiction":    domain.SpanJurisdiction,
}

var clauseKinds = map[string]domain.ClauseKind{
	"limitation_of_liability": domain.ClauseLimitationOfLiability,
	"indemnification":         domain.ClauseIndemnification,
	"termination":             domain.ClauseTermination,
	"confidentiality":         domain.ClauseConfidentiality,
	"non_compete":             domain.ClauseNonCompete,
	"governing_law":           domain.ClauseGoverningLaw,
	"payment":                 domain.ClausePayment,
	"auto_renewal":            domain.ClauseAutoRenewal,
	"dispute_resolution":      domain.ClauseDisputeResolution,
	"data_protection":         domain.ClauseDataProtection,
	"assignment":              domain.ClauseAssignment,
	"force_majeure":           domain.ClauseForceMajeure,
}
