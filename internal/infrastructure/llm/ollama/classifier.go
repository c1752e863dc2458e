package ollama

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lexops/legalintel/internal/core/domain"
	"github.com/lexops/legalintel/internal/core/ports"
)

// Classifier proposes document type candidates. The downstream policy
// (tie-breaking, confidence floor) lives in the core, so the adapter
// only reports what the model said.
type Classifier struct {
	client *Client
}

func NewClassifier(client *Client) *Classifier {
	return &Classifier{client: client}
}

func (c *Classifier) PrivilegeCapable() bool {
	return c.client.privilegeCapable
}

func (c *Classifier) ModelVersion() string {
	return c.client.ModelVersion()
}

func (c *Classifier) Candidates(ctx context.Context, doc *domain.Document, spans []domain.ExtractedSpan) ([]ports.TypeCandidate, error) {
	raw, err := c.client.generateJSON(ctx, "classify", buildClassificationPrompt(doc, spans))
	if err != nil {
		return nil, err
	}

	var payload struct {
		Candidates []struct {
			Label         string   `json:"label"`
			PracticeAreas []string `json:"practice_areas"`
			Confidence    float64  `json:"confidence"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return nil, fmt.Errorf("parse classification json: %w", err)
	}

	out := make([]ports.TypeCandidate, 0, len(payload.Candidates))
	for _, cand := range payload.Candidates {
		if cand.Label == "" {
			continue
		}
		if cand.Confidence < 0 {
			cand.Confidence = 0
		}
		if cand.Confidence > 1 {
			cand.Confidence = 1
		}
		out = append(out, ports.TypeCandidate{
			Label:         cand.Label,
			PracticeAreas: cand.PracticeAreas,
			Confidence:    cand.Confidence,
		})
	}
	return out, nil
}
