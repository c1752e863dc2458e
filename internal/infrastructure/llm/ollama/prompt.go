package ollama

import (
	"fmt"
	"strings"

	"github.com/lexops/legalintel/internal/core/domain"
)

const maxPromptChars = 12000

func buildExtractionPrompt(doc *domain.Document, text string) string {
	snippet := text
	if len(snippet) > maxPromptChars {
		snippet = snippet[:maxPromptChars]
	}

	return fmt.Sprintf(`You are a legal document analyst.
Return a strict JSON object: {"spans": [...]}.
Each span has keys: kind, start, end, text, confidence (0..1).
kind is one of: party, monetary_amount, date, clause, citation, obligation, jurisdiction.
Clause spans additionally carry clause_kind, one of:
limitation_of_liability, indemnification, termination, confidentiality, non_compete,
governing_law, payment, auto_renewal, dispute_resolution, data_protection, assignment, force_majeure.
start/end are byte offsets into the document text. Spans of the same kind must not overlap
unless they are alternative readings of the same region; mark those with a shared alt_group string.
Citations carry normalized as "case:<name>" or "statute:<name>".
No markdown, no extra keys.

Jurisdiction hint: %s
Document:
%s`, doc.Jurisdiction, snippet)
}

func buildClassificationPrompt(doc *domain.Document, spans []domain.ExtractedSpan) string {
	var summary strings.Builder
	for _, s := range spans {
		fmt.Fprintf(&summary, "- %s", s.Kind)
		if s.ClauseKind != "" {
			fmt.Fprintf(&summary, "/%s", s.ClauseKind)
		}
		fmt.Fprintf(&summary, ": %s (%.2f)\n", truncate(s.Text, 120), s.Confidence)
	}

	return fmt.Sprintf(`You are a legal document classifier.
Return a strict JSON object: {"candidates": [...]}.
Each candidate has keys: label, practice_areas (array of strings), confidence (0..1).
Labels use slash hierarchy, e.g. "contract", "contract/nda", "contract/service_agreement",
"brief", "motion", "discovery", "compliance", "opinion", "agreement".
Practice areas come from: corporate, litigation, ip, employment, real_estate, tax, regulatory.
Propose up to 3 candidates. No markdown, no extra keys.

Type hint: %s
Extracted structure:
%s`, doc.TypeHint, summary.String())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
