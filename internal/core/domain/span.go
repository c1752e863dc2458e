package domain

type SpanKind string

const (
	SpanParty          SpanKind = "party"
	SpanMonetaryAmount SpanKind = "monetary_amount"
	SpanDate           SpanKind = "date"
	SpanClause         SpanKind = "clause"
	SpanCitation       SpanKind = "citation"
	SpanObligation     SpanKind = "obligation"
	SpanJurisdiction   SpanKind = "jurisdiction"
)

type ClauseKind string

const (
	ClauseLimitationOfLiability ClauseKind = "limitation_of_liability"
	ClauseIndemnification       ClauseKind = "indemnification"
	ClauseTermination           ClauseKind = "termination"
	ClauseConfidentiality       ClauseKind = "confidentiality"
	ClauseNonCompete            ClauseKind = "non_compete"
	ClauseGoverningLaw          ClauseKind = "governing_law"
	ClausePayment               ClauseKind = "payment"
	ClauseAutoRenewal           ClauseKind = "auto_renewal"
	ClauseDisputeResolution     ClauseKind = "dispute_resolution"
	ClauseDataProtection        ClauseKind = "data_protection"
	ClauseAssignment            ClauseKind = "assignment"
	ClauseForceMajeure          ClauseKind = "force_majeure"
)

// ExtractedSpan is a typed region of document text. Offsets are byte
// offsets into the decoded text. AltGroup marks mutually exclusive
// alternative hypotheses: spans sharing a non-empty AltGroup may overlap,
// and the highest-confidence member wins downstream.
type ExtractedSpan struct {
	ID              string               `json:"id"`
	DocumentID      string               `json:"document_id"`
	Kind            SpanKind             `json:"kind"`
	ClauseKind      ClauseKind           `json:"clause_kind,omitempty"`
	Start           int                  `json:"start"`
	End             int                  `json:"end"`
	Text            string               `json:"text"`
	Normalized      string               `json:"normalized,omitempty"`
	Confidence      float64              `json:"confidence"`
	AltGroup        string               `json:"alt_group,omitempty"`
	Confidentiality ConfidentialityLevel `json:"confidentiality"`
}

func (s ExtractedSpan) Overlaps(other ExtractedSpan) bool {
	return s.Start < other.End && other.Start < s.End
}

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Score maps a risk level onto the numeric scale used for aggregation.
func (r RiskLevel) Score() float64 {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	case RiskCritical:
		return 4
	default:
		return 2
	}
}

func RiskFromScore(score float64) RiskLevel {
	switch {
	case score < 1.5:
		return RiskLow
	case score < 2.5:
		return RiskMedium
	case score < 3.5:
		return RiskHigh
	default:
		return RiskCritical
	}
}

type Enforceability string

const (
	Enforceable       Enforceability = "enforceable"
	LikelyEnforceable Enforceability = "likely_enforceable"
	Uncertain         Enforceability = "uncertain"
	Unenforceable     Enforceability = "unenforceable"
)

// Downgrade steps the judgment one notch toward Unenforceable.
func (e Enforceability) Downgrade() Enforceability {
	switch e {
	case Enforceable:
		return LikelyEnforceable
	case LikelyEnforceable:
		return Uncertain
	default:
		return Unenforceable
	}
}

// ClauseRecord is the scored specialization of a clause span.
type ClauseRecord struct {
	Span           ExtractedSpan  `json:"span"`
	Kind           ClauseKind     `json:"kind"`
	Risk           RiskLevel      `json:"risk"`
	Enforceability Enforceability `json:"enforceability"`
	Rationale      []string       `json:"rationale,omitempty"`
	// Missing marks a policy-expected clause that was absent from the
	// document; Span is zero-valued for such records.
	Missing bool `json:"missing,omitempty"`
}
