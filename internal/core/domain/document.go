package domain

import "time"

type ConfidentialityLevel string

const (
	ConfidentialityPublic     ConfidentialityLevel = "public"
	ConfidentialityInternal   ConfidentialityLevel = "internal"
	ConfidentialityRestricted ConfidentialityLevel = "confidential"
	ConfidentialityPrivileged ConfidentialityLevel = "attorney_client_privileged"
)

// Rank orders levels from weakest (public) to strictest (privileged).
func (c ConfidentialityLevel) Rank() int {
	switch c {
	case ConfidentialityPublic:
		return 0
	case ConfidentialityInternal:
		return 1
	case ConfidentialityRestricted:
		return 2
	case ConfidentialityPrivileged:
		return 3
	default:
		return 1
	}
}

// Covers reports whether c grants access to content at level other.
func (c ConfidentialityLevel) Covers(other ConfidentialityLevel) bool {
	return c.Rank() >= other.Rank()
}

func (c ConfidentialityLevel) Privileged() bool {
	return c == ConfidentialityPrivileged
}

type DocumentStatus string

const (
	StatusReceived  DocumentStatus = "received"
	StatusAnalyzing DocumentStatus = "analyzing"
	StatusCompleted DocumentStatus = "completed"
	StatusFailed    DocumentStatus = "failed"
)

// Document is the immutable ingestion record. Analysis stages attach
// annotations that reference it; they never rewrite it.
type Document struct {
	ID              string               `json:"id"`
	Filename        string               `json:"filename"`
	MimeType        string               `json:"mime_type"`
	StoragePath     string               `json:"storage_path"`
	TypeHint        string               `json:"type_hint,omitempty"`
	Confidentiality ConfidentialityLevel `json:"confidentiality"`
	Jurisdiction    string               `json:"jurisdiction,omitempty"`
	ClientID        string               `json:"client_id,omitempty"`
	Parties         []string             `json:"parties,omitempty"`
	EffectiveDate   *time.Time           `json:"effective_date,omitempty"`
	ExpirationDate  *time.Time           `json:"expiration_date,omitempty"`
	Status          DocumentStatus       `json:"status"`
	FailedStage     string               `json:"failed_stage,omitempty"`
	Error           string               `json:"error,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// Classification is the output of the classifier stage.
type Classification struct {
	DocumentType  string   `json:"document_type"`
	PracticeAreas []string `json:"practice_areas"`
	Confidence    float64  `json:"confidence"`
	ModelVersion  string   `json:"model_version"`
}

// DocumentTypeUnclassified is returned when no candidate clears the
// classification confidence floor. It is a valid result, not an error.
const DocumentTypeUnclassified = "unclassified"
