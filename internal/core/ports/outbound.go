package ports

import (
	"context"
	"io"

	"github.com/lexops/legalintel/internal/core/domain"
)

// PrivilegeAware collaborators declare whether they may handle
// ATTORNEY_CLIENT_PRIVILEGED content. The orchestrator enforces the
// boundary; sub-components are not trusted to check themselves.
type PrivilegeAware interface {
	PrivilegeCapable() bool
}

// DocumentRepository persists document metadata and pipeline state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, failedStage, errMessage string) error
	SaveClassification(ctx context.Context, id string, cls domain.Classification) error
}

// AnalysisRepository stores completed analysis results. One row per run;
// results are never updated in place.
type AnalysisRepository interface {
	SaveResult(ctx context.Context, result *domain.AnalysisResult) error
	GetResult(ctx context.Context, id string) (*domain.AnalysisResult, error)
	ListByDocument(ctx context.Context, documentID string) ([]domain.AnalysisResult, error)
}

// ObjectStorage stores raw source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// TextDecoder turns stored raw bytes into analyzable plain text.
type TextDecoder interface {
	Decode(ctx context.Context, doc *domain.Document) (string, error)
}

// SpanExtractor produces typed spans from decoded document text via the
// external language-model capability.
type SpanExtractor interface {
	PrivilegeAware
	ExtractSpans(ctx context.Context, doc *domain.Document, text string) ([]domain.ExtractedSpan, error)
}

// TypeCandidate is one classifier hypothesis. Label uses slash-separated
// hierarchy (subtype segments after the parent, e.g. "contract/nda").
type TypeCandidate struct {
	Label         string
	PracticeAreas []string
	Confidence    float64
}

// DocumentClassifier proposes type candidates for a document given its
// extracted spans. Must be deterministic for identical inputs and model
// version.
type DocumentClassifier interface {
	PrivilegeAware
	Candidates(ctx context.Context, doc *domain.Document, spans []domain.ExtractedSpan) ([]TypeCandidate, error)
	ModelVersion() string
}

// KnowledgeGraph is the shared legal-entity store. Reads are filtered by
// the caller's access scope; relationship addition is idempotent and
// append-only.
type KnowledgeGraph interface {
	PrivilegeAware
	UpsertNode(ctx context.Context, node domain.GraphNode) (string, error)
	AddRelationship(ctx context.Context, srcID string, rel domain.RelationType, dstID string) error
	Neighbors(ctx context.Context, scope domain.AccessScope, id string, rel domain.RelationType) ([]string, error)
	Resolve(ctx context.Context, scope domain.AccessScope, mention domain.Mention) ([]domain.ResolveCandidate, error)
}

// MessageQueue transports analysis requests between intake and workers.
type MessageQueue interface {
	PublishAnalysisRequested(ctx context.Context, req domain.AnalysisRequest) error
	SubscribeAnalysisRequested(ctx context.Context, handler func(context.Context, domain.AnalysisRequest) error) error
}

// AuditSink is the append-only log collaborator receiving every stage
// transition and privilege-boundary check.
type AuditSink interface {
	PrivilegeAware
	Record(ctx context.Context, event domain.AuditEvent) error
}

// RuleSource loads versioned compliance rule sets and clause risk-weight
// tables. A loaded rule set is immutable for the analysis run that uses it.
type RuleSource interface {
	Load(ctx context.Context) (*domain.RuleSet, error)
}
