package ports

import (
	"context"
	"io"

	"github.com/lexops/legalintel/internal/core/domain"
)

// IngestMetadata is the caller-declared metadata accompanying raw bytes.
type IngestMetadata struct {
	Filename        string
	MimeType        string
	TypeHint        string
	Confidentiality domain.ConfidentialityLevel
	Jurisdiction    string
	ClientID        string
	Parties         []string
}

// DocumentIngestor is the inbound contract for document intake: store the
// raw bytes, record metadata, and enqueue an analysis request.
type DocumentIngestor interface {
	Ingest(ctx context.Context, meta IngestMetadata, body io.Reader, opts domain.AnalysisOptions) (*domain.Document, *domain.AnalysisRequest, error)
}

// DocumentAnalyzer is the inbound contract for running the analysis
// pipeline on a stored document.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error)
}

// DocumentReader is the inbound read model for document state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}
