package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lexops/legalintel/internal/core/domain"
	"github.com/lexops/legalintel/internal/core/ports"
)

type IngestDocumentUseCase struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

func (uc *IngestDocumentUseCase) Ingest(
	ctx context.Context,
	meta ports.IngestMetadata,
	body io.Reader,
	opts domain.AnalysisOptions,
) (*domain.Document, *domain.AnalysisRequest, error) {
	if err := validateMetadata(meta); err != nil {
		return nil, nil, domain.WrapError(domain.ErrInvalidInput, "validate ingest metadata", err)
	}
	if opts.Mode == "" {
		opts.Mode = domain.ModeFullPipeline
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(meta.Filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.Document{
		ID:              id,
		Filename:        meta.Filename,
		MimeType:        meta.MimeType,
		StoragePath:     storageKey,
		TypeHint:        meta.TypeHint,
		Confidentiality: meta.Confidentiality,
		Jurisdiction:    meta.Jurisdiction,
		ClientID:        meta.ClientID,
		Parties:         meta.Parties,
		Status:          domain.StatusReceived,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, nil, fmt.Errorf("create document record: %w", err)
	}

	req := &domain.AnalysisRequest{
		AnalysisID:  uuid.NewString(),
		DocumentID:  doc.ID,
		Options:     opts,
		RequestedAt: now,
	}
	if err := uc.queue.PublishAnalysisRequested(ctx, *req); err != nil {
		return nil, nil, fmt.Errorf("publish analysis request: %w", err)
	}

	return doc, req, nil
}

func validateMetadata(meta ports.IngestMetadata) error {
	if strings.TrimSpace(meta.Filename) == "" {
		return errors.New("filename required")
	}
	switch meta.Confidentiality {
	case domain.ConfidentialityPublic, domain.ConfidentialityInternal,
		domain.ConfidentialityRestricted, domain.ConfidentialityPrivileged:
		return nil
	case "":
		return errors.New("confidentiality level required")
	default:
		return fmt.Errorf("unknown confidentiality level %q", meta.Confidentiality)
	}
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
