package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/lexops/legalintel/internal/core/domain"
	"github.com/lexops/legalintel/internal/core/ports"
)

type ingestRepoFake struct {
	created   *domain.Document
	createErr error
}

func (f *ingestRepoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = doc
	return nil
}

func (f *ingestRepoFake) GetByID(context.Context, string) (*domain.Document, error) {
	return nil, domain.ErrDocumentNotFound
}

func (f *ingestRepoFake) UpdateStatus(context.Context, string, domain.DocumentStatus, string, string) error {
	return nil
}

func (f *ingestRepoFake) SaveClassification(context.Context, string, domain.Classification) error {
	return nil
}

type storageFake struct {
	saved   map[string]string
	saveErr error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if f.saved == nil {
		f.saved = make(map[string]string)
	}
	f.saved[key] = string(raw)
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	content, ok := f.saved[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

type queueFake struct {
	published  []domain.AnalysisRequest
	publishErr error
}

func (f *queueFake) PublishAnalysisRequested(_ context.Context, req domain.AnalysisRequest) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, req)
	return nil
}

func (f *queueFake) SubscribeAnalysisRequested(context.Context, func(context.Context, domain.AnalysisRequest) error) error {
	return nil
}

func validMeta() ports.IngestMetadata {
	return ports.IngestMetadata{
		Filename:        "master services agreement.pdf",
		MimeType:        "application/pdf",
		Confidentiality: domain.ConfidentialityRestricted,
		Jurisdiction:    "US-NY",
		ClientID:        "client-7",
	}
}

func TestIngestStoresRecordsAndEnqueues(t *testing.T) {
	repo := &ingestRepoFake{}
	storage := &storageFake{}
	queue := &queueFake{}
	uc := NewIngestDocumentUseCase(repo, storage, queue)

	doc, req, err := uc.Ingest(context.Background(), validMeta(), strings.NewReader("body"), domain.AnalysisOptions{})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if doc.Status != domain.StatusReceived {
		t.Fatalf("status = %s, want received", doc.Status)
	}
	if repo.created == nil || repo.created.ID != doc.ID {
		t.Fatalf("document record not created")
	}
	if len(storage.saved) != 1 {
		t.Fatalf("expected 1 stored object, got %d", len(storage.saved))
	}
	if strings.Contains(doc.StoragePath, " ") {
		t.Fatalf("storage key not sanitized: %q", doc.StoragePath)
	}
	if len(queue.published) != 1 {
		t.Fatalf("expected 1 published request, got %d", len(queue.published))
	}
	if req.DocumentID != doc.ID || req.AnalysisID == "" {
		t.Fatalf("malformed analysis request: %+v", req)
	}
	if req.Options.Mode != domain.ModeFullPipeline {
		t.Fatalf("empty mode must default to full_pipeline, got %s", req.Options.Mode)
	}
}

func TestIngestRejectsMissingFilename(t *testing.T) {
	uc := NewIngestDocumentUseCase(&ingestRepoFake{}, &storageFake{}, &queueFake{})
	meta := validMeta()
	meta.Filename = " "

	_, _, err := uc.Ingest(context.Background(), meta, strings.NewReader("body"), domain.AnalysisOptions{})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestIngestRejectsUnknownConfidentiality(t *testing.T) {
	uc := NewIngestDocumentUseCase(&ingestRepoFake{}, &storageFake{}, &queueFake{})
	meta := validMeta()
	meta.Confidentiality = "secret"

	_, _, err := uc.Ingest(context.Background(), meta, strings.NewReader("body"), domain.AnalysisOptions{})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestIngestStorageFailureAborts(t *testing.T) {
	repo := &ingestRepoFake{}
	queue := &queueFake{}
	uc := NewIngestDocumentUseCase(repo, &storageFake{saveErr: errors.New("disk full")}, queue)

	_, _, err := uc.Ingest(context.Background(), validMeta(), strings.NewReader("body"), domain.AnalysisOptions{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if repo.created != nil || len(queue.published) != 0 {
		t.Fatalf("no record or message may exist after storage failure")
	}
}

func TestIngestPublishFailureSurfaces(t *testing.T) {
	uc := NewIngestDocumentUseCase(&ingestRepoFake{}, &storageFake{}, &queueFake{publishErr: errors.New("broker down")})

	_, _, err := uc.Ingest(context.Background(), validMeta(), strings.NewReader("body"), domain.AnalysisOptions{})
	if err == nil {
		t.Fatalf("expected error")
	}
}
