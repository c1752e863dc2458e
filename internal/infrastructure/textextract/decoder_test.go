package textextract

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/lexops/legalintel/internal/core/domain"
)

type storageFake struct {
	objects map[string][]byte
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[key] = raw
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(strings.NewReader(string(raw))), nil
}

func TestDecodePlainText(t *testing.T) {
	storage := &storageFake{objects: map[string][]byte{
		"doc-1_agreement.txt": []byte("  This Agreement is entered into...  \n"),
	}}
	decoder := NewDecoder(storage)

	text, err := decoder.Decode(context.Background(), &domain.Document{
		ID:          "doc-1",
		Filename:    "agreement.txt",
		MimeType:    "text/plain",
		StoragePath: "doc-1_agreement.txt",
	})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if text != "This Agreement is entered into..." {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestDecodeRejectsBinaryGarbage(t *testing.T) {
	storage := &storageFake{objects: map[string][]byte{
		"doc-1_blob.bin": {0xff, 0xfe, 0x00, 0x81},
	}}
	decoder := NewDecoder(storage)

	_, err := decoder.Decode(context.Background(), &domain.Document{
		ID:          "doc-1",
		Filename:    "blob.bin",
		MimeType:    "application/octet-stream",
		StoragePath: "doc-1_blob.bin",
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDecodeMissingObject(t *testing.T) {
	decoder := NewDecoder(&storageFake{})

	_, err := decoder.Decode(context.Background(), &domain.Document{
		ID:          "doc-1",
		Filename:    "gone.txt",
		StoragePath: "doc-1_gone.txt",
	})
	if err == nil {
		t.Fatalf("expected error for missing object")
	}
}

func TestDecodeCorruptPDFSurfacesError(t *testing.T) {
	storage := &storageFake{objects: map[string][]byte{
		"doc-1_broken.pdf": []byte("%PDF-1.7 not actually a pdf"),
	}}
	decoder := NewDecoder(storage)

	_, err := decoder.Decode(context.Background(), &domain.Document{
		ID:          "doc-1",
		Filename:    "broken.pdf",
		MimeType:    "application/pdf",
		StoragePath: "doc-1_broken.pdf",
	})
	if err == nil {
		t.Fatalf("expected error for corrupt pdf")
	}
}
