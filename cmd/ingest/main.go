package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lexops/legalintel/internal/bootstrap"
	"github.com/lexops/legalintel/internal/config"
	"github.com/lexops/legalintel/internal/core/domain"
	"github.com/lexops/legalintel/internal/core/ports"
	"github.com/lexops/legalintel/internal/observability/logging"
)

func main() {
	var (
		filePath        = flag.String("file", "", "path to the document to ingest (required)")
		mimeType        = flag.String("mime", "", "document MIME type (guessed from extension when empty)")
		typeHint        = flag.String("type-hint", "", "optional document type hint, e.g. contract/nda")
		confidentiality = flag.String("confidentiality", "internal", "public | internal | confidential | attorney_client_privileged")
		jurisdiction    = flag.String("jurisdiction", "", "governing jurisdiction, e.g. US-CA")
		clientID        = flag.String("client", "", "client matter identifier")
		parties         = flag.String("parties", "", "comma-separated declared party names")
		mode            = flag.String("mode", "full_pipeline", "full_pipeline | extract_only | compliance_only")
		frameworks      = flag.String("frameworks", "", "comma-separated compliance frameworks, e.g. GDPR,HIPAA")
	)
	flag.Parse()

	if *filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("ingest-cli", cfg.LogLevel))
	ctx := context.Background()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatalf("open document: %v", err)
	}
	defer f.Close()

	meta := ports.IngestMetadata{
		Filename:        filepath.Base(*filePath),
		MimeType:        *mimeType,
		TypeHint:        *typeHint,
		Confidentiality: domain.ConfidentialityLevel(*confidentiality),
		Jurisdiction:    *jurisdiction,
		ClientID:        *clientID,
		Parties:         splitList(*parties),
	}
	opts := domain.AnalysisOptions{
		Mode:       domain.AnalysisMode(*mode),
		Frameworks: splitList(*frameworks),
	}

	doc, req, err := app.IngestUC.Ingest(ctx, meta, f, opts)
	if err != nil {
		log.Fatalf("ingest error: %v", err)
	}

	fmt.Printf("document %s queued for analysis %s\n", doc.ID, req.AnalysisID)
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
