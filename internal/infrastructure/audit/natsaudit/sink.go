package natsaudit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/lexops/legalintel/internal/core/domain"
)

// Sink publishes audit events to an append-only NATS subject consumed by
// the external audit log collaborator. Events are also mirrored to the
// structured log so a trail survives broker outages.
type Sink struct {
	conn    *nats.Conn
	subject string

	privilegeCapable bool
}

func New(conn *nats.Conn, subject string, privilegeCapable bool) *Sink {
	return &Sink{
		conn:             conn,
		subject:          subject,
		privilegeCapable: privilegeCapable,
	}
}

func (s *Sink) PrivilegeCapable() bool {
	return s.privilegeCapable
}

func (s *Sink) Record(_ context.Context, event domain.AuditEvent) error {
	if event.Privileged && !s.privilegeCapable {
		return domain.WrapError(
			domain.ErrPrivilegeBoundary,
			"audit record",
			errors.New("sink lacks privilege-capable flag"),
		)
	}

	// The log mirror never carries privileged detail; the broker subject
	// is the approved channel for it.
	detail := event.Detail
	if event.Privileged {
		detail = "[privileged]"
	}
	slog.Info("audit",
		"document_id", event.DocumentID,
		"analysis_id", event.AnalysisID,
		"stage", event.Stage,
		"outcome", event.Outcome,
		"detail", detail,
	)

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	if err := s.conn.Publish(s.subject, payload); err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}
