package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrAnalysisNotFound = errors.New("analysis not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTemporary        = errors.New("temporary failure")

	// ErrExtraction covers an unreachable language model or malformed
	// model output. Retried with backoff, then surfaced; never skipped.
	ErrExtraction = errors.New("extraction failure")

	// ErrGraphAmbiguous means resolution produced multiple candidates.
	// Surfaced to the caller; never auto-resolved for privileged content.
	ErrGraphAmbiguous = errors.New("graph resolution ambiguous")

	// ErrRuleEvaluation marks a malformed compliance rule. The rule is
	// skipped and flagged; the remaining rules still run.
	ErrRuleEvaluation = errors.New("compliance rule evaluation error")

	// ErrPrivilegeBoundary means a stage attempted to delegate privileged
	// content to a collaborator without the privilege-capable flag.
	// Fatal for the whole analysis, always audited.
	ErrPrivilegeBoundary = errors.New("privilege boundary violation")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
