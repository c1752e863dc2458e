package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lexops/legalintel/internal/core/domain"
	"github.com/lexops/legalintel/internal/core/ports"
)

const (
	defaultExtractRetries = 2
	defaultExtractBackoff = 500 * time.Millisecond
)

type AnalyzeConfig struct {
	ConfidenceFloor float64
	ExtractRetries  int
	ExtractBackoff  time.Duration
}

func (c AnalyzeConfig) normalize() AnalyzeConfig {
	if c.ConfidenceFloor <= 0 {
		c.ConfidenceFloor = DefaultConfidenceFloor
	}
	if c.ExtractRetries < 0 {
		c.ExtractRetries = defaultExtractRetries
	}
	if c.ExtractBackoff <= 0 {
		c.ExtractBackoff = defaultExtractBackoff
	}
	return c
}

// AnalyzeDocumentUseCase sequences the pipeline stages for one document
// and is the only component aware of cross-cutting concerns: privilege
// gating, audit logging, and cancellation at stage boundaries.
type AnalyzeDocumentUseCase struct {
	repo      ports.DocumentRepository
	results   ports.AnalysisRepository
	decoder   ports.TextDecoder
	extractor ports.SpanExtractor
	classify  *ClassifyStage
	graph     ports.KnowledgeGraph
	rules     ports.RuleSource
	audit     ports.AuditSink
	matcher   *GapMatcher
	cfg       AnalyzeConfig
}

func NewAnalyzeDocumentUseCase(
	repo ports.DocumentRepository,
	results ports.AnalysisRepository,
	decoder ports.TextDecoder,
	extractor ports.SpanExtractor,
	classify *ClassifyStage,
	graph ports.KnowledgeGraph,
	rules ports.RuleSource,
	audit ports.AuditSink,
	cfg AnalyzeConfig,
) *AnalyzeDocumentUseCase {
	return &AnalyzeDocumentUseCase{
		repo:      repo,
		results:   results,
		decoder:   decoder,
		extractor: extractor,
		classify:  classify,
		graph:     graph,
		rules:     rules,
		audit:     audit,
		matcher:   NewGapMatcher(),
		cfg:       cfg.normalize(),
	}
}

type analysisRun struct {
	req   domain.AnalysisRequest
	doc   *domain.Document
	scope domain.AccessScope

	spans   []domain.ExtractedSpan
	cls     domain.Classification
	clauses []domain.ClauseRecord
	report  domain.ComplianceReport
	risk    domain.RiskLevel
	ruleSet *domain.RuleSet
}

// Analyze walks Received → Extracting → Classifying → Scoring →
// ComplianceChecking → Completed. Any failure halts the document: no
// partial AnalysisResult is ever persisted.
func (uc *AnalyzeDocumentUseCase) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	doc, err := uc.repo.GetByID(ctx, req.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	run := &analysisRun{
		req: req,
		doc: doc,
		scope: domain.AccessScope{
			Ceiling:  doc.Confidentiality,
			ClientID: doc.ClientID,
		},
	}
	if run.req.AnalysisID == "" {
		run.req.AnalysisID = uuid.NewString()
	}

	uc.auditEvent(ctx, run, domain.StageReceived, domain.AuditOK, string(req.Options.Mode))
	if err := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusAnalyzing, "", ""); err != nil {
		return nil, fmt.Errorf("mark analyzing: %w", err)
	}

	for _, stage := range stagePlan(req.Options.Mode) {
		if err := uc.runStage(ctx, run, stage); err != nil {
			return nil, err
		}
	}

	result, err := uc.complete(ctx, run)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func stagePlan(mode domain.AnalysisMode) []domain.AnalysisStage {
	switch mode {
	case domain.ModeExtractOnly:
		return []domain.AnalysisStage{domain.StageExtracting}
	case domain.ModeComplianceOnly:
		return []domain.AnalysisStage{domain.StageExtracting, domain.StageComplianceChecking}
	default:
		return []domain.AnalysisStage{
			domain.StageExtracting,
			domain.StageClassifying,
			domain.StageScoring,
			domain.StageComplianceChecking,
		}
	}
}

func (uc *AnalyzeDocumentUseCase) runStage(ctx context.Context, run *analysisRun, stage domain.AnalysisStage) error {
	if err := uc.enterStage(ctx, run, stage); err != nil {
		return err
	}

	var err error
	switch stage {
	case domain.StageExtracting:
		err = uc.stageExtract(ctx, run)
	case domain.StageClassifying:
		err = uc.stageClassify(ctx, run)
	case domain.StageScoring:
		err = uc.stageScore(ctx, run)
	case domain.StageComplianceChecking:
		err = uc.stageCompliance(ctx, run)
	default:
		err = fmt.Errorf("unknown stage %s", stage)
	}
	if err != nil {
		return uc.fail(ctx, run, stage, err)
	}

	// Stage bodies are not interruptible mid-computation; cancellation
	// is honored here, attributed to the stage that was running.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return uc.fail(ctx, run, stage, ctxErr)
	}
	return nil
}

// enterStage is the privilege boundary: privileged content may only be
// delegated to collaborators carrying the privilege-capable flag. The
// check lives here, not in the sub-components.
func (uc *AnalyzeDocumentUseCase) enterStage(ctx context.Context, run *analysisRun, stage domain.AnalysisStage) error {
	if err := ctx.Err(); err != nil {
		return uc.fail(ctx, run, stage, err)
	}

	if run.doc.Confidentiality.Privileged() {
		for _, collab := range uc.stageCollaborators(stage) {
			if !collab.PrivilegeCapable() {
				violation := domain.WrapError(
					domain.ErrPrivilegeBoundary,
					string(stage),
					errors.New("collaborator lacks privilege-capable flag"),
				)
				uc.auditEvent(ctx, run, stage, domain.AuditDenied, violation.Error())
				if err := uc.repo.UpdateStatus(ctx, run.doc.ID, domain.StatusFailed, string(stage), violation.Error()); err != nil {
					slog.Error("mark failed after privilege denial", "document_id", run.doc.ID, "error", err)
				}
				return violation
			}
		}
	}

	uc.auditEvent(ctx, run, stage, domain.AuditOK, "")
	return nil
}

// stageCollaborators lists every collaborator a stage delegates
// privileged content to. The audit sink sees every stage's detail, so it
// is gated on all of them.
func (uc *AnalyzeDocumentUseCase) stageCollaborators(stage domain.AnalysisStage) []ports.PrivilegeAware {
	collabs := []ports.PrivilegeAware{uc.audit}
	switch stage {
	case domain.StageExtracting:
		collabs = append(collabs, uc.extractor)
	case domain.StageClassifying:
		collabs = append(collabs, uc.classify.classifier)
	case domain.StageScoring:
		collabs = append(collabs, uc.graph)
	}
	return collabs
}

func (uc *AnalyzeDocumentUseCase) stageExtract(ctx context.Context, run *analysisRun) error {
	text, err := uc.decoder.Decode(ctx, run.doc)
	if err != nil {
		return fmt.Errorf("decode document text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "decode document text", errors.New("empty decoded text"))
	}

	spans, err := uc.extractWithRetry(ctx, run.doc, text)
	if err != nil {
		return err
	}
	run.spans = NormalizeSpans(run.doc, spans, uc.cfg.ConfidenceFloor)
	return nil
}

// extractWithRetry retries transient extraction failures with backoff up
// to the configured bound, then surfaces the failure. A silently missing
// clause is a correctness hazard, so extraction is never skipped.
func (uc *AnalyzeDocumentUseCase) extractWithRetry(ctx context.Context, doc *domain.Document, text string) ([]domain.ExtractedSpan, error) {
	backoff := uc.cfg.ExtractBackoff
	var lastErr error

	for attempt := 0; attempt <= uc.cfg.ExtractRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		spans, err := uc.extractor.ExtractSpans(ctx, doc, text)
		if err == nil {
			return spans, nil
		}
		lastErr = err
		// The parent context decides whether this is caller cancellation;
		// a per-call timeout inside the extractor is a model failure and
		// stays retryable.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if attempt == uc.cfg.ExtractRetries {
			break
		}
		slog.Warn("extraction retry",
			"document_id", doc.ID,
			"attempt", attempt+1,
			"max_retries", uc.cfg.ExtractRetries,
			"error", err,
		)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}

	return nil, domain.WrapError(domain.ErrExtraction, "extract spans", lastErr)
}

func (uc *AnalyzeDocumentUseCase) stageClassify(ctx context.Context, run *analysisRun) error {
	cls, err := uc.classify.Classify(ctx, run.doc, run.spans)
	if err != nil {
		return fmt.Errorf("classify document: %w", err)
	}
	run.cls = cls
	if err := uc.repo.SaveClassification(ctx, run.doc.ID, cls); err != nil {
		return fmt.Errorf("save classification: %w", err)
	}
	return nil
}

func (uc *AnalyzeDocumentUseCase) stageScore(ctx context.Context, run *analysisRun) error {
	rules, err := uc.ruleSet(ctx, run)
	if err != nil {
		return err
	}

	if err := uc.updateGraph(ctx, run); err != nil {
		return fmt.Errorf("update knowledge graph: %w", err)
	}

	engine := NewRiskEngine(rules)
	clauseSpans := ClauseSpans(run.spans)
	clauses := make([]domain.ClauseRecord, 0, len(clauseSpans))
	for _, clause := range clauseSpans {
		graphCtx, err := uc.graphContextFor(ctx, run, clause)
		if err != nil {
			return fmt.Errorf("graph context for clause: %w", err)
		}
		clauses = append(clauses, engine.ScoreClause(clause, graphCtx))
	}
	clauses = append(clauses, engine.MissingClauseFindings(clauses)...)

	run.clauses = clauses
	run.risk = engine.Aggregate(clauses)
	return nil
}

func (uc *AnalyzeDocumentUseCase) stageCompliance(ctx context.Context, run *analysisRun) error {
	rules, err := uc.ruleSet(ctx, run)
	if err != nil {
		return err
	}

	clauses := run.clauses
	if clauses == nil {
		// compliance-only runs skip scoring; presence checks still need
		// the clause kinds.
		for _, span := range ClauseSpans(run.spans) {
			clauses = append(clauses, domain.ClauseRecord{Span: span, Kind: span.ClauseKind})
		}
	}

	run.report = uc.matcher.Check(ctx, clauses, run.spans, rules, run.req.Options.Frameworks)
	return nil
}

// ruleSet loads the versioned rule set once per run; the loaded version
// is immutable for the remainder of the analysis.
func (uc *AnalyzeDocumentUseCase) ruleSet(ctx context.Context, run *analysisRun) (*domain.RuleSet, error) {
	if run.ruleSet != nil {
		return run.ruleSet, nil
	}
	rules, err := uc.rules.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rule set: %w", err)
	}
	run.ruleSet = rules
	return rules, nil
}

// updateGraph records the document's parties and cited authorities as a
// side effect of extraction and classification output. Authority nodes
// are content-addressed public law; party and agreement nodes inherit
// the document's confidentiality and client scope.
func (uc *AnalyzeDocumentUseCase) updateGraph(ctx context.Context, run *analysisRun) error {
	doc := run.doc

	agreement := domain.GraphNode{
		ID:              doc.ID,
		Kind:            domain.NodeAgreement,
		Name:            doc.Filename,
		Jurisdiction:    doc.Jurisdiction,
		Confidentiality: doc.Confidentiality,
		ClientID:        doc.ClientID,
	}
	if _, err := uc.graph.UpsertNode(ctx, agreement); err != nil {
		return fmt.Errorf("upsert agreement node: %w", err)
	}

	for _, span := range PreferredSpans(run.spans) {
		switch span.Kind {
		case domain.SpanParty:
			partyID, err := uc.partyNodeID(ctx, run, span)
			if err != nil {
				return err
			}
			if err := uc.graph.AddRelationship(ctx, partyID, domain.RelPartyTo, doc.ID); err != nil {
				return fmt.Errorf("add party relationship: %w", err)
			}
		case domain.SpanCitation:
			authorityID, err := uc.upsertAuthority(ctx, run, span)
			if err != nil {
				return err
			}
			if err := uc.graph.AddRelationship(ctx, doc.ID, domain.RelCites, authorityID); err != nil {
				return fmt.Errorf("add citation relationship: %w", err)
			}
		}
	}
	return nil
}

// partyNodeID resolves a party mention against the graph. Exactly one
// strong candidate is reused; ambiguity is never auto-resolved. A fresh
// client-scoped node is allocated and the ambiguity is audited.
func (uc *AnalyzeDocumentUseCase) partyNodeID(ctx context.Context, run *analysisRun, span domain.ExtractedSpan) (string, error) {
	name := span.Normalized
	if name == "" {
		name = span.Text
	}
	mention := domain.Mention{Name: name, Jurisdiction: run.doc.Jurisdiction, Kind: domain.NodeParty}

	candidates, err := uc.graph.Resolve(ctx, run.scope, mention)
	if err != nil {
		return "", fmt.Errorf("resolve party mention: %w", err)
	}

	if len(candidates) == 1 && candidates[0].Score >= 0.9 {
		return candidates[0].NodeID, nil
	}
	if len(candidates) > 1 {
		ambiguity := domain.WrapError(domain.ErrGraphAmbiguous, "resolve party", fmt.Errorf("%d candidates for %q", len(candidates), name))
		uc.auditEvent(ctx, run, domain.StageScoring, domain.AuditOK, ambiguity.Error())
	}

	node := domain.GraphNode{
		ID:              uuid.NewString(),
		Kind:            domain.NodeParty,
		Name:            name,
		Jurisdiction:    run.doc.Jurisdiction,
		Confidentiality: run.doc.Confidentiality,
		ClientID:        run.doc.ClientID,
	}
	id, err := uc.graph.UpsertNode(ctx, node)
	if err != nil {
		return "", fmt.Errorf("upsert party node: %w", err)
	}
	return id, nil
}

func (uc *AnalyzeDocumentUseCase) upsertAuthority(ctx context.Context, run *analysisRun, span domain.ExtractedSpan) (string, error) {
	kind, name := authorityFromSpan(span)
	node := domain.GraphNode{
		ID:              domain.ContentAddress(kind, name, run.doc.Jurisdiction),
		Kind:            kind,
		Name:            name,
		Jurisdiction:    run.doc.Jurisdiction,
		Confidentiality: domain.ConfidentialityPublic,
	}
	id, err := uc.graph.UpsertNode(ctx, node)
	if err != nil {
		return "", fmt.Errorf("upsert authority node: %w", err)
	}
	return id, nil
}

// authorityFromSpan splits the extractor's normalized citation value,
// which uses a "statute:" or "case:" prefix; unprefixed citations are
// treated as case law.
func authorityFromSpan(span domain.ExtractedSpan) (domain.NodeKind, string) {
	normalized := span.Normalized
	if normalized == "" {
		normalized = span.Text
	}
	if rest, ok := strings.CutPrefix(normalized, "statute:"); ok {
		return domain.NodeStatute, rest
	}
	if rest, ok := strings.CutPrefix(normalized, "case:"); ok {
		return domain.NodeCase, rest
	}
	return domain.NodeCase, normalized
}

func (uc *AnalyzeDocumentUseCase) graphContextFor(ctx context.Context, run *analysisRun, clause domain.ExtractedSpan) (GraphContext, error) {
	var graphCtx GraphContext
	for _, span := range PreferredSpans(run.spans) {
		if span.Kind != domain.SpanCitation {
			continue
		}
		if span.Start < clause.Start || span.End > clause.End {
			continue
		}
		kind, name := authorityFromSpan(span)
		authorityID := domain.ContentAddress(kind, name, run.doc.Jurisdiction)
		superseding, err := uc.graph.Neighbors(ctx, run.scope, authorityID, domain.RelSupersededBy)
		if err != nil {
			return GraphContext{}, err
		}
		if len(superseding) > 0 {
			graphCtx.SupersededAuthorities = append(graphCtx.SupersededAuthorities, authorityID)
		}
	}
	return graphCtx, nil
}

func (uc *AnalyzeDocumentUseCase) complete(ctx context.Context, run *analysisRun) (*domain.AnalysisResult, error) {
	result := &domain.AnalysisResult{
		ID:             run.req.AnalysisID,
		DocumentID:     run.doc.ID,
		Classification: run.cls,
		Spans:          run.spans,
		Clauses:        run.clauses,
		Compliance:     run.report,
		AggregateRisk:  run.risk,
		CompletedAt:    time.Now().UTC(),
	}
	if run.risk == "" {
		result.AggregateRisk = domain.RiskLow
	}
	if run.ruleSet != nil {
		result.RuleSetVersion = run.ruleSet.Version
	}

	if err := uc.results.SaveResult(ctx, result); err != nil {
		return nil, uc.fail(ctx, run, domain.StageCompleted, fmt.Errorf("save analysis result: %w", err))
	}
	if err := uc.repo.UpdateStatus(ctx, run.doc.ID, domain.StatusCompleted, "", ""); err != nil {
		return nil, fmt.Errorf("mark completed: %w", err)
	}

	uc.auditEvent(ctx, run, domain.StageCompleted, domain.AuditOK, string(result.AggregateRisk))
	return result, nil
}

// fail records the terminal Failed(stage, reason) state. The analysis
// produces no result; partial output must never inform legal decisions.
func (uc *AnalyzeDocumentUseCase) fail(ctx context.Context, run *analysisRun, stage domain.AnalysisStage, cause error) error {
	reason := cause.Error()
	outcome := domain.AuditFailed
	// Only the caller's own context marks a run cancelled; an expired
	// per-call deadline from a collaborator is an ordinary failure.
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(cause, ctxErr) {
		reason = "cancelled"
		outcome = domain.AuditCanceled
	}

	uc.auditEvent(ctx, run, stage, outcome, reason)
	if err := uc.repo.UpdateStatus(context.WithoutCancel(ctx), run.doc.ID, domain.StatusFailed, string(stage), reason); err != nil {
		slog.Error("mark failed status", "document_id", run.doc.ID, "stage", stage, "error", err)
	}
	return fmt.Errorf("stage %s: %w", stage, cause)
}

func (uc *AnalyzeDocumentUseCase) auditEvent(ctx context.Context, run *analysisRun, stage domain.AnalysisStage, outcome domain.AuditOutcome, detail string) {
	event := domain.AuditEvent{
		Timestamp:  time.Now().UTC(),
		DocumentID: run.doc.ID,
		AnalysisID: run.req.AnalysisID,
		Stage:      stage,
		Outcome:    outcome,
		Detail:     detail,
		Privileged: run.doc.Confidentiality.Privileged(),
	}
	if err := uc.audit.Record(context.WithoutCancel(ctx), event); err != nil {
		slog.Error("audit record", "document_id", run.doc.ID, "stage", stage, "error", err)
	}
}
