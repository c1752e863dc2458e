package domain

import "time"

type AnalysisStage string

const (
	StageReceived           AnalysisStage = "received"
	StageExtracting         AnalysisStage = "extracting"
	StageClassifying        AnalysisStage = "classifying"
	StageScoring            AnalysisStage = "scoring"
	StageComplianceChecking AnalysisStage = "compliance_checking"
	StageCompleted          AnalysisStage = "completed"
	StageFailed             AnalysisStage = "failed"
)

type AnalysisMode string

const (
	ModeFullPipeline   AnalysisMode = "full_pipeline"
	ModeExtractOnly    AnalysisMode = "extract_only"
	ModeComplianceOnly AnalysisMode = "compliance_only"
)

// AnalysisOptions selects which stages run and which compliance
// frameworks are evaluated. An empty framework list means all loaded
// frameworks.
type AnalysisOptions struct {
	Mode       AnalysisMode `json:"mode"`
	Frameworks []string     `json:"frameworks,omitempty"`
}

// AnalysisRequest is the queue payload asking the worker to analyze a
// stored document.
type AnalysisRequest struct {
	AnalysisID  string          `json:"analysis_id"`
	DocumentID  string          `json:"document_id"`
	Options     AnalysisOptions `json:"options"`
	RequestedAt time.Time       `json:"requested_at"`
}

// StageFailure is the structured terminal failure of an analysis run.
type StageFailure struct {
	Stage  AnalysisStage `json:"stage"`
	Reason string        `json:"reason"`
}

// AnalysisResult is assembled exclusively by the orchestrator invocation
// that produced it and is immutable once returned. One document may
// accumulate many results over time; each is independently addressable.
type AnalysisResult struct {
	ID             string           `json:"id"`
	DocumentID     string           `json:"document_id"`
	Classification Classification   `json:"classification"`
	Spans          []ExtractedSpan  `json:"spans"`
	Clauses        []ClauseRecord   `json:"clauses"`
	Compliance     ComplianceReport `json:"compliance"`
	AggregateRisk  RiskLevel        `json:"aggregate_risk"`
	RuleSetVersion string           `json:"rule_set_version"`
	CompletedAt    time.Time        `json:"completed_at"`
}

type AuditOutcome string

const (
	AuditOK       AuditOutcome = "ok"
	AuditDenied   AuditOutcome = "denied"
	AuditFailed   AuditOutcome = "failed"
	AuditCanceled AuditOutcome = "canceled"
)

// AuditEvent records one stage transition or privilege-boundary check.
// Privileged marks events about ATTORNEY_CLIENT_PRIVILEGED documents;
// their Detail may carry protected content, so sinks must hold the
// privilege-capable flag to accept them.
type AuditEvent struct {
	Timestamp  time.Time     `json:"timestamp"`
	DocumentID string        `json:"document_id"`
	AnalysisID string        `json:"analysis_id"`
	Stage      AnalysisStage `json:"stage"`
	Outcome    AuditOutcome  `json:"outcome"`
	Detail     string        `json:"detail,omitempty"`
	Privileged bool          `json:"privileged,omitempty"`
}
