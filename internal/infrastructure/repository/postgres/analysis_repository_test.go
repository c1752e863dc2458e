package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/lexops/legalintel/internal/core/domain"
)

func newAnalysisRepoWithMock(t *testing.T) (*AnalysisRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &AnalysisRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestSaveResultInserts(t *testing.T) {
	repo, mock, done := newAnalysisRepoWithMock(t)
	defer done()

	result := &domain.AnalysisResult{
		ID:             "run-1",
		DocumentID:     "doc-1",
		RuleSetVersion: "2026.08",
		AggregateRisk:  domain.RiskHigh,
		CompletedAt:    time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO analysis_results").
		WithArgs("run-1", "doc-1", "2026.08", "high", sqlmock.AnyArg(), result.CompletedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SaveResult(context.Background(), result); err != nil {
		t.Fatalf("SaveResult() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetResultReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newAnalysisRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT payload FROM analysis_results").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetResult(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrAnalysisNotFound) {
		t.Fatalf("expected ErrAnalysisNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetResultUnmarshalsPayload(t *testing.T) {
	repo, mock, done := newAnalysisRepoWithMock(t)
	defer done()

	stored := domain.AnalysisResult{
		ID:            "run-1",
		DocumentID:    "doc-1",
		AggregateRisk: domain.RiskMedium,
	}
	payload, err := json.Marshal(stored)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	mock.ExpectQuery("SELECT payload FROM analysis_results").
		WithArgs("run-1").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(payload))

	result, err := repo.GetResult(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("GetResult() error = %v", err)
	}
	if result.ID != "run-1" || result.AggregateRisk != domain.RiskMedium {
		t.Fatalf("unexpected result: %+v", result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListByDocumentReturnsAllRuns(t *testing.T) {
	repo, mock, done := newAnalysisRepoWithMock(t)
	defer done()

	first, _ := json.Marshal(domain.AnalysisResult{ID: "run-2", DocumentID: "doc-1"})
	second, _ := json.Marshal(domain.AnalysisResult{ID: "run-1", DocumentID: "doc-1"})

	mock.ExpectQuery("SELECT payload FROM analysis_results WHERE document_id").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(first).AddRow(second))

	results, err := repo.ListByDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("ListByDocument() error = %v", err)
	}
	if len(results) != 2 || results[0].ID != "run-2" {
		t.Fatalf("unexpected results: %+v", results)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
