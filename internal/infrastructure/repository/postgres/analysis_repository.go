package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lexops/legalintel/internal/core/domain"
)

// AnalysisRepository stores completed analysis results. Rows are
// insert-only: a result is immutable once returned by the orchestrator,
// and re-analysis produces a new row.
type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

func (r *AnalysisRepository) SaveResult(ctx context.Context, result *domain.AnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal analysis result: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO analysis_results (id, document_id, rule_set_version, aggregate_risk, payload, completed_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, result.ID, result.DocumentID, result.RuleSetVersion, string(result.AggregateRisk), payload, result.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert analysis result: %w", err)
	}
	return nil
}

func (r *AnalysisRepository) GetResult(ctx context.Context, id string) (*domain.AnalysisResult, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT payload FROM analysis_results WHERE id = $1
`, id)

	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrAnalysisNotFound, "get analysis result", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan analysis result: %w", err)
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("unmarshal analysis result: %w", err)
	}
	return &result, nil
}

func (r *AnalysisRepository) ListByDocument(ctx context.Context, documentID string) ([]domain.AnalysisResult, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT payload FROM analysis_results WHERE document_id = $1 ORDER BY completed_at DESC
`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query analysis results: %w", err)
	}
	defer rows.Close()

	var out []domain.AnalysisResult
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan analysis result: %w", err)
		}
		var result domain.AnalysisResult
		if err := json.Unmarshal(payload, &result); err != nil {
			return nil, fmt.Errorf("unmarshal analysis result: %w", err)
		}
		out = append(out, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analysis results: %w", err)
	}
	return out, nil
}
