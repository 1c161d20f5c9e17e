package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hireproof/hireproof/internal/types"
)

// SaveResult stores a completed analysis result. The full report is kept as
// JSONB alongside the columns the listing endpoints filter and sort on.
// callerID is uuid.Nil for anonymous analyses.
func (db *DB) SaveResult(ctx context.Context, callerID uuid.UUID, result *types.AnalysisResult) error {
	report, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	var caller any
	if callerID != uuid.Nil {
		caller = callerID
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO analysis_results
		   (id, caller_id, source_url, fingerprint, authenticity_score,
		    confidence_level, recommendation, degraded, report, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO NOTHING`,
		result.ID, caller, result.SourceURL, result.Fingerprint,
		result.AuthenticityScore, string(result.ConfidenceLevel),
		string(result.Recommendation), result.Degraded, report, result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save result %s: %w", result.ID, err)
	}
	return nil
}

// GetResult retrieves a stored analysis report by ID. Returns nil, nil when
// no such result exists.
func (db *DB) GetResult(ctx context.Context, id uuid.UUID) (*types.AnalysisResult, error) {
	var report []byte
	err := db.pool.QueryRow(ctx,
		`SELECT report FROM analysis_results WHERE id = $1`,
		id,
	).Scan(&report)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	var result types.AnalysisResult
	if err := json.Unmarshal(report, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result %s: %w", id, err)
	}
	return &result, nil
}

// ListResultsByCaller retrieves recent analyses for one caller, newest first.
func (db *DB) ListResultsByCaller(ctx context.Context, callerID uuid.UUID, limit int) ([]types.ResultSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, source_url, authenticity_score, recommendation, confidence_level, degraded, created_at
		 FROM analysis_results WHERE caller_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		callerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var summaries []types.ResultSummary
	for rows.Next() {
		var s types.ResultSummary
		if err := rows.Scan(&s.ID, &s.SourceURL, &s.AuthenticityScore, &s.Recommendation,
			&s.ConfidenceLevel, &s.Degraded, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// DeleteResult removes a stored analysis. The boolean reports whether a
// result with that ID existed.
func (db *DB) DeleteResult(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := db.pool.Exec(ctx, `DELETE FROM analysis_results WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete result: %w", err)
	}
	return result.RowsAffected() > 0, nil
}
