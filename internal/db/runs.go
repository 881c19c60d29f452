package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Check run modes.
const (
	ModeFull    = "full"
	ModePartial = "partial"
)

// CheckRun is the audit record of one check run.
type CheckRun struct {
	ID         uuid.UUID `json:"id"`
	DocumentID int       `json:"document_id"`
	Culture    string    `json:"culture"`
	Mode       string    `json:"mode"`
	FromSave   bool      `json:"from_save"`
	Failed     bool      `json:"failed"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// RecordRun stores the outcome of a check run.
func (db *DB) RecordRun(ctx context.Context, run CheckRun) error {
	if run.Mode == "" {
		run.Mode = ModeFull
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO check_runs (id, document_id, culture, mode, from_save, failed, message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, run.DocumentID, run.Culture, run.Mode, run.FromSave, run.Failed, run.Message,
	)
	if err != nil {
		return fmt.Errorf("failed to record check run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns the most recent runs of a document, newest first.
func (db *DB) ListRuns(ctx context.Context, documentID, limit int) ([]CheckRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, document_id, culture, mode, from_save, failed, message, created_at
		 FROM check_runs
		 WHERE document_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		documentID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list check runs: %w", err)
	}
	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (CheckRun, error) {
		var r CheckRun
		err := row.Scan(&r.ID, &r.DocumentID, &r.Culture, &r.Mode, &r.FromSave, &r.Failed, &r.Message, &r.CreatedAt)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan check runs: %w", err)
	}
	return runs, nil
}
