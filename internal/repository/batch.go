// Package repository provides durable Postgres storage for batch history.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/prehisle/ydms-sub001/internal/domain"
	"github.com/prehisle/ydms-sub001/internal/logger"
)

// BatchRepository persists BatchRecord snapshots. It implements the
// registry's Store interface; the in-memory registry stays authoritative
// at runtime and this repository carries the list/history contract across
// restarts.
type BatchRepository struct {
	db  *sql.DB
	log logger.Logger
}

// NewBatchRepository creates a batch repository.
func NewBatchRepository(db *sql.DB, log logger.Logger) *BatchRepository {
	return &BatchRepository{
		db:  db,
		log: log,
	}
}

const batchColumns = `
	batch_id, kind, workflow_key, root_target_id, include_descendants,
	concurrency, status, total, success_count, failed_count, skipped_count,
	error_message, created_at, started_at, finished_at, target_results
`

// Insert stores a freshly created batch record.
func (r *BatchRepository) Insert(ctx context.Context, record *domain.BatchRecord) error {
	resultsJSON, err := json.Marshal(record.Details.TargetResults)
	if err != nil {
		return fmt.Errorf("marshal target results: %w", err)
	}

	query := `
		INSERT INTO batches (` + batchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err = r.db.ExecContext(ctx, query,
		record.BatchID,
		record.Kind.String(),
		record.WorkflowKey,
		record.RootTargetID,
		record.IncludeDescendants,
		record.Concurrency,
		record.Status.String(),
		record.Total,
		record.SuccessCount,
		record.FailedCount,
		record.SkippedCount,
		record.ErrorMessage,
		record.CreatedAt,
		record.StartedAt,
		record.FinishedAt,
		resultsJSON,
	)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// Update overwrites the mutable columns of a batch row with the snapshot.
func (r *BatchRepository) Update(ctx context.Context, record *domain.BatchRecord) error {
	resultsJSON, err := json.Marshal(record.Details.TargetResults)
	if err != nil {
		return fmt.Errorf("marshal target results: %w", err)
	}

	query := `
		UPDATE batches
		SET status = $2, total = $3, success_count = $4, failed_count = $5,
		    skipped_count = $6, error_message = $7, started_at = $8,
		    finished_at = $9, target_results = $10
		WHERE batch_id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		record.BatchID,
		record.Status.String(),
		record.Total,
		record.SuccessCount,
		record.FailedCount,
		record.SkippedCount,
		record.ErrorMessage,
		record.StartedAt,
		record.FinishedAt,
		resultsJSON,
	)
	if err != nil {
		return fmt.Errorf("update batch: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrBatchNotFound
	}
	return nil
}

// GetByID loads one batch record.
func (r *BatchRepository) GetByID(ctx context.Context, batchID string) (*domain.BatchRecord, error) {
	query := `SELECT ` + batchColumns + ` FROM batches WHERE batch_id = $1`

	record, err := scanBatchRow(r.db.QueryRowContext(ctx, query, batchID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query batch: %w", err)
	}
	return record, nil
}

// ListFilter narrows a history listing.
type ListFilter struct {
	Kind        string
	WorkflowKey string
}

// List returns batches ordered by created_at descending.
func (r *BatchRepository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*domain.BatchRecord, error) {
	whereClause, args := buildListWhere(filter)
	limitPos := len(args) + 1
	offsetPos := len(args) + 2

	query := `SELECT ` + batchColumns + ` FROM batches WHERE 1=1` + whereClause +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", limitPos, offsetPos)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	records := make([]*domain.BatchRecord, 0)
	for rows.Next() {
		record, scanErr := scanBatchRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, record)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate batches: %w", rowsErr)
	}
	return records, nil
}

// Count returns the number of batches matching the filter.
func (r *BatchRepository) Count(ctx context.Context, filter ListFilter) (int, error) {
	whereClause, args := buildListWhere(filter)
	query := `SELECT COUNT(*) FROM batches WHERE 1=1` + whereClause

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count batches: %w", err)
	}
	return count, nil
}

// LoadAll returns every stored batch, newest first. Used to hydrate the
// in-memory registry at startup.
func (r *BatchRepository) LoadAll(ctx context.Context) ([]*domain.BatchRecord, error) {
	return r.List(ctx, ListFilter{}, 1<<31-1, 0)
}

// MarkInterrupted flips every non-terminal batch to failed. Batches left
// pending or running by a crash can never progress, because the pool that
// drove them died with the process.
func (r *BatchRepository) MarkInterrupted(ctx context.Context, message string) (int64, error) {
	query := `
		UPDATE batches
		SET status = $1, error_message = $2, finished_at = NOW()
		WHERE status IN ($3, $4)
	`

	result, err := r.db.ExecContext(ctx, query,
		domain.BatchStatusFailed.String(),
		message,
		domain.BatchStatusPending.String(),
		domain.BatchStatusRunning.String(),
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted batches: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return rowsAffected, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBatchRow(row rowScanner) (*domain.BatchRecord, error) {
	var record domain.BatchRecord
	var kind, status string
	var startedAt, finishedAt sql.NullTime
	var resultsJSON []byte

	if err := row.Scan(
		&record.BatchID,
		&kind,
		&record.WorkflowKey,
		&record.RootTargetID,
		&record.IncludeDescendants,
		&record.Concurrency,
		&status,
		&record.Total,
		&record.SuccessCount,
		&record.FailedCount,
		&record.SkippedCount,
		&record.ErrorMessage,
		&record.CreatedAt,
		&startedAt,
		&finishedAt,
		&resultsJSON,
	); err != nil {
		return nil, err
	}

	record.Kind = domain.BatchKind(kind)
	record.Status = domain.BatchStatus(status)
	if startedAt.Valid {
		t := startedAt.Time
		record.StartedAt = &t
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		record.FinishedAt = &t
	}
	if len(resultsJSON) > 0 {
		if err := json.Unmarshal(resultsJSON, &record.Details.TargetResults); err != nil {
			return nil, fmt.Errorf("unmarshal target results: %w", err)
		}
	}
	return &record, nil
}

func buildListWhere(filter ListFilter) (whereClause string, args []any) {
	var clauses []string
	args = make([]any, 0)
	pos := 1

	if filter.Kind != "" {
		clauses = append(clauses, fmt.Sprintf("kind = $%d", pos))
		args = append(args, filter.Kind)
		pos++
	}
	if filter.WorkflowKey != "" {
		clauses = append(clauses, fmt.Sprintf("workflow_key = $%d", pos))
		args = append(args, filter.WorkflowKey)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " AND " + strings.Join(clauses, " AND "), args
}
