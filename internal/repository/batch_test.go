package repository_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prehisle/ydms-sub001/internal/domain"
	"github.com/prehisle/ydms-sub001/internal/repository"
	"github.com/prehisle/ydms-sub001/internal/testhelpers"
)

var batchRowColumns = []string{
	"batch_id", "kind", "workflow_key", "root_target_id", "include_descendants",
	"concurrency", "status", "total", "success_count", "failed_count", "skipped_count",
	"error_message", "created_at", "started_at", "finished_at", "target_results",
}

func sampleRecord() *domain.BatchRecord {
	started := time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC)
	return &domain.BatchRecord{
		BatchID:            "7f9c1a2e-0000-4000-8000-000000000001",
		Kind:               domain.BatchKindWorkflow,
		WorkflowKey:        "gen-v2",
		RootTargetID:       "root",
		IncludeDescendants: true,
		Concurrency:        3,
		Status:             domain.BatchStatusRunning,
		Total:              5,
		SuccessCount:       2,
		CreatedAt:          time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		StartedAt:          &started,
		Details: domain.BatchDetails{
			TargetResults: []domain.TargetResult{
				{TargetID: "n1", Outcome: domain.OutcomeSuccess},
				{TargetID: "n2", Outcome: domain.OutcomeSuccess},
			},
		},
	}
}

func recordRow(t *testing.T, record *domain.BatchRecord) *sqlmock.Rows {
	t.Helper()
	resultsJSON, err := json.Marshal(record.Details.TargetResults)
	require.NoError(t, err)

	var startedAt, finishedAt any
	if record.StartedAt != nil {
		startedAt = *record.StartedAt
	}
	if record.FinishedAt != nil {
		finishedAt = *record.FinishedAt
	}

	return sqlmock.NewRows(batchRowColumns).AddRow(
		record.BatchID, record.Kind.String(), record.WorkflowKey,
		record.RootTargetID, record.IncludeDescendants, record.Concurrency,
		record.Status.String(), record.Total, record.SuccessCount,
		record.FailedCount, record.SkippedCount, record.ErrorMessage,
		record.CreatedAt, startedAt, finishedAt, resultsJSON,
	)
}

func TestBatchRepositoryInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewBatchRepository(db, testhelpers.NewTestLogger())
	record := sampleRecord()

	mock.ExpectExec("INSERT INTO batches").
		WithArgs(
			record.BatchID, record.Kind.String(), record.WorkflowKey,
			record.RootTargetID, record.IncludeDescendants, record.Concurrency,
			record.Status.String(), record.Total, record.SuccessCount,
			record.FailedCount, record.SkippedCount, record.ErrorMessage,
			record.CreatedAt, record.StartedAt, record.FinishedAt,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), record))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositoryUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewBatchRepository(db, testhelpers.NewTestLogger())
	record := sampleRecord()

	mock.ExpectExec("UPDATE batches").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), record))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositoryUpdateNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewBatchRepository(db, testhelpers.NewTestLogger())

	mock.ExpectExec("UPDATE batches").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Update(context.Background(), sampleRecord())
	assert.ErrorIs(t, err, domain.ErrBatchNotFound)
}

func TestBatchRepositoryGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewBatchRepository(db, testhelpers.NewTestLogger())
	record := sampleRecord()

	mock.ExpectQuery("(?s)SELECT (.+) FROM batches WHERE batch_id").
		WithArgs(record.BatchID).
		WillReturnRows(recordRow(t, record))

	got, err := repo.GetByID(context.Background(), record.BatchID)
	require.NoError(t, err)
	assert.Equal(t, record.BatchID, got.BatchID)
	assert.Equal(t, domain.BatchKindWorkflow, got.Kind)
	assert.Equal(t, domain.BatchStatusRunning, got.Status)
	require.NotNil(t, got.StartedAt)
	assert.Nil(t, got.FinishedAt)
	assert.Len(t, got.Details.TargetResults, 2)
}

func TestBatchRepositoryGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewBatchRepository(db, testhelpers.NewTestLogger())

	mock.ExpectQuery("(?s)SELECT (.+) FROM batches WHERE batch_id").
		WithArgs("unknown").
		WillReturnRows(sqlmock.NewRows(batchRowColumns))

	_, err = repo.GetByID(context.Background(), "unknown")
	assert.ErrorIs(t, err, domain.ErrBatchNotFound)
}

func TestBatchRepositoryList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewBatchRepository(db, testhelpers.NewTestLogger())
	record := sampleRecord()

	mock.ExpectQuery("(?s)SELECT (.+) FROM batches WHERE 1=1 AND kind = (.+) ORDER BY created_at DESC").
		WithArgs("workflow", 10, 0).
		WillReturnRows(recordRow(t, record))

	records, err := repo.List(context.Background(), repository.ListFilter{Kind: "workflow"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, record.BatchID, records[0].BatchID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositoryCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewBatchRepository(db, testhelpers.NewTestLogger())

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM batches WHERE 1=1 AND workflow_key").
		WithArgs("gen-v2").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	count, err := repo.Count(context.Background(), repository.ListFilter{WorkflowKey: "gen-v2"})
	require.NoError(t, err)
	assert.Equal(t, 12, count)
}

func TestBatchRepositoryMarkInterrupted(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewBatchRepository(db, testhelpers.NewTestLogger())

	mock.ExpectExec("UPDATE batches").
		WithArgs("failed", "interrupted by service restart", "pending", "running").
		WillReturnResult(sqlmock.NewResult(0, 3))

	affected, err := repo.MarkInterrupted(context.Background(), "interrupted by service restart")
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}
