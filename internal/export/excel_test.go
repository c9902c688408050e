package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/prehisle/ydms-sub001/internal/domain"
	"github.com/prehisle/ydms-sub001/internal/export"
)

func TestWriteReport(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC)
	finished := started.Add(time.Minute)
	record := &domain.BatchRecord{
		BatchID:            "batch-123",
		Kind:               domain.BatchKindWorkflow,
		WorkflowKey:        "gen-v2",
		RootTargetID:       "root",
		IncludeDescendants: true,
		Status:             domain.BatchStatusCompleted,
		Total:              2,
		SuccessCount:       1,
		FailedCount:        1,
		CreatedAt:          time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		StartedAt:          &started,
		FinishedAt:         &finished,
		Details: domain.BatchDetails{
			TargetResults: []domain.TargetResult{
				{TargetID: "n1", DisplayName: "Phones", DisplayPath: "/p/phones", Outcome: domain.OutcomeSuccess},
				{TargetID: "n2", DisplayName: "Laptops", DisplayPath: "/p/laptops", Outcome: domain.OutcomeFailed, Error: "run crashed"},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, export.WriteReport(&buf, record))
	require.NotZero(t, buf.Len())

	workbook, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer workbook.Close()

	const sheet = "Batch Report"
	assert.Contains(t, workbook.GetSheetList(), sheet)

	batchID, err := workbook.GetCellValue(sheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "batch-123", batchID)

	status, err := workbook.GetCellValue(sheet, "B4")
	require.NoError(t, err)
	assert.Equal(t, "completed", status)

	header, err := workbook.GetCellValue(sheet, "A10")
	require.NoError(t, err)
	assert.Equal(t, "Target ID", header)

	firstTarget, err := workbook.GetCellValue(sheet, "A11")
	require.NoError(t, err)
	assert.Equal(t, "n1", firstTarget)

	failure, err := workbook.GetCellValue(sheet, "E12")
	require.NoError(t, err)
	assert.Equal(t, "run crashed", failure)
}

func TestWriteReportNoResults(t *testing.T) {
	record := &domain.BatchRecord{
		BatchID:   "batch-empty",
		Kind:      domain.BatchKindSync,
		Status:    domain.BatchStatusFailed,
		CreatedAt: time.Now().UTC(),
	}

	var buf bytes.Buffer
	require.NoError(t, export.WriteReport(&buf, record))
	assert.NotZero(t, buf.Len())
}
