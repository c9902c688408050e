// Package export renders batch reports for the admin console.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/prehisle/ydms-sub001/internal/domain"
)

const (
	sheetName      = "Batch Report"
	summaryRows    = 8
	headerRowIndex = summaryRows + 2 // blank row between summary and table
	timeLayout     = time.RFC3339
)

var resultHeaders = []string{
	"Target ID", "Name", "Path", "Outcome", "Error", "Skip Reason", "Started At", "Finished At",
}

// WriteReport renders a batch record as an xlsx workbook: a summary block
// followed by one row per target result.
func WriteReport(w io.Writer, record *domain.BatchRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	if err := writeSummary(f, record); err != nil {
		return err
	}
	if err := writeResults(f, record); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, record *domain.BatchRecord) error {
	summary := [][]any{
		{"Batch ID", record.BatchID},
		{"Kind", record.Kind.String()},
		{"Root Target", record.RootTargetID},
		{"Status", record.Status.String()},
		{"Total", record.Total},
		{"Success / Failed / Skipped", fmt.Sprintf("%d / %d / %d",
			record.SuccessCount, record.FailedCount, record.SkippedCount)},
		{"Progress", fmt.Sprintf("%.1f%%", record.Progress())},
		{"Created At", record.CreatedAt.Format(timeLayout)},
	}

	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("summary cell: %w", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	return nil
}

func writeResults(f *excelize.File, record *domain.BatchRecord) error {
	headerCell, err := excelize.CoordinatesToCellName(1, headerRowIndex)
	if err != nil {
		return fmt.Errorf("header cell: %w", err)
	}
	headers := make([]any, len(resultHeaders))
	for i, h := range resultHeaders {
		headers[i] = h
	}
	if err := f.SetSheetRow(sheetName, headerCell, &headers); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}

	for i, result := range record.Details.TargetResults {
		cell, cellErr := excelize.CoordinatesToCellName(1, headerRowIndex+1+i)
		if cellErr != nil {
			return fmt.Errorf("result cell: %w", cellErr)
		}
		row := []any{
			result.TargetID,
			result.DisplayName,
			result.DisplayPath,
			result.Outcome.String(),
			result.Error,
			result.SkipReason,
			formatTime(result.StartedAt),
			formatTime(result.FinishedAt),
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write result row: %w", err)
		}
	}
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(timeLayout)
}
