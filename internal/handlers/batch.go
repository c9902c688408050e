// Package handlers implements the HTTP handlers of the admin backend.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prehisle/ydms-sub001/internal/batch"
	"github.com/prehisle/ydms-sub001/internal/domain"
	"github.com/prehisle/ydms-sub001/internal/export"
	"github.com/prehisle/ydms-sub001/internal/logger"
)

const (
	defaultLimit  = 50
	maxLimit      = 200
	defaultOffset = 0

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// PreviewService is the synchronous, side-effect-free dry run.
type PreviewService interface {
	Preview(ctx context.Context, kind domain.BatchKind, rootID string, includeDescendants bool, policy domain.SkipPolicy) (*domain.PreviewResult, error)
}

// ExecuteService submits and cancels batches.
type ExecuteService interface {
	Execute(ctx context.Context, req batch.ExecuteRequest) (string, error)
	Cancel(batchID string) error
}

// BatchReader reads batch state for the status-query contract.
type BatchReader interface {
	Get(batchID string) (*domain.BatchRecord, error)
	List(filter batch.ListFilter, limit, offset int) ([]*domain.BatchRecord, int)
}

// BatchHandler handles batch orchestration HTTP requests.
type BatchHandler struct {
	previewer  PreviewService
	executor   ExecuteService
	reader     BatchReader
	staleAfter time.Duration
	log        logger.Logger
}

// NewBatchHandler creates a batch handler. staleAfter flags running batches
// the operator should look at; zero disables the flag.
func NewBatchHandler(previewer PreviewService, executor ExecuteService, reader BatchReader, staleAfter time.Duration, log logger.Logger) *BatchHandler {
	return &BatchHandler{
		previewer:  previewer,
		executor:   executor,
		reader:     reader,
		staleAfter: staleAfter,
		log:        log,
	}
}

type previewRequest struct {
	IncludeDescendants bool     `json:"include_descendants"`
	SkipNoSource       bool     `json:"skip_no_source"`
	SkipNoOutput       bool     `json:"skip_no_output"`
	SkipNameContains   []string `json:"skip_name_contains"`
	SkipDocTypes       []string `json:"skip_doc_types"`
}

func (r *previewRequest) policy() domain.SkipPolicy {
	return domain.SkipPolicy{
		SkipNoSource:     r.SkipNoSource,
		SkipNoOutput:     r.SkipNoOutput,
		SkipNameContains: r.SkipNameContains,
		SkipDocTypes:     r.SkipDocTypes,
	}
}

type executeRequest struct {
	previewRequest
	Concurrency int               `json:"concurrency"`
	WorkflowKey string            `json:"workflow_key"`
	SyncOptions map[string]string `json:"sync_options"`
}

// batchView decorates a record with its derived progress and staleness.
type batchView struct {
	*domain.BatchRecord
	Progress float64 `json:"progress"`
	Stale    bool    `json:"stale"`
}

func (h *BatchHandler) newBatchView(record *domain.BatchRecord) batchView {
	stale := h.staleAfter > 0 &&
		record.Status == domain.BatchStatusRunning &&
		record.StartedAt != nil &&
		time.Since(*record.StartedAt) > h.staleAfter
	return batchView{
		BatchRecord: record,
		Progress:    record.Progress(),
		Stale:       stale,
	}
}

// PreviewWorkflow handles POST /api/v1/nodes/:id/workflow-batches/preview.
func (h *BatchHandler) PreviewWorkflow(c *gin.Context) {
	h.preview(c, domain.BatchKindWorkflow)
}

// PreviewSync handles POST /api/v1/nodes/:id/sync-batches/preview.
func (h *BatchHandler) PreviewSync(c *gin.Context) {
	h.preview(c, domain.BatchKindSync)
}

func (h *BatchHandler) preview(c *gin.Context, kind domain.BatchKind) {
	rootID := c.Param("id")

	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	result, err := h.previewer.Preview(c.Request.Context(), kind, rootID, req.IncludeDescendants, req.policy())
	if err != nil {
		h.renderEnumerationError(c, rootID, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExecuteWorkflow handles POST /api/v1/nodes/:id/workflow-batches.
func (h *BatchHandler) ExecuteWorkflow(c *gin.Context) {
	h.execute(c, domain.BatchKindWorkflow)
}

// ExecuteSync handles POST /api/v1/nodes/:id/sync-batches.
func (h *BatchHandler) ExecuteSync(c *gin.Context) {
	h.execute(c, domain.BatchKindSync)
}

func (h *BatchHandler) execute(c *gin.Context, kind domain.BatchKind) {
	rootID := c.Param("id")

	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	batchID, err := h.executor.Execute(c.Request.Context(), batch.ExecuteRequest{
		Kind:               kind,
		RootTargetID:       rootID,
		IncludeDescendants: req.IncludeDescendants,
		Policy:             req.policy(),
		Concurrency:        req.Concurrency,
		WorkflowKey:        req.WorkflowKey,
		SyncOptions:        req.SyncOptions,
	})
	if err != nil {
		if domain.IsValidation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("Failed to submit batch",
			logger.String("kind", kind.String()),
			logger.String("root_target_id", rootID),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit batch"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"batch_id": batchID,
		"kind":     kind,
	})
}

// GetBatch handles GET /api/v1/batches/:id.
func (h *BatchHandler) GetBatch(c *gin.Context) {
	record, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.newBatchView(record))
}

// ListBatches handles GET /api/v1/batches.
func (h *BatchHandler) ListBatches(c *gin.Context) {
	limit := parseIntQuery(c, "limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := parseIntQuery(c, "offset", defaultOffset)
	if offset < 0 {
		offset = defaultOffset
	}

	filter := batch.ListFilter{
		WorkflowKey: c.Query("workflow_key"),
	}
	if kindStr := c.Query("kind"); kindStr != "" {
		kind := domain.BatchKind(kindStr)
		if !kind.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown batch kind %q", kindStr)})
			return
		}
		filter.Kind = kind
	}

	records, total := h.reader.List(filter, limit, offset)
	items := make([]batchView, 0, len(records))
	for _, record := range records {
		items = append(items, h.newBatchView(record))
	}

	c.JSON(http.StatusOK, gin.H{
		"items":    items,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
		"has_more": offset+len(items) < total,
	})
}

// CancelBatch handles POST /api/v1/batches/:id/cancel.
func (h *BatchHandler) CancelBatch(c *gin.Context) {
	batchID := c.Param("id")

	err := h.executor.Cancel(batchID)
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"batch_id": batchID, "message": "Cancellation requested"})
	case errors.Is(err, domain.ErrBatchNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Batch not found"})
	case errors.Is(err, batch.ErrBatchNotRunning):
		c.JSON(http.StatusConflict, gin.H{"error": "Batch is not running"})
	default:
		h.log.Error("Failed to cancel batch",
			logger.String("batch_id", batchID),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel batch"})
	}
}

// ExportBatch handles GET /api/v1/batches/:id/export.
func (h *BatchHandler) ExportBatch(c *gin.Context) {
	record, ok := h.lookup(c)
	if !ok {
		return
	}

	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=batch-%s.xlsx", record.BatchID))
	if err := export.WriteReport(c.Writer, record); err != nil {
		h.log.Error("Failed to export batch report",
			logger.String("batch_id", record.BatchID),
			logger.Error(err),
		)
		// Headers are already out; all we can do is abort the stream.
		c.Abort()
	}
}

func (h *BatchHandler) lookup(c *gin.Context) (*domain.BatchRecord, bool) {
	batchID := c.Param("id")

	record, err := h.reader.Get(batchID)
	if err != nil {
		if errors.Is(err, domain.ErrBatchNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Batch not found"})
			return nil, false
		}
		h.log.Error("Failed to load batch",
			logger.String("batch_id", batchID),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load batch"})
		return nil, false
	}
	return record, true
}

func (h *BatchHandler) renderEnumerationError(c *gin.Context, rootID string, err error) {
	if errors.Is(err, domain.ErrRootNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Root target not found"})
		return
	}
	h.log.Error("Target enumeration failed",
		logger.String("root_target_id", rootID),
		logger.Error(err),
	)
	c.JSON(http.StatusBadGateway, gin.H{"error": "Content repository unavailable", "details": err.Error()})
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.DefaultQuery(name, strconv.Itoa(fallback))
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
