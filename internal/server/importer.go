package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stockrx/importer/internal/common"
	"github.com/stockrx/importer/internal/entity"
	"github.com/stockrx/importer/internal/export"
	"github.com/stockrx/importer/internal/extract"
	"github.com/stockrx/importer/internal/pipeline"
)

// ImportHandler exposes the pipeline over HTTP.
type ImportHandler struct {
	processor *pipeline.Processor
	exporter  *export.Service
	locker    *ImportLocker
	maxBytes  int64
	logger    *slog.Logger
}

func NewImportHandler(processor *pipeline.Processor, exporter *export.Service, locker *ImportLocker, maxBytes int64, logger *slog.Logger) *ImportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportHandler{
		processor: processor,
		exporter:  exporter,
		locker:    locker,
		maxBytes:  maxBytes,
		logger:    logger,
	}
}

type commitRequest struct {
	SourceFile string             `json:"sourceFile"`
	Items      []entity.DraftItem `json:"items" binding:"required"`
}

type rollbackRequest struct {
	ImportID string `json:"importId" binding:"required"`
}

// Upload accepts a multipart bill upload and runs the pipeline.
func (h *ImportHandler) Upload(c *gin.Context) {
	userID := requireUser(c)
	if userID == "" {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}

	release, err := h.locker.Acquire(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	defer release()

	meta := extract.FileMeta{
		Filename:     header.Filename,
		DeclaredMIME: header.Header.Get("Content-Type"),
		SizeBytes:    int64(len(content)),
	}
	result, err := h.processor.Process(c.Request.Context(), userID, content, meta)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Commit persists a reviewed draft.
func (h *ImportHandler) Commit(c *gin.Context) {
	userID := requireUser(c)
	if userID == "" {
		return
	}

	var req commitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	release, err := h.locker.Acquire(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	defer release()

	importID, summary, err := h.processor.Commit(c.Request.Context(), userID, req.SourceFile, req.Items)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"importId": importID, "summary": summary})
}

// Rollback reverses a committed import.
func (h *ImportHandler) Rollback(c *gin.Context) {
	userID := requireUser(c)
	if userID == "" {
		return
	}

	var req rollbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "importId is required"})
		return
	}

	if err := h.processor.Rollback(c.Request.Context(), userID, req.ImportID); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"importId": req.ImportID, "rolledBack": true})
}

// Export streams the user's inventory as an XLSX download.
func (h *ImportHandler) Export(c *gin.Context) {
	userID := requireUser(c)
	if userID == "" {
		return
	}

	payload, filename, err := h.exporter.ExportXLSX(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("export failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", payload)
}

func requireUser(c *gin.Context) string {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "X-User-ID header is required"})
		return ""
	}
	c.Request = c.Request.WithContext(common.WithUserID(c.Request.Context(), userID))
	return userID
}

// renderError maps stage/kind tagged failures to HTTP responses. Foreign
// errors become opaque 500s.
func (h *ImportHandler) renderError(c *gin.Context, err error) {
	var pe *common.PipelineError
	if !errors.As(err, &pe) {
		h.logger.Error("unclassified failure", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch pe.Kind {
	case common.KindValidationFailed:
		status = http.StatusBadRequest
	case common.KindUnsupportedFormat:
		status = http.StatusUnsupportedMediaType
	case common.KindEmptyResult, common.KindInvalidContent:
		status = http.StatusUnprocessableEntity
	case common.KindRateLimited:
		status = http.StatusTooManyRequests
	case common.KindProviderError, common.KindEnrichmentFailed:
		status = http.StatusBadGateway
	case common.KindRollbackNotFound:
		status = http.StatusNotFound
	case common.KindRollbackAlreadyConsumed:
		status = http.StatusConflict
	case common.KindCommitFailed:
		status = http.StatusInternalServerError
	}

	c.JSON(status, gin.H{
		"error": pe.Message,
		"stage": pe.Stage,
		"kind":  pe.Kind,
	})
}
