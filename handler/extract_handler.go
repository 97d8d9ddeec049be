package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/contract-intel-be/repository"
	services "github.com/tieubaoca/contract-intel-be/service"
	"github.com/tieubaoca/contract-intel-be/types"
)

type ExtractHandler struct {
	extractService *services.ExtractService
	docs           repository.DocumentRepo
	extractions    repository.ExtractionRepo
	metrics        repository.MetricsRepo
}

func NewExtractHandler(
	extractService *services.ExtractService,
	docs repository.DocumentRepo,
	extractions repository.ExtractionRepo,
	metrics repository.MetricsRepo,
) *ExtractHandler {
	return &ExtractHandler{
		extractService: extractService,
		docs:           docs,
		extractions:    extractions,
		metrics:        metrics,
	}
}

// ExtractHandler runs field extraction for one document and persists the
// result, replacing any previous extraction for that document.
func (h *ExtractHandler) ExtractHandler(c *gin.Context) {
	var req types.ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.DocumentID == "" {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "document_id is required",
		})
		return
	}

	ctx := c.Request.Context()
	doc, err := h.docs.Get(ctx, req.DocumentID)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, types.DataResponse{
				Status:  "error",
				Message: "Document not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  "error",
			Message: err.Error(),
		})
		return
	}

	extraction := h.extractService.Extract(ctx, doc)
	if err := h.extractions.Upsert(ctx, extraction); err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  "error",
			Message: err.Error(),
		})
		return
	}
	if err := h.metrics.Inc(ctx, repository.MetricExtractionsPerformed); err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  "error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, types.DataResponse{
		Status: "success",
		Data:   extraction,
	})
}
