package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/contract-intel-be/repository"
	services "github.com/tieubaoca/contract-intel-be/service"
	"github.com/tieubaoca/contract-intel-be/types"
)

type AuditHandler struct {
	auditService   *services.AuditService
	extractService *services.ExtractService
	docs           repository.DocumentRepo
	extractions    repository.ExtractionRepo
	findings       repository.FindingRepo
	metrics        repository.MetricsRepo
}

func NewAuditHandler(
	auditService *services.AuditService,
	extractService *services.ExtractService,
	docs repository.DocumentRepo,
	extractions repository.ExtractionRepo,
	findings repository.FindingRepo,
	metrics repository.MetricsRepo,
) *AuditHandler {
	return &AuditHandler{
		auditService:   auditService,
		extractService: extractService,
		docs:           docs,
		extractions:    extractions,
		findings:       findings,
		metrics:        metrics,
	}
}

// AuditHandler runs the rule engine over a document. A missing extraction
// is computed on the fly and persisted so the audit always has fields to
// work with. Findings from earlier runs are replaced wholesale.
func (h *AuditHandler) AuditHandler(c *gin.Context) {
	var req types.AuditRequest
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

	extraction, err := h.extractions.Get(ctx, req.DocumentID)
	if err != nil {
		if !errors.Is(err, repository.ErrExtractionNotFound) {
			c.JSON(http.StatusInternalServerError, types.DataResponse{
				Status:  "error",
				Message: err.Error(),
			})
			return
		}
		extraction = h.extractService.Extract(ctx, doc)
		if err := h.extractions.Upsert(ctx, extraction); err != nil {
			c.JSON(http.StatusInternalServerError, types.DataResponse{
				Status:  "error",
				Message: err.Error(),
			})
			return
		}
	}

	auditFindings := h.auditService.Audit(doc, extraction)
	if err := h.findings.Replace(ctx, req.DocumentID, auditFindings); err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  "error",
			Message: err.Error(),
		})
		return
	}
	if err := h.metrics.Inc(ctx, repository.MetricAuditsRun); err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  "error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, types.DataResponse{
		Status: "success",
		Data: types.AuditResponse{
			Findings: auditFindings,
		},
	})
}
