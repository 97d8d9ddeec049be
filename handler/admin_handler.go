package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/contract-intel-be/repository"
	"github.com/tieubaoca/contract-intel-be/types"
)

type AdminHandler struct {
	metrics repository.MetricsRepo
}

func NewAdminHandler(metrics repository.MetricsRepo) *AdminHandler {
	return &AdminHandler{
		metrics: metrics,
	}
}

func (h *AdminHandler) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, types.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().Unix(),
	})
}

func (h *AdminHandler) MetricsHandler(c *gin.Context) {
	counters, err := h.metrics.All(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  "error",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, types.MetricsResponse{
		DocumentsIngested:    counters[repository.MetricDocumentsIngested],
		ExtractionsPerformed: counters[repository.MetricExtractionsPerformed],
		QueriesAnswered:      counters[repository.MetricQueriesAnswered],
		AuditsRun:            counters[repository.MetricAuditsRun],
	})
}
