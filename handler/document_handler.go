package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/contract-intel-be/repository"
	services "github.com/tieubaoca/contract-intel-be/service"
	"github.com/tieubaoca/contract-intel-be/types"
)

type DocumentHandler struct {
	ingestService *services.IngestService
	docs          repository.DocumentRepo
	extractions   repository.ExtractionRepo
	findings      repository.FindingRepo
}

func NewDocumentHandler(
	ingestService *services.IngestService,
	docs repository.DocumentRepo,
	extractions repository.ExtractionRepo,
	findings repository.FindingRepo,
) *DocumentHandler {
	return &DocumentHandler{
		ingestService: ingestService,
		docs:          docs,
		extractions:   extractions,
		findings:      findings,
	}
}

func (h *DocumentHandler) GetDocumentHandler(c *gin.Context) {
	doc, err := h.docs.Get(c.Request.Context(), c.Param("id"))
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
	c.JSON(http.StatusOK, types.DataResponse{
		Status: "success",
		Data: types.DocumentMetadata{
			DocumentID: doc.ID,
			Filename:   doc.Filename,
			Pages:      doc.PageCount,
		},
	})
}

// DeleteDocumentHandler removes the document and everything derived from
// it: extraction, findings and indexed chunks.
func (h *DocumentHandler) DeleteDocumentHandler(c *gin.Context) {
	err := h.ingestService.DeleteDocument(c.Request.Context(), c.Param("id"), h.extractions, h.findings)
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
	c.JSON(http.StatusOK, types.DataResponse{
		Status:  "success",
		Message: "Document deleted",
	})
}
