package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	services "github.com/tieubaoca/contract-intel-be/service"
	"github.com/tieubaoca/contract-intel-be/types"
)

type IngestHandler struct {
	ingestService *services.IngestService
}

func NewIngestHandler(ingestService *services.IngestService) *IngestHandler {
	return &IngestHandler{
		ingestService: ingestService,
	}
}

// IngestDocumentsHandler accepts one or more PDF files as multipart form
// data. Each file is processed independently; the first failing file aborts
// the request with its reason.
func (h *IngestHandler) IngestDocumentsHandler(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "Invalid multipart form",
		})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["file"]
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "No files provided",
		})
		return
	}

	const maxSize = 50 << 20
	var ingested []types.DocumentMetadata
	for _, header := range files {
		if header.Size > maxSize {
			c.JSON(http.StatusBadRequest, types.DataResponse{
				Status:  "error",
				Message: "File too large: " + header.Filename,
			})
			return
		}

		pdfBytes, err := readUpload(header)
		if err != nil {
			c.JSON(http.StatusBadRequest, types.DataResponse{
				Status:  "error",
				Message: "Could not read file: " + header.Filename,
			})
			return
		}

		doc, _, err := h.ingestService.Ingest(c.Request.Context(), pdfBytes, header.Filename)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, services.ErrCorruptPDF) || errors.Is(err, services.ErrEmptyDocument) {
				status = http.StatusBadRequest
			}
			c.JSON(status, types.DataResponse{
				Status:  "error",
				Message: header.Filename + ": " + err.Error(),
			})
			return
		}
		ingested = append(ingested, types.DocumentMetadata{
			DocumentID: doc.ID,
			Filename:   doc.Filename,
			Pages:      doc.PageCount,
		})
	}

	c.JSON(http.StatusOK, types.DataResponse{
		Status: "success",
		Data: types.IngestResponse{
			Documents: ingested,
		},
	})
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}
