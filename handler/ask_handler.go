package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	services "github.com/tieubaoca/contract-intel-be/service"
	"github.com/tieubaoca/contract-intel-be/types"
)

type AskHandler struct {
	ragService *services.RAGService
}

func NewAskHandler(ragService *services.RAGService) *AskHandler {
	return &AskHandler{
		ragService: ragService,
	}
}

func (h *AskHandler) AskHandler(c *gin.Context) {
	var req types.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "Invalid request body",
		})
		return
	}

	answer, sources, err := h.ragService.Answer(c.Request.Context(), req.Question, req.DocumentIDs)
	if err != nil {
		if errors.Is(err, services.ErrEmptyQuestion) {
			c.JSON(http.StatusBadRequest, types.DataResponse{
				Status:  "error",
				Message: "question must not be empty",
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
		Data: types.AskResponse{
			Answer:  answer,
			Sources: sources,
		},
	})
}
