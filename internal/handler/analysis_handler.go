package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/surveyhustler-api/internal/models"
	"github.com/noah-isme/surveyhustler-api/pkg/response"
)

type analysisService interface {
	Analyze(ctx context.Context, userID, surveyID string) (*models.AnalysisResult, error)
	Chat(ctx context.Context, userID, surveyID string, req models.AnalysisRequest) (*models.AnalysisResult, error)
}

// AnalysisHandler exposes AI-assisted response analysis.
type AnalysisHandler struct {
	service analysisService
}

// NewAnalysisHandler constructs the handler.
func NewAnalysisHandler(svc analysisService) *AnalysisHandler {
	return &AnalysisHandler{service: svc}
}

// Analyze godoc
// @Summary Summarise a survey's responses
// @Tags Analysis
// @Produce json
// @Security BearerAuth
// @Param id path string true "Survey ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /creator/surveys/{id}/analysis [post]
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Analyze(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Chat godoc
// @Summary Ask a question about a survey's responses
// @Tags Analysis
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Survey ID"
// @Param payload body models.AnalysisRequest true "Question and history"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /creator/surveys/{id}/chat [post]
func (h *AnalysisHandler) Chat(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid analysis payload"))
		return
	}
	result, err := h.service.Chat(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
