package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/surveyhustler-api/internal/models"
	"github.com/noah-isme/surveyhustler-api/pkg/response"
)

type eligibilityService interface {
	ListEligible(ctx context.Context, externalID string, page, pageSize int) ([]models.EligibleSurvey, *models.Pagination, error)
}

type verificationService interface {
	Verify(ctx context.Context, req models.VerificationRequest) (*models.VerificationResult, error)
}

type surveyFinder interface {
	GetSurvey(ctx context.Context, id string) (*models.EligibleSurvey, error)
}

// RespondentHandler serves the bot's respondent flows.
type RespondentHandler struct {
	eligibility  eligibilityService
	verification verificationService
	surveys      surveyFinder
}

// NewRespondentHandler constructs the handler.
func NewRespondentHandler(eligibility eligibilityService, verification verificationService, surveys surveyFinder) *RespondentHandler {
	return &RespondentHandler{eligibility: eligibility, verification: verification, surveys: surveys}
}

// EligibleSurveys godoc
// @Summary Surveys the respondent may fill
// @Description Lists open surveys matching the respondent's profile, highest reward first
// @Tags Bot
// @Produce json
// @Param externalId path string true "Chat id"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bot/users/{externalId}/eligible-surveys [get]
func (h *RespondentHandler) EligibleSurveys(c *gin.Context) {
	items, pagination, err := h.eligibility.ListEligible(c.Request.Context(), c.Param("externalId"), intQuery(c, "page", 1), intQuery(c, "page_size", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Survey godoc
// @Summary Survey details for a respondent
// @Tags Bot
// @Produce json
// @Param id path string true "Survey ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bot/surveys/{id} [get]
func (h *RespondentHandler) Survey(c *gin.Context) {
	survey, err := h.surveys.GetSurvey(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, survey, nil)
}

// Verify godoc
// @Summary Verify a submission and credit the reward
// @Tags Bot
// @Accept json
// @Produce json
// @Param payload body models.VerificationRequest true "Submission claim"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /bot/verifications [post]
func (h *RespondentHandler) Verify(c *gin.Context) {
	var req models.VerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid verification payload"))
		return
	}
	result, err := h.verification.Verify(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
