package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/surveyhustler-api/internal/models"
	"github.com/noah-isme/surveyhustler-api/pkg/response"
)

type creatorSurveyService interface {
	MySurveys(ctx context.Context, ownerID string) ([]models.SurveySummary, error)
	SurveyDetails(ctx context.Context, ownerID, id string) (*models.SurveyDetails, error)
	Discontinue(ctx context.Context, ownerID, id string) error
	VerifyLinks(ctx context.Context, req models.LinkVerificationRequest) (*models.LinkVerification, error)
}

type surveyCheckout interface {
	InitiateSurveyPayment(ctx context.Context, userID string, draft models.SurveyDraft) (*models.CheckoutSession, error)
}

// SurveyHandler serves creator survey management. Routes are mounted under
// both the bot and the JWT surfaces; the caller comes from the context.
type SurveyHandler struct {
	surveys  creatorSurveyService
	payments surveyCheckout
}

// NewSurveyHandler constructs the handler.
func NewSurveyHandler(surveys creatorSurveyService, payments surveyCheckout) *SurveyHandler {
	return &SurveyHandler{surveys: surveys, payments: payments}
}

// InitiatePayment godoc
// @Summary Pay to list a new survey
// @Description Creates a pending transaction holding the draft and returns the hosted checkout link. The survey is created by the payment webhook.
// @Tags Creator
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.SurveyDraft true "Survey draft"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /creator/surveys/payments [post]
func (h *SurveyHandler) InitiatePayment(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var draft models.SurveyDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.Error(c, bindError(err, "invalid survey payload"))
		return
	}
	session, err := h.payments.InitiateSurveyPayment(c.Request.Context(), actor, draft)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// List godoc
// @Summary Surveys owned by the caller
// @Tags Creator
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /creator/surveys [get]
func (h *SurveyHandler) List(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.surveys.MySurveys(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Details godoc
// @Summary Survey details with response count and niches
// @Tags Creator
// @Produce json
// @Security BearerAuth
// @Param id path string true "Survey ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /creator/surveys/{id} [get]
func (h *SurveyHandler) Details(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	details, err := h.surveys.SurveyDetails(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, nil)
}

// Discontinue godoc
// @Summary Discontinue a survey
// @Tags Creator
// @Security BearerAuth
// @Param id path string true "Survey ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /creator/surveys/{id} [delete]
func (h *SurveyHandler) Discontinue(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.surveys.Discontinue(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// VerifyLinks godoc
// @Summary Check a form and its response sheet before paying
// @Tags Creator
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.LinkVerificationRequest true "Links"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /creator/links/verify [post]
func (h *SurveyHandler) VerifyLinks(c *gin.Context) {
	var req models.LinkVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid link payload"))
		return
	}
	result, err := h.surveys.VerifyLinks(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
