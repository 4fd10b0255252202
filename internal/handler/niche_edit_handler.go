package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/surveyhustler-api/internal/models"
	appErrors "github.com/noah-isme/surveyhustler-api/pkg/errors"
	"github.com/noah-isme/surveyhustler-api/pkg/response"
)

type nicheEditService interface {
	Start(ctx context.Context, userID, surveyID string) (*models.NicheEditSession, error)
	Get(ctx context.Context, userID, surveyID string) (*models.NicheEditSession, error)
	SelectNiche(ctx context.Context, userID, surveyID string, index int) (*models.NicheEditSession, error)
	ChooseGender(ctx context.Context, userID, surveyID, gender string) (*models.NicheEditSession, error)
	ChooseOption(ctx context.Context, userID, surveyID string, optionID int64) (*models.NicheEditSession, error)
	Checkout(ctx context.Context, userID, surveyID string) (*models.CheckoutSession, error)
	Cancel(ctx context.Context, userID, surveyID string) error
}

// nicheEditStep advances the dialog by one choice. Exactly one field is read,
// depending on the session state.
type nicheEditStep struct {
	RuleIndex *int   `json:"rule_index"`
	Gender    string `json:"gender"`
	OptionID  *int64 `json:"option_id"`
}

// NicheEditHandler drives the niche edit dialog.
type NicheEditHandler struct {
	service nicheEditService
}

// NewNicheEditHandler constructs the handler.
func NewNicheEditHandler(svc nicheEditService) *NicheEditHandler {
	return &NicheEditHandler{service: svc}
}

// Start godoc
// @Summary Start editing a survey's niche
// @Tags Niche edit
// @Produce json
// @Security BearerAuth
// @Param id path string true "Survey ID"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /creator/surveys/{id}/niche-edit [post]
func (h *NicheEditHandler) Start(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	session, err := h.service.Start(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Get godoc
// @Summary Current niche edit dialog state
// @Tags Niche edit
// @Produce json
// @Security BearerAuth
// @Param id path string true "Survey ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /creator/surveys/{id}/niche-edit [get]
func (h *NicheEditHandler) Get(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	session, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Step godoc
// @Summary Answer the current niche edit question
// @Description Send rule_index while selecting a niche, gender while choosing a gender, option_id while choosing the target node.
// @Tags Niche edit
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Survey ID"
// @Param payload body nicheEditStep true "Choice"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /creator/surveys/{id}/niche-edit/step [post]
func (h *NicheEditHandler) Step(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var step nicheEditStep
	if err := c.ShouldBindJSON(&step); err != nil {
		response.Error(c, bindError(err, "invalid niche edit payload"))
		return
	}
	ctx := c.Request.Context()
	surveyID := c.Param("id")

	var session *models.NicheEditSession
	switch {
	case step.RuleIndex != nil:
		session, err = h.service.SelectNiche(ctx, actor, surveyID, *step.RuleIndex)
	case step.Gender != "":
		session, err = h.service.ChooseGender(ctx, actor, surveyID, step.Gender)
	case step.OptionID != nil:
		session, err = h.service.ChooseOption(ctx, actor, surveyID, *step.OptionID)
	default:
		err = appErrors.Clone(appErrors.ErrValidation, "one of rule_index, gender or option_id is required")
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Checkout godoc
// @Summary Pay for the chosen niche edit
// @Tags Niche edit
// @Produce json
// @Security BearerAuth
// @Param id path string true "Survey ID"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /creator/surveys/{id}/niche-edit/checkout [post]
func (h *NicheEditHandler) Checkout(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	session, err := h.service.Checkout(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Cancel godoc
// @Summary Abandon the niche edit dialog
// @Tags Niche edit
// @Security BearerAuth
// @Param id path string true "Survey ID"
// @Success 204
// @Router /creator/surveys/{id}/niche-edit [delete]
func (h *NicheEditHandler) Cancel(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Cancel(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
