package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/surveyhustler-api/internal/models"
	"github.com/noah-isme/surveyhustler-api/pkg/response"
)

type registrationService interface {
	SendOTP(ctx context.Context, req models.OTPRequest) error
	VerifyOTP(ctx context.Context, req models.OTPVerifyRequest) error
	CompleteRegistration(ctx context.Context, req models.CompleteRegistrationRequest) (*models.UserInfo, error)
	CheckRegistration(ctx context.Context, externalID string) (*models.RegistrationStatus, error)
}

// RegistrationHandler exposes the OTP registration flow.
type RegistrationHandler struct {
	service registrationService
}

// NewRegistrationHandler constructs the handler.
func NewRegistrationHandler(svc registrationService) *RegistrationHandler {
	return &RegistrationHandler{service: svc}
}

// SendOTP godoc
// @Summary Start registration
// @Description Creates or refreshes a pending account and e-mails a one-time code
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body models.OTPRequest true "Registration details"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/otp [post]
func (h *RegistrationHandler) SendOTP(c *gin.Context) {
	var req models.OTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid registration payload"))
		return
	}
	if err := h.service.SendOTP(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"email": req.Email, "sent": true}, nil)
}

// VerifyOTP godoc
// @Summary Verify registration code
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body models.OTPVerifyRequest true "Code"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /auth/otp/verify [post]
func (h *RegistrationHandler) VerifyOTP(c *gin.Context) {
	var req models.OTPVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid verification payload"))
		return
	}
	if err := h.service.VerifyOTP(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"verified": true}, nil)
}

// Complete godoc
// @Summary Complete registration
// @Description Stores the academic placement and promotes the account to its role
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body models.CompleteRegistrationRequest true "Placement"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /auth/register [post]
func (h *RegistrationHandler) Complete(c *gin.Context) {
	var req models.CompleteRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid registration payload"))
		return
	}
	user, err := h.service.CompleteRegistration(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// Check godoc
// @Summary Check whether a chat is registered
// @Tags Bot
// @Produce json
// @Param externalId path string true "Chat id"
// @Success 200 {object} response.Envelope
// @Router /bot/users/{externalId} [get]
func (h *RegistrationHandler) Check(c *gin.Context) {
	status, err := h.service.CheckRegistration(c.Request.Context(), c.Param("externalId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}
