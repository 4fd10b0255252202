package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/surveyhustler-api/internal/models"
	"github.com/noah-isme/surveyhustler-api/pkg/response"
	"github.com/noah-isme/surveyhustler-api/pkg/webhook"
)

// maxWebhookBody bounds gateway notifications.
const maxWebhookBody = 1 << 20

type webhookService interface {
	HandleWebhook(ctx context.Context, body []byte, signature string) (models.WebhookOutcome, error)
}

// PaymentHandler receives payment gateway callbacks.
type PaymentHandler struct {
	service webhookService
	logger  *zap.Logger
}

// NewPaymentHandler constructs the handler.
func NewPaymentHandler(svc webhookService, logger *zap.Logger) *PaymentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentHandler{service: svc, logger: logger}
}

// Webhook godoc
// @Summary Payment gateway webhook
// @Description Verifies the HMAC signature over the raw body and settles the referenced transaction at most once.
// @Tags Payments
// @Accept json
// @Produce json
// @Param X-Kora-Signature header string true "Hex HMAC-SHA256 of the body"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /payments/webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	body, err := c.GetRawData()
	if err != nil {
		h.logger.Warn("read webhook body", zap.Error(err))
		response.Error(c, bindError(err, "unreadable webhook body"))
		return
	}
	outcome, err := h.service.HandleWebhook(c.Request.Context(), body, c.GetHeader(webhook.SignatureHeader))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"outcome": outcome}, nil)
}
