package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/surveyhustler-api/internal/models"
	appErrors "github.com/noah-isme/surveyhustler-api/pkg/errors"
	"github.com/noah-isme/surveyhustler-api/pkg/webhook"
)

type webhookMock struct {
	body      string
	signature string
}

func (m *webhookMock) HandleWebhook(ctx context.Context, body []byte, signature string) (models.WebhookOutcome, error) {
	m.body, m.signature = string(body), signature
	if signature != webhook.Sign(body, "whsec") {
		return models.WebhookRejected, appErrors.Clone(appErrors.ErrInvalidSignature, "")
	}
	return models.WebhookApplied, nil
}

func TestPaymentHandlerWebhook(t *testing.T) {
	svc := &webhookMock{}
	router := testRouter()
	router.POST("/payments/webhook", NewPaymentHandler(svc, nil).Webhook)

	body := `{"event":"charge.success","data":{"reference":"ref-1"}}`
	req := jsonRequest(http.MethodPost, "/payments/webhook", body)
	req.Header.Set(webhook.SignatureHeader, webhook.Sign([]byte(body), "whsec"))

	w := performRequest(router, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, body, svc.body)
	assert.JSONEq(t, `{"outcome":"applied"}`, string(decode(t, w).Data))
}

func TestPaymentHandlerWebhookBadSignature(t *testing.T) {
	svc := &webhookMock{}
	router := testRouter()
	router.POST("/payments/webhook", NewPaymentHandler(svc, nil).Webhook)

	req := jsonRequest(http.MethodPost, "/payments/webhook", `{"event":"charge.success"}`)
	req.Header.Set(webhook.SignatureHeader, "deadbeef")

	w := performRequest(router, req)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "INVALID_SIGNATURE", decode(t, w).Error.Code)
	assert.Equal(t, "deadbeef", svc.signature)
}

func TestPaymentHandlerWebhookBodyTooLarge(t *testing.T) {
	svc := &webhookMock{}
	router := testRouter()
	router.POST("/payments/webhook", NewPaymentHandler(svc, nil).Webhook)

	req := jsonRequest(http.MethodPost, "/payments/webhook", strings.Repeat("a", maxWebhookBody+1))
	w := performRequest(router, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.body)
}
