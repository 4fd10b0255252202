package korapay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/surveyhustler-api/pkg/config"
)

func TestInitiateCheckout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/pay", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))

		var req CheckoutRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(5000), req.Amount)
		assert.Equal(t, "NGN", req.Currency)

		_, _ = w.Write([]byte(`{"status":true,"message":"ok","data":{"checkout_url":"https://checkout.test/abc"}}`))
	}))
	defer srv.Close()

	client := NewClient(config.PaymentConfig{BaseURL: srv.URL + "/", SecretKey: "sk_test"})
	checkout, err := client.InitiateCheckout(context.Background(), CheckoutRequest{
		Amount: 5000, Currency: "NGN", Reference: "SURVEY_u1_1_1000",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.test/abc", checkout.CheckoutURL)
	assert.Equal(t, "SURVEY_u1_1_1000", checkout.Reference)
}

func TestInitiateCheckoutRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"failed","message":"invalid amount"}`))
	}))
	defer srv.Close()

	client := NewClient(config.PaymentConfig{BaseURL: srv.URL})
	_, err := client.InitiateCheckout(context.Background(), CheckoutRequest{Amount: 1, Reference: "r"})
	assert.ErrorIs(t, err, ErrCheckoutRejected)
}

func TestParseEvent(t *testing.T) {
	event, err := ParseEvent([]byte(`{"event":"charge.success","data":{"reference":"REF","status":"success","amount":5000}}`))
	require.NoError(t, err)
	assert.Equal(t, EventChargeSuccess, event.Event)
	assert.Equal(t, "REF", event.Data.Reference)

	_, err = ParseEvent([]byte(`{"event":"charge.success","data":{}}`))
	assert.Error(t, err)
	_, err = ParseEvent([]byte(`not json`))
	assert.Error(t, err)
}
