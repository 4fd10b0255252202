package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/noah-isme/surveyhustler-api/internal/handler"
	"github.com/noah-isme/surveyhustler-api/internal/service"
	"github.com/noah-isme/surveyhustler-api/pkg/config"
)

func TestRouterGuards(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Env: config.EnvProduction, APIPrefix: "/api/v1", Bot: config.BotConfig{APIKey: "bot-key"}}
	metrics := service.NewMetricsService()
	router := newRouter(cfg, zap.NewNop(), routeDeps{
		metrics:       metrics,
		registration:  &handler.RegistrationHandler{},
		authHandler:   &handler.AuthHandler{},
		academics:     &handler.AcademicHandler{},
		respondents:   &handler.RespondentHandler{},
		surveys:       &handler.SurveyHandler{},
		niche:         &handler.NicheEditHandler{},
		analysis:      &handler.AnalysisHandler{},
		exports:       &handler.ExportHandler{},
		payments:      &handler.PaymentHandler{},
		observability: handler.NewMetricsHandler(metrics, nil),
	})

	tests := []struct {
		method, path string
		status       int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/ready", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/docs/index.html", http.StatusNotFound},
		{http.MethodGet, "/api/v1/bot/users/chat-1", http.StatusUnauthorized},
		{http.MethodPost, "/api/v1/bot/verifications", http.StatusUnauthorized},
		{http.MethodPost, "/api/v1/bot/users/chat-1/surveys/payments", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/creator/surveys", http.StatusUnauthorized},
		{http.MethodPost, "/api/v1/creator/surveys/s-1/exports", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/auth/me", http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, tc.status, w.Code)
		})
	}
}
