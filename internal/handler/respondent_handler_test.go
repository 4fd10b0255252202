package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/surveyhustler-api/internal/models"
	appErrors "github.com/noah-isme/surveyhustler-api/pkg/errors"
)

type eligibilityMock struct {
	externalID     string
	page, pageSize int
}

func (m *eligibilityMock) ListEligible(ctx context.Context, externalID string, page, pageSize int) ([]models.EligibleSurvey, *models.Pagination, error) {
	m.externalID, m.page, m.pageSize = externalID, page, pageSize
	if externalID == "ghost" {
		return nil, nil, appErrors.Clone(appErrors.ErrUserNotFound, "")
	}
	return []models.EligibleSurvey{{ID: "s-1", Reward: 500}}, &models.Pagination{Page: page, PageSize: 5, TotalCount: 1}, nil
}

type verificationMock struct {
	err  error
	last models.VerificationRequest
}

func (m *verificationMock) Verify(ctx context.Context, req models.VerificationRequest) (*models.VerificationResult, error) {
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.VerificationResult{Verified: true, SurveyID: "s-1", Reward: 500, Wallet: 1500}, nil
}

type surveyFinderMock struct{}

func (surveyFinderMock) GetSurvey(ctx context.Context, id string) (*models.EligibleSurvey, error) {
	if id != "s-1" {
		return nil, appErrors.Clone(appErrors.ErrSurveyNotFound, "")
	}
	return &models.EligibleSurvey{ID: id, Title: "Sleep habits"}, nil
}

func respondentRouter(eligibility *eligibilityMock, verification *verificationMock) *gin.Engine {
	h := NewRespondentHandler(eligibility, verification, surveyFinderMock{})
	router := testRouter()
	router.GET("/bot/users/:externalId/eligible-surveys", h.EligibleSurveys)
	router.GET("/bot/surveys/:id", h.Survey)
	router.POST("/bot/verifications", h.Verify)
	return router
}

func TestRespondentHandlerEligibleSurveys(t *testing.T) {
	eligibility := &eligibilityMock{}
	router := respondentRouter(eligibility, &verificationMock{})

	w := performRequest(router, jsonRequest(http.MethodGet, "/bot/users/chat-1/eligible-surveys?page=2&page_size=oops", ""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "chat-1", eligibility.externalID)
	assert.Equal(t, 2, eligibility.page)
	assert.Equal(t, 0, eligibility.pageSize)

	env := decode(t, w)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 2, env.Pagination.Page)
	assert.Contains(t, string(env.Data), `"survey_id":"s-1"`)
}

func TestRespondentHandlerEligibleSurveysUnknownUser(t *testing.T) {
	router := respondentRouter(&eligibilityMock{}, &verificationMock{})

	w := performRequest(router, jsonRequest(http.MethodGet, "/bot/users/ghost/eligible-surveys", ""))
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "USER_NOT_FOUND", decode(t, w).Error.Code)
}

func TestRespondentHandlerSurvey(t *testing.T) {
	router := respondentRouter(&eligibilityMock{}, &verificationMock{})

	w := performRequest(router, jsonRequest(http.MethodGet, "/bot/surveys/s-1", ""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sleep habits")

	w = performRequest(router, jsonRequest(http.MethodGet, "/bot/surveys/s-2", ""))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRespondentHandlerVerify(t *testing.T) {
	verification := &verificationMock{}
	router := respondentRouter(&eligibilityMock{}, verification)

	body := `{"external_id":"chat-1","form_link":"https://docs.google.com/forms/d/abc/viewform","start_time":"2024-03-05T12:00:00Z"}`
	w := performRequest(router, jsonRequest(http.MethodPost, "/bot/verifications", body))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-03-05T12:00:00Z", verification.last.StartTime)
	assert.Contains(t, w.Body.String(), `"wallet":1500`)
}

func TestRespondentHandlerVerifyRejections(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "too fast", err: appErrors.Clone(appErrors.ErrTooFast, ""), status: http.StatusUnprocessableEntity, code: "TOO_FAST"},
		{name: "replay", err: appErrors.Clone(appErrors.ErrAlreadyRewarded, ""), status: http.StatusConflict, code: "ALREADY_REWARDED"},
		{name: "no fresh entry", err: appErrors.Clone(appErrors.ErrNoFreshEntry, ""), status: http.StatusUnprocessableEntity, code: "NO_FRESH_ENTRY"},
		{name: "bad start", err: appErrors.Clone(appErrors.ErrInvalidStartTime, ""), status: http.StatusBadRequest, code: "INVALID_START_TIME"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router := respondentRouter(&eligibilityMock{}, &verificationMock{err: tc.err})
			w := performRequest(router, jsonRequest(http.MethodPost, "/bot/verifications", `{"external_id":"chat-1"}`))
			require.Equal(t, tc.status, w.Code)
			env := decode(t, w)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
		})
	}
}
