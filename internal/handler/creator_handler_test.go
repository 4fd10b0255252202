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

type creatorSurveyMock struct {
	owner       string
	discontinue string
}

func (m *creatorSurveyMock) MySurveys(ctx context.Context, ownerID string) ([]models.SurveySummary, error) {
	m.owner = ownerID
	return []models.SurveySummary{{ID: "s-1", Status: models.SurveyIncomplete}}, nil
}

func (m *creatorSurveyMock) SurveyDetails(ctx context.Context, ownerID, id string) (*models.SurveyDetails, error) {
	if ownerID != "owner-1" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "survey belongs to another user")
	}
	return &models.SurveyDetails{Survey: models.Survey{ID: id}, Responses: 4, Status: models.SurveyIncomplete}, nil
}

func (m *creatorSurveyMock) Discontinue(ctx context.Context, ownerID, id string) error {
	m.discontinue = id
	return nil
}

func (m *creatorSurveyMock) VerifyLinks(ctx context.Context, req models.LinkVerificationRequest) (*models.LinkVerification, error) {
	return &models.LinkVerification{SheetReadable: true, EditorPresent: false, EditorEmail: "bot@example.com"}, nil
}

type surveyCheckoutMock struct {
	user  string
	draft models.SurveyDraft
	err   error
}

func (m *surveyCheckoutMock) InitiateSurveyPayment(ctx context.Context, userID string, draft models.SurveyDraft) (*models.CheckoutSession, error) {
	m.user, m.draft = userID, draft
	if m.err != nil {
		return nil, m.err
	}
	return &models.CheckoutSession{Reference: "ref-1", CheckoutURL: "https://checkout.example/ref-1", Amount: 2500}, nil
}

type nicheEditMock struct {
	calls []string
}

func (m *nicheEditMock) session(state models.NicheEditState) *models.NicheEditSession {
	return &models.NicheEditSession{UserID: "owner-1", SurveyID: "s-1", State: state}
}

func (m *nicheEditMock) Start(ctx context.Context, userID, surveyID string) (*models.NicheEditSession, error) {
	m.calls = append(m.calls, "start")
	return m.session(models.NicheSelecting), nil
}

func (m *nicheEditMock) Get(ctx context.Context, userID, surveyID string) (*models.NicheEditSession, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "no niche edit in progress")
}

func (m *nicheEditMock) SelectNiche(ctx context.Context, userID, surveyID string, index int) (*models.NicheEditSession, error) {
	m.calls = append(m.calls, "select")
	return m.session(models.NicheChoosingGender), nil
}

func (m *nicheEditMock) ChooseGender(ctx context.Context, userID, surveyID, gender string) (*models.NicheEditSession, error) {
	m.calls = append(m.calls, "gender:"+gender)
	return m.session(models.NicheChoosingOption), nil
}

func (m *nicheEditMock) ChooseOption(ctx context.Context, userID, surveyID string, optionID int64) (*models.NicheEditSession, error) {
	m.calls = append(m.calls, "option")
	return m.session(models.NicheAwaitingPayment), nil
}

func (m *nicheEditMock) Checkout(ctx context.Context, userID, surveyID string) (*models.CheckoutSession, error) {
	m.calls = append(m.calls, "checkout")
	return &models.CheckoutSession{Reference: "ref-2", Amount: 1000}, nil
}

func (m *nicheEditMock) Cancel(ctx context.Context, userID, surveyID string) error {
	m.calls = append(m.calls, "cancel")
	return nil
}

type analysisMock struct {
	lastQuery string
}

func (m *analysisMock) Analyze(ctx context.Context, userID, surveyID string) (*models.AnalysisResult, error) {
	return &models.AnalysisResult{SurveyID: surveyID, Answer: "Mostly positive.", Source: models.AnalysisSourceModel}, nil
}

func (m *analysisMock) Chat(ctx context.Context, userID, surveyID string, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	m.lastQuery = req.Query
	return nil, appErrors.Clone(appErrors.ErrAIUnavailable, "")
}

func creatorRouter(surveys *creatorSurveyMock, payments *surveyCheckoutMock, niche *nicheEditMock, analysis *analysisMock) *gin.Engine {
	router := testRouter()
	sh := NewSurveyHandler(surveys, payments)
	nh := NewNicheEditHandler(niche)
	ah := NewAnalysisHandler(analysis)
	router.POST("/creator/surveys/payments", sh.InitiatePayment)
	router.GET("/creator/surveys", sh.List)
	router.GET("/creator/surveys/:id", sh.Details)
	router.DELETE("/creator/surveys/:id", sh.Discontinue)
	router.POST("/creator/links/verify", sh.VerifyLinks)
	router.POST("/creator/surveys/:id/niche-edit", nh.Start)
	router.GET("/creator/surveys/:id/niche-edit", nh.Get)
	router.POST("/creator/surveys/:id/niche-edit/step", nh.Step)
	router.POST("/creator/surveys/:id/niche-edit/checkout", nh.Checkout)
	router.DELETE("/creator/surveys/:id/niche-edit", nh.Cancel)
	router.POST("/creator/surveys/:id/analysis", ah.Analyze)
	router.POST("/creator/surveys/:id/chat", ah.Chat)
	return router
}

func asUser(req *http.Request, user string) *http.Request {
	req.Header.Set("X-Test-User", user)
	return req
}

func TestSurveyHandlerInitiatePayment(t *testing.T) {
	payments := &surveyCheckoutMock{}
	router := creatorRouter(&creatorSurveyMock{}, payments, &nicheEditMock{}, &analysisMock{})

	body := `{"title":"Sleep","responder_link":"https://docs.google.com/forms/d/f/viewform","sheet_link":"https://docs.google.com/spreadsheets/d/s/edit","duration_minutes":5,"target_responses":20,"reward":100}`
	w := performRequest(router, asUser(jsonRequest(http.MethodPost, "/creator/surveys/payments", body), "owner-1"))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "owner-1", payments.user)
	assert.Equal(t, 20, payments.draft.TargetResponses)
	assert.Contains(t, w.Body.String(), `"checkout_url":"https://checkout.example/ref-1"`)
}

func TestSurveyHandlerInitiatePaymentRequiresCaller(t *testing.T) {
	payments := &surveyCheckoutMock{}
	router := creatorRouter(&creatorSurveyMock{}, payments, &nicheEditMock{}, &analysisMock{})

	w := performRequest(router, jsonRequest(http.MethodPost, "/creator/surveys/payments", `{}`))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, payments.user)
}

func TestSurveyHandlerInitiatePaymentGatewayDown(t *testing.T) {
	payments := &surveyCheckoutMock{err: appErrors.Clone(appErrors.ErrUpstream, "payment provider unavailable")}
	router := creatorRouter(&creatorSurveyMock{}, payments, &nicheEditMock{}, &analysisMock{})

	w := performRequest(router, asUser(jsonRequest(http.MethodPost, "/creator/surveys/payments", `{"title":"x"}`), "owner-1"))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestSurveyHandlerListDetailsDiscontinue(t *testing.T) {
	surveys := &creatorSurveyMock{}
	router := creatorRouter(surveys, &surveyCheckoutMock{}, &nicheEditMock{}, &analysisMock{})

	w := performRequest(router, asUser(jsonRequest(http.MethodGet, "/creator/surveys", ""), "owner-1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "owner-1", surveys.owner)
	assert.Contains(t, w.Body.String(), `"status":"Incomplete"`)

	w = performRequest(router, asUser(jsonRequest(http.MethodGet, "/creator/surveys/s-1", ""), "owner-1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"responses":4`)

	w = performRequest(router, asUser(jsonRequest(http.MethodGet, "/creator/surveys/s-1", ""), "intruder"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = performRequest(router, asUser(jsonRequest(http.MethodDelete, "/creator/surveys/s-1", ""), "owner-1"))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "s-1", surveys.discontinue)
}

func TestSurveyHandlerVerifyLinks(t *testing.T) {
	router := creatorRouter(&creatorSurveyMock{}, &surveyCheckoutMock{}, &nicheEditMock{}, &analysisMock{})

	body := `{"form_link":"https://docs.google.com/forms/d/f/edit","sheet_link":"https://docs.google.com/spreadsheets/d/s/edit"}`
	w := performRequest(router, asUser(jsonRequest(http.MethodPost, "/creator/links/verify", body), "owner-1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sheet_readable":true,"editor_present":false,"editor_email":"bot@example.com"}`, string(decode(t, w).Data))
}

func TestNicheEditHandlerDialog(t *testing.T) {
	niche := &nicheEditMock{}
	router := creatorRouter(&creatorSurveyMock{}, &surveyCheckoutMock{}, niche, &analysisMock{})

	steps := []struct {
		method, path, body string
		status             int
		state              string
	}{
		{http.MethodPost, "/creator/surveys/s-1/niche-edit", "", http.StatusCreated, string(models.NicheSelecting)},
		{http.MethodPost, "/creator/surveys/s-1/niche-edit/step", `{"rule_index":0}`, http.StatusOK, string(models.NicheChoosingGender)},
		{http.MethodPost, "/creator/surveys/s-1/niche-edit/step", `{"gender":"Female"}`, http.StatusOK, string(models.NicheChoosingOption)},
		{http.MethodPost, "/creator/surveys/s-1/niche-edit/step", `{"option_id":3}`, http.StatusOK, string(models.NicheAwaitingPayment)},
		{http.MethodPost, "/creator/surveys/s-1/niche-edit/checkout", "", http.StatusCreated, ""},
	}
	for _, step := range steps {
		w := performRequest(router, asUser(jsonRequest(step.method, step.path, step.body), "owner-1"))
		require.Equal(t, step.status, w.Code, step.path)
		if step.state != "" {
			assert.Contains(t, w.Body.String(), `"state":"`+step.state+`"`)
		}
	}
	assert.Equal(t, []string{"start", "select", "gender:Female", "option", "checkout"}, niche.calls)
}

func TestNicheEditHandlerStepRequiresChoice(t *testing.T) {
	niche := &nicheEditMock{}
	router := creatorRouter(&creatorSurveyMock{}, &surveyCheckoutMock{}, niche, &analysisMock{})

	w := performRequest(router, asUser(jsonRequest(http.MethodPost, "/creator/surveys/s-1/niche-edit/step", `{}`), "owner-1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, niche.calls)
}

func TestNicheEditHandlerGetAndCancel(t *testing.T) {
	niche := &nicheEditMock{}
	router := creatorRouter(&creatorSurveyMock{}, &surveyCheckoutMock{}, niche, &analysisMock{})

	w := performRequest(router, asUser(jsonRequest(http.MethodGet, "/creator/surveys/s-1/niche-edit", ""), "owner-1"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(router, asUser(jsonRequest(http.MethodDelete, "/creator/surveys/s-1/niche-edit", ""), "owner-1"))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"cancel"}, niche.calls)
}

func TestAnalysisHandler(t *testing.T) {
	analysis := &analysisMock{}
	router := creatorRouter(&creatorSurveyMock{}, &surveyCheckoutMock{}, &nicheEditMock{}, analysis)

	w := performRequest(router, asUser(jsonRequest(http.MethodPost, "/creator/surveys/s-1/analysis", ""), "owner-1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"source":"model"`)

	w = performRequest(router, asUser(jsonRequest(http.MethodPost, "/creator/surveys/s-1/chat", `{"query":"What is the average age?"}`), "owner-1"))
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "AI_UNAVAILABLE", decode(t, w).Error.Code)
	assert.Equal(t, "What is the average age?", analysis.lastQuery)

	w = performRequest(router, asUser(jsonRequest(http.MethodPost, "/creator/surveys/s-1/chat", `{"query":`), "owner-1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
