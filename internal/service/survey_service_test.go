package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/surveyhustler-api/internal/models"
	appErrors "github.com/noah-isme/surveyhustler-api/pkg/errors"
	"github.com/noah-isme/surveyhustler-api/pkg/sheets"
)

const (
	surveyForm  = "https://docs.google.com/forms/d/form-1/edit"
	surveySheet = "https://docs.google.com/spreadsheets/d/sheet-1/edit"
)

type fakeNamer struct{}

func (fakeNamer) NodeName(ctx context.Context, dimension models.FilterDimension, id int64) (string, error) {
	switch id {
	case 10:
		return "College of Engineering", nil
	case 7:
		return "Computer Science", nil
	}
	return "", sql.ErrNoRows
}

func (fakeNamer) LevelsUnder(ctx context.Context, dimension models.FilterDimension, id int64) ([]string, error) {
	return []string{"400", "100", "500", "100"}, nil
}

type fakeEditors struct {
	present bool
	err     error
}

func (f fakeEditors) HasEditor(ctx context.Context, link, email string) (bool, error) {
	return f.present, f.err
}

func newSurveyServiceForTest(editors editorChecker) (*SurveyService, *fakeSurveyStore, *fakeSheetReader) {
	surveys := &fakeSurveyStore{surveys: []models.Survey{
		{ID: "s1", OwnerID: "owner-1", Title: "Diet", SheetLink: surveySheet, TargetResponses: 2, Reward: 100, ApplyFilter: true,
			Filters: models.FilterRules{
				{Gender: models.GenderFemale, Dimension: models.DimensionCollege, TargetID: int64Ptr(10)},
				{Dimension: models.DimensionCourse, TargetID: int64Ptr(7), Level: "300"},
				{Gender: models.GenderBoth},
			}},
		{ID: "s2", OwnerID: "owner-1", Title: "Sleep", SheetLink: "https://docs.google.com/spreadsheets/d/sheet-2/edit", TargetResponses: 5},
		{ID: "s3", OwnerID: "owner-2", Title: "Other"},
	}}
	reader := &fakeSheetReader{entries: map[string][]sheets.Entry{
		surveySheet: {{Email: "a@example.com"}, {Email: "b@example.com"}},
	}}
	svc := NewSurveyService(newFakeUserStore(), surveys, reader, fakeNamer{}, editors, nil, zap.NewNop(), "bot@surveyhustler.iam.gserviceaccount.com")
	return svc, surveys, reader
}

func TestSurveyServiceMySurveys(t *testing.T) {
	svc, _, _ := newSurveyServiceForTest(nil)

	items, err := svc.MySurveys(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, models.SurveyComplete, items[0].Status)
	assert.Equal(t, 2, items[0].Responses)
	assert.Equal(t, models.SurveyIncomplete, items[1].Status)
}

func TestSurveyServiceDetailsDescribesNiches(t *testing.T) {
	svc, _, _ := newSurveyServiceForTest(nil)

	details, err := svc.SurveyDetails(context.Background(), "owner-1", "s1")
	require.NoError(t, err)
	require.Len(t, details.Niches, 3)
	assert.Equal(t, "College of Engineering females", details.Niches[0].Description)
	assert.Equal(t, "100, 400, 500", details.Niches[0].Levels)
	assert.Equal(t, "Computer Science students", details.Niches[1].Description)
	assert.Equal(t, "300", details.Niches[1].Levels)
	assert.Equal(t, "Everyone", details.Niches[2].Description)

	details, err = svc.SurveyDetails(context.Background(), "owner-1", "s2")
	require.NoError(t, err)
	require.Len(t, details.Niches, 1)
	assert.Equal(t, "Everyone", details.Niches[0].Description)
}

func TestSurveyServiceOwnership(t *testing.T) {
	svc, _, _ := newSurveyServiceForTest(nil)

	_, err := svc.MySurvey(context.Background(), "owner-1", "s3")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(err))

	_, err = svc.GetSurvey(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))
}

func TestSurveyServiceDiscontinue(t *testing.T) {
	svc, store, _ := newSurveyServiceForTest(nil)

	require.NoError(t, svc.Discontinue(context.Background(), "owner-1", "s2"))
	assert.Equal(t, []string{"s2"}, store.deleted)

	err := svc.Discontinue(context.Background(), "owner-1", "s3")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(err))
}

func TestSurveyServiceVerifyLinks(t *testing.T) {
	req := models.LinkVerificationRequest{FormLink: surveyForm, SheetLink: surveySheet}

	svc, _, _ := newSurveyServiceForTest(fakeEditors{present: true})
	result, err := svc.VerifyLinks(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.SheetReadable)
	assert.True(t, result.EditorPresent)

	svc, _, _ = newSurveyServiceForTest(fakeEditors{present: false})
	result, err = svc.VerifyLinks(context.Background(), req)
	require.Error(t, err)
	assert.True(t, result.SheetReadable)
	assert.False(t, result.EditorPresent)

	svc, _, reader := newSurveyServiceForTest(fakeEditors{present: true})
	reader.probeErr = errors.New("forbidden")
	result, err = svc.VerifyLinks(context.Background(), req)
	require.Error(t, err)
	assert.False(t, result.SheetReadable)

	svc, _, _ = newSurveyServiceForTest(fakeEditors{err: sheets.ErrDocumentNotFound})
	_, err = svc.VerifyLinks(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))
}

func TestSurveyServiceVerifyLinksRejectsUnknownShapes(t *testing.T) {
	svc, _, _ := newSurveyServiceForTest(nil)

	_, err := svc.VerifyLinks(context.Background(), models.LinkVerificationRequest{FormLink: "https://example.com/form", SheetLink: surveySheet})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))
}
