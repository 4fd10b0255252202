package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/surveyhustler-api/internal/models"
	appErrors "github.com/noah-isme/surveyhustler-api/pkg/errors"
	"github.com/noah-isme/surveyhustler-api/pkg/sheets"
	"github.com/noah-isme/surveyhustler-api/pkg/storage"
)

const exportSheet = "https://docs.google.com/spreadsheets/d/sheet-export/edit"

func newExportServiceForTest(t *testing.T) (*ExportService, *fakeSheetReader) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	reader := &fakeSheetReader{tables: map[string]sheets.Table{
		exportSheet: {
			Headers: []string{"timestamp", "email address", "rating"},
			Rows: []map[string]string{
				{"timestamp": "1/2/2024 10:00:00", "email address": "a@example.com", "rating": "4"},
				{"timestamp": "1/2/2024 11:00:00", "email address": "b@example.com", "rating": "5"},
			},
		},
	}}
	surveys := &fakeSurveyStore{surveys: []models.Survey{
		{ID: "survey-1", OwnerID: "owner-1", Title: "Campus Food Poll!", SheetLink: exportSheet},
		{ID: "survey-2", OwnerID: "owner-1", Title: "Empty", SheetLink: "https://docs.google.com/spreadsheets/d/empty/edit"},
	}}
	svc := NewExportService(surveys, reader, store, storage.NewTokenSigner("secret", time.Hour),
		ExportConfig{APIPrefix: "/api/v1"}, zap.NewNop(), nil, nil)
	return svc, reader
}

func TestExportServiceCSVRoundTrip(t *testing.T) {
	svc, _ := newExportServiceForTest(t)

	link, err := svc.ExportResponses(context.Background(), "owner-1", "survey-1", models.ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "campus_food_poll_responses.csv", link.Filename)
	assert.True(t, strings.HasPrefix(link.URL, "/api/v1/exports/download?token="))

	file, name, err := svc.Download(link.Token)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, link.Filename, name)

	body, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(body), "b@example.com")
}

func TestExportServicePDF(t *testing.T) {
	svc, _ := newExportServiceForTest(t)

	link, err := svc.ExportResponses(context.Background(), "owner-1", "survey-1", models.ExportPDF)
	require.NoError(t, err)

	file, _, err := svc.Download(link.Token)
	require.NoError(t, err)
	defer file.Close()
	head := make([]byte, 4)
	_, err = io.ReadFull(file, head)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(head))
}

func TestExportServiceRejectsOtherOwner(t *testing.T) {
	svc, _ := newExportServiceForTest(t)

	_, err := svc.ExportResponses(context.Background(), "intruder", "survey-1", models.ExportCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportServiceEmptySheet(t *testing.T) {
	svc, _ := newExportServiceForTest(t)

	_, err := svc.ExportResponses(context.Background(), "owner-1", "survey-2", models.ExportCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoEntries.Code, appErrors.FromError(err).Code)
}

func TestExportServiceUnknownFormat(t *testing.T) {
	svc, _ := newExportServiceForTest(t)

	_, err := svc.ExportResponses(context.Background(), "owner-1", "survey-1", models.ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceDownloadRejectsTamperedToken(t *testing.T) {
	svc, _ := newExportServiceForTest(t)

	link, err := svc.ExportResponses(context.Background(), "owner-1", "survey-1", models.ExportCSV)
	require.NoError(t, err)

	_, _, err = svc.Download(link.Token + "x")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportServiceCleanupRemovesExpired(t *testing.T) {
	svc, _ := newExportServiceForTest(t)

	link, err := svc.ExportResponses(context.Background(), "owner-1", "survey-1", models.ExportCSV)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	removed, err := svc.Cleanup(time.Millisecond)
	require.NoError(t, err)
	assert.Len(t, removed, 1)

	_, _, err = svc.Download(link.Token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
