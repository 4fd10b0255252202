package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/surveyhustler-api/internal/models"
	appErrors "github.com/noah-isme/surveyhustler-api/pkg/errors"
	"github.com/noah-isme/surveyhustler-api/pkg/export"
	"github.com/noah-isme/surveyhustler-api/pkg/storage"
)

type fileStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type downloadSigner interface {
	Sign(claims storage.DownloadClaims) (string, time.Time, error)
	Verify(token string) (storage.DownloadClaims, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportService renders a survey's response sheet to a file behind a signed link.
type ExportService struct {
	surveys surveyGetter
	reader  sheetReader
	storage fileStorage
	signer  downloadSigner
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(surveys surveyGetter, reader sheetReader, store fileStorage, signer downloadSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		surveys: surveys,
		reader:  reader,
		storage: store,
		signer:  signer,
		csv:     csv,
		pdf:     pdf,
		logger:  logger,
		cfg:     cfg,
	}
}

// ExportResponses renders the survey's responses and returns a download link.
func (s *ExportService) ExportResponses(ctx context.Context, userID, surveyID string, format models.ExportFormat) (*models.ExportLink, error) {
	survey, err := s.surveys.GetByID(ctx, surveyID)
	if err != nil {
		return nil, surveyLookupError(err)
	}
	if survey.OwnerID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "survey belongs to another creator")
	}

	table := s.reader.Records(ctx, survey.SheetLink)
	if len(table.Headers) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoEntries, "")
	}
	dataset := export.Dataset{Headers: table.Headers, Rows: table.Rows}

	var payload []byte
	switch format {
	case models.ExportCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportPDF:
		payload, err = s.pdf.Render(dataset, survey.Title)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := exportFilename(survey.Title, format)
	stored, err := s.storage.Save(path.Join(survey.ID, fmt.Sprintf("%d_%s", time.Now().UTC().Unix(), filename)), payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, expiresAt, err := s.signer.Sign(storage.DownloadClaims{SurveyID: survey.ID, OwnerID: userID, File: stored})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Info("responses exported",
		zap.String("survey_id", survey.ID), zap.String("format", string(format)), zap.Int("rows", len(table.Rows)))
	return &models.ExportLink{
		Token:     token,
		URL:       fmt.Sprintf("%s/exports/download?token=%s", prefix, token),
		Filename:  filename,
		ExpiresAt: expiresAt.Unix(),
	}, nil
}

// Download validates a token and opens the file it grants.
func (s *ExportService) Download(token string) (*os.File, string, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, "", appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	file, err := s.storage.Open(claims.File)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export")
	}
	name := path.Base(claims.File)
	if _, rest, ok := strings.Cut(name, "_"); ok {
		name = rest
	}
	return file, name, nil
}

// Cleanup removes files older than ttl, or the configured result TTL when ttl <= 0.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

var unsafeFilename = regexp.MustCompile(`[^a-z0-9]+`)

func exportFilename(title string, format models.ExportFormat) string {
	base := strings.Trim(unsafeFilename.ReplaceAllString(strings.ToLower(title), "_"), "_")
	if base == "" {
		base = "survey"
	}
	if len(base) > 60 {
		base = base[:60]
	}
	return fmt.Sprintf("%s_responses.%s", base, format)
}
