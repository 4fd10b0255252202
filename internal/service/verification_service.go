package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/surveyhustler-api/internal/models"
	"github.com/noah-isme/surveyhustler-api/internal/repository"
	appErrors "github.com/noah-isme/surveyhustler-api/pkg/errors"
	"github.com/noah-isme/surveyhustler-api/pkg/sheets"
)

type rewardLedger interface {
	CreditReward(ctx context.Context, userID, surveyID string, reward int64) (int64, error)
}

type verificationRecorder interface {
	RecordVerification(outcome string)
}

// startTimeLayouts are the accepted layouts for a claimed start time. Values
// without an offset are read as UTC.
var startTimeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"}

// VerificationService confirms that a respondent's sheet entry is a fresh,
// unhurried submission and credits the survey reward.
type VerificationService struct {
	users     respondentLookup
	surveys   surveyLister
	reader    sheetReader
	ledger    rewardLedger
	validator *validator.Validate
	logger    *zap.Logger
	metrics   verificationRecorder
	source    *time.Location
	now       func() time.Time
}

// NewVerificationService constructs a VerificationService. sourceOffset is the
// UTC offset sheet timestamps are written in.
func NewVerificationService(users respondentLookup, surveys surveyLister, reader sheetReader, ledger rewardLedger, validate *validator.Validate, logger *zap.Logger, metrics verificationRecorder, sourceOffset time.Duration) *VerificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &VerificationService{
		users:     users,
		surveys:   surveys,
		reader:    reader,
		ledger:    ledger,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		source:    sheets.FixedZone(sourceOffset),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Verify checks the claimed submission and credits the reward when it is accepted.
func (s *VerificationService) Verify(ctx context.Context, req models.VerificationRequest) (*models.VerificationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid verification payload")
	}
	result, err := s.verify(ctx, req)
	s.record(err)
	return result, err
}

func (s *VerificationService) verify(ctx context.Context, req models.VerificationRequest) (*models.VerificationResult, error) {
	user, err := s.users.FindByExternalID(ctx, req.ExternalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUserNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	survey, err := s.resolveSurvey(ctx, req.FormLink)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(survey.SheetLink) == "" {
		return nil, appErrors.Clone(appErrors.ErrMissingSheetLink, "")
	}

	start, ok := parseStartTime(req.StartTime)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidStartTime, "")
	}

	dwell, ok := survey.MinimumDwell()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrMalformedDuration, "")
	}
	elapsed := s.now().Sub(start)
	if elapsed < dwell {
		return nil, appErrors.Clone(appErrors.ErrTooFast, fmt.Sprintf("%s (%ds < %ds)",
			strings.TrimSuffix(appErrors.ErrTooFast.Message, "."), int64(elapsed.Seconds()), int64(dwell.Seconds())))
	}

	entries := s.reader.Entries(ctx, survey.SheetLink, true)
	if len(entries) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoEntries, "")
	}

	email := strings.ToLower(strings.TrimSpace(user.Email))
	fresh := false
	for _, entry := range entries {
		if entry.Email != email || entry.Timestamp == "" {
			continue
		}
		parsed, err := sheets.ParseTimestamp(entry.Timestamp, s.source)
		if err != nil {
			s.logger.Warn("unparseable sheet timestamp",
				zap.String("survey_id", survey.ID), zap.String("timestamp", entry.Timestamp))
			return nil, appErrors.Wrap(err, appErrors.ErrUnparseableTimestamp.Code, appErrors.ErrUnparseableTimestamp.Status,
				appErrors.ErrUnparseableTimestamp.Message)
		}
		if parsed.UTC.After(start) {
			fresh = true
			break
		}
	}
	if !fresh {
		return nil, appErrors.Clone(appErrors.ErrNoFreshEntry, "")
	}

	wallet, err := s.ledger.CreditReward(ctx, user.ID, survey.ID, survey.Reward)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyCredited) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyRewarded, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to credit reward")
	}

	s.logger.Info("submission verified",
		zap.String("user_id", user.ID), zap.String("survey_id", survey.ID), zap.Int64("reward", survey.Reward))
	return &models.VerificationResult{Verified: true, SurveyID: survey.ID, Reward: survey.Reward, Wallet: wallet}, nil
}

func (s *VerificationService) resolveSurvey(ctx context.Context, formLink string) (*models.Survey, error) {
	if _, ok := sheets.ExtractDocumentID(formLink); !ok {
		return nil, appErrors.Clone(appErrors.ErrSurveyNotFound, "")
	}
	surveys, err := s.surveys.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list surveys")
	}
	for i := range surveys {
		if sheets.SameDocument(surveys[i].ResponderLink, formLink) {
			return &surveys[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrSurveyNotFound, "")
}

func (s *VerificationService) record(err error) {
	if s.metrics == nil {
		return
	}
	if err == nil {
		s.metrics.RecordVerification(verificationAccepted)
		return
	}
	s.metrics.RecordVerification(appErrors.FromError(err).Code)
}

func parseStartTime(raw string) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	for _, layout := range startTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
