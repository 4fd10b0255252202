package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/surveyhustler-api/internal/models"
	appErrors "github.com/noah-isme/surveyhustler-api/pkg/errors"
	"github.com/noah-isme/surveyhustler-api/pkg/sheets"
)

type surveyRepository interface {
	GetByID(ctx context.Context, id string) (*models.Survey, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Survey, error)
	Delete(ctx context.Context, id, ownerID string) error
}

type nicheNamer interface {
	NodeName(ctx context.Context, dimension models.FilterDimension, id int64) (string, error)
	LevelsUnder(ctx context.Context, dimension models.FilterDimension, id int64) ([]string, error)
}

type editorChecker interface {
	HasEditor(ctx context.Context, link, email string) (bool, error)
}

// SurveyService serves creator survey management and the bot's survey lookups.
type SurveyService struct {
	users       respondentLookup
	surveys     surveyRepository
	reader      sheetReader
	names       nicheNamer
	editors     editorChecker
	validator   *validator.Validate
	logger      *zap.Logger
	editorEmail string
}

// NewSurveyService constructs a SurveyService. editorEmail is the account that
// must be an editor of every listed form.
func NewSurveyService(users respondentLookup, surveys surveyRepository, reader sheetReader, names nicheNamer, editors editorChecker, validate *validator.Validate, logger *zap.Logger, editorEmail string) *SurveyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SurveyService{
		users:       users,
		surveys:     surveys,
		reader:      reader,
		names:       names,
		editors:     editors,
		validator:   validate,
		logger:      logger,
		editorEmail: editorEmail,
	}
}

// ResolveUser maps a chat handle to its account.
func (s *SurveyService) ResolveUser(ctx context.Context, externalID string) (*models.User, error) {
	user, err := s.users.FindByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUserNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// GetSurvey returns a survey with its live response count.
func (s *SurveyService) GetSurvey(ctx context.Context, id string) (*models.EligibleSurvey, error) {
	survey, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.EligibleSurvey{
		ID:              survey.ID,
		Title:           survey.Title,
		Description:     survey.Description,
		Reward:          survey.Reward,
		DurationMinutes: survey.DurationMinutes,
		ResponderLink:   survey.ResponderLink,
		Responses:       s.reader.Count(ctx, survey.SheetLink),
		Target:          survey.TargetResponses,
	}, nil
}

// MySurveys lists a creator's surveys with their progress.
func (s *SurveyService) MySurveys(ctx context.Context, ownerID string) ([]models.SurveySummary, error) {
	surveys, err := s.surveys.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list surveys")
	}
	summaries := make([]models.SurveySummary, 0, len(surveys))
	for _, survey := range surveys {
		responses := s.reader.Count(ctx, survey.SheetLink)
		summaries = append(summaries, models.SurveySummary{
			ID:              survey.ID,
			Title:           survey.Title,
			Responses:       responses,
			TargetResponses: survey.TargetResponses,
			Reward:          survey.Reward,
			Status:          surveyStatus(responses, survey.TargetResponses),
			CreatedAt:       survey.CreatedAt,
		})
	}
	return summaries, nil
}

// MySurvey returns one survey owned by ownerID.
func (s *SurveyService) MySurvey(ctx context.Context, ownerID, id string) (*models.Survey, error) {
	survey, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if survey.OwnerID != ownerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "survey belongs to another creator")
	}
	return survey, nil
}

// SurveyDetails returns the creator's detailed view with readable niches.
func (s *SurveyService) SurveyDetails(ctx context.Context, ownerID, id string) (*models.SurveyDetails, error) {
	survey, err := s.MySurvey(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	responses := s.reader.Count(ctx, survey.SheetLink)
	niches, err := s.describeNiches(ctx, survey)
	if err != nil {
		return nil, err
	}
	return &models.SurveyDetails{
		Survey:    *survey,
		Responses: responses,
		Status:    surveyStatus(responses, survey.TargetResponses),
		Niches:    niches,
	}, nil
}

// Discontinue removes a creator's survey from the marketplace.
func (s *SurveyService) Discontinue(ctx context.Context, ownerID, id string) error {
	if _, err := s.MySurvey(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.surveys.Delete(ctx, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "survey not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to discontinue survey")
	}
	s.logger.Info("survey discontinued", zap.String("survey_id", id), zap.String("owner_id", ownerID))
	return nil
}

// VerifyLinks checks that the sheet is readable and the form is shared with the service editor.
func (s *SurveyService) VerifyLinks(ctx context.Context, req models.LinkVerificationRequest) (*models.LinkVerification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid link payload")
	}
	if _, ok := sheets.ExtractDocumentID(req.FormLink); !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "form link is not a recognised document link")
	}
	if _, ok := sheets.ExtractDocumentID(req.SheetLink); !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sheet link is not a recognised document link")
	}

	result := &models.LinkVerification{EditorEmail: s.editorEmail}
	if err := s.reader.Probe(ctx, req.SheetLink); err != nil {
		return result, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
			"the response sheet cannot be read, share it with "+s.editorEmail)
	}
	result.SheetReadable = true

	if s.editorEmail == "" || s.editors == nil {
		result.EditorPresent = true
		return result, nil
	}
	ok, err := s.editors.HasEditor(ctx, req.FormLink, s.editorEmail)
	if err != nil {
		if errors.Is(err, sheets.ErrDocumentNotFound) {
			return result, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
				"the form cannot be found, add "+s.editorEmail+" as an editor")
		}
		s.logger.Warn("form permission check failed", zap.Error(err))
		return result, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to check form permissions")
	}
	if !ok {
		return result, appErrors.Clone(appErrors.ErrValidation, "add "+s.editorEmail+" as an editor of the form")
	}
	result.EditorPresent = true
	return result, nil
}

func (s *SurveyService) load(ctx context.Context, id string) (*models.Survey, error) {
	survey, err := s.surveys.GetByID(ctx, id)
	if err != nil {
		return nil, surveyLookupError(err)
	}
	return survey, nil
}

func (s *SurveyService) describeNiches(ctx context.Context, survey *models.Survey) ([]models.NicheDescription, error) {
	if !survey.ApplyFilter || len(survey.Filters) == 0 {
		return []models.NicheDescription{{Index: 1, Description: "Everyone", Levels: models.LevelAll}}, nil
	}
	out := make([]models.NicheDescription, 0, len(survey.Filters))
	for i, rule := range survey.Filters {
		desc, levels, err := s.describeRule(ctx, rule)
		if err != nil {
			return nil, err
		}
		out = append(out, models.NicheDescription{Index: i + 1, Description: desc, Levels: levels})
	}
	return out, nil
}

func (s *SurveyService) describeRule(ctx context.Context, rule models.FilterRule) (string, string, error) {
	if rule.Everyone() {
		return "Everyone", models.LevelAll, nil
	}
	audience := "students"
	switch rule.Gender {
	case models.GenderMale:
		audience = "males"
	case models.GenderFemale:
		audience = "females"
	}

	description := strings.ToUpper(audience[:1]) + audience[1:]
	levels := rule.Level
	if rule.Dimension != "" && rule.TargetID != nil {
		name, err := s.names.NodeName(ctx, rule.Dimension, *rule.TargetID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve niche")
		}
		if name == "" {
			name = fmt.Sprintf("%s #%d", rule.Dimension, *rule.TargetID)
		}
		description = fmt.Sprintf("%s %s", name, audience)

		if levels == "" || levels == models.LevelAll {
			values, err := s.names.LevelsUnder(ctx, rule.Dimension, *rule.TargetID)
			if err != nil {
				return "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve niche levels")
			}
			levels = strings.Join(SortLevels(values), ", ")
		}
	}
	if levels == "" {
		levels = models.LevelAll
	}
	return description, levels, nil
}

func surveyStatus(responses, target int) models.SurveyStatus {
	if target > 0 && responses >= target {
		return models.SurveyComplete
	}
	return models.SurveyIncomplete
}

func surveyLookupError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "survey not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load survey")
}
