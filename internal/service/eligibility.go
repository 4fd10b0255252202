package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/surveyhustler-api/internal/models"
	appErrors "github.com/noah-isme/surveyhustler-api/pkg/errors"
	"github.com/noah-isme/surveyhustler-api/pkg/sheets"
)

type sheetReader interface {
	Count(ctx context.Context, link string) int
	Entries(ctx context.Context, link string, requireTimestamp bool) []sheets.Entry
	Records(ctx context.Context, link string) sheets.Table
	Probe(ctx context.Context, link string) error
}

type respondentLookup interface {
	FindByExternalID(ctx context.Context, externalID string) (*models.User, error)
}

type surveyLister interface {
	List(ctx context.Context) ([]models.Survey, error)
}

type completionChecker interface {
	HasCompleted(ctx context.Context, userID, surveyID string) (bool, error)
}

// IsEligible reports whether profile may answer survey. Rules combine as an OR
// of conjunctive matches; an unfiltered survey admits everyone.
func IsEligible(profile models.Profile, survey *models.Survey) bool {
	if survey == nil {
		return false
	}
	if !survey.ApplyFilter || len(survey.Filters) == 0 {
		return true
	}
	for _, rule := range survey.Filters {
		if ruleMatches(profile, rule) {
			return true
		}
	}
	return false
}

func ruleMatches(profile models.Profile, rule models.FilterRule) bool {
	if rule.InstitutionID != nil && !idEquals(profile.InstitutionID, *rule.InstitutionID) {
		return false
	}
	if rule.Gender != "" && rule.Gender != models.GenderBoth && rule.Gender != profile.Gender {
		return false
	}
	if rule.Dimension != "" && rule.TargetID != nil {
		var actual *int64
		switch rule.Dimension {
		case models.DimensionCollege:
			actual = profile.CollegeID
		case models.DimensionDepartment:
			actual = profile.DepartmentID
		case models.DimensionCourse:
			actual = profile.CourseID
		}
		if !idEquals(actual, *rule.TargetID) {
			return false
		}
	}
	if rule.Level != "" && rule.Level != models.LevelAll && rule.Level != profile.Level {
		return false
	}
	return true
}

func idEquals(actual *int64, want int64) bool {
	return actual != nil && *actual == want
}

// EligibilityService lists the surveys a respondent can still answer.
type EligibilityService struct {
	users       respondentLookup
	surveys     surveyLister
	reader      sheetReader
	completions completionChecker
	logger      *zap.Logger
	concurrency int
}

// NewEligibilityService constructs an EligibilityService.
func NewEligibilityService(users respondentLookup, surveys surveyLister, reader sheetReader, completions completionChecker, logger *zap.Logger, concurrency int) *EligibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &EligibilityService{
		users:       users,
		surveys:     surveys,
		reader:      reader,
		completions: completions,
		logger:      logger,
		concurrency: concurrency,
	}
}

// ListEligible returns the surveys matching the user's profile that they have
// neither answered nor been rewarded for, highest reward first.
func (s *EligibilityService) ListEligible(ctx context.Context, externalID string, page, pageSize int) ([]models.EligibleSurvey, *models.Pagination, error) {
	user, err := s.users.FindByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrUserNotFound, "")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	all, err := s.surveys.List(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list surveys")
	}

	profile := user.Profile()
	candidates := make([]models.Survey, 0, len(all))
	for _, survey := range all {
		if survey.OwnerID == user.ID || strings.TrimSpace(survey.ResponderLink) == "" {
			continue
		}
		if !IsEligible(profile, &survey) {
			continue
		}
		candidates = append(candidates, survey)
	}

	email := strings.ToLower(strings.TrimSpace(user.Email))
	results := make([]*models.EligibleSurvey, len(candidates))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.concurrency)
	for i := range candidates {
		survey := candidates[i]
		idx := i
		eg.Go(func() error {
			done, err := s.completions.HasCompleted(egCtx, user.ID, survey.ID)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
			entries := s.reader.Entries(egCtx, survey.SheetLink, true)
			for _, entry := range entries {
				if entry.Email == email {
					return nil
				}
			}
			results[idx] = &models.EligibleSurvey{
				ID:              survey.ID,
				Title:           survey.Title,
				Description:     survey.Description,
				Reward:          survey.Reward,
				DurationMinutes: survey.DurationMinutes,
				ResponderLink:   survey.ResponderLink,
				Responses:       len(entries),
				Target:          survey.TargetResponses,
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read response sheets")
	}

	eligible := make([]models.EligibleSurvey, 0, len(results))
	for _, r := range results {
		if r != nil {
			eligible = append(eligible, *r)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Reward > eligible[j].Reward
	})

	page, pageSize = normalizePage(page, pageSize)
	pagination := &models.Pagination{Page: page, PageSize: pageSize, TotalCount: len(eligible)}
	start := (page - 1) * pageSize
	if start >= len(eligible) {
		return []models.EligibleSurvey{}, pagination, nil
	}
	end := start + pageSize
	if end > len(eligible) {
		end = len(eligible)
	}
	s.logger.Debug("eligible surveys listed", zap.String("user_id", user.ID), zap.Int("total", len(eligible)))
	return eligible[start:end], pagination, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 5
	}
	if pageSize > 50 {
		pageSize = 50
	}
	return page, pageSize
}
