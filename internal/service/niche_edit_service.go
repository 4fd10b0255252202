package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/surveyhustler-api/internal/models"
	appErrors "github.com/noah-isme/surveyhustler-api/pkg/errors"
)

type surveyGetter interface {
	GetByID(ctx context.Context, id string) (*models.Survey, error)
}

type nicheDialogStore interface {
	GetNicheSession(ctx context.Context, userID, surveyID string) (*models.NicheEditSession, error)
	SaveNicheSession(ctx context.Context, session *models.NicheEditSession) error
	DeleteNicheSession(ctx context.Context, userID, surveyID string) error
}

type nicheOptionSource interface {
	Options(ctx context.Context, dimension models.FilterDimension) ([]models.NamedOption, error)
}

type nicheCheckout interface {
	InitiateNicheEditPayment(ctx context.Context, userID string, edit models.NicheEditPayload) (*models.CheckoutSession, error)
}

// NicheEditService runs the paid niche edit dialog as a persisted state machine
// per (user, survey).
type NicheEditService struct {
	surveys  surveyGetter
	sessions nicheDialogStore
	options  nicheOptionSource
	payments nicheCheckout
	logger   *zap.Logger
	now      func() time.Time
}

// NewNicheEditService constructs a NicheEditService.
func NewNicheEditService(surveys surveyGetter, sessions nicheDialogStore, options nicheOptionSource, payments nicheCheckout, logger *zap.Logger) *NicheEditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NicheEditService{
		surveys:  surveys,
		sessions: sessions,
		options:  options,
		payments: payments,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start opens a new dialog, replacing any previous one for the same survey.
func (s *NicheEditService) Start(ctx context.Context, userID, surveyID string) (*models.NicheEditSession, error) {
	survey, err := s.ownedSurvey(ctx, userID, surveyID)
	if err != nil {
		return nil, err
	}
	if !editable(survey) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot edit niche for Everyone")
	}
	session := &models.NicheEditSession{
		UserID:   userID,
		SurveyID: surveyID,
		State:    models.NicheSelecting,
	}
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SelectNiche picks the rule to edit by its 1-based position.
func (s *NicheEditService) SelectNiche(ctx context.Context, userID, surveyID string, index int) (*models.NicheEditSession, error) {
	session, err := s.inState(ctx, userID, surveyID, models.NicheSelecting)
	if err != nil {
		return nil, err
	}
	survey, err := s.ownedSurvey(ctx, userID, surveyID)
	if err != nil {
		return nil, err
	}
	if index < 1 || index > len(survey.Filters) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("niche must be between 1 and %d", len(survey.Filters)))
	}
	rule := survey.Filters[index-1]
	if rule.Everyone() || rule.Dimension == "" || rule.TargetID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot edit niche for Everyone")
	}

	session.RuleIndex = index
	session.Rule = &rule
	session.State = models.NicheChoosingGender
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ChooseGender records the new gender and loads the options of the rule's dimension.
func (s *NicheEditService) ChooseGender(ctx context.Context, userID, surveyID, gender string) (*models.NicheEditSession, error) {
	session, err := s.inState(ctx, userID, surveyID, models.NicheChoosingGender)
	if err != nil {
		return nil, err
	}
	switch gender {
	case models.GenderMale, models.GenderFemale, models.GenderBoth:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "gender must be Male, Female or Both")
	}
	options, err := s.options.Options(ctx, session.Rule.Dimension)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list niche options")
	}

	session.NewGender = gender
	session.Options = options
	session.State = models.NicheChoosingOption
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ChooseOption records the new target of the rule.
func (s *NicheEditService) ChooseOption(ctx context.Context, userID, surveyID string, optionID int64) (*models.NicheEditSession, error) {
	session, err := s.inState(ctx, userID, surveyID, models.NicheChoosingOption)
	if err != nil {
		return nil, err
	}
	found := false
	for _, opt := range session.Options {
		if opt.ID == optionID {
			found = true
			break
		}
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown option")
	}
	session.NewTargetID = optionID
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Checkout starts the payment for the pending edit.
func (s *NicheEditService) Checkout(ctx context.Context, userID, surveyID string) (*models.CheckoutSession, error) {
	session, err := s.inState(ctx, userID, surveyID, models.NicheChoosingOption)
	if err != nil {
		return nil, err
	}
	if session.NewTargetID == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "choose an option before checkout")
	}

	checkout, err := s.payments.InitiateNicheEditPayment(ctx, userID, models.NicheEditPayload{
		SurveyID:    surveyID,
		Current:     *session.Rule,
		NewGender:   session.NewGender,
		NewTargetID: session.NewTargetID,
		Dimension:   session.Rule.Dimension,
	})
	if err != nil {
		return nil, err
	}

	session.PaymentReference = checkout.Reference
	session.CheckoutURL = checkout.CheckoutURL
	session.Options = nil
	session.State = models.NicheAwaitingPayment
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return checkout, nil
}

// Get returns the dialog in progress.
func (s *NicheEditService) Get(ctx context.Context, userID, surveyID string) (*models.NicheEditSession, error) {
	session, err := s.sessions.GetNicheSession(ctx, userID, surveyID)
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no niche edit in progress")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load niche edit")
	}
	return session, nil
}

// Cancel discards the dialog.
func (s *NicheEditService) Cancel(ctx context.Context, userID, surveyID string) error {
	if err := s.sessions.DeleteNicheSession(ctx, userID, surveyID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel niche edit")
	}
	return nil
}

func (s *NicheEditService) inState(ctx context.Context, userID, surveyID string, want models.NicheEditState) (*models.NicheEditSession, error) {
	session, err := s.Get(ctx, userID, surveyID)
	if err != nil {
		return nil, err
	}
	if session.State != want {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("niche edit is in state %s, expected %s", session.State, want))
	}
	return session, nil
}

func (s *NicheEditService) ownedSurvey(ctx context.Context, userID, surveyID string) (*models.Survey, error) {
	survey, err := s.surveys.GetByID(ctx, surveyID)
	if err != nil {
		return nil, surveyLookupError(err)
	}
	if survey.OwnerID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "survey belongs to another creator")
	}
	return survey, nil
}

func (s *NicheEditService) save(ctx context.Context, session *models.NicheEditSession) error {
	session.UpdatedAt = s.now()
	if err := s.sessions.SaveNicheSession(ctx, session); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save niche edit")
	}
	return nil
}

func editable(survey *models.Survey) bool {
	if !survey.ApplyFilter {
		return false
	}
	for _, rule := range survey.Filters {
		if !rule.Everyone() && rule.TargetID != nil {
			return true
		}
	}
	return false
}
