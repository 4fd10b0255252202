package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/surveyhustler-api/internal/models"
	"github.com/noah-isme/surveyhustler-api/internal/repository"
	appErrors "github.com/noah-isme/surveyhustler-api/pkg/errors"
	"github.com/noah-isme/surveyhustler-api/pkg/korapay"
	"github.com/noah-isme/surveyhustler-api/pkg/webhook"
)

type paymentRepository interface {
	Create(ctx context.Context, txn *models.PaymentTransaction) error
	GetByReference(ctx context.Context, reference string) (*models.PaymentTransaction, error)
	MarkFailed(ctx context.Context, reference string) error
	Settle(ctx context.Context, reference string, fn repository.SettleFunc) (*models.PaymentTransaction, bool, error)
}

type checkoutGateway interface {
	InitiateCheckout(ctx context.Context, req korapay.CheckoutRequest) (*korapay.Checkout, error)
}

type nicheSessionStore interface {
	GetNicheSession(ctx context.Context, userID, surveyID string) (*models.NicheEditSession, error)
	SaveNicheSession(ctx context.Context, session *models.NicheEditSession) error
}

type webhookRecorder interface {
	RecordWebhook(event string, outcome models.WebhookOutcome)
}

// PaymentConfig holds the pricing and signing settings of the payment flow.
type PaymentConfig struct {
	Currency      string
	RedirectURL   string
	WebhookSecret string
	ListingFee    int64
	NicheEditCost int64
}

// PaymentService starts hosted checkouts and settles them from signed webhooks.
type PaymentService struct {
	repo      paymentRepository
	gateway   checkoutGateway
	sessions  nicheSessionStore
	validator *validator.Validate
	logger    *zap.Logger
	metrics   webhookRecorder
	config    PaymentConfig
	now       func() time.Time
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(repo paymentRepository, gateway checkoutGateway, sessions nicheSessionStore, validate *validator.Validate, logger *zap.Logger, metrics webhookRecorder, cfg PaymentConfig) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.Currency == "" {
		cfg.Currency = "NGN"
	}
	return &PaymentService{
		repo:      repo,
		gateway:   gateway,
		sessions:  sessions,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		config:    cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// InitiateSurveyPayment records a pending survey creation and returns the checkout link.
func (s *PaymentService) InitiateSurveyPayment(ctx context.Context, userID string, draft models.SurveyDraft) (*models.CheckoutSession, error) {
	if err := s.validator.Struct(draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid survey payload")
	}
	if err := draft.Filters.Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if !draft.ApplyFilter {
		draft.Filters = nil
	}

	payload, err := json.Marshal(draft)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode survey payload")
	}
	return s.initiate(ctx, userID, models.PaymentSurveyCreation, draft.Cost(s.config.ListingFee), payload,
		fmt.Sprintf("Survey listing: %s", draft.Title))
}

// InitiateNicheEditPayment records a pending rule rewrite and returns the checkout link.
func (s *PaymentService) InitiateNicheEditPayment(ctx context.Context, userID string, edit models.NicheEditPayload) (*models.CheckoutSession, error) {
	if edit.SurveyID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "survey id is required")
	}
	payload, err := json.Marshal(edit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode niche payload")
	}
	return s.initiate(ctx, userID, models.PaymentNicheEdit, s.config.NicheEditCost, payload, "Survey niche edit")
}

func (s *PaymentService) initiate(ctx context.Context, userID string, kind models.PaymentKind, amount int64, payload []byte, narration string) (*models.CheckoutSession, error) {
	if amount <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must be positive")
	}
	txn := &models.PaymentTransaction{
		Reference: s.newReference(kind, userID),
		UserID:    userID,
		Amount:    amount,
		Kind:      kind,
		Status:    models.PaymentPending,
		Payload:   types.JSONText(payload),
	}
	if err := s.repo.Create(ctx, txn); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "payment reference already exists, retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}

	checkout, err := s.gateway.InitiateCheckout(ctx, korapay.CheckoutRequest{
		Amount:      amount,
		Currency:    s.config.Currency,
		Narration:   narration,
		RedirectURL: s.config.RedirectURL,
		Reference:   txn.Reference,
	})
	if err != nil {
		s.logger.Error("checkout initiation failed", zap.String("reference", txn.Reference), zap.Error(err))
		if markErr := s.repo.MarkFailed(ctx, txn.Reference); markErr != nil {
			s.logger.Warn("failed to mark payment failed", zap.String("reference", txn.Reference), zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "payment provider unavailable")
	}

	s.logger.Info("checkout initiated",
		zap.String("reference", txn.Reference), zap.String("kind", string(kind)), zap.Int64("amount", amount))
	return &models.CheckoutSession{Reference: txn.Reference, CheckoutURL: checkout.CheckoutURL, Amount: amount}, nil
}

// HandleWebhook verifies and applies a gateway notification. Deliveries are
// idempotent: a settled reference is acknowledged without further effect.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) (models.WebhookOutcome, error) {
	if !webhook.Verify(body, signature, s.config.WebhookSecret) {
		s.logger.Warn("webhook signature mismatch")
		s.recordWebhook("", models.WebhookRejected)
		return models.WebhookRejected, appErrors.Clone(appErrors.ErrInvalidSignature, "")
	}

	event, err := korapay.ParseEvent(body)
	if err != nil {
		s.recordWebhook("", models.WebhookRejected)
		return models.WebhookRejected, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid webhook payload")
	}
	reference := strings.TrimSpace(event.Data.Reference)

	var outcome models.WebhookOutcome
	switch event.Event {
	case korapay.EventChargeSuccess:
		outcome, err = s.settle(ctx, reference)
	case korapay.EventChargeFailed:
		outcome, err = s.fail(ctx, reference)
	default:
		outcome = models.WebhookIgnored
	}
	if err != nil {
		s.recordWebhook(event.Event, models.WebhookErrored)
		s.logger.Warn("webhook not processed",
			zap.String("event", event.Event), zap.String("reference", reference), zap.Error(err))
		return "", err
	}
	s.recordWebhook(event.Event, outcome)
	s.logger.Info("webhook processed",
		zap.String("event", event.Event), zap.String("reference", reference), zap.String("outcome", string(outcome)))
	return outcome, nil
}

func (s *PaymentService) settle(ctx context.Context, reference string) (models.WebhookOutcome, error) {
	if reference == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "webhook reference is required")
	}
	txn, applied, err := s.repo.Settle(ctx, reference, s.apply)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "transaction not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to settle payment")
	}
	if !applied {
		if txn.Status == models.PaymentFailed {
			return models.WebhookFailed, nil
		}
		return models.WebhookDuplicate, nil
	}
	if txn.Kind == models.PaymentNicheEdit {
		s.markNicheApplied(ctx, txn)
	}
	return models.WebhookApplied, nil
}

func (s *PaymentService) fail(ctx context.Context, reference string) (models.WebhookOutcome, error) {
	if reference == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "webhook reference is required")
	}
	err := s.repo.MarkFailed(ctx, reference)
	if err == nil {
		return models.WebhookFailed, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark payment failed")
	}
	if _, lookupErr := s.repo.GetByReference(ctx, reference); lookupErr != nil {
		if errors.Is(lookupErr, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "transaction not found")
		}
		return "", appErrors.Wrap(lookupErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return models.WebhookDuplicate, nil
}

// apply runs inside the settlement transaction.
func (s *PaymentService) apply(ctx context.Context, stx repository.SettlementTx, txn *models.PaymentTransaction) (string, error) {
	switch txn.Kind {
	case models.PaymentSurveyCreation:
		var draft models.SurveyDraft
		if err := json.Unmarshal(txn.Payload, &draft); err != nil {
			return "", fmt.Errorf("%w: %v", repository.ErrRejectPayload, err)
		}
		duration := draft.DurationMinutes
		survey := &models.Survey{
			OwnerID:         txn.UserID,
			Title:           draft.Title,
			Description:     draft.Description,
			ResponderLink:   draft.ResponderLink,
			SheetLink:       draft.SheetLink,
			DurationMinutes: &duration,
			TargetResponses: draft.TargetResponses,
			Reward:          draft.Reward,
			ApplyFilter:     draft.ApplyFilter,
			Filters:         draft.Filters,
			CreatedAt:       s.now(),
		}
		if err := stx.InsertSurvey(ctx, survey); err != nil {
			return "", err
		}
		return survey.ID, nil
	case models.PaymentNicheEdit:
		var edit models.NicheEditPayload
		if err := json.Unmarshal(txn.Payload, &edit); err != nil {
			return "", fmt.Errorf("%w: %v", repository.ErrRejectPayload, err)
		}
		survey, err := stx.LockSurvey(ctx, edit.SurveyID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return "", fmt.Errorf("%w: survey %s no longer exists", repository.ErrRejectPayload, edit.SurveyID)
			}
			return "", err
		}
		filters, err := ApplyNicheEdit(survey.Filters, edit)
		if err != nil {
			return "", fmt.Errorf("%w: %v", repository.ErrRejectPayload, err)
		}
		if err := stx.UpdateSurveyFilters(ctx, survey.ID, filters); err != nil {
			return "", err
		}
		return survey.ID, nil
	}
	return "", fmt.Errorf("%w: unknown payment kind %q", repository.ErrRejectPayload, txn.Kind)
}

// ApplyNicheEdit rewrites the rule identified by edit.Current's dimension and
// target with the new gender and target id.
func ApplyNicheEdit(filters models.FilterRules, edit models.NicheEditPayload) (models.FilterRules, error) {
	if edit.Current.TargetID == nil {
		return nil, errors.New("current rule has no target")
	}
	for i, rule := range filters {
		if rule.Dimension != edit.Current.Dimension || rule.TargetID == nil || *rule.TargetID != *edit.Current.TargetID {
			continue
		}
		updated := make(models.FilterRules, len(filters))
		copy(updated, filters)
		target := edit.NewTargetID
		rule.Gender = edit.NewGender
		rule.TargetID = &target
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		updated[i] = rule
		return updated, nil
	}
	return nil, errors.New("rule no longer present on survey")
}

func (s *PaymentService) markNicheApplied(ctx context.Context, txn *models.PaymentTransaction) {
	if s.sessions == nil || txn.ResourceID == nil {
		return
	}
	session, err := s.sessions.GetNicheSession(ctx, txn.UserID, *txn.ResourceID)
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("failed to load niche session", zap.String("reference", txn.Reference), zap.Error(err))
		}
		return
	}
	if session.PaymentReference != txn.Reference {
		return
	}
	session.State = models.NicheApplied
	session.UpdatedAt = s.now()
	if err := s.sessions.SaveNicheSession(ctx, session); err != nil {
		s.logger.Warn("failed to mark niche session applied", zap.String("reference", txn.Reference), zap.Error(err))
	}
}

func (s *PaymentService) newReference(kind models.PaymentKind, userID string) string {
	prefix := "SURVEY"
	if kind == models.PaymentNicheEdit {
		prefix = "NICHE"
	}
	return fmt.Sprintf("%s_%s_%d_%04d", prefix, userID, s.now().Unix(), rand.IntN(10000))
}

func (s *PaymentService) recordWebhook(event string, outcome models.WebhookOutcome) {
	if s.metrics != nil {
		s.metrics.RecordWebhook(event, outcome)
	}
}
