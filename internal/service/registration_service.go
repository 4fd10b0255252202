package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/surveyhustler-api/internal/models"
	"github.com/noah-isme/surveyhustler-api/internal/repository"
	appErrors "github.com/noah-isme/surveyhustler-api/pkg/errors"
	"github.com/noah-isme/surveyhustler-api/pkg/jobs"
	"github.com/noah-isme/surveyhustler-api/pkg/mailer"
)

// JobTypeOTPMail is the queue job type carrying a verification e-mail.
const JobTypeOTPMail = "otp_mail"

type registrationRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.User, error)
	FindClaimants(ctx context.Context, externalID, email, phone string) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	ReplacePending(ctx context.Context, user *models.User) error
	ClearOTP(ctx context.Context, id string, promoteTo *models.UserRole) error
	CompleteRegistration(ctx context.Context, id string, placement models.AcademicPlacement, role models.UserRole) error
}

type placementChecker interface {
	PlacementExists(ctx context.Context, placement models.AcademicPlacement) (bool, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type otpAttemptCounter interface {
	Hit(ctx context.Context, email string) (int64, error)
	Reset(ctx context.Context, email string) error
}

type mailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// RegistrationConfig controls one-time password issuance.
type RegistrationConfig struct {
	OTPTTL         time.Duration
	OTPLength      int
	MaxOTPAttempts int
}

// RegistrationService drives sign up: OTP issue, OTP verification and academic placement.
type RegistrationService struct {
	users      registrationRepository
	placements placementChecker
	mail       jobEnqueuer
	attempts   otpAttemptCounter
	validator  *validator.Validate
	logger     *zap.Logger
	config     RegistrationConfig
	now        func() time.Time
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(users registrationRepository, placements placementChecker, mail jobEnqueuer, attempts otpAttemptCounter, validate *validator.Validate, logger *zap.Logger, cfg RegistrationConfig) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = 5 * time.Minute
	}
	if cfg.OTPLength <= 0 {
		cfg.OTPLength = 6
	}
	if cfg.MaxOTPAttempts <= 0 {
		cfg.MaxOTPAttempts = 5
	}
	return &RegistrationService{
		users:      users,
		placements: placements,
		mail:       mail,
		attempts:   attempts,
		validator:  validate,
		logger:     logger,
		config:     cfg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SendOTP creates or refreshes an unverified account and e-mails a verification code.
func (s *RegistrationService) SendOTP(ctx context.Context, req models.OTPRequest) error {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	claimants, err := s.users.FindClaimants(ctx, req.ExternalID, req.Email, req.Phone)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing accounts")
	}
	var pending *models.User
	for i := range claimants {
		claimant := claimants[i]
		if claimant.Role != models.RoleUnverified {
			return appErrors.Clone(appErrors.ErrConflict, "an account with this email, phone or chat already exists")
		}
		if pending != nil && pending.ID != claimant.ID {
			return appErrors.Clone(appErrors.ErrConflict, "email or phone is already pending verification on another account")
		}
		pending = &claimant
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	code, err := generateOTP(s.config.OTPLength)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate verification code")
	}
	expiresAt := s.now().Add(s.config.OTPTTL)

	user := &models.User{
		ExternalID:   req.ExternalID,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        req.Email,
		Phone:        req.Phone,
		Gender:       req.Gender,
		PasswordHash: string(hash),
		Role:         models.RoleUnverified,
		OTPCode:      &code,
		OTPExpiresAt: &expiresAt,
	}
	if pending != nil {
		user.ID = pending.ID
		err = s.users.ReplacePending(ctx, user)
	} else {
		err = s.users.Create(ctx, user)
	}
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) || errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrConflict, "an account with this email, phone or chat already exists")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store registration")
	}

	if err := s.attempts.Reset(ctx, req.Email); err != nil {
		s.logger.Warn("failed to reset code attempts", zap.String("user_id", user.ID), zap.Error(err))
	}

	msg := mailer.OTPMessage(req.Email, code, int(s.config.OTPTTL.Minutes()))
	if err := s.mail.Enqueue(jobs.Job{ID: uuid.NewString(), Type: JobTypeOTPMail, Payload: msg}); err != nil {
		s.logger.Error("failed to queue verification e-mail", zap.String("user_id", user.ID), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to send verification code")
	}
	s.logger.Info("verification code issued", zap.String("user_id", user.ID))
	return nil
}

// VerifyOTP checks the emailed code and promotes the account to VERIFIED.
func (s *RegistrationService) VerifyOTP(ctx context.Context, req models.OTPVerifyRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid verification payload")
	}
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrUserNotFound, "")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.OTPCode == nil || user.OTPExpiresAt == nil {
		return appErrors.Clone(appErrors.ErrOTPInvalid, "no active verification code, request a new one")
	}
	if s.now().After(*user.OTPExpiresAt) {
		if err := s.users.ClearOTP(ctx, user.ID, nil); err != nil {
			s.logger.Warn("failed to clear expired code", zap.String("user_id", user.ID), zap.Error(err))
		}
		return appErrors.Clone(appErrors.ErrOTPExpired, "")
	}
	if subtle.ConstantTimeCompare([]byte(*user.OTPCode), []byte(strings.TrimSpace(req.Code))) != 1 {
		return s.rejectCode(ctx, user)
	}
	if err := s.attempts.Reset(ctx, user.Email); err != nil {
		s.logger.Warn("failed to reset code attempts", zap.String("user_id", user.ID), zap.Error(err))
	}

	var promote *models.UserRole
	if user.Role == models.RoleUnverified {
		role := models.RoleVerified
		promote = &role
	}
	if err := s.users.ClearOTP(ctx, user.ID, promote); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm verification")
	}
	return nil
}

// rejectCode counts a wrong code and burns the active one once the limit is reached.
func (s *RegistrationService) rejectCode(ctx context.Context, user *models.User) error {
	failures, err := s.attempts.Hit(ctx, user.Email)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record verification attempt")
	}
	if failures < int64(s.config.MaxOTPAttempts) {
		return appErrors.Clone(appErrors.ErrOTPInvalid, "")
	}
	if err := s.users.ClearOTP(ctx, user.ID, nil); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke verification code")
	}
	if err := s.attempts.Reset(ctx, user.Email); err != nil {
		s.logger.Warn("failed to reset code attempts", zap.String("user_id", user.ID), zap.Error(err))
	}
	s.logger.Warn("verification code revoked after repeated failures", zap.String("user_id", user.ID))
	return appErrors.Clone(appErrors.ErrOTPAttempts, "")
}

// CompleteRegistration stores the academic placement and the chosen role.
func (s *RegistrationService) CompleteRegistration(ctx context.Context, req models.CompleteRegistrationRequest) (*models.UserInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUserNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	switch {
	case user.Role.Registered():
		return nil, appErrors.Clone(appErrors.ErrConflict, "registration already completed")
	case user.Role != models.RoleVerified:
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "verify your email before completing registration")
	}

	ok, err := s.placements.PlacementExists(ctx, req.Placement)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate academic details")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "academic details do not match the institution hierarchy")
	}

	if err := s.users.CompleteRegistration(ctx, user.ID, req.Placement, req.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "registration already completed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete registration")
	}
	user.Role = req.Role
	info := userInfo(user)
	s.logger.Info("registration completed", zap.String("user_id", user.ID), zap.String("role", string(req.Role)))
	return &info, nil
}

// CheckRegistration reports whether a chat handle belongs to a registered account.
func (s *RegistrationService) CheckRegistration(ctx context.Context, externalID string) (*models.RegistrationStatus, error) {
	user, err := s.users.FindByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.RegistrationStatus{Registered: false}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if !user.Role.Registered() {
		return &models.RegistrationStatus{Registered: false, FirstName: user.FirstName}, nil
	}
	return &models.RegistrationStatus{
		Registered: true,
		FirstName:  user.FirstName,
		Role:       user.Role,
		Wallet:     user.Wallet,
	}, nil
}

// NewOTPMailHandler returns the queue handler delivering verification e-mails.
func NewOTPMailHandler(sender mailSender) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		msg, ok := job.Payload.(mailer.Message)
		if !ok {
			return fmt.Errorf("job %s: unexpected payload %T", job.ID, job.Payload)
		}
		return sender.Send(ctx, msg)
	}
}

func generateOTP(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	ten := big.NewInt(10)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
