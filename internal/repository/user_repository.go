package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/surveyhustler-api/internal/models"
)

const userColumns = `id, external_id, first_name, last_name, email, phone, gender, password_hash, role,
       institution_id, college_id, department_id, course_id, level, wallet, otp_code, otp_expires_at, created_at, updated_at`

// UserRepository provides database access for accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "find user by email", `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`, email)
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "find user by id", `SELECT `+userColumns+` FROM users WHERE id = $1 LIMIT 1`, id)
}

// FindByExternalID returns a user by chat handle.
func (r *UserRepository) FindByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return r.findOne(ctx, "find user by external id", `SELECT `+userColumns+` FROM users WHERE external_id = $1 LIMIT 1`, externalID)
}

// FindClaimants returns users already holding any of the given identities.
func (r *UserRepository) FindClaimants(ctx context.Context, externalID, email, phone string) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE external_id = $1 OR LOWER(email) = LOWER($2) OR phone = $3`
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, externalID, email, phone); err != nil {
		return nil, fmt.Errorf("find identity claimants: %w", err)
	}
	return users, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, external_id, first_name, last_name, email, phone, gender, password_hash, role, wallet, otp_code, otp_expires_at, created_at, updated_at)
VALUES (:id, :external_id, :first_name, :last_name, :email, :phone, :gender, :password_hash, :role, :wallet, :otp_code, :otp_expires_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// ReplacePending overwrites the personal details of an unverified account.
func (r *UserRepository) ReplacePending(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET external_id = :external_id, first_name = :first_name, last_name = :last_name, email = :email,
       phone = :phone, gender = :gender, password_hash = :password_hash, otp_code = :otp_code, otp_expires_at = :otp_expires_at,
       updated_at = :updated_at
WHERE id = :id AND role = 'UNVERIFIED'`
	result, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("replace pending user: %w", err)
	}
	return expectOneRow(result, "replace pending user")
}

// ClearOTP removes the stored code, optionally promoting the account.
func (r *UserRepository) ClearOTP(ctx context.Context, id string, promoteTo *models.UserRole) error {
	now := time.Now().UTC()
	var err error
	if promoteTo != nil {
		const query = `UPDATE users SET otp_code = NULL, otp_expires_at = NULL, role = $2, updated_at = $3 WHERE id = $1`
		_, err = r.db.ExecContext(ctx, query, id, *promoteTo, now)
	} else {
		const query = `UPDATE users SET otp_code = NULL, otp_expires_at = NULL, updated_at = $2 WHERE id = $1`
		_, err = r.db.ExecContext(ctx, query, id, now)
	}
	if err != nil {
		return fmt.Errorf("clear otp: %w", err)
	}
	return nil
}

// CompleteRegistration stores the academic placement and final role.
func (r *UserRepository) CompleteRegistration(ctx context.Context, id string, placement models.AcademicPlacement, role models.UserRole) error {
	const query = `UPDATE users SET institution_id = $2, college_id = $3, department_id = $4, course_id = $5, level = $6,
       role = $7, updated_at = $8
WHERE id = $1 AND role = 'VERIFIED'`
	result, err := r.db.ExecContext(ctx, query, id, placement.InstitutionID, placement.CollegeID, placement.DepartmentID,
		placement.CourseID, placement.Level, role, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("complete registration: %w", err)
	}
	return expectOneRow(result, "complete registration")
}

func (r *UserRepository) findOne(ctx context.Context, op, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}
