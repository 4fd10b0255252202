package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/surveyhustler-api/internal/models"
)

const paymentColumns = `id, reference, user_id, amount, kind, status, payload, resource_id, created_at, updated_at`

// SettlementTx exposes the writes a settling payment may perform inside its transaction.
type SettlementTx interface {
	InsertSurvey(ctx context.Context, survey *models.Survey) error
	LockSurvey(ctx context.Context, id string) (*models.Survey, error)
	UpdateSurveyFilters(ctx context.Context, id string, filters models.FilterRules) error
}

// SettleFunc materialises a pending payment's payload and returns the affected resource id.
// Returning ErrRejectPayload fails the payment instead of rolling back.
type SettleFunc func(ctx context.Context, stx SettlementTx, txn *models.PaymentTransaction) (string, error)

// PaymentRepository persists payment transactions.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a pending transaction.
func (r *PaymentRepository) Create(ctx context.Context, txn *models.PaymentTransaction) error {
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	if txn.Status == "" {
		txn.Status = models.PaymentPending
	}
	now := time.Now().UTC()
	txn.CreatedAt = now
	txn.UpdatedAt = now
	const query = `INSERT INTO payment_transactions (id, reference, user_id, amount, kind, status, payload, resource_id, created_at, updated_at)
VALUES (:id, :reference, :user_id, :amount, :kind, :status, :payload, :resource_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, txn); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create payment transaction: %w", err)
	}
	return nil
}

// GetByReference fetches a transaction by its gateway reference.
func (r *PaymentRepository) GetByReference(ctx context.Context, reference string) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	if err := r.db.GetContext(ctx, &txn, `SELECT `+paymentColumns+` FROM payment_transactions WHERE reference = $1`, reference); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get payment transaction: %w", err)
	}
	return &txn, nil
}

// MarkFailed moves a pending transaction to FAILED. Non-pending rows are left untouched
// and reported as sql.ErrNoRows.
func (r *PaymentRepository) MarkFailed(ctx context.Context, reference string) error {
	const query = `UPDATE payment_transactions SET status = 'FAILED', updated_at = $2 WHERE reference = $1 AND status = 'PENDING'`
	result, err := r.db.ExecContext(ctx, query, reference, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark payment failed: %w", err)
	}
	return expectOneRow(result, "mark payment failed")
}

// Settle locks the transaction row, and when it is still pending applies fn and
// records the terminal status in the same database transaction. The returned
// bool is true only when this call applied the payload.
func (r *PaymentRepository) Settle(ctx context.Context, reference string, fn SettleFunc) (txn *models.PaymentTransaction, applied bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin settlement: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var locked models.PaymentTransaction
	if err = tx.GetContext(ctx, &locked, `SELECT `+paymentColumns+` FROM payment_transactions WHERE reference = $1 FOR UPDATE`, reference); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("lock payment transaction: %w", err)
	}

	if locked.Status != models.PaymentPending {
		if err = tx.Commit(); err != nil {
			return nil, false, fmt.Errorf("commit settlement: %w", err)
		}
		return &locked, false, nil
	}

	resourceID, applyErr := fn(ctx, &settlementTx{tx: tx}, &locked)
	status := models.PaymentSuccess
	if applyErr != nil {
		if !errors.Is(applyErr, ErrRejectPayload) {
			err = applyErr
			return nil, false, err
		}
		status = models.PaymentFailed
	}

	now := time.Now().UTC()
	var resource *string
	if status == models.PaymentSuccess && resourceID != "" {
		resource = &resourceID
	}
	const update = `UPDATE payment_transactions SET status = $2, resource_id = $3, updated_at = $4 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, update, locked.ID, status, resource, now); err != nil {
		return nil, false, fmt.Errorf("update payment status: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit settlement: %w", err)
	}

	locked.Status = status
	locked.ResourceID = resource
	locked.UpdatedAt = now
	return &locked, status == models.PaymentSuccess, nil
}

type settlementTx struct {
	tx *sqlx.Tx
}

func (s *settlementTx) InsertSurvey(ctx context.Context, survey *models.Survey) error {
	return insertSurvey(ctx, s.tx, survey)
}

func (s *settlementTx) LockSurvey(ctx context.Context, id string) (*models.Survey, error) {
	var survey models.Survey
	if err := s.tx.GetContext(ctx, &survey, `SELECT `+surveyColumns+` FROM surveys WHERE id = $1 FOR UPDATE`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock survey: %w", err)
	}
	return &survey, nil
}

func (s *settlementTx) UpdateSurveyFilters(ctx context.Context, id string, filters models.FilterRules) error {
	const query = `UPDATE surveys SET filters = $2, updated_at = $3 WHERE id = $1`
	if _, err := s.tx.ExecContext(ctx, query, id, filters, time.Now().UTC()); err != nil {
		return fmt.Errorf("update survey filters: %w", err)
	}
	return nil
}
