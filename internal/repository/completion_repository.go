package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CompletionRepository records rewarded submissions and credits wallets.
type CompletionRepository struct {
	db *sqlx.DB
}

// NewCompletionRepository constructs the repository.
func NewCompletionRepository(db *sqlx.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

// CreditReward inserts the completion and adds reward to the user's wallet in one
// transaction. A second call for the same user and survey returns ErrAlreadyCredited
// and changes nothing.
func (r *CompletionRepository) CreditReward(ctx context.Context, userID, surveyID string, reward int64) (wallet int64, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin credit: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const insert = `INSERT INTO survey_completions (id, user_id, survey_id, reward, created_at)
VALUES ($1, $2, $3, $4, $5) ON CONFLICT (user_id, survey_id) DO NOTHING`
	result, err := tx.ExecContext(ctx, insert, uuid.NewString(), userID, surveyID, reward, now)
	if err != nil {
		return 0, fmt.Errorf("insert completion: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check completion rows: %w", err)
	}
	if rows == 0 {
		err = ErrAlreadyCredited
		return 0, err
	}

	const credit = `UPDATE users SET wallet = wallet + $2, updated_at = $3 WHERE id = $1 RETURNING wallet`
	if err = tx.GetContext(ctx, &wallet, credit, userID, reward, now); err != nil {
		return 0, fmt.Errorf("credit wallet: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit credit: %w", err)
	}
	return wallet, nil
}

// HasCompleted reports whether the user was already rewarded for the survey.
func (r *CompletionRepository) HasCompleted(ctx context.Context, userID, surveyID string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM survey_completions WHERE user_id = $1 AND survey_id = $2)`
	if err := r.db.GetContext(ctx, &exists, query, userID, surveyID); err != nil {
		return false, fmt.Errorf("check completion: %w", err)
	}
	return exists, nil
}
