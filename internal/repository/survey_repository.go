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

const surveyColumns = `id, owner_id, title, description, responder_link, sheet_link, duration_minutes, target_responses,
       reward, apply_filter, filters, created_at, updated_at`

// SurveyRepository persists surveys.
type SurveyRepository struct {
	db *sqlx.DB
}

// NewSurveyRepository constructs the repository.
func NewSurveyRepository(db *sqlx.DB) *SurveyRepository {
	return &SurveyRepository{db: db}
}

// GetByID fetches a survey by identifier.
func (r *SurveyRepository) GetByID(ctx context.Context, id string) (*models.Survey, error) {
	var survey models.Survey
	if err := r.db.GetContext(ctx, &survey, `SELECT `+surveyColumns+` FROM surveys WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get survey: %w", err)
	}
	return &survey, nil
}

// List returns every listed survey, newest first.
func (r *SurveyRepository) List(ctx context.Context) ([]models.Survey, error) {
	var surveys []models.Survey
	if err := r.db.SelectContext(ctx, &surveys, `SELECT `+surveyColumns+` FROM surveys ORDER BY created_at DESC`); err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	return surveys, nil
}

// ListByOwner returns a creator's surveys, newest first.
func (r *SurveyRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Survey, error) {
	var surveys []models.Survey
	if err := r.db.SelectContext(ctx, &surveys, `SELECT `+surveyColumns+` FROM surveys WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID); err != nil {
		return nil, fmt.Errorf("list owner surveys: %w", err)
	}
	return surveys, nil
}

// Delete removes a survey owned by ownerID.
func (r *SurveyRepository) Delete(ctx context.Context, id, ownerID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM surveys WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete survey: %w", err)
	}
	return expectOneRow(result, "delete survey")
}

func insertSurvey(ctx context.Context, exec sqlx.ExtContext, survey *models.Survey) error {
	if survey.ID == "" {
		survey.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if survey.CreatedAt.IsZero() {
		survey.CreatedAt = now
	}
	survey.UpdatedAt = now
	const query = `INSERT INTO surveys (id, owner_id, title, description, responder_link, sheet_link, duration_minutes,
       target_responses, reward, apply_filter, filters, created_at, updated_at)
VALUES (:id, :owner_id, :title, :description, :responder_link, :sheet_link, :duration_minutes,
       :target_responses, :reward, :apply_filter, :filters, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, survey); err != nil {
		return fmt.Errorf("insert survey: %w", err)
	}
	return nil
}
