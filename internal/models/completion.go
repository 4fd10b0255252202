package models

import "time"

// SurveyCompletion records a rewarded submission. One per user and survey.
type SurveyCompletion struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	SurveyID  string    `db:"survey_id" json:"survey_id"`
	Reward    int64     `db:"reward" json:"reward"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// VerificationRequest is a respondent's claim of a completed submission.
type VerificationRequest struct {
	ExternalID string `json:"external_id" validate:"required"`
	FormLink   string `json:"form_link" validate:"required"`
	StartTime  string `json:"start_time" validate:"required"`
}

// VerificationResult is returned on an accepted submission.
type VerificationResult struct {
	Verified bool   `json:"verified"`
	SurveyID string `json:"survey_id"`
	Reward   int64  `json:"reward"`
	Wallet   int64  `json:"wallet"`
}
