package models

import (
	"strconv"
	"time"
)

// Survey is a paid, listed questionnaire.
type Survey struct {
	ID              string      `db:"id" json:"id"`
	OwnerID         string      `db:"owner_id" json:"owner_id"`
	Title           string      `db:"title" json:"title"`
	Description     string      `db:"description" json:"description"`
	ResponderLink   string      `db:"responder_link" json:"responder_link"`
	SheetLink       string      `db:"sheet_link" json:"sheet_link"`
	DurationMinutes *float64    `db:"duration_minutes" json:"duration_minutes"`
	TargetResponses int         `db:"target_responses" json:"target_responses"`
	Reward          int64       `db:"reward" json:"reward"`
	ApplyFilter     bool        `db:"apply_filter" json:"apply_filter"`
	Filters         FilterRules `db:"filters" json:"filters"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}

// MinimumDwell returns the minimum time a respondent must spend on the survey.
func (s *Survey) MinimumDwell() (time.Duration, bool) {
	if s.DurationMinutes == nil || *s.DurationMinutes < 0 {
		return 0, false
	}
	return time.Duration(*s.DurationMinutes * float64(time.Minute)), true
}

// SurveyDraft is the creator's request persisted with the pending payment and
// materialised into a Survey once the payment settles.
type SurveyDraft struct {
	Title           string      `json:"title" validate:"required,max=200"`
	Description     string      `json:"description" validate:"max=4000"`
	ResponderLink   string      `json:"responder_link" validate:"required,url"`
	SheetLink       string      `json:"sheet_link" validate:"required,url"`
	DurationMinutes float64     `json:"duration_minutes" validate:"gt=0,lte=600"`
	TargetResponses int         `json:"target_responses" validate:"required,gt=0"`
	Reward          int64       `json:"reward" validate:"required,gt=0"`
	ApplyFilter     bool        `json:"apply_filter"`
	Filters         FilterRules `json:"filters" validate:"omitempty,dive"`
}

// Cost returns the amount charged for listing the draft.
func (d SurveyDraft) Cost(listingFee int64) int64 {
	return d.Reward*int64(d.TargetResponses) + listingFee
}

// EligibleSurvey is a survey offered to a respondent.
type EligibleSurvey struct {
	ID              string   `json:"survey_id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Reward          int64    `json:"reward"`
	DurationMinutes *float64 `json:"duration"`
	ResponderLink   string   `json:"responder_link"`
	Responses       int      `json:"responses"`
	Target          int      `json:"target"`
}

// SurveyStatus is the creator-facing completion label.
type SurveyStatus string

const (
	SurveyComplete   SurveyStatus = "Complete"
	SurveyIncomplete SurveyStatus = "Incomplete"
)

// SurveySummary is a creator's listing entry.
type SurveySummary struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Responses       int          `json:"responses"`
	TargetResponses int          `json:"target_responses"`
	Reward          int64        `json:"reward"`
	Status          SurveyStatus `json:"status"`
	CreatedAt       time.Time    `json:"created_at"`
}

// NicheDescription is a human readable rendering of one filter rule.
type NicheDescription struct {
	Index       int    `json:"index"`
	Description string `json:"description"`
	Levels      string `json:"levels"`
}

// SurveyDetails is the creator's detailed view.
type SurveyDetails struct {
	Survey
	Responses int                `json:"responses"`
	Status    SurveyStatus       `json:"status"`
	Niches    []NicheDescription `json:"niches"`
}

// DurationLabel renders the duration for display.
func (s *Survey) DurationLabel() string {
	if s.DurationMinutes == nil {
		return ""
	}
	return strconv.FormatFloat(*s.DurationMinutes, 'f', -1, 64) + " min"
}

// LinkVerificationRequest asks whether a form and its sheet are usable for listing.
type LinkVerificationRequest struct {
	FormLink  string `json:"form_link" validate:"required,url"`
	SheetLink string `json:"sheet_link" validate:"required,url"`
}

// LinkVerification reports the outcome of a link check.
type LinkVerification struct {
	SheetReadable bool   `json:"sheet_readable"`
	EditorPresent bool   `json:"editor_present"`
	EditorEmail   string `json:"editor_email,omitempty"`
}
