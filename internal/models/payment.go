package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// PaymentStatus tracks a transaction's lifecycle.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

// PaymentKind names the resource a payment pays for.
type PaymentKind string

const (
	PaymentSurveyCreation PaymentKind = "SURVEY_CREATION"
	PaymentNicheEdit      PaymentKind = "NICHE_EDIT"
)

// PaymentTransaction is a hosted-checkout charge and the request it unlocks.
type PaymentTransaction struct {
	ID         string         `db:"id" json:"id"`
	Reference  string         `db:"reference" json:"reference"`
	UserID     string         `db:"user_id" json:"user_id"`
	Amount     int64          `db:"amount" json:"amount"`
	Kind       PaymentKind    `db:"kind" json:"kind"`
	Status     PaymentStatus  `db:"status" json:"status"`
	Payload    types.JSONText `db:"payload" json:"payload"`
	ResourceID *string        `db:"resource_id" json:"resource_id,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// NicheEditPayload is the pending rule rewrite paid for by a NICHE_EDIT charge.
type NicheEditPayload struct {
	SurveyID    string          `json:"survey_id"`
	Current     FilterRule      `json:"current"`
	NewGender   string          `json:"new_gender"`
	NewTargetID int64           `json:"new_option_id"`
	Dimension   FilterDimension `json:"filter_by"`
}

// CheckoutSession is returned to the front end after initiating a payment.
type CheckoutSession struct {
	Reference   string `json:"reference"`
	CheckoutURL string `json:"checkout_url"`
	Amount      int64  `json:"amount"`
}

// WebhookOutcome describes what a webhook delivery did.
type WebhookOutcome string

const (
	WebhookApplied   WebhookOutcome = "applied"
	WebhookDuplicate WebhookOutcome = "duplicate"
	WebhookFailed    WebhookOutcome = "failed"
	WebhookIgnored   WebhookOutcome = "ignored"
	WebhookRejected  WebhookOutcome = "rejected"
	WebhookErrored   WebhookOutcome = "error"
)
