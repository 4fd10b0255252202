package models

import "time"

// NicheEditState is a step of the niche edit dialog.
type NicheEditState string

const (
	NicheSelecting       NicheEditState = "SELECTING_NICHE"
	NicheChoosingGender  NicheEditState = "CHOOSING_GENDER"
	NicheChoosingOption  NicheEditState = "CHOOSING_OPTION"
	NicheAwaitingPayment NicheEditState = "AWAITING_PAYMENT"
	NicheApplied         NicheEditState = "APPLIED"
)

// NicheEditSession is the persisted dialog state for one (user, survey) pair.
type NicheEditSession struct {
	UserID           string         `json:"user_id"`
	SurveyID         string         `json:"survey_id"`
	State            NicheEditState `json:"state"`
	RuleIndex        int            `json:"rule_index"`
	Rule             *FilterRule    `json:"rule,omitempty"`
	NewGender        string         `json:"new_gender,omitempty"`
	NewTargetID      int64          `json:"new_option_id,omitempty"`
	PaymentReference string         `json:"payment_reference,omitempty"`
	CheckoutURL      string         `json:"checkout_url,omitempty"`
	Options          []NamedOption  `json:"options,omitempty"`
	UpdatedAt        time.Time      `json:"updated_at"`
}
