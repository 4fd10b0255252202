package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// FilterDimension names the hierarchy tier a rule targets.
type FilterDimension string

const (
	DimensionCollege    FilterDimension = "college"
	DimensionDepartment FilterDimension = "department"
	DimensionCourse     FilterDimension = "course"
)

// Valid reports whether d is a known dimension.
func (d FilterDimension) Valid() bool {
	switch d {
	case DimensionCollege, DimensionDepartment, DimensionCourse:
		return true
	}
	return false
}

// GenderBoth is the wildcard gender value.
const GenderBoth = "Both"

// FilterRule is one conjunctive audience condition. Nil fields impose no restriction.
type FilterRule struct {
	InstitutionID *int64          `json:"institution_id,omitempty"`
	Gender        string          `json:"gender,omitempty"`
	Dimension     FilterDimension `json:"filter_by,omitempty"`
	TargetID      *int64          `json:"option_id,omitempty"`
	Level         string          `json:"level,omitempty"`
}

// NewFilterRule builds and validates a rule.
func NewFilterRule(institutionID *int64, gender string, dimension FilterDimension, targetID *int64, level string) (FilterRule, error) {
	rule := FilterRule{
		InstitutionID: institutionID,
		Gender:        gender,
		Dimension:     dimension,
		TargetID:      targetID,
		Level:         level,
	}
	if err := rule.Validate(); err != nil {
		return FilterRule{}, err
	}
	return rule, nil
}

// Validate checks the tagged-variant invariants of a rule.
func (r FilterRule) Validate() error {
	switch r.Gender {
	case "", GenderMale, GenderFemale, GenderBoth:
	default:
		return fmt.Errorf("unknown gender %q", r.Gender)
	}
	if r.Dimension != "" && !r.Dimension.Valid() {
		return fmt.Errorf("unknown filter dimension %q", r.Dimension)
	}
	if (r.Dimension == "") != (r.TargetID == nil) {
		return errors.New("filter dimension and target id must be set together")
	}
	if r.TargetID != nil && *r.TargetID <= 0 {
		return errors.New("target id must be positive")
	}
	if r.InstitutionID != nil && *r.InstitutionID <= 0 {
		return errors.New("institution id must be positive")
	}
	return nil
}

// Everyone reports whether the rule targets no specific audience.
func (r FilterRule) Everyone() bool {
	return r.InstitutionID == nil && r.Dimension == "" &&
		(r.Gender == "" || r.Gender == GenderBoth) &&
		(r.Level == "" || r.Level == LevelAll)
}

// FilterRules is the ordered rule list stored as JSONB.
type FilterRules []FilterRule

// Validate checks every rule.
func (rs FilterRules) Validate() error {
	for i, r := range rs {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("filter %d: %w", i+1, err)
		}
	}
	return nil
}

// Value implements driver.Valuer.
func (rs FilterRules) Value() (driver.Value, error) {
	if rs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(rs)
}

// Scan implements sql.Scanner.
func (rs *FilterRules) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*rs = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported filter rules type %T", src)
	}
	var decoded []FilterRule
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("decode filter rules: %w", err)
	}
	*rs = decoded
	return nil
}
