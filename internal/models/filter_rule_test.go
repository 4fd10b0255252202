package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func TestNewFilterRuleValidation(t *testing.T) {
	_, err := NewFilterRule(nil, GenderBoth, DimensionCollege, int64Ptr(3), "200")
	require.NoError(t, err)

	_, err = NewFilterRule(nil, "Other", "", nil, "")
	assert.Error(t, err)

	_, err = NewFilterRule(nil, "", "faculty", int64Ptr(1), "")
	assert.Error(t, err)

	_, err = NewFilterRule(nil, "", DimensionCourse, nil, "")
	assert.Error(t, err)

	_, err = NewFilterRule(nil, "", "", int64Ptr(1), "")
	assert.Error(t, err)

	_, err = NewFilterRule(int64Ptr(0), "", "", nil, "")
	assert.Error(t, err)
}

func TestFilterRulesScanAndValue(t *testing.T) {
	rules := FilterRules{{Gender: GenderFemale, Dimension: DimensionDepartment, TargetID: int64Ptr(7), Level: "300"}}
	raw, err := rules.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"gender":"Female","filter_by":"department","option_id":7,"level":"300"}]`, string(raw.([]byte)))

	var scanned FilterRules
	require.NoError(t, scanned.Scan(raw))
	assert.Equal(t, rules, scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.Nil(t, scanned)
	assert.Error(t, scanned.Scan(42))
}

func TestFilterRuleEveryone(t *testing.T) {
	assert.True(t, FilterRule{}.Everyone())
	assert.True(t, FilterRule{Gender: GenderBoth, Level: LevelAll}.Everyone())
	assert.False(t, FilterRule{Gender: GenderMale}.Everyone())
	assert.False(t, FilterRule{Dimension: DimensionCourse, TargetID: int64Ptr(1)}.Everyone())
}
