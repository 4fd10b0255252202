package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestampAppliesSourceOffset(t *testing.T) {
	loc := FixedZone(time.Hour)

	parsed, err := ParseTimestamp("3/14/2025 10:30:00", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC), parsed.UTC)
	assert.Equal(t, "1/2/2006 15:04:05", parsed.Layout)
}

func TestParseTimestampFallsThroughLayouts(t *testing.T) {
	cases := map[string]time.Time{
		"25/12/2024 08:00:00":   time.Date(2024, 12, 25, 8, 0, 0, 0, time.UTC),
		"2024-12-25 08:00:00":   time.Date(2024, 12, 25, 8, 0, 0, 0, time.UTC),
		"12/25/2024 8:00:00 PM": time.Date(2024, 12, 25, 20, 0, 0, 0, time.UTC),
		" 12/25/2024 08:00:00 ": time.Date(2024, 12, 25, 8, 0, 0, 0, time.UTC),
	}
	for raw, want := range cases {
		parsed, err := ParseTimestamp(raw, time.UTC)
		require.NoError(t, err, raw)
		assert.Equal(t, want, parsed.UTC, raw)
	}
}

func TestParseTimestampUnparseable(t *testing.T) {
	for _, raw := range []string{"", "yesterday", "2024/25/12"} {
		_, err := ParseTimestamp(raw, time.UTC)
		assert.ErrorIs(t, err, ErrUnparseableTimestamp, raw)
	}
}
