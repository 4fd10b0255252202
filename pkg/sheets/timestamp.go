package sheets

import (
	"errors"
	"strings"
	"time"
)

// ErrUnparseableTimestamp is returned when no layout accepts a timestamp cell.
var ErrUnparseableTimestamp = errors.New("sheets: unparseable timestamp")

// TimestampLayouts lists the accepted response-sheet timestamp layouts in the
// order they are tried. Month-first wins over day-first for ambiguous dates.
var TimestampLayouts = []string{
	"1/2/2006 15:04:05",
	"2/1/2006 15:04:05",
	"2006-01-02 15:04:05",
	"1/2/2006 3:04:05 PM",
}

// ParsedTimestamp is a successfully interpreted sheet timestamp.
type ParsedTimestamp struct {
	UTC    time.Time
	Layout string
}

// ParseTimestamp interprets raw in loc using the first matching layout and
// converts the result to UTC.
func ParseTimestamp(raw string, loc *time.Location) (ParsedTimestamp, error) {
	if loc == nil {
		loc = time.UTC
	}
	value := strings.TrimSpace(raw)
	if value == "" {
		return ParsedTimestamp{}, ErrUnparseableTimestamp
	}
	for _, layout := range TimestampLayouts {
		t, err := time.ParseInLocation(layout, value, loc)
		if err != nil {
			continue
		}
		return ParsedTimestamp{UTC: t.UTC(), Layout: layout}, nil
	}
	return ParsedTimestamp{}, ErrUnparseableTimestamp
}

// FixedZone builds the sheet source location from a UTC offset.
func FixedZone(offset time.Duration) *time.Location {
	if offset == 0 {
		return time.UTC
	}
	return time.FixedZone("sheet", int(offset.Seconds()))
}
