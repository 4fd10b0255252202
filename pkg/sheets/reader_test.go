package sheets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	values map[string][][]string
	err    error
	calls  int
}

func (s *stubFetcher) FetchValues(ctx context.Context, documentID string) ([][]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	v, ok := s.values[documentID]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return v, nil
}

type recordingObserver struct {
	outcomes []string
}

func (o *recordingObserver) ObserveSheetFetch(outcome string, d time.Duration) {
	o.outcomes = append(o.outcomes, outcome)
}

const sheetLink = "https://docs.google.com/spreadsheets/d/SHEET1/edit"

func newTestReader(values [][]string) (*Reader, *stubFetcher, *recordingObserver) {
	fetcher := &stubFetcher{values: map[string][][]string{"SHEET1": values}}
	obs := &recordingObserver{}
	return NewReader(fetcher, ReaderOptions{Observer: obs}), fetcher, obs
}

func TestReaderEntriesNormalisesEmails(t *testing.T) {
	reader, _, obs := newTestReader([][]string{
		{" Timestamp ", "Email Address", "Q1"},
		{"3/14/2025 10:30:00", "  Ada@Example.COM ", "yes"},
		{"3/14/2025 10:31:00", "not-an-email", "no"},
		{"3/14/2025 10:32:00"},
		{"", "bob@example.org", "maybe"},
	})

	entries := reader.Entries(context.Background(), sheetLink, true)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Email: "ada@example.com", Timestamp: "3/14/2025 10:30:00"}, entries[0])
	assert.Equal(t, Entry{Email: "bob@example.org", Timestamp: ""}, entries[1])
	assert.Equal(t, []string{"ok"}, obs.outcomes)
}

func TestReaderEntriesFirstMatchingHeaderWins(t *testing.T) {
	reader, _, _ := newTestReader([][]string{
		{"Email", "Your Email", "start_time"},
		{"first@example.com", "second@example.com", "2024-01-01 10:00:00"},
	})

	entries := reader.Entries(context.Background(), sheetLink, true)
	require.Len(t, entries, 1)
	assert.Equal(t, "first@example.com", entries[0].Email)
}

func TestReaderEntriesRequireTimestampFailsClosed(t *testing.T) {
	reader, _, _ := newTestReader([][]string{
		{"Email"},
		{"ada@example.com"},
	})

	assert.Empty(t, reader.Entries(context.Background(), sheetLink, true))
	assert.Len(t, reader.Entries(context.Background(), sheetLink, false), 1)
}

func TestReaderCountFallsBackToRowCount(t *testing.T) {
	reader, _, _ := newTestReader([][]string{
		{"Name", "Answer"},
		{"a", "1"},
		{"b", "2"},
		{"c", "3"},
	})

	assert.Equal(t, 3, reader.Count(context.Background(), sheetLink))
	assert.Empty(t, reader.Entries(context.Background(), sheetLink, false))
}

func TestReaderFailsSoft(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("network down")}
	obs := &recordingObserver{}
	reader := NewReader(fetcher, ReaderOptions{Observer: obs})
	ctx := context.Background()

	assert.Equal(t, 0, reader.Count(ctx, sheetLink))
	assert.Nil(t, reader.Entries(ctx, sheetLink, true))
	assert.Empty(t, reader.Records(ctx, sheetLink).Rows)
	assert.Error(t, reader.Probe(ctx, sheetLink))

	assert.Equal(t, 0, reader.Count(ctx, "https://example.com/nothing"))
	assert.ErrorIs(t, reader.Probe(ctx, "https://example.com/nothing"), ErrInvalidLink)
	assert.Contains(t, obs.outcomes, "invalid_link")
	assert.Contains(t, obs.outcomes, "error")
}

func TestReaderRefetchesEveryCall(t *testing.T) {
	reader, fetcher, _ := newTestReader([][]string{{"Email"}, {"a@b.co"}})
	ctx := context.Background()

	reader.Count(ctx, sheetLink)
	reader.Count(ctx, sheetLink)
	reader.Entries(ctx, sheetLink, false)
	assert.Equal(t, 3, fetcher.calls)
}

func TestReaderRecords(t *testing.T) {
	reader, _, _ := newTestReader([][]string{
		{"Timestamp", "Age", ""},
		{"1/1/2025 10:00:00", "21", "x"},
		{"", "", ""},
		{"1/1/2025 11:00:00", "23"},
	})

	table := reader.Records(context.Background(), sheetLink)
	assert.Equal(t, []string{"Timestamp", "Age", "column_3"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "23", table.Rows[1]["Age"])
	assert.Equal(t, "", table.Rows[1]["column_3"])
}
