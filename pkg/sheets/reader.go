package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrInvalidLink is returned when a link carries no document identifier.
	ErrInvalidLink = errors.New("sheets: invalid document link")
	// ErrDocumentNotFound is returned when the document does not exist or is not shared.
	ErrDocumentNotFound = errors.New("sheets: document not found")
	// ErrNoWorksheet is returned when the document has no worksheet.
	ErrNoWorksheet = errors.New("sheets: document has no worksheet")
)

var (
	emailHeaders     = []string{"email address", "email", "your email", "email id"}
	timestampHeaders = []string{"timestamp", "start_time"}
)

// ValuesFetcher returns every cell of the first worksheet, header row first.
type ValuesFetcher interface {
	FetchValues(ctx context.Context, documentID string) ([][]string, error)
}

// FetchObserver receives per-fetch latency and outcome.
type FetchObserver interface {
	ObserveSheetFetch(outcome string, duration time.Duration)
}

// Entry is one respondent row.
type Entry struct {
	Email     string `json:"email"`
	Timestamp string `json:"timestamp"`
}

// Table is the header-keyed view of a worksheet used for analysis and exports.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// ReaderOptions tunes a Reader.
type ReaderOptions struct {
	Timeout  time.Duration
	Logger   *zap.Logger
	Observer FetchObserver
}

// Reader reads response sheets. Every call re-fetches the remote document and
// failures degrade to empty results.
type Reader struct {
	fetcher  ValuesFetcher
	timeout  time.Duration
	logger   *zap.Logger
	observer FetchObserver
}

// NewReader constructs a Reader.
func NewReader(fetcher ValuesFetcher, opts ReaderOptions) *Reader {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &Reader{fetcher: fetcher, timeout: opts.Timeout, logger: opts.Logger, observer: opts.Observer}
}

// Count returns the number of data rows below the header.
func (r *Reader) Count(ctx context.Context, link string) int {
	values, err := r.fetch(ctx, link)
	if err != nil || len(values) == 0 {
		return 0
	}
	return len(values) - 1
}

// Entries returns the rows carrying a plausible email address. When
// requireTimestamp is set and the sheet has no timestamp column, nothing is
// returned.
func (r *Reader) Entries(ctx context.Context, link string, requireTimestamp bool) []Entry {
	values, err := r.fetch(ctx, link)
	if err != nil || len(values) == 0 {
		return nil
	}

	headers := normalizeHeaders(values[0])
	emailIdx := headerIndex(headers, emailHeaders)
	if emailIdx < 0 {
		r.logger.Warn("sheet has no email column", zap.String("link", link))
		return nil
	}
	tsIdx := headerIndex(headers, timestampHeaders)
	if requireTimestamp && tsIdx < 0 {
		r.logger.Warn("sheet has no timestamp column", zap.String("link", link))
		return nil
	}

	entries := make([]Entry, 0, len(values)-1)
	for _, row := range values[1:] {
		if len(row) <= emailIdx {
			continue
		}
		email := strings.ToLower(strings.TrimSpace(row[emailIdx]))
		if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
			continue
		}
		entry := Entry{Email: email}
		if tsIdx >= 0 && len(row) > tsIdx {
			entry.Timestamp = strings.TrimSpace(row[tsIdx])
		}
		entries = append(entries, entry)
	}
	return entries
}

// Records returns every data row keyed by its header.
func (r *Reader) Records(ctx context.Context, link string) Table {
	values, err := r.fetch(ctx, link)
	if err != nil || len(values) == 0 {
		return Table{}
	}

	headers := make([]string, len(values[0]))
	for i, h := range values[0] {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		headers[i] = h
	}

	rows := make([]map[string]string, 0, len(values)-1)
	for _, row := range values[1:] {
		record := make(map[string]string, len(headers))
		empty := true
		for i, h := range headers {
			if i < len(row) {
				record[h] = row[i]
				if strings.TrimSpace(row[i]) != "" {
					empty = false
				}
			} else {
				record[h] = ""
			}
		}
		if !empty {
			rows = append(rows, record)
		}
	}
	return Table{Headers: headers, Rows: rows}
}

// Probe reports whether the sheet behind link can be read.
func (r *Reader) Probe(ctx context.Context, link string) error {
	_, err := r.fetch(ctx, link)
	return err
}

func (r *Reader) fetch(ctx context.Context, link string) ([][]string, error) {
	id, ok := ExtractDocumentID(link)
	if !ok {
		r.observe("invalid_link", 0)
		r.logger.Warn("invalid sheet link", zap.String("link", link))
		return nil, ErrInvalidLink
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	values, err := r.fetcher.FetchValues(ctx, id)
	elapsed := time.Since(start)
	if err != nil {
		outcome := "error"
		switch {
		case errors.Is(err, ErrDocumentNotFound):
			outcome = "not_found"
		case errors.Is(err, ErrNoWorksheet):
			outcome = "no_worksheet"
		case errors.Is(err, context.DeadlineExceeded):
			outcome = "timeout"
		}
		r.observe(outcome, elapsed)
		r.logger.Warn("sheet fetch failed", zap.String("document_id", id), zap.String("outcome", outcome), zap.Error(err))
		return nil, err
	}
	r.observe("ok", elapsed)
	return values, nil
}

func (r *Reader) observe(outcome string, d time.Duration) {
	if r.observer != nil {
		r.observer.ObserveSheetFetch(outcome, d)
	}
}

func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	for i, h := range raw {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return headers
}

func headerIndex(headers, synonyms []string) int {
	for i, h := range headers {
		for _, s := range synonyms {
			if h == s {
				return i
			}
		}
	}
	return -1
}
