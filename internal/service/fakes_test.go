package service

import (
	"context"
	"database/sql"
	"sync"

	"github.com/noah-isme/surveyhustler-api/internal/models"
	"github.com/noah-isme/surveyhustler-api/pkg/sheets"
)

type fakeSheetReader struct {
	mu       sync.Mutex
	entries  map[string][]sheets.Entry
	tables   map[string]sheets.Table
	probeErr error
	calls    int
}

func (f *fakeSheetReader) Count(ctx context.Context, link string) int {
	return len(f.Entries(ctx, link, false))
}

func (f *fakeSheetReader) Entries(ctx context.Context, link string, requireTimestamp bool) []sheets.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.entries[link]
}

func (f *fakeSheetReader) Records(ctx context.Context, link string) sheets.Table {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.tables[link]
}

func (f *fakeSheetReader) Probe(ctx context.Context, link string) error {
	return f.probeErr
}

type fakeUserStore struct {
	byExternal map[string]*models.User
	byID       map[string]*models.User
	err        error
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	store := &fakeUserStore{byExternal: map[string]*models.User{}, byID: map[string]*models.User{}}
	for _, u := range users {
		store.byExternal[u.ExternalID] = u
		store.byID[u.ID] = u
	}
	return store
}

func (f *fakeUserStore) FindByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.byExternal[externalID]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

type fakeSurveyStore struct {
	surveys []models.Survey
	deleted []string
	err     error
}

func (f *fakeSurveyStore) List(ctx context.Context) ([]models.Survey, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.Survey(nil), f.surveys...), nil
}

func (f *fakeSurveyStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Survey, error) {
	var out []models.Survey
	for _, s := range f.surveys {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSurveyStore) GetByID(ctx context.Context, id string) (*models.Survey, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.surveys {
		if f.surveys[i].ID == id {
			s := f.surveys[i]
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSurveyStore) Delete(ctx context.Context, id, ownerID string) error {
	for i := range f.surveys {
		if f.surveys[i].ID == id && f.surveys[i].OwnerID == ownerID {
			f.deleted = append(f.deleted, id)
			f.surveys = append(f.surveys[:i], f.surveys[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type outcomeCounter struct {
	mu       sync.Mutex
	outcomes []string
}

func (c *outcomeCounter) RecordVerification(outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, outcome)
}

func int64Ptr(v int64) *int64 { return &v }

func float64Ptr(v float64) *float64 { return &v }

func stringPtr(v string) *string { return &v }
