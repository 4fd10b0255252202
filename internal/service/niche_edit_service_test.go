package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/surveyhustler-api/internal/models"
	appErrors "github.com/noah-isme/surveyhustler-api/pkg/errors"
)

type fakeOptions struct{}

func (fakeOptions) Options(ctx context.Context, dimension models.FilterDimension) ([]models.NamedOption, error) {
	return []models.NamedOption{{ID: 7, Name: "Computer Science"}, {ID: 8, Name: "Mathematics"}}, nil
}

type fakeNicheCheckout struct {
	payloads []models.NicheEditPayload
}

func (f *fakeNicheCheckout) InitiateNicheEditPayment(ctx context.Context, userID string, edit models.NicheEditPayload) (*models.CheckoutSession, error) {
	f.payloads = append(f.payloads, edit)
	return &models.CheckoutSession{Reference: "NICHE_ref", CheckoutURL: "https://checkout.test/NICHE_ref", Amount: 1000}, nil
}

func newNicheEditFixture() (*NicheEditService, *fakeNicheSessions, *fakeNicheCheckout) {
	surveys := &fakeSurveyStore{surveys: []models.Survey{
		{ID: "filtered", OwnerID: "owner-1", ApplyFilter: true, Filters: models.FilterRules{
			{Gender: models.GenderMale, Dimension: models.DimensionCourse, TargetID: int64Ptr(7), Level: "200"},
			{},
		}},
		{ID: "everyone", OwnerID: "owner-1", ApplyFilter: false},
	}}
	sessions := newFakeNicheSessions()
	checkout := &fakeNicheCheckout{}
	return NewNicheEditService(surveys, sessions, fakeOptions{}, checkout, zap.NewNop()), sessions, checkout
}

func TestNicheEditServiceFullDialog(t *testing.T) {
	svc, sessions, checkout := newNicheEditFixture()
	ctx := context.Background()

	session, err := svc.Start(ctx, "owner-1", "filtered")
	require.NoError(t, err)
	assert.Equal(t, models.NicheSelecting, session.State)

	session, err = svc.SelectNiche(ctx, "owner-1", "filtered", 1)
	require.NoError(t, err)
	assert.Equal(t, models.NicheChoosingGender, session.State)

	session, err = svc.ChooseGender(ctx, "owner-1", "filtered", models.GenderBoth)
	require.NoError(t, err)
	assert.Equal(t, models.NicheChoosingOption, session.State)
	assert.Len(t, session.Options, 2)

	_, err = svc.ChooseOption(ctx, "owner-1", "filtered", 8)
	require.NoError(t, err)

	result, err := svc.Checkout(ctx, "owner-1", "filtered")
	require.NoError(t, err)
	assert.Equal(t, "NICHE_ref", result.Reference)

	require.Len(t, checkout.payloads, 1)
	payload := checkout.payloads[0]
	assert.Equal(t, "filtered", payload.SurveyID)
	assert.Equal(t, int64(7), *payload.Current.TargetID)
	assert.Equal(t, int64(8), payload.NewTargetID)
	assert.Equal(t, models.GenderBoth, payload.NewGender)

	stored, err := sessions.GetNicheSession(ctx, "owner-1", "filtered")
	require.NoError(t, err)
	assert.Equal(t, models.NicheAwaitingPayment, stored.State)
	assert.Equal(t, "NICHE_ref", stored.PaymentReference)
	assert.Empty(t, stored.Options)
}

func TestNicheEditServiceRejectsEveryone(t *testing.T) {
	svc, _, _ := newNicheEditFixture()

	_, err := svc.Start(context.Background(), "owner-1", "everyone")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot edit niche for Everyone")

	_, err = svc.Start(context.Background(), "owner-1", "filtered")
	require.NoError(t, err)
	_, err = svc.SelectNiche(context.Background(), "owner-1", "filtered", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot edit niche for Everyone")
}

func TestNicheEditServiceGuardsState(t *testing.T) {
	svc, _, _ := newNicheEditFixture()
	ctx := context.Background()

	_, err := svc.ChooseGender(ctx, "owner-1", "filtered", models.GenderMale)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))

	_, err = svc.Start(ctx, "owner-1", "filtered")
	require.NoError(t, err)
	_, err = svc.ChooseGender(ctx, "owner-1", "filtered", models.GenderMale)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	_, err = svc.SelectNiche(ctx, "owner-1", "filtered", 3)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))
}

func TestNicheEditServiceRejectsUnknownOptionAndGender(t *testing.T) {
	svc, _, _ := newNicheEditFixture()
	ctx := context.Background()

	_, err := svc.Start(ctx, "owner-1", "filtered")
	require.NoError(t, err)
	_, err = svc.SelectNiche(ctx, "owner-1", "filtered", 1)
	require.NoError(t, err)

	_, err = svc.ChooseGender(ctx, "owner-1", "filtered", "Other")
	require.Error(t, err)

	_, err = svc.ChooseGender(ctx, "owner-1", "filtered", models.GenderFemale)
	require.NoError(t, err)
	_, err = svc.ChooseOption(ctx, "owner-1", "filtered", 99)
	require.Error(t, err)

	_, err = svc.Checkout(ctx, "owner-1", "filtered")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "choose an option")
}

func TestNicheEditServiceOwnership(t *testing.T) {
	svc, _, _ := newNicheEditFixture()

	_, err := svc.Start(context.Background(), "intruder", "filtered")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(err))

	_, err = svc.Start(context.Background(), "owner-1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))
}

func TestNicheEditServiceCancel(t *testing.T) {
	svc, _, _ := newNicheEditFixture()
	ctx := context.Background()

	_, err := svc.Start(ctx, "owner-1", "filtered")
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, "owner-1", "filtered"))

	_, err = svc.Get(ctx, "owner-1", "filtered")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))
}
