package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/coupon-builder-poc/internal/builder/draft"
	"github.com/radieske/coupon-builder-poc/internal/builder/reconcile"
	"github.com/radieske/coupon-builder-poc/internal/remote/accounts"
	"github.com/radieske/coupon-builder-poc/internal/remote/catalog"
	coupondto "github.com/radieske/coupon-builder-poc/internal/remote/coupon/dto"
	"github.com/radieske/coupon-builder-poc/pkg/contracts/events"
)

type fakeAPI struct {
	createCalls  int
	getCalls     int
	updateCalls  int
	deleteCalls  int
	addBetCalls  int
	stakeCalls   int
	recalcCalls  int
	forceCalls   int

	getErr    error
	addBetErr error
	stakeErr  error
	recalcErr error
	deleteErr error

	coupon coupondto.Coupon
	recalc coupondto.RecalcResult
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		coupon: coupondto.Coupon{ID: "cp-1", AccountID: 10, Stake: "50"},
		recalc: coupondto.RecalcResult{Multiplier: "2.00", PotentialPayout: "100.00"},
	}
}

func (f *fakeAPI) Create(context.Context, coupondto.CreateCouponRequest) (*coupondto.Coupon, error) {
	f.createCalls++
	cp := f.coupon
	return &cp, nil
}

func (f *fakeAPI) Get(context.Context, string) (*coupondto.Coupon, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	cp := f.coupon
	return &cp, nil
}

func (f *fakeAPI) Update(context.Context, string, coupondto.UpdateCouponRequest) error {
	f.updateCalls++
	return nil
}

func (f *fakeAPI) Delete(context.Context, string) error {
	f.deleteCalls++
	return f.deleteErr
}

func (f *fakeAPI) AddBet(context.Context, string, coupondto.AddBetRequest) (*coupondto.Bet, error) {
	f.addBetCalls++
	if f.addBetErr != nil {
		return nil, f.addBetErr
	}
	return &coupondto.Bet{ID: "bet-1"}, nil
}

func (f *fakeAPI) UpdateStake(context.Context, string, string) error {
	f.stakeCalls++
	return f.stakeErr
}

func (f *fakeAPI) Recalculate(context.Context, string) (*coupondto.RecalcResult, error) {
	f.recalcCalls++
	if f.recalcErr != nil {
		return nil, f.recalcErr
	}
	res := f.recalc
	return &res, nil
}

func (f *fakeAPI) ForceWin(context.Context, string) error {
	f.forceCalls++
	return nil
}

type fakeAccounts struct {
	accs []accounts.Account
	err  error
}

func (f *fakeAccounts) List(context.Context) ([]accounts.Account, error) {
	return f.accs, f.err
}

type fakePublisher struct {
	placed    []events.CouponPlaced
	discarded []events.CouponDiscarded
}

func (f *fakePublisher) PublishCouponPlaced(_ context.Context, e events.CouponPlaced) error {
	f.placed = append(f.placed, e)
	return nil
}

func (f *fakePublisher) PublishCouponDiscarded(_ context.Context, e events.CouponDiscarded) error {
	f.discarded = append(f.discarded, e)
	return nil
}

type noCatalog struct{}

func (noCatalog) BetTypes(context.Context, *int64) ([]catalog.BetType, error) { return nil, nil }

func newTestSession(api *fakeAPI, opts Options) (*Session, *fakePublisher) {
	log := zap.NewNop()
	drafts := draft.NewStore(log, noCatalog{})
	rec := reconcile.New(log)
	publ := &fakePublisher{}
	accts := &fakeAccounts{accs: []accounts.Account{{ID: 10, Bookmaker: "bookie"}}}
	return New(log, api, accts, drafts, rec, publ, nil, opts), publ
}

func fillDraft(s *Session, id int64) {
	ctx := context.Background()
	s.Drafts().Update(ctx, id, draft.FieldEventName, "Alpha - Beta")
	s.Drafts().Update(ctx, id, draft.FieldBetType, "1X2")
	s.Drafts().Update(ctx, id, draft.FieldLine, "1")
	s.Drafts().Update(ctx, id, draft.FieldOdds, "2.00")
}

func TestBootstrapCreatesCouponWhenNoneGiven(t *testing.T) {
	api := newFakeAPI()
	s, _ := newTestSession(api, Options{})

	require.NoError(t, s.Bootstrap(context.Background()))
	require.Equal(t, StateActive, s.State())
	require.Equal(t, "cp-1", s.CouponID())
	require.Equal(t, 1, api.createCalls)
	require.Equal(t, 0, api.getCalls)
}

func TestBootstrapFallsBackToCreateOnFetchFailure(t *testing.T) {
	api := newFakeAPI()
	api.getErr = errors.New("gone")
	s, _ := newTestSession(api, Options{InitialCouponID: "old-coupon"})

	require.NoError(t, s.Bootstrap(context.Background()))
	require.Equal(t, StateActive, s.State())
	require.Equal(t, 1, api.getCalls)
	require.Equal(t, 1, api.createCalls)
}

func TestBootstrapRehydratesConfirmedBets(t *testing.T) {
	api := newFakeAPI()
	api.coupon.Bets = []coupondto.Bet{
		{ID: "b1", EventName: "Alpha - Beta", BetType: "1X2", Line: "1", Odds: "2.00"},
		{ID: "b2", EventName: "Gamma - Delta", BetType: "1X2", Line: "X", Odds: "3.10"},
	}
	api.coupon.Multiplier = "6.20"
	api.coupon.PotentialPayout = "310.00"
	s, _ := newTestSession(api, Options{InitialCouponID: "cp-1"})

	require.NoError(t, s.Bootstrap(context.Background()))

	drafts := s.Drafts().Drafts()
	require.Len(t, drafts, 2)
	for _, d := range drafts {
		require.True(t, d.Confirmed)
	}
	m := s.Metrics()
	require.Equal(t, "6.20", m.Multiplier)
	require.False(t, m.Estimated)
}

func TestBootstrapFailsWithoutAccounts(t *testing.T) {
	api := newFakeAPI()
	log := zap.NewNop()
	drafts := draft.NewStore(log, noCatalog{})
	s := New(log, api, &fakeAccounts{}, drafts, reconcile.New(log), nil, nil, Options{})

	err := s.Bootstrap(context.Background())
	require.ErrorIs(t, err, ErrNoAccounts)
}

func TestConfirmBetAppendsAndRecalculatesOnce(t *testing.T) {
	api := newFakeAPI()
	s, _ := newTestSession(api, Options{})
	require.NoError(t, s.Bootstrap(context.Background()))

	d := s.Drafts().Add()
	fillDraft(s, d.ID)

	require.NoError(t, s.ConfirmBet(context.Background(), d.ID))
	require.Equal(t, 1, api.addBetCalls)
	require.Equal(t, 1, api.recalcCalls)

	got, _ := s.Drafts().Get(d.ID)
	require.True(t, got.Confirmed)
	require.Equal(t, "bet-1", got.RemoteID)

	m := s.Metrics()
	require.Equal(t, "2.00", m.Multiplier)
	require.Equal(t, "100.00", m.PotentialPayout)
	require.False(t, m.Estimated)
}

func TestConfirmBetRemoteFailureIsBlocking(t *testing.T) {
	api := newFakeAPI()
	api.addBetErr = errors.New("backend down")
	s, _ := newTestSession(api, Options{})
	require.NoError(t, s.Bootstrap(context.Background()))

	d := s.Drafts().Add()
	fillDraft(s, d.ID)

	err := s.ConfirmBet(context.Background(), d.ID)
	require.Error(t, err)

	got, _ := s.Drafts().Get(d.ID)
	require.False(t, got.Confirmed)
}

func TestConfirmBetValidatesRequiredFields(t *testing.T) {
	api := newFakeAPI()
	s, _ := newTestSession(api, Options{})
	require.NoError(t, s.Bootstrap(context.Background()))

	d := s.Drafts().Add() // campos vazios
	err := s.ConfirmBet(context.Background(), d.ID)
	require.ErrorIs(t, err, ErrInvalidDraft)
	require.Equal(t, 0, api.addBetCalls)

	// odds inválida também bloqueia
	fillDraft(s, d.ID)
	s.Drafts().Update(context.Background(), d.ID, draft.FieldOdds, "zero")
	err = s.ConfirmBet(context.Background(), d.ID)
	require.ErrorIs(t, err, ErrInvalidDraft)
	require.Equal(t, 0, api.addBetCalls)
}

func TestStakeCommitDoesUpdatePlusRecalc(t *testing.T) {
	api := newFakeAPI()
	s, _ := newTestSession(api, Options{})
	require.NoError(t, s.Bootstrap(context.Background()))

	require.NoError(t, s.SelectStake(context.Background(), "100"))
	require.Equal(t, 1, api.stakeCalls)
	require.Equal(t, 1, api.recalcCalls)
	require.Equal(t, "100", s.Stake())
}

func TestStakeFailureIsNonBlocking(t *testing.T) {
	api := newFakeAPI()
	api.stakeErr = errors.New("backend down")
	s, _ := newTestSession(api, Options{})
	require.NoError(t, s.Bootstrap(context.Background()))

	// falha remota é absorvida; o valor local fica
	require.NoError(t, s.SelectStake(context.Background(), "500"))
	require.Equal(t, "500", s.Stake())
	require.Equal(t, 0, api.recalcCalls) // recalc nem tenta após update falho
}

func TestCustomPendingMakesNoRemoteCall(t *testing.T) {
	api := newFakeAPI()
	s, _ := newTestSession(api, Options{})
	require.NoError(t, s.Bootstrap(context.Background()))

	s.SelectCustomPending()
	require.Equal(t, 0, api.stakeCalls)
	require.Equal(t, 0, api.recalcCalls)
}

func TestStakeBeforeActiveOnlyStoresLocally(t *testing.T) {
	api := newFakeAPI()
	s, _ := newTestSession(api, Options{})

	require.NoError(t, s.SelectStake(context.Background(), "100"))
	require.Equal(t, 0, api.stakeCalls)
	require.Equal(t, "100", s.Stake())
}

func TestInvalidCustomStakeIsRejected(t *testing.T) {
	api := newFakeAPI()
	s, _ := newTestSession(api, Options{})
	require.NoError(t, s.Bootstrap(context.Background()))

	err := s.SelectStake(context.Background(), "abc")
	require.ErrorIs(t, err, ErrInvalidStake)
	require.Equal(t, 0, api.stakeCalls)
}

func TestSaveRefusedWithUnconfirmedDraftZeroRemoteCalls(t *testing.T) {
	api := newFakeAPI()
	s, _ := newTestSession(api, Options{})
	require.NoError(t, s.Bootstrap(context.Background()))

	d := s.Drafts().Add()
	fillDraft(s, d.ID) // preenchido mas não confirmado

	before := api.getCalls + api.updateCalls + api.recalcCalls
	err := s.SaveAndExit(context.Background(), time.Now())
	require.ErrorIs(t, err, ErrUnconfirmedDrafts)
	require.Equal(t, before, api.getCalls+api.updateCalls+api.recalcCalls)
	require.Equal(t, StateActive, s.State())
}

func TestSaveRefetchesUpdatesAndCloses(t *testing.T) {
	api := newFakeAPI()
	s, publ := newTestSession(api, Options{Strategy: "flat"})
	require.NoError(t, s.Bootstrap(context.Background()))

	d := s.Drafts().Add()
	fillDraft(s, d.ID)
	require.NoError(t, s.ConfirmBet(context.Background(), d.ID))

	getsBefore := api.getCalls
	require.NoError(t, s.SaveAndExit(context.Background(), time.Now()))

	require.Equal(t, getsBefore+1, api.getCalls) // consistency fetch
	require.Equal(t, 1, api.updateCalls)
	require.Equal(t, StateClosed, s.State())

	require.Len(t, publ.placed, 1)
	require.Equal(t, "cp-1", publ.placed[0].CouponID)
	require.Equal(t, "flat", publ.placed[0].Strategy)
}

func TestDiscardWithoutCouponSkipsRemoteDelete(t *testing.T) {
	api := newFakeAPI()
	s, publ := newTestSession(api, Options{})
	// sessão nunca bootstrapou: nenhum cupom remoto existe

	s.Discard(context.Background())

	require.Equal(t, 0, api.deleteCalls)
	require.Equal(t, StateClosed, s.State())
	require.Empty(t, s.Drafts().Drafts())

	require.Len(t, publ.discarded, 1)
	require.False(t, publ.discarded[0].RemoteDeleted)
	require.Empty(t, publ.discarded[0].CouponID)
}

func TestDiscardDeletesRemoteBestEffort(t *testing.T) {
	api := newFakeAPI()
	s, publ := newTestSession(api, Options{})
	require.NoError(t, s.Bootstrap(context.Background()))

	s.Discard(context.Background())
	require.Equal(t, 1, api.deleteCalls)
	require.Equal(t, StateClosed, s.State())
	require.True(t, publ.discarded[0].RemoteDeleted)

	// discard repetido é no-op
	s.Discard(context.Background())
	require.Equal(t, 1, api.deleteCalls)
}

func TestDiscardDeleteFailureStillClearsLocal(t *testing.T) {
	api := newFakeAPI()
	api.deleteErr = errors.New("backend down")
	s, _ := newTestSession(api, Options{})
	require.NoError(t, s.Bootstrap(context.Background()))
	s.Drafts().Add()

	s.Discard(context.Background())
	require.Equal(t, StateClosed, s.State())
	require.Empty(t, s.Drafts().Drafts())
	require.Empty(t, s.CouponID())
}

func TestNeverCreatesSecondCoupon(t *testing.T) {
	api := newFakeAPI()
	s, _ := newTestSession(api, Options{})
	require.NoError(t, s.Bootstrap(context.Background()))

	// bootstrap repetido é recusado sem nova criação
	require.Error(t, s.Bootstrap(context.Background()))
	require.Equal(t, 1, api.createCalls)
}

func TestRemoveConfirmedDraftRecalculatesViaSession(t *testing.T) {
	api := newFakeAPI()
	s, _ := newTestSession(api, Options{})
	require.NoError(t, s.Bootstrap(context.Background()))

	d := s.Drafts().Add()
	fillDraft(s, d.ID)
	require.NoError(t, s.ConfirmBet(context.Background(), d.ID))

	recalcsBefore := api.recalcCalls
	s.RemoveDraft(context.Background(), d.ID)
	require.Equal(t, recalcsBefore+1, api.recalcCalls)
}
