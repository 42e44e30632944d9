package draft

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/coupon-builder-poc/internal/remote/catalog"
)

type fakeCatalog struct {
	calls       int
	lastFilter  *int64
	betTypes    []catalog.BetType
	failWithErr error
}

func (f *fakeCatalog) BetTypes(_ context.Context, disciplineID *int64) ([]catalog.BetType, error) {
	f.calls++
	f.lastFilter = disciplineID
	if f.failWithErr != nil {
		return nil, f.failWithErr
	}
	return f.betTypes, nil
}

type fakeRecalc struct {
	calls int
	err   error
}

func (f *fakeRecalc) Recalculate(context.Context) error {
	f.calls++
	return f.err
}

func TestAddAppendsEmptyUnconfirmedDraft(t *testing.T) {
	s := NewStore(zap.NewNop(), &fakeCatalog{})

	d := s.Add()
	require.False(t, d.Confirmed)
	require.Empty(t, d.EventName)
	require.NotEmpty(t, d.StartTime) // start_time default "agora"

	all := s.Drafts()
	require.Len(t, all, 1)
	require.Equal(t, d.ID, all[0].ID)
}

func TestIDsAreMonotonic(t *testing.T) {
	s := NewStore(zap.NewNop(), &fakeCatalog{})

	a := s.Add()
	b := s.Add()
	c := s.Add()
	require.Less(t, a.ID, b.ID)
	require.Less(t, b.ID, c.ID)
}

func TestUpdateUnknownIDIsSilentNoop(t *testing.T) {
	s := NewStore(zap.NewNop(), &fakeCatalog{})
	s.Add()

	s.Update(context.Background(), 999999, FieldEventName, "ghost")

	for _, d := range s.Drafts() {
		require.NotEqual(t, "ghost", d.EventName)
	}
}

func TestUpdateConfirmedDraftIsIgnored(t *testing.T) {
	s := NewStore(zap.NewNop(), &fakeCatalog{})
	d := s.Add()
	s.MarkConfirmed(d.ID, "remote-1")

	s.Update(context.Background(), d.ID, FieldOdds, "9.99")

	got, ok := s.Get(d.ID)
	require.True(t, ok)
	require.Empty(t, got.Odds)
}

func TestDisciplineChangeTriggersSingleCatalogRefetch(t *testing.T) {
	cat := &fakeCatalog{betTypes: []catalog.BetType{{ID: 7, Code: "1X2"}}}
	s := NewStore(zap.NewNop(), cat)
	d := s.Add()

	s.Update(context.Background(), d.ID, FieldDiscipline, "42")

	require.Equal(t, 1, cat.calls)
	require.NotNil(t, cat.lastFilter)
	require.Equal(t, int64(42), *cat.lastFilter)
	require.Len(t, s.BetTypes(), 1)

	// outros campos não disparam refetch
	s.Update(context.Background(), d.ID, FieldEventName, "A - B")
	s.Update(context.Background(), d.ID, FieldOdds, "2.00")
	require.Equal(t, 1, cat.calls)
}

func TestDisciplineRefetchFailureKeepsFieldSet(t *testing.T) {
	cat := &fakeCatalog{failWithErr: errors.New("catalog down")}
	s := NewStore(zap.NewNop(), cat)
	d := s.Add()

	s.Update(context.Background(), d.ID, FieldDiscipline, "3")

	// a disciplina já foi atribuída; a falha do side-effect não reverte
	got, _ := s.Get(d.ID)
	require.NotNil(t, got.Discipline)
	require.Equal(t, int64(3), *got.Discipline)
}

func TestRemoveUnconfirmedNeverCallsRemote(t *testing.T) {
	s := NewStore(zap.NewNop(), &fakeCatalog{})
	rc := &fakeRecalc{}
	s.SetRecalculator(rc)

	d := s.Add()
	require.NoError(t, s.Remove(context.Background(), d.ID))

	require.Equal(t, 0, rc.calls)
	require.Empty(t, s.Drafts())
}

func TestRemoveConfirmedIssuesExactlyOneRecalc(t *testing.T) {
	s := NewStore(zap.NewNop(), &fakeCatalog{})
	rc := &fakeRecalc{}
	s.SetRecalculator(rc)

	d := s.Add()
	s.MarkConfirmed(d.ID, "remote-1")

	require.NoError(t, s.Remove(context.Background(), d.ID))
	require.Equal(t, 1, rc.calls)
	require.Empty(t, s.Drafts())
}

func TestRemoveConfirmedRecalcFailureDoesNotRollback(t *testing.T) {
	s := NewStore(zap.NewNop(), &fakeCatalog{})
	rc := &fakeRecalc{err: errors.New("recalc down")}
	s.SetRecalculator(rc)

	d := s.Add()
	s.MarkConfirmed(d.ID, "remote-1")

	err := s.Remove(context.Background(), d.ID)
	require.Error(t, err)
	// remoção local já aplicada fica aplicada
	require.Empty(t, s.Drafts())
}

func TestAppendPreservesFieldsAndAssignsID(t *testing.T) {
	s := NewStore(zap.NewNop(), &fakeCatalog{})

	d := s.Append(Draft{EventName: "A - B", Odds: "2.10", Confirmed: true, RemoteID: "r1"})
	require.NotZero(t, d.ID)
	require.NotEmpty(t, d.StartTime)

	got, ok := s.Get(d.ID)
	require.True(t, ok)
	require.True(t, got.Confirmed)
	require.Equal(t, "r1", got.RemoteID)
}

func TestAllConfirmed(t *testing.T) {
	s := NewStore(zap.NewNop(), &fakeCatalog{})
	require.True(t, s.AllConfirmed()) // lista vazia conta como confirmada

	d := s.Add()
	require.False(t, s.AllConfirmed())

	s.MarkConfirmed(d.ID, "r1")
	require.True(t, s.AllConfirmed())
}
