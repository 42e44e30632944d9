package favorites

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/coupon-builder-poc/internal/remote/settings"
)

type fakeSettings struct {
	mu      sync.Mutex
	updates []settings.Favorites
	stored  settings.Favorites
}

func (f *fakeSettings) GetFavorites(context.Context) (*settings.Favorites, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := f.stored
	return &cp, nil
}

func (f *fakeSettings) UpdateFavorites(_ context.Context, fav settings.Favorites) error {
	f.mu.Lock()
	f.updates = append(f.updates, fav)
	f.mu.Unlock()
	return nil
}

func (f *fakeSettings) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

func (f *fakeSettings) lastUpdate() settings.Favorites {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates[len(f.updates)-1]
}

func TestToggleIsLocalSetMembership(t *testing.T) {
	api := &fakeSettings{}
	s := New(zap.NewNop(), api, time.Hour) // janela enorme: nada persiste no teste
	defer s.Close()

	s.ToggleDiscipline(1)
	require.True(t, s.IsFavoriteDiscipline(1))

	s.ToggleDiscipline(1)
	require.False(t, s.IsFavoriteDiscipline(1))

	s.ToggleBetType(7)
	require.True(t, s.IsFavoriteBetType(7))
}

func TestInvalidBetTypeIDIsNoop(t *testing.T) {
	api := &fakeSettings{}
	s := New(zap.NewNop(), api, time.Hour)
	defer s.Close()

	s.ToggleBetType(0)
	s.ToggleBetType(-3)

	snap := s.Snapshot()
	require.Empty(t, snap.BetTypes)
}

func TestRapidTogglesCollapseIntoSingleUpdate(t *testing.T) {
	api := &fakeSettings{}
	s := New(zap.NewNop(), api, 50*time.Millisecond)
	defer s.Close()

	// 5 toggles dentro da mesma janela de debounce
	s.ToggleDiscipline(1)
	s.ToggleDiscipline(2)
	s.ToggleDiscipline(3)
	s.ToggleDiscipline(2) // desfaz o 2
	s.ToggleBetType(9)

	require.Eventually(t, func() bool {
		return api.updateCount() == 1
	}, time.Second, 10*time.Millisecond)

	// espera extra: não pode pingar segunda chamada
	time.Sleep(120 * time.Millisecond)
	require.Equal(t, 1, api.updateCount())

	last := api.lastUpdate()
	require.Equal(t, []int64{1, 3}, last.Disciplines)
	require.Equal(t, []int64{9}, last.BetTypes)
}

func TestSeparatedTogglesEachPersist(t *testing.T) {
	api := &fakeSettings{}
	s := New(zap.NewNop(), api, 20*time.Millisecond)
	defer s.Close()

	s.ToggleDiscipline(1)
	require.Eventually(t, func() bool { return api.updateCount() == 1 }, time.Second, 5*time.Millisecond)

	s.ToggleDiscipline(2)
	require.Eventually(t, func() bool { return api.updateCount() == 2 }, time.Second, 5*time.Millisecond)

	last := api.lastUpdate()
	require.Equal(t, []int64{1, 2}, last.Disciplines)
}

func TestLoadHydratesFromRemote(t *testing.T) {
	api := &fakeSettings{stored: settings.Favorites{Disciplines: []int64{4}, BetTypes: []int64{8}}}
	s := New(zap.NewNop(), api, time.Hour)
	defer s.Close()

	require.NoError(t, s.Load(context.Background()))
	require.True(t, s.IsFavoriteDiscipline(4))
	require.True(t, s.IsFavoriteBetType(8))
}

func TestFlushPersistsPendingWindowImmediately(t *testing.T) {
	api := &fakeSettings{}
	s := New(zap.NewNop(), api, time.Hour)
	defer s.Close()

	s.ToggleDiscipline(5)
	s.Flush()

	require.Equal(t, 1, api.updateCount())
	require.Equal(t, []int64{5}, api.lastUpdate().Disciplines)
}
