package favorites

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/coupon-builder-poc/internal/remote/settings"
	"github.com/radieske/coupon-builder-poc/internal/shared/debounce"
)

// SettingsAPI é a fatia das user settings usada pelos favoritos.
type SettingsAPI interface {
	GetFavorites(ctx context.Context) (*settings.Favorites, error)
	UpdateFavorites(ctx context.Context, fav settings.Favorites) error
}

// Store guarda os ids favoritados de disciplinas e tipos de aposta,
// independente de qualquer cupom. Toggles são puramente locais; a
// persistência manda o snapshot inteiro (os dois conjuntos) numa única
// chamada ao fechar a janela de debounce — N toggles rápidos viram
// exatamente um update refletindo o estado final.
type Store struct {
	log      *zap.Logger
	settings SettingsAPI
	deb      *debounce.Debouncer

	mu          sync.Mutex
	disciplines map[int64]struct{}
	betTypes    map[int64]struct{}
}

func New(log *zap.Logger, api SettingsAPI, delay time.Duration) *Store {
	s := &Store{
		log:         log,
		settings:    api,
		disciplines: make(map[int64]struct{}),
		betTypes:    make(map[int64]struct{}),
	}
	s.deb = debounce.New(delay, s.flush)
	return s
}

// Load hidrata o estado a partir das settings remotas (abertura da tela).
func (s *Store) Load(ctx context.Context) error {
	fav, err := s.settings.GetFavorites(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.disciplines = make(map[int64]struct{}, len(fav.Disciplines))
	for _, id := range fav.Disciplines {
		s.disciplines[id] = struct{}{}
	}
	s.betTypes = make(map[int64]struct{}, len(fav.BetTypes))
	for _, id := range fav.BetTypes {
		s.betTypes[id] = struct{}{}
	}
	s.mu.Unlock()
	return nil
}

// ToggleDiscipline alterna a presença do id no conjunto e (re)arma o
// debounce de persistência.
func (s *Store) ToggleDiscipline(id int64) {
	s.mu.Lock()
	toggle(s.disciplines, id)
	s.mu.Unlock()

	s.deb.Trigger()
}

// ToggleBetType idem pra tipos de aposta. Id inválido (<= 0) é no-op:
// protege contra toggle de entrada de catálogo sem id.
func (s *Store) ToggleBetType(id int64) {
	if id <= 0 {
		return
	}

	s.mu.Lock()
	toggle(s.betTypes, id)
	s.mu.Unlock()

	s.deb.Trigger()
}

func (s *Store) IsFavoriteDiscipline(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.disciplines[id]
	return ok
}

func (s *Store) IsFavoriteBetType(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.betTypes[id]
	return ok
}

// Snapshot retorna os dois conjuntos como slices ordenados (shape que vai
// pro backend).
func (s *Store) Snapshot() settings.Favorites {
	s.mu.Lock()
	defer s.mu.Unlock()

	return settings.Favorites{
		Disciplines: sortedKeys(s.disciplines),
		BetTypes:    sortedKeys(s.betTypes),
	}
}

// Flush força a persistência imediata de uma janela pendente (fechamento
// da tela).
func (s *Store) Flush() { s.deb.Flush() }

// Close cancela qualquer persistência pendente.
func (s *Store) Close() { s.deb.Stop() }

// flush empurra o snapshot inteiro pro backend. Falha é logada e
// absorvida; o próximo toggle rearma a janela de qualquer forma.
func (s *Store) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	snap := s.Snapshot()
	if err := s.settings.UpdateFavorites(ctx, snap); err != nil {
		s.log.Warn("favorites persist failed", zap.Error(err))
	}
}

func toggle(set map[int64]struct{}, id int64) {
	if _, ok := set[id]; ok {
		delete(set, id)
		return
	}
	set[id] = struct{}{}
}

func sortedKeys(set map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
