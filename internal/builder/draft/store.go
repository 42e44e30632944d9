package draft

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/coupon-builder-poc/internal/remote/catalog"
)

// Field identifica o campo de um draft numa mutação campo-a-campo.
type Field string

const (
	FieldEventName  Field = "event_name"
	FieldBetType    Field = "bet_type"
	FieldLine       Field = "line"
	FieldOdds       Field = "odds"
	FieldStartTime  Field = "start_time"
	FieldDiscipline Field = "discipline"
)

// Draft é uma aposta ainda não (ou recém) confirmada.
// Campos são strings como chegam da UI; odds só vira número na hora
// do cálculo. Depois de Confirmed o draft é imutável.
type Draft struct {
	ID         int64 // id local do cliente, nunca vai pro backend
	EventName  string
	BetType    string
	Line       string
	Odds       string
	StartTime  string // ISO-8601
	Discipline *int64
	Confirmed  bool
	RemoteID   string // id da aposta no cupom remoto, vazio até confirmar
}

// CatalogSource fornece o catálogo de tipos de aposta filtrado por disciplina.
type CatalogSource interface {
	BetTypes(ctx context.Context, disciplineID *int64) ([]catalog.BetType, error)
}

// Recalculator dispara o recálculo remoto do cupom. Implementado pela
// sessão; necessário ao remover um draft já confirmado.
type Recalculator interface {
	Recalculate(ctx context.Context) error
}

// Store guarda a coleção ordenada de drafts da sessão de edição.
// A ordem de inserção é relevante pra exibição (não ordena).
// Mutações são locais-primeiro; falhas remotas nunca revertem o estado.
type Store struct {
	log      *zap.Logger
	catalogs CatalogSource

	mu       sync.Mutex
	recalc   Recalculator
	drafts   []*Draft
	nextID   int64
	betTypes []catalog.BetType // catálogo corrente da UI de seleção
}

func NewStore(log *zap.Logger, catalogs CatalogSource) *Store {
	return &Store{
		log:      log,
		catalogs: catalogs,
		// monotônico com base no relógio, no espírito dos ids locais do front
		nextID: time.Now().UnixMilli(),
	}
}

// SetRecalculator liga o store à sessão dona do cupom. Chamado uma vez
// na montagem da sessão.
func (s *Store) SetRecalculator(r Recalculator) {
	s.mu.Lock()
	s.recalc = r
	s.mu.Unlock()
}

// Add acrescenta um draft vazio com confirmed=false. Puro estado local.
func (s *Store) Add() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	d := &Draft{
		ID:        s.nextID,
		StartTime: time.Now().UTC().Format(time.RFC3339),
	}
	s.drafts = append(s.drafts, d)
	return *d
}

// Append acrescenta um draft pré-preenchido, atribuindo o id local.
// Usado pra reidratar apostas confirmadas de um cupom reaberto e pra
// anexar drafts vindos do import por OCR (sempre confirmed=false nesse
// caso; quem chama decide o flag).
func (s *Store) Append(d Draft) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	d.ID = s.nextID
	if d.StartTime == "" {
		d.StartTime = time.Now().UTC().Format(time.RFC3339)
	}
	cp := d
	s.drafts = append(s.drafts, &cp)
	return d
}

// Update troca o valor de um campo do draft com o id dado.
// Id inexistente é no-op silencioso (comportamento preservado do original).
// Draft confirmado é imutável; a atualização é ignorada.
// Setar discipline pra um valor não-vazio dispara um side-effect: refetch
// do catálogo de tipos de aposta filtrado. Falha do refetch é logada e não
// reverte o campo (a disciplina já foi atribuída).
func (s *Store) Update(ctx context.Context, id int64, field Field, value string) {
	s.mu.Lock()
	d := s.find(id)
	if d == nil || d.Confirmed {
		s.mu.Unlock()
		return
	}

	var refetch *int64
	switch field {
	case FieldEventName:
		d.EventName = value
	case FieldBetType:
		d.BetType = value
	case FieldLine:
		d.Line = value
	case FieldOdds:
		d.Odds = value
	case FieldStartTime:
		d.StartTime = value
	case FieldDiscipline:
		if value == "" {
			d.Discipline = nil
			break
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			s.log.Warn("discipline not numeric", zap.String("value", value))
			break
		}
		d.Discipline = &n
		refetch = &n
	}
	s.mu.Unlock()

	if refetch == nil {
		return
	}

	bts, err := s.catalogs.BetTypes(ctx, refetch)
	if err != nil {
		s.log.Warn("bet type catalog refetch", zap.Int64("discipline", *refetch), zap.Error(err))
		return
	}

	s.mu.Lock()
	s.betTypes = bts
	s.mu.Unlock()
}

// Remove tira o draft da coleção.
// Não confirmado: remoção puramente local, zero chamadas remotas.
// Confirmado: remoção local seguida de exatamente um recálculo remoto;
// se o recálculo falhar a remoção NÃO é revertida e o erro volta pro
// caller só pra log (janela de inconsistência aceita; o próximo fetch
// do cupom reconcilia).
func (s *Store) Remove(ctx context.Context, id int64) error {
	s.mu.Lock()
	idx := -1
	for i, d := range s.drafts {
		if d.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	wasConfirmed := s.drafts[idx].Confirmed
	s.drafts = append(s.drafts[:idx], s.drafts[idx+1:]...)
	recalc := s.recalc
	s.mu.Unlock()

	if !wasConfirmed || recalc == nil {
		return nil
	}
	return recalc.Recalculate(ctx)
}

// MarkConfirmed registra que o draft virou aposta remota.
func (s *Store) MarkConfirmed(id int64, remoteID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d := s.find(id); d != nil {
		d.Confirmed = true
		d.RemoteID = remoteID
	}
}

// Get retorna uma cópia do draft, se existir.
func (s *Store) Get(id int64) (Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d := s.find(id); d != nil {
		return *d, true
	}
	return Draft{}, false
}

// Drafts retorna cópias de todos os drafts na ordem de inserção.
func (s *Store) Drafts() []Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Draft, len(s.drafts))
	for i, d := range s.drafts {
		out[i] = *d
	}
	return out
}

// AllConfirmed informa se todo draft presente já foi confirmado.
// Lista vazia conta como confirmada.
func (s *Store) AllConfirmed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.drafts {
		if !d.Confirmed {
			return false
		}
	}
	return true
}

// BetTypes retorna o catálogo corrente da UI de seleção.
func (s *Store) BetTypes() []catalog.BetType {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]catalog.BetType, len(s.betTypes))
	copy(out, s.betTypes)
	return out
}

// Reset limpa todos os drafts (descarte da sessão).
func (s *Store) Reset() {
	s.mu.Lock()
	s.drafts = nil
	s.mu.Unlock()
}

func (s *Store) find(id int64) *Draft {
	for _, d := range s.drafts {
		if d.ID == id {
			return d
		}
	}
	return nil
}
