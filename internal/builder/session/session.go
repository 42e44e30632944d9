package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/coupon-builder-poc/internal/builder/draft"
	"github.com/radieske/coupon-builder-poc/internal/builder/reconcile"
	"github.com/radieske/coupon-builder-poc/internal/remote/accounts"
	coupondto "github.com/radieske/coupon-builder-poc/internal/remote/coupon/dto"
	"github.com/radieske/coupon-builder-poc/pkg/contracts/events"
)

// State é o estado do ciclo de vida da sessão de edição.
type State string

const (
	StateUninitialized State = "UNINITIALIZED"
	StateBootstrapping State = "BOOTSTRAPPING"
	StateActive        State = "ACTIVE"
	StateSaving        State = "SAVING"
	StateDiscarding    State = "DISCARDING"
	StateClosed        State = "CLOSED"
)

// Presets de stake oferecidos pela UI; qualquer outro valor é "Custom"
// e precisa ser numérico.
var StakePresets = []string{"50", "100", "500"}

var (
	ErrNotActive         = errors.New("session not active")
	ErrClosed            = errors.New("session closed")
	ErrDraftNotFound     = errors.New("draft not found")
	ErrInvalidDraft      = errors.New("draft has missing or invalid fields")
	ErrInvalidStake      = errors.New("stake must be numeric")
	ErrUnconfirmedDrafts = errors.New("all bets must be confirmed before saving")
	ErrNoAccounts        = errors.New("no bookmaker account available")
)

// CouponAPI é o contrato do recurso Coupon no backend autoritativo.
type CouponAPI interface {
	Create(ctx context.Context, req coupondto.CreateCouponRequest) (*coupondto.Coupon, error)
	Get(ctx context.Context, couponID string) (*coupondto.Coupon, error)
	Update(ctx context.Context, couponID string, req coupondto.UpdateCouponRequest) error
	Delete(ctx context.Context, couponID string) error
	AddBet(ctx context.Context, couponID string, req coupondto.AddBetRequest) (*coupondto.Bet, error)
	UpdateStake(ctx context.Context, couponID string, stake string) error
	Recalculate(ctx context.Context, couponID string) (*coupondto.RecalcResult, error)
	ForceWin(ctx context.Context, couponID string) error
}

// AccountSource lista as contas de bookmaker do usuário.
type AccountSource interface {
	List(ctx context.Context) ([]accounts.Account, error)
}

// Publisher emite os eventos de fechamento da sessão.
type Publisher interface {
	PublishCouponPlaced(ctx context.Context, e events.CouponPlaced) error
	PublishCouponDiscarded(ctx context.Context, e events.CouponDiscarded) error
}

// MetricsSink recebe snapshots de métricas pra push em tempo real (ws hub).
type MetricsSink interface {
	SessionMetrics(sessionID string, snap MetricsSnapshot)
}

// MetricsSnapshot é o que a UI exibe depois de cada mutação.
type MetricsSnapshot struct {
	Multiplier      string `json:"multiplier"`
	PotentialPayout string `json:"potential_payout"`
	Estimated       bool   `json:"estimated"` // true enquanto só existe a estimativa local
	Stake           string `json:"stake"`
}

// Options parametriza a abertura da sessão.
type Options struct {
	InitialCouponID string // reabre um cupom existente; vazio cria um novo
	AccountID       int64  // 0 usa a primeira conta disponível
	Strategy        string
	Stake           string // default "50" se vazio
}

// Session é dona de exatamente um cupom remoto. Nunca cria um segundo
// cupom pra mesma sessão de edição; toda mutação financeira passa por ela
// e é seguida do recálculo autoritativo.
//
// Assimetria de erros (decisão de produto preservada): falhas na
// confirmação de aposta e no bootstrap são bloqueantes e voltam pro
// caller; falhas em troca de stake e remoção de draft são logadas e
// absorvidas.
type Session struct {
	ID string

	log    *zap.Logger
	api    CouponAPI
	accts  AccountSource
	drafts *draft.Store
	rec    *reconcile.Reconciler
	publ   Publisher   // opcional
	sink   MetricsSink // opcional

	mu            sync.Mutex
	state         State
	couponID      string
	accountID     int64
	strategy      string
	stake         string
	customPending bool // "Custom" selecionado, valor ainda não setado
	opts          Options
}

func New(log *zap.Logger, api CouponAPI, accts AccountSource, drafts *draft.Store, rec *reconcile.Reconciler, publ Publisher, sink MetricsSink, opts Options) *Session {
	stake := opts.Stake
	if stake == "" {
		stake = StakePresets[0]
	}
	s := &Session{
		ID:        uuid.NewString(),
		log:       log,
		api:       api,
		accts:     accts,
		drafts:    drafts,
		rec:       rec,
		publ:      publ,
		sink:      sink,
		state:     StateUninitialized,
		accountID: opts.AccountID,
		strategy:  opts.Strategy,
		stake:     stake,
		opts:      opts,
	}
	drafts.SetRecalculator(s)
	return s
}

// Bootstrap carrega as contas e garante um cupom remoto por trás da
// sessão: reabre o cupom inicial se houver, senão cria um novo contra a
// primeira conta. Falha aqui é bloqueante.
func (s *Session) Bootstrap(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateUninitialized {
		s.mu.Unlock()
		return fmt.Errorf("bootstrap in state %s", s.state)
	}
	s.state = StateBootstrapping
	s.mu.Unlock()

	accs, err := s.accts.List(ctx)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	if len(accs) == 0 {
		return ErrNoAccounts
	}

	s.mu.Lock()
	if s.accountID == 0 {
		s.accountID = accs[0].ID
	}
	initial := s.opts.InitialCouponID
	s.mu.Unlock()

	if initial != "" {
		if cp, err := s.api.Get(ctx, initial); err == nil {
			s.adoptCoupon(cp)
			return nil
		}
		// fetch falhou: cai pra criação de um cupom novo e vazio
		s.log.Warn("initial coupon fetch failed, creating fresh", zap.String("couponId", initial))
	}

	cp, err := s.api.Create(ctx, coupondto.CreateCouponRequest{
		AccountID: s.accountID,
		Strategy:  s.strategy,
		Stake:     s.Stake(),
	})
	if err != nil {
		return fmt.Errorf("create coupon: %w", err)
	}
	s.adoptCoupon(cp)
	return nil
}

// adoptCoupon absorve o estado autoritativo e reidrata os drafts
// confirmados. Transiciona pra Active.
func (s *Session) adoptCoupon(cp *coupondto.Coupon) {
	for _, b := range cp.Bets {
		s.drafts.Append(draft.Draft{
			EventName:  b.EventName,
			BetType:    b.BetType,
			Line:       b.Line,
			Odds:       b.Odds,
			StartTime:  b.StartTime,
			Discipline: b.Discipline,
			Confirmed:  true,
			RemoteID:   b.ID,
		})
	}

	s.mu.Lock()
	s.couponID = cp.ID
	if cp.Stake != "" {
		s.stake = cp.Stake
	}
	if cp.Strategy != "" {
		s.strategy = cp.Strategy
	}
	s.state = StateActive
	s.mu.Unlock()

	if cp.Multiplier != "" {
		v := s.rec.Begin()
		s.rec.Absorb(v, cp.Multiplier, cp.PotentialPayout)
	}
	s.pushMetrics()
}

// ConfirmBet valida e confirma um draft: o ponto sem volta em que o
// estado local vira autoritativo. Qualquer falha remota aqui volta pro
// caller como erro bloqueante.
func (s *Session) ConfirmBet(ctx context.Context, draftID int64) error {
	if s.State() != StateActive {
		return ErrNotActive
	}

	d, ok := s.drafts.Get(draftID)
	if !ok {
		return ErrDraftNotFound
	}
	if d.Confirmed {
		return nil
	}
	if err := validateDraft(d); err != nil {
		return err
	}

	bet, err := s.api.AddBet(ctx, s.CouponID(), coupondto.AddBetRequest{
		EventName:  d.EventName,
		BetType:    d.BetType,
		Line:       d.Line,
		Odds:       d.Odds,
		StartTime:  d.StartTime,
		Discipline: d.Discipline,
	})
	if err != nil {
		return fmt.Errorf("confirm bet: %w", err)
	}
	s.drafts.MarkConfirmed(draftID, bet.ID)

	if err := s.Recalculate(ctx); err != nil {
		return fmt.Errorf("confirm bet recalc: %w", err)
	}
	return nil
}

// Recalculate pede multiplier/payout autoritativos e absorve a resposta,
// descartando respostas fora de ordem pelo stamp de versão.
func (s *Session) Recalculate(ctx context.Context) error {
	couponID := s.CouponID()
	if couponID == "" {
		return ErrNotActive
	}

	v := s.rec.Begin()
	res, err := s.api.Recalculate(ctx, couponID)
	if err != nil {
		return err
	}
	if s.rec.Absorb(v, res.Multiplier, res.PotentialPayout) {
		s.pushMetrics()
	}
	return nil
}

// SelectStake escolhe um preset ou um valor custom já digitado.
// Antes de Active o valor só fica pendente localmente (vai na criação do
// cupom); em Active cada mudança comita: update-stake + recálculo.
// Falha no commit é logada, não bloqueante.
func (s *Session) SelectStake(ctx context.Context, value string) error {
	if !isPreset(value) {
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return ErrInvalidStake
		}
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.stake = value
	s.customPending = false
	active := s.state == StateActive
	s.mu.Unlock()

	if !active {
		return nil
	}
	s.commitStake(ctx, value)
	return nil
}

// SelectCustomPending marca que o usuário escolheu "Custom" mas ainda não
// digitou o valor. Nenhuma chamada remota acontece até o Set explícito.
func (s *Session) SelectCustomPending() {
	s.mu.Lock()
	s.customPending = true
	s.mu.Unlock()
}

// PrefillStake preenche o seletor de stake sem comitar nada no backend.
// Usado pelo import por OCR quando a imagem traz um stake sugerido; o
// commit continua exigindo a ação explícita do usuário.
func (s *Session) PrefillStake(value string) {
	s.mu.Lock()
	s.stake = value
	s.customPending = true
	s.mu.Unlock()
}

// commitStake executa o par update-stake + recalculate e absorve o
// resultado. Erros são logados e absorvidos (assimetria intencional).
func (s *Session) commitStake(ctx context.Context, value string) {
	couponID := s.CouponID()
	if err := s.api.UpdateStake(ctx, couponID, value); err != nil {
		s.log.Warn("stake update failed", zap.String("stake", value), zap.Error(err))
		return
	}
	if err := s.Recalculate(ctx); err != nil {
		s.log.Warn("stake recalc failed", zap.Error(err))
	}
}

// RemoveDraft delega pro store; o recálculo pós-remoção de aposta
// confirmada acontece lá. Falha do recálculo é logada aqui, não volta.
func (s *Session) RemoveDraft(ctx context.Context, draftID int64) {
	if err := s.drafts.Remove(ctx, draftID); err != nil {
		s.log.Warn("post-removal recalc failed", zap.Int64("draftId", draftID), zap.Error(err))
	}
}

// SetStrategy troca o rótulo de estratégia; vai pro backend no save.
func (s *Session) SetStrategy(strategy string) {
	s.mu.Lock()
	s.strategy = strategy
	s.mu.Unlock()
}

// SaveAndExit fecha a sessão gravando stake/placed_at/strategy.
// Recusa localmente, sem nenhuma chamada remota, se existir draft não
// confirmado. O refetch antes do update protege contra estado local stale.
func (s *Session) SaveAndExit(ctx context.Context, placedAt time.Time) error {
	if s.State() != StateActive {
		return ErrNotActive
	}
	// gate de confirmação primeiro: zero chamadas remotas se falhar
	if !s.drafts.AllConfirmed() {
		return ErrUnconfirmedDrafts
	}

	s.setState(StateSaving)

	cp, err := s.api.Get(ctx, s.CouponID())
	if err != nil {
		s.setState(StateActive)
		return fmt.Errorf("save consistency fetch: %w", err)
	}

	s.mu.Lock()
	stake := s.stake
	strategy := s.strategy
	accountID := s.accountID
	couponID := s.couponID
	s.mu.Unlock()

	placed := placedAt.UTC().Format(time.RFC3339)
	if err := s.api.Update(ctx, couponID, coupondto.UpdateCouponRequest{
		Stake:    stake,
		PlacedAt: placed,
		Strategy: strategy,
	}); err != nil {
		s.setState(StateActive)
		return fmt.Errorf("save coupon: %w", err)
	}

	s.setState(StateClosed)

	if s.publ != nil {
		err := s.publ.PublishCouponPlaced(ctx, events.CouponPlaced{
			CouponID:        couponID,
			SessionID:       s.ID,
			AccountID:       accountID,
			Strategy:        strategy,
			Stake:           stake,
			Multiplier:      cp.Multiplier,
			PotentialPayout: cp.PotentialPayout,
			BetCount:        len(cp.Bets),
			PlacedAt:        placed,
			TsUnixMs:        time.Now().UnixMilli(),
		})
		if err != nil {
			s.log.Warn("publish coupon_placed", zap.Error(err))
		}
	}
	return nil
}

// Discard descarta a sessão. O delete remoto só acontece se um cupom
// chegou a existir e é best-effort: falha é logada e o estado local é
// limpo do mesmo jeito. Sempre termina em Closed.
func (s *Session) Discard(ctx context.Context) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateDiscarding
	couponID := s.couponID
	s.mu.Unlock()

	remoteDeleted := false
	if couponID != "" {
		if err := s.api.Delete(ctx, couponID); err != nil {
			s.log.Warn("coupon delete failed on discard", zap.String("couponId", couponID), zap.Error(err))
		} else {
			remoteDeleted = true
		}
	}

	s.drafts.Reset()
	s.rec.Reset()

	s.mu.Lock()
	s.couponID = ""
	s.state = StateClosed
	s.mu.Unlock()

	if s.publ != nil {
		err := s.publ.PublishCouponDiscarded(ctx, events.CouponDiscarded{
			CouponID:      couponID,
			SessionID:     s.ID,
			RemoteDeleted: remoteDeleted,
			TsUnixMs:      time.Now().UnixMilli(),
		})
		if err != nil {
			s.log.Warn("publish coupon_discarded", zap.Error(err))
		}
	}
}

// ForceWin marca o cupom como ganho (atalho de teste do produto).
func (s *Session) ForceWin(ctx context.Context) error {
	if s.State() != StateActive {
		return ErrNotActive
	}
	return s.api.ForceWin(ctx, s.CouponID())
}

// Metrics monta o snapshot corrente pra exibição.
func (s *Session) Metrics() MetricsSnapshot {
	drafts := s.drafts.Drafts()
	stake := s.Stake()
	mult := s.rec.Multiplier(drafts)
	payout, estimated := s.rec.Payout(stake, drafts)
	return MetricsSnapshot{
		Multiplier:      mult.StringFixed(2),
		PotentialPayout: payout.StringFixed(2),
		Estimated:       estimated,
		Stake:           stake,
	}
}

// Drafts expõe o store de drafts da sessão (camada HTTP).
func (s *Session) Drafts() *draft.Store {
	return s.drafts
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) CouponID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.couponID
}

func (s *Session) Stake() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stake
}

func (s *Session) Strategy() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strategy
}

func (s *Session) CustomPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customPending
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) pushMetrics() {
	if s.sink == nil {
		return
	}
	s.sink.SessionMetrics(s.ID, s.Metrics())
}

// validateDraft aplica as regras de confirmação: campos obrigatórios
// não-vazios e odds numérica > 0 (odd inválida exibe como fator neutro,
// mas bloqueia a confirmação).
func validateDraft(d draft.Draft) error {
	if d.EventName == "" || d.BetType == "" || d.Line == "" {
		return ErrInvalidDraft
	}
	odd, err := strconv.ParseFloat(d.Odds, 64)
	if err != nil || odd <= 0 {
		return ErrInvalidDraft
	}
	return nil
}

func isPreset(v string) bool {
	for _, p := range StakePresets {
		if v == p {
			return true
		}
	}
	return false
}
