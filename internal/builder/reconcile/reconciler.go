package reconcile

import (
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/coupon-builder-poc/internal/builder/draft"
)

// Reconciler calcula os dois números de manchete (multiplier e potential
// payout) preferindo sempre o valor autoritativo do servidor. O cálculo
// local é só um placeholder de exibição entre a ação do usuário e a
// resposta do recálculo remoto (a fórmula real de payout, com promoções e
// regras de arredondamento, mora no backend).
type Reconciler struct {
	log *zap.Logger

	mu           sync.Mutex
	nextVersion  uint64
	lastAbsorbed uint64
	remoteMult   *decimal.Decimal
	remotePayout *decimal.Decimal
}

func New(log *zap.Logger) *Reconciler {
	return &Reconciler{log: log}
}

// Begin emite o stamp de versão de uma chamada de recálculo. Respostas
// devem ser absorvidas com o mesmo stamp; respostas atrasadas de chamadas
// antigas são descartadas em Absorb.
func (r *Reconciler) Begin() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextVersion++
	return r.nextVersion
}

// Absorb grava multiplier/payout autoritativos vindos do servidor.
// Retorna false se a resposta é obsoleta (uma resposta mais nova já foi
// absorvida) ou se os valores não parseiam.
func (r *Reconciler) Absorb(version uint64, multiplier, payout string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if version <= r.lastAbsorbed {
		r.log.Debug("stale recalc response dropped",
			zap.Uint64("version", version),
			zap.Uint64("lastAbsorbed", r.lastAbsorbed),
		)
		return false
	}

	m, errM := decimal.NewFromString(multiplier)
	p, errP := decimal.NewFromString(payout)
	if errM != nil || errP != nil {
		r.log.Warn("recalc response not numeric",
			zap.String("multiplier", multiplier),
			zap.String("payout", payout),
		)
		return false
	}

	r.lastAbsorbed = version
	r.remoteMult = &m
	r.remotePayout = &p
	return true
}

// Multiplier retorna o multiplicador a exibir: valor remoto verbatim se
// houve recálculo, senão o produto local das odds parseáveis dos drafts
// confirmados (odds inválidas são puladas, não zeram o produto),
// arredondado pra 2 casas. Lista vazia vale 1.00 (identidade do produto).
func (r *Reconciler) Multiplier(drafts []draft.Draft) decimal.Decimal {
	r.mu.Lock()
	remote := r.remoteMult
	r.mu.Unlock()

	if remote != nil {
		return *remote
	}
	return localProduct(drafts)
}

// Payout retorna o payout a exibir e se ele é uma estimativa local.
// O valor remoto, quando presente, é usado verbatim; a estimativa
// (stake × multiplicador local) nunca é persistida.
func (r *Reconciler) Payout(stake string, drafts []draft.Draft) (decimal.Decimal, bool) {
	r.mu.Lock()
	remote := r.remotePayout
	r.mu.Unlock()

	if remote != nil {
		return *remote, false
	}

	st, err := decimal.NewFromString(stake)
	if err != nil {
		st = decimal.Zero
	}
	return st.Mul(localProduct(drafts)).Round(2), true
}

// Reset descarta os valores remotos absorvidos (sessão fechada).
func (r *Reconciler) Reset() {
	r.mu.Lock()
	r.remoteMult = nil
	r.remotePayout = nil
	r.lastAbsorbed = 0
	r.nextVersion = 0
	r.mu.Unlock()
}

// localProduct multiplica as odds parseáveis dos drafts confirmados.
func localProduct(drafts []draft.Draft) decimal.Decimal {
	prod := decimal.NewFromInt(1)
	for _, d := range drafts {
		if !d.Confirmed {
			continue
		}
		odd, err := decimal.NewFromString(d.Odds)
		if err != nil || odd.Sign() <= 0 {
			continue
		}
		prod = prod.Mul(odd)
	}
	return prod.Round(2)
}
