package audit

import (
	"context"
	"database/sql"

	"github.com/radieske/coupon-builder-poc/pkg/contracts/events"
)

// Store persiste a trilha de auditoria de cupons fechados no Postgres.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// InsertPlaced grava o registro de um cupom salvo.
func (s *Store) InsertPlaced(ctx context.Context, e events.CouponPlaced) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO coupon_audit (coupon_id, session_id, action, account_id, strategy, stake, multiplier, potential_payout, bet_count, placed_at, created_at)
		VALUES ($1,$2,'PLACED',$3,$4,$5,$6,$7,$8,$9,NOW())`,
		e.CouponID, e.SessionID, e.AccountID, e.Strategy, e.Stake, e.Multiplier, e.PotentialPayout, e.BetCount, e.PlacedAt,
	)
	return err
}

// InsertDiscarded grava o registro de uma sessão descartada.
// remote_deleted distingue descarte limpo de delete remoto que falhou.
func (s *Store) InsertDiscarded(ctx context.Context, e events.CouponDiscarded) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO coupon_audit (coupon_id, session_id, action, remote_deleted, created_at)
		VALUES ($1,$2,'DISCARDED',$3,NOW())`,
		e.CouponID, e.SessionID, e.RemoteDeleted,
	)
	return err
}
