package events

// Evento emitido pelo coupon-builder quando uma sessão é salva (save-and-exit).
type CouponPlaced struct {
	CouponID        string `json:"coupon_id"`
	SessionID       string `json:"session_id"`
	AccountID       int64  `json:"account_id"`
	Strategy        string `json:"strategy,omitempty"`
	Stake           string `json:"stake"`
	Multiplier      string `json:"multiplier"`
	PotentialPayout string `json:"potential_payout"`
	BetCount        int    `json:"bet_count"`
	PlacedAt        string `json:"placed_at"` // ISO-8601
	TsUnixMs        int64  `json:"ts_unix_ms"`
}
