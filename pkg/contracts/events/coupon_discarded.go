package events

// Evento emitido quando uma sessão de edição é descartada.
// RemoteDeleted indica se o delete no backend chegou a acontecer
// (o descarte local acontece mesmo quando o delete remoto falha).
type CouponDiscarded struct {
	CouponID      string `json:"coupon_id,omitempty"` // vazio se o cupom nunca foi criado
	SessionID     string `json:"session_id"`
	RemoteDeleted bool   `json:"remote_deleted"`
	TsUnixMs      int64  `json:"ts_unix_ms"`
}
