package dto

type StartSessionRequest struct {
	CouponID  string `json:"coupon_id,omitempty"` // reabre um cupom existente
	AccountID int64  `json:"bookmaker_account_id,omitempty"`
	Strategy  string `json:"strategy,omitempty"`
	Stake     string `json:"stake,omitempty"`
}

type UpdateDraftRequest struct {
	Field string `json:"field"` // event_name | bet_type | line | odds | start_time | discipline
	Value string `json:"value"`
}

type SetStakeRequest struct {
	Value         string `json:"value"`
	CustomPending bool   `json:"custom_pending,omitempty"` // "Custom" sem valor ainda
}

type SetStrategyRequest struct {
	Strategy string `json:"strategy"`
}

type ToggleFavoriteRequest struct {
	Kind string `json:"kind"` // "discipline" | "bet_type"
	ID   int64  `json:"id"`
}
