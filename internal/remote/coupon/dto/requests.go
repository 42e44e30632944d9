package dto

type CreateCouponRequest struct {
	AccountID int64  `json:"bookmaker_account_id"`
	Strategy  string `json:"strategy,omitempty"`
	Stake     string `json:"bet_stake"`
}

type UpdateCouponRequest struct {
	Stake    string `json:"bet_stake"`
	PlacedAt string `json:"placed_at"`
	Strategy string `json:"strategy,omitempty"`
}

type AddBetRequest struct {
	EventName  string `json:"event_name"`
	BetType    string `json:"bet_type"`
	Line       string `json:"line"`
	Odds       string `json:"odds"`
	StartTime  string `json:"start_time"`
	Discipline *int64 `json:"discipline,omitempty"`
}

type UpdateStakeRequest struct {
	Stake string `json:"bet_stake"`
}

// RecalcResult é a resposta do endpoint de recálculo: os dois números
// de manchete, sempre autoritativos.
type RecalcResult struct {
	Multiplier      string `json:"multiplier"`
	PotentialPayout string `json:"potential_payout"`
}
