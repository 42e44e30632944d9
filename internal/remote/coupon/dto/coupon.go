package dto

// Coupon é a representação autoritativa do cupom no backend.
// Multiplier e PotentialPayout chegam como string decimal ("3.00"),
// calculados pelo servidor; o client nunca persiste valores próprios.
type Coupon struct {
	ID              string `json:"id"`
	AccountID       int64  `json:"bookmaker_account_id"`
	Strategy        string `json:"strategy,omitempty"`
	Stake           string `json:"bet_stake"`
	Multiplier      string `json:"multiplier"`
	PotentialPayout string `json:"potential_payout"`
	PlacedAt        string `json:"placed_at,omitempty"`
	Bets            []Bet  `json:"bets"`
}

// Bet é uma aposta já confirmada dentro do cupom remoto.
type Bet struct {
	ID         string `json:"id"`
	EventName  string `json:"event_name"`
	BetType    string `json:"bet_type"`
	Line       string `json:"line"`
	Odds       string `json:"odds"`
	StartTime  string `json:"start_time"`
	Discipline *int64 `json:"discipline,omitempty"`
}
