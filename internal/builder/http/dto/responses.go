package dto

// DraftView é o draft como a UI enxerga.
type DraftView struct {
	ID         int64  `json:"id"`
	EventName  string `json:"event_name"`
	BetType    string `json:"bet_type"`
	Line       string `json:"line"`
	Odds       string `json:"odds"`
	StartTime  string `json:"start_time"`
	Discipline *int64 `json:"discipline,omitempty"`
	Confirmed  bool   `json:"confirmed"`
}

// SessionView é o estado completo da sessão pra renderização.
type SessionView struct {
	SessionID       string      `json:"session_id"`
	State           string      `json:"state"`
	CouponID        string      `json:"coupon_id,omitempty"`
	Stake           string      `json:"stake"`
	CustomPending   bool        `json:"custom_pending"`
	Strategy        string      `json:"strategy,omitempty"`
	Multiplier      string      `json:"multiplier"`
	PotentialPayout string      `json:"potential_payout"`
	Estimated       bool        `json:"estimated"`
	Drafts          []DraftView `json:"drafts"`
}

type ImportResponse struct {
	Imported int `json:"imported"`
}
