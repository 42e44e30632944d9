package coupon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	coupondto "github.com/radieske/coupon-builder-poc/internal/remote/coupon/dto"
)

// Client fala com o recurso Coupon do backend autoritativo.
// O *http.Client compartilhado já anexa o bearer token (shared/httpx).
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string, httpClient *http.Client) *Client {
	return &Client{BaseURL: base, HTTP: httpClient}
}

// Create cria um cupom vazio contra uma conta de bookmaker.
func (c *Client) Create(ctx context.Context, req coupondto.CreateCouponRequest) (*coupondto.Coupon, error) {
	var out coupondto.Coupon
	if err := c.doJSON(ctx, http.MethodPost, "/coupons", req, &out); err != nil {
		return nil, fmt.Errorf("coupon create: %w", err)
	}
	return &out, nil
}

// Get busca o estado autoritativo atual do cupom.
func (c *Client) Get(ctx context.Context, couponID string) (*coupondto.Coupon, error) {
	var out coupondto.Coupon
	if err := c.doJSON(ctx, http.MethodGet, "/coupons/"+couponID, nil, &out); err != nil {
		return nil, fmt.Errorf("coupon get: %w", err)
	}
	return &out, nil
}

// Update grava stake/placed_at/strategy no fechamento da sessão.
func (c *Client) Update(ctx context.Context, couponID string, req coupondto.UpdateCouponRequest) error {
	if err := c.doJSON(ctx, http.MethodPatch, "/coupons/"+couponID, req, nil); err != nil {
		return fmt.Errorf("coupon update: %w", err)
	}
	return nil
}

// Delete remove o cupom remoto (descarte da sessão).
func (c *Client) Delete(ctx context.Context, couponID string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/coupons/"+couponID, nil, nil); err != nil {
		return fmt.Errorf("coupon delete: %w", err)
	}
	return nil
}

// AddBet anexa uma aposta confirmada ao cupom.
func (c *Client) AddBet(ctx context.Context, couponID string, req coupondto.AddBetRequest) (*coupondto.Bet, error) {
	var out coupondto.Bet
	if err := c.doJSON(ctx, http.MethodPost, "/coupons/"+couponID+"/bets", req, &out); err != nil {
		return nil, fmt.Errorf("coupon add bet: %w", err)
	}
	return &out, nil
}

// UpdateStake grava o novo valor apostado.
func (c *Client) UpdateStake(ctx context.Context, couponID string, stake string) error {
	req := coupondto.UpdateStakeRequest{Stake: stake}
	if err := c.doJSON(ctx, http.MethodPut, "/coupons/"+couponID+"/stake", req, nil); err != nil {
		return fmt.Errorf("coupon update stake: %w", err)
	}
	return nil
}

// Recalculate pede o recálculo server-side de multiplier/potential_payout.
func (c *Client) Recalculate(ctx context.Context, couponID string) (*coupondto.RecalcResult, error) {
	var out coupondto.RecalcResult
	if err := c.doJSON(ctx, http.MethodPost, "/coupons/"+couponID+"/recalculate", nil, &out); err != nil {
		return nil, fmt.Errorf("coupon recalculate: %w", err)
	}
	return &out, nil
}

// ForceWin marca o cupom como ganho (ferramenta de teste do produto).
func (c *Client) ForceWin(ctx context.Context, couponID string) error {
	if err := c.doJSON(ctx, http.MethodPost, "/coupons/"+couponID+"/force-win", nil, nil); err != nil {
		return fmt.Errorf("coupon force win: %w", err)
	}
	return nil
}

// doJSON executa a chamada, serializando body e resposta quando presentes.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return fmt.Errorf("http %d", res.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
