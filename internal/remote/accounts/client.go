package accounts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Account é uma conta de bookmaker do usuário.
type Account struct {
	ID        int64  `json:"id"`
	Bookmaker string `json:"bookmaker"`
	Name      string `json:"name"`
}

// Client lista as contas de bookmaker do backend.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string, httpClient *http.Client) *Client {
	return &Client{BaseURL: base, HTTP: httpClient}
}

// List retorna as contas disponíveis; a primeira é usada como default
// quando a sessão não recebe uma conta explícita.
func (c *Client) List(ctx context.Context) ([]Account, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/bookmaker-accounts", nil)
	if err != nil {
		return nil, err
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("accounts list: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("accounts list: http %d", res.StatusCode)
	}

	var out []Account
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
