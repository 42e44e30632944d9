package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Favorites é o trecho das user settings que o builder persiste:
// os dois conjuntos de favoritos, sempre enviados inteiros numa chamada.
type Favorites struct {
	Disciplines []int64 `json:"favorite_disciplines"`
	BetTypes    []int64 `json:"favorite_bet_types"`
}

// Client lê e grava as user settings no backend.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string, httpClient *http.Client) *Client {
	return &Client{BaseURL: base, HTTP: httpClient}
}

// GetFavorites busca o snapshot atual de favoritos.
func (c *Client) GetFavorites(ctx context.Context) (*Favorites, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/settings/favorites", nil)
	if err != nil {
		return nil, err
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("settings get: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("settings get: http %d", res.StatusCode)
	}

	var out Favorites
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateFavorites grava o snapshot inteiro (os dois conjuntos) de uma vez.
func (c *Client) UpdateFavorites(ctx context.Context, fav Favorites) error {
	b, _ := json.Marshal(fav)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.BaseURL+"/settings/favorites", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("settings update: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return fmt.Errorf("settings update: http %d", res.StatusCode)
	}
	return nil
}
