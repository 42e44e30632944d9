package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Discipline é uma modalidade esportiva do catálogo remoto.
type Discipline struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// BetType é um tipo de aposta do catálogo remoto, opcionalmente
// vinculado a uma disciplina.
type BetType struct {
	ID         int64  `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	Discipline *int64 `json:"discipline,omitempty"`
}

// Client consulta os catálogos de disciplinas e tipos de aposta.
// Um cache Redis opcional absorve os refetches disparados a cada
// troca de disciplina num draft.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Cache   *Cache // nil desabilita o cache
	TTL     time.Duration
}

func New(base string, httpClient *http.Client, cache *Cache, ttl time.Duration) *Client {
	return &Client{BaseURL: base, HTTP: httpClient, Cache: cache, TTL: ttl}
}

// Disciplines lista todas as modalidades.
func (c *Client) Disciplines(ctx context.Context) ([]Discipline, error) {
	if c.Cache != nil {
		var cached []Discipline
		if ok, _ := c.Cache.Get(ctx, keyDisciplines, &cached); ok {
			return cached, nil
		}
	}

	var out []Discipline
	if err := c.getJSON(ctx, "/catalog/disciplines", &out); err != nil {
		return nil, fmt.Errorf("catalog disciplines: %w", err)
	}

	if c.Cache != nil {
		_ = c.Cache.Set(ctx, keyDisciplines, out, c.TTL)
	}
	return out, nil
}

// BetTypes lista os tipos de aposta, filtrados por disciplina quando
// disciplineID não é nil.
func (c *Client) BetTypes(ctx context.Context, disciplineID *int64) ([]BetType, error) {
	key := keyBetTypesAll
	path := "/catalog/bet-types"
	if disciplineID != nil {
		key = keyBetTypes(*disciplineID)
		path += "?discipline=" + strconv.FormatInt(*disciplineID, 10)
	}

	if c.Cache != nil {
		var cached []BetType
		if ok, _ := c.Cache.Get(ctx, key, &cached); ok {
			return cached, nil
		}
	}

	var out []BetType
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("catalog bet types: %w", err)
	}

	if c.Cache != nil {
		_ = c.Cache.Set(ctx, key, out, c.TTL)
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return fmt.Errorf("http %d", res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(out)
}
