package httpx

import (
	"net/http"
	"time"

	"github.com/radieske/coupon-builder-poc/internal/shared/token"
)

// AuthTransport anexa o bearer token em toda requisição ao backend.
// Um 401 em qualquer chamada limpa os tokens e dispara o hook global
// (equivalente ao redirect pra tela de login do front original).
type AuthTransport struct {
	Tokens token.Store
	Base   http.RoundTripper

	// OnUnauthorized é chamado uma vez por resposta 401. Opcional.
	OnUnauthorized func()
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	// clona antes de mexer nos headers (RoundTripper não pode mutar o original)
	r2 := req.Clone(req.Context())
	if tok := t.Tokens.AccessToken(); tok != "" {
		r2.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := base.RoundTrip(r2)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		t.Tokens.Clear()
		if t.OnUnauthorized != nil {
			t.OnUnauthorized()
		}
	}

	return resp, nil
}

// NewClient monta o *http.Client compartilhado pelos clients do backend.
func NewClient(tokens token.Store, onUnauthorized func()) *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		Transport: &AuthTransport{
			Tokens:         tokens,
			OnUnauthorized: onUnauthorized,
		},
	}
}
