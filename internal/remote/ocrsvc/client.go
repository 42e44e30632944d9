package ocrsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// ParsedBet é uma aposta extraída pelo serviço de OCR do backend.
type ParsedBet struct {
	EventName  string `json:"event_name"`
	BetType    string `json:"bet_type"`
	Line       string `json:"line"`
	Odds       string `json:"odds"`
	StartTime  string `json:"start_time,omitempty"`
	Discipline *int64 `json:"discipline,omitempty"`
}

// ParseResult é a resposta do serviço: apostas já estruturadas, ou só o
// texto bruto quando o backend não conseguiu estruturar, mais um stake
// sugerido opcional.
type ParseResult struct {
	Bets           []ParsedBet `json:"bets"`
	RawText        string      `json:"raw_text,omitempty"`
	SuggestedStake string      `json:"suggested_stake,omitempty"`
}

// Client envia imagens de cupom para o endpoint de OCR via multipart.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string, httpClient *http.Client) *Client {
	return &Client{BaseURL: base, HTTP: httpClient}
}

// Parse sobe o arquivo e devolve o resultado do parse remoto.
func (c *Client) Parse(ctx context.Context, filename, contentType string, file io.Reader) (*ParseResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, err
	}
	_ = mw.WriteField("content_type", contentType)
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/ocr/parse", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocr parse: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("ocr parse: http %d", res.StatusCode)
	}

	var out ParseResult
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
