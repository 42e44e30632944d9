package ocr

import (
	"regexp"
	"strings"
)

// Parser heurístico de texto bruto de OCR, usado quando o backend devolve
// só o texto sem estruturar. Estratégia: acha a primeira linha que parece
// um confronto (separador entre dois nomes de time), olha uma janela
// limitada de linhas à frente por um rótulo de mercado reconhecível, e
// mais uma janela por um token numérico de odd. Para no primeiro match
// completo. É best-effort, não um parser com gramática formal.

const (
	// janelas de lookahead a partir da linha do confronto
	marketWindow = 3
	oddsWindow   = 3
)

// ParsedBet é o shape recuperado do texto: nome do evento, linha/mercado
// e odd como string decimal normalizada.
type ParsedBet struct {
	EventName string
	Line      string
	Odds      string
}

// separadores que denotam um confronto entre dois times
var fixtureSeps = []string{" - ", " – ", " vs ", " vs. ", " x "}

// rótulos de mercado que a heurística reconhece como linha da aposta
var marketLabels = map[string]struct{}{
	"1": {}, "x": {}, "2": {},
	"1x": {}, "x2": {}, "12": {}, "1x2": {},
	"btts": {}, "gg": {}, "ng": {},
}

var (
	overUnderRe = regexp.MustCompile(`(?i)^(over|under)\s+\d+([.,]\d+)?$`)
	handicapRe  = regexp.MustCompile(`(?i)^(ah|handicap)\s*[+-]?\d+([.,]\d+)?$`)
	oddsTokenRe = regexp.MustCompile(`^\d{1,3}[.,]\d{1,3}$`)
)

// ParseText varre as linhas do texto e recupera a primeira aposta
// completa (evento, mercado, odd). Retorna false se nada casou.
func ParseText(text string) (ParsedBet, bool) {
	lines := splitLines(text)

	for i, line := range lines {
		event, ok := fixtureLine(line)
		if !ok {
			continue
		}

		market, mIdx, ok := scanMarket(lines, i+1)
		if !ok {
			continue
		}

		odds, ok := scanOdds(lines, mIdx+1)
		if !ok {
			continue
		}

		return ParsedBet{EventName: event, Line: market, Odds: odds}, true
	}
	return ParsedBet{}, false
}

// fixtureLine reconhece "Time A - Time B" (ou variantes de separador).
func fixtureLine(line string) (string, bool) {
	lower := strings.ToLower(line)
	for _, sep := range fixtureSeps {
		idx := strings.Index(lower, sep)
		if idx <= 0 {
			continue
		}
		left := strings.TrimSpace(line[:idx])
		right := strings.TrimSpace(line[idx+len(sep):])
		if left == "" || right == "" {
			continue
		}
		// ambos os lados precisam parecer nomes, não números soltos
		if oddsTokenRe.MatchString(left) || oddsTokenRe.MatchString(right) {
			continue
		}
		return strings.TrimSpace(line), true
	}
	return "", false
}

// scanMarket procura um rótulo de mercado na janela após o confronto.
func scanMarket(lines []string, from int) (string, int, bool) {
	end := from + marketWindow
	for i := from; i < end && i < len(lines); i++ {
		candidate := strings.TrimSpace(lines[i])
		if isMarketLabel(candidate) {
			return candidate, i, true
		}
	}
	return "", 0, false
}

// scanOdds procura o primeiro token numérico de odd na janela após o mercado.
func scanOdds(lines []string, from int) (string, bool) {
	end := from + oddsWindow
	for i := from; i < end && i < len(lines); i++ {
		for _, tok := range strings.Fields(lines[i]) {
			if oddsTokenRe.MatchString(tok) {
				return strings.ReplaceAll(tok, ",", "."), true
			}
		}
	}
	return "", false
}

func isMarketLabel(s string) bool {
	if s == "" {
		return false
	}
	if _, ok := marketLabels[strings.ToLower(s)]; ok {
		return true
	}
	return overUnderRe.MatchString(s) || handicapRe.MatchString(s)
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if t := strings.TrimSpace(l); t != "" {
			out = append(out, t)
		}
	}
	return out
}
