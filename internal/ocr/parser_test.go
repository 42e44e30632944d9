package ocr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsesFixtureMarketAndOdds(t *testing.T) {
	text := `Cupom de aposta
Arsenal - Chelsea
1X2
1
2.35
Obrigado pela preferência`

	pb, ok := ParseText(text)
	require.True(t, ok)
	require.Equal(t, "Arsenal - Chelsea", pb.EventName)
	require.Equal(t, "1X2", pb.Line)
	require.Equal(t, "2.35", pb.Odds)
}

func TestParsesVsSeparatorAndCommaOdds(t *testing.T) {
	text := `Palmeiras vs Flamengo
Over 2.5
1,85`

	pb, ok := ParseText(text)
	require.True(t, ok)
	require.Equal(t, "Palmeiras vs Flamengo", pb.EventName)
	require.Equal(t, "Over 2.5", pb.Line)
	require.Equal(t, "1.85", pb.Odds) // vírgula normalizada

	// primeiro match completo vence, mesmo com mais confrontos depois
	multi := text + "\nSantos vs Grêmio\nX\n3.10"
	pb2, ok := ParseText(multi)
	require.True(t, ok)
	require.Equal(t, "Palmeiras vs Flamengo", pb2.EventName)
}

func TestMarketOutsideWindowFails(t *testing.T) {
	// o rótulo de mercado está 4 linhas depois do confronto (janela é 3)
	text := `Arsenal - Chelsea
ruído
ruído
ruído
1X2
2.35`

	_, ok := ParseText(text)
	require.False(t, ok)
}

func TestOddsOutsideWindowFails(t *testing.T) {
	text := `Arsenal - Chelsea
1X2
ruído
ruído
ruído
2.35`

	_, ok := ParseText(text)
	require.False(t, ok)
}

func TestNoFixtureLineFails(t *testing.T) {
	_, ok := ParseText("só texto solto\nsem confronto nenhum\n2.35")
	require.False(t, ok)
}

func TestNumericSidesAreNotAFixture(t *testing.T) {
	// "2.35 - 1.85" parece ter separador, mas os lados são números
	_, ok := ParseText("2.35 - 1.85\n1X2\n2.00")
	require.False(t, ok)
}

func TestHandicapLabelIsRecognized(t *testing.T) {
	text := `Real Madrid - Barcelona
AH -1.5
1.95`

	pb, ok := ParseText(text)
	require.True(t, ok)
	require.Equal(t, "AH -1.5", pb.Line)
	require.Equal(t, "1.95", pb.Odds)
}

func TestBlankLinesAreIgnored(t *testing.T) {
	text := "Arsenal - Chelsea\n\n\nX\n\n3.40\n"

	pb, ok := ParseText(text)
	require.True(t, ok)
	require.Equal(t, "X", pb.Line)
	require.Equal(t, "3.40", pb.Odds)
}
