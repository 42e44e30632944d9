package ocrimport

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/radieske/coupon-builder-poc/internal/builder/draft"
	"github.com/radieske/coupon-builder-poc/internal/ocr"
	"github.com/radieske/coupon-builder-poc/internal/remote/ocrsvc"
)

// OCRService é o parse remoto de imagens de cupom.
type OCRService interface {
	Parse(ctx context.Context, filename, contentType string, file io.Reader) (*ocrsvc.ParseResult, error)
}

// StakePrefiller preenche o seletor de stake sem comitar (sessão).
type StakePrefiller interface {
	PrefillStake(value string)
}

// Importer converte o resultado do OCR em drafts anexados ao store.
// Saída de OCR nunca é auto-confirmada: erro de leitura é esperado e a
// confirmação manual é o portão de segurança. Falhas são logadas e o
// import é abandonado sem criar estado parcial — nada volta pra UI além
// do log.
type Importer struct {
	log    *zap.Logger
	svc    OCRService
	drafts *draft.Store
	stake  StakePrefiller // opcional
}

func New(log *zap.Logger, svc OCRService, drafts *draft.Store, stake StakePrefiller) *Importer {
	return &Importer{log: log, svc: svc, drafts: drafts, stake: stake}
}

// Import sobe o arquivo pro OCR remoto e anexa cada aposta extraída como
// draft com confirmed=false. Retorna quantos drafts foram criados.
// Só aceita image/* e application/pdf; o resto é rejeitado com log.
func (im *Importer) Import(ctx context.Context, filename, contentType string, file io.Reader) int {
	if !acceptedType(contentType) {
		im.log.Warn("ocr import rejected", zap.String("contentType", contentType))
		return 0
	}

	res, err := im.svc.Parse(ctx, filename, contentType, file)
	if err != nil {
		im.log.Error("ocr parse failed", zap.String("file", filename), zap.Error(err))
		return 0
	}

	bets := res.Bets
	if len(bets) == 0 && res.RawText != "" {
		// backend não estruturou: tenta a heurística local de linhas
		if pb, ok := ocr.ParseText(res.RawText); ok {
			bets = []ocrsvc.ParsedBet{{EventName: pb.EventName, Line: pb.Line, Odds: pb.Odds}}
		}
	}
	if len(bets) == 0 {
		im.log.Info("ocr extracted no bets", zap.String("file", filename))
		return 0
	}

	for _, b := range bets {
		im.drafts.Append(draft.Draft{
			EventName:  b.EventName,
			BetType:    b.BetType,
			Line:       b.Line,
			Odds:       b.Odds,
			StartTime:  b.StartTime,
			Discipline: b.Discipline,
			Confirmed:  false,
		})
	}

	if res.SuggestedStake != "" && im.stake != nil {
		im.stake.PrefillStake(res.SuggestedStake)
	}

	im.log.Info("ocr import done", zap.String("file", filename), zap.Int("bets", len(bets)))
	return len(bets)
}

func acceptedType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/") || contentType == "application/pdf"
}
