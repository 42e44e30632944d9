package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/radieske/coupon-builder-poc/internal/builder/draft"
	"github.com/radieske/coupon-builder-poc/internal/builder/http/dto"
	"github.com/radieske/coupon-builder-poc/internal/builder/ocrimport"
	"github.com/radieske/coupon-builder-poc/internal/builder/reconcile"
	"github.com/radieske/coupon-builder-poc/internal/builder/registry"
	"github.com/radieske/coupon-builder-poc/internal/builder/session"
	"github.com/radieske/coupon-builder-poc/internal/builder/ws"
	"github.com/radieske/coupon-builder-poc/internal/favorites"
	"github.com/radieske/coupon-builder-poc/internal/remote/catalog"
	"github.com/radieske/coupon-builder-poc/internal/remote/ocrsvc"
	"github.com/radieske/coupon-builder-poc/internal/shared/logger"
)

// Server é a fachada HTTP do coupon-builder: ciclo de vida das sessões,
// mutação de drafts, confirmação, stake, save/discard, import por OCR,
// favoritos e proxy dos catálogos.
type Server struct {
	log      *zap.Logger
	sessions *registry.Registry
	api      session.CouponAPI
	accts    session.AccountSource
	catalogs *catalog.Client
	ocr      *ocrsvc.Client
	favs     *favorites.Store
	publ     session.Publisher
	hub      *ws.Hub
}

func NewServer(
	log *zap.Logger,
	sessions *registry.Registry,
	api session.CouponAPI,
	accts session.AccountSource,
	catalogs *catalog.Client,
	ocr *ocrsvc.Client,
	favs *favorites.Store,
	publ session.Publisher,
	hub *ws.Hub,
) *Server {
	return &Server{
		log:      log,
		sessions: sessions,
		api:      api,
		accts:    accts,
		catalogs: catalogs,
		ocr:      ocr,
		favs:     favs,
		publ:     publ,
		hub:      hub,
	}
}

// Router retorna o roteador HTTP da fachada.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Post("/v1/sessions", s.startSession)
	r.Get("/v1/sessions/{id}", s.getSession)
	r.Post("/v1/sessions/{id}/drafts", s.addDraft)
	r.Patch("/v1/sessions/{id}/drafts/{draftId}", s.updateDraft)
	r.Delete("/v1/sessions/{id}/drafts/{draftId}", s.removeDraft)
	r.Post("/v1/sessions/{id}/drafts/{draftId}/confirm", s.confirmDraft)
	r.Put("/v1/sessions/{id}/stake", s.setStake)
	r.Put("/v1/sessions/{id}/strategy", s.setStrategy)
	r.Post("/v1/sessions/{id}/save", s.saveSession)
	r.Post("/v1/sessions/{id}/discard", s.discardSession)
	r.Post("/v1/sessions/{id}/force-win", s.forceWin)
	r.Post("/v1/sessions/{id}/ocr-import", s.ocrImport)
	r.Get("/v1/sessions/{id}/bet-types", s.sessionBetTypes)

	r.Get("/v1/catalog/disciplines", s.listDisciplines)
	r.Get("/v1/catalog/bet-types", s.listBetTypes)

	r.Get("/v1/favorites", s.getFavorites)
	r.Post("/v1/favorites/toggle", s.toggleFavorite)

	if s.hub != nil {
		r.Get("/v1/ws", s.hub.HandleWS)
	}
	return r
}

// startSession abre uma sessão de edição: monta store/reconciler novos e
// faz o bootstrap (contas + cupom remoto). Falha de bootstrap é 502.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var req dto.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	drafts := draft.NewStore(s.log, s.catalogs)
	rec := reconcile.New(s.log)
	var sink session.MetricsSink
	if s.hub != nil {
		sink = s.hub
	}
	sess := session.New(s.log, s.api, s.accts, drafts, rec, s.publ, sink, session.Options{
		InitialCouponID: req.CouponID,
		AccountID:       req.AccountID,
		Strategy:        req.Strategy,
		Stake:           req.Stake,
	})

	slog := logger.WithSession(s.log, sess.ID)
	if err := sess.Bootstrap(r.Context()); err != nil {
		slog.Error("session bootstrap", zap.Error(err))
		http.Error(w, "bootstrap failed", http.StatusBadGateway)
		return
	}

	s.sessions.Put(sess)
	slog.Info("session started", zap.String("couponId", sess.CouponID()))
	writeJSON(w, http.StatusCreated, sessionView(sess))
}

// getSession retorna o estado completo da sessão.
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionView(sess))
}

// addDraft anexa um draft vazio (puro estado local).
func (s *Server) addDraft(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	d := sess.Drafts().Add()
	writeJSON(w, http.StatusCreated, draftView(d))
}

// updateDraft aplica a mutação campo-a-campo. Id inexistente é no-op
// silencioso (204 do mesmo jeito), preservando o comportamento original.
func (s *Server) updateDraft(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	draftID, err := strconv.ParseInt(chi.URLParam(r, "draftId"), 10, 64)
	if err != nil {
		http.Error(w, "draftId must be numeric", http.StatusBadRequest)
		return
	}

	var req dto.UpdateDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	sess.Drafts().Update(r.Context(), draftID, draft.Field(req.Field), req.Value)
	w.WriteHeader(http.StatusNoContent)
}

// removeDraft tira o draft; o recálculo pós-remoção (quando confirmado) é
// não-bloqueante, então a resposta é sempre 204.
func (s *Server) removeDraft(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	draftID, err := strconv.ParseInt(chi.URLParam(r, "draftId"), 10, 64)
	if err != nil {
		http.Error(w, "draftId must be numeric", http.StatusBadRequest)
		return
	}

	sess.RemoveDraft(r.Context(), draftID)
	w.WriteHeader(http.StatusNoContent)
}

// confirmDraft é o ponto sem volta: falha remota aqui é alerta bloqueante
// pra UI (409/502 conforme o caso).
func (s *Server) confirmDraft(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	draftID, err := strconv.ParseInt(chi.URLParam(r, "draftId"), 10, 64)
	if err != nil {
		http.Error(w, "draftId must be numeric", http.StatusBadRequest)
		return
	}

	if err := sess.ConfirmBet(r.Context(), draftID); err != nil {
		switch {
		case errors.Is(err, session.ErrDraftNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, session.ErrInvalidDraft), errors.Is(err, session.ErrNotActive):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			s.log.Error("confirm bet", zap.Error(err))
			http.Error(w, "confirmation failed", http.StatusBadGateway)
		}
		return
	}
	writeJSON(w, http.StatusOK, sessionView(sess))
}

// setStake troca o stake. "Custom" pendente não gera chamada remota;
// falha do commit remoto é absorvida (resposta 200 com o estado local).
func (s *Server) setStake(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req dto.SetStakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	if req.CustomPending {
		sess.SelectCustomPending()
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := sess.SelectStake(r.Context(), req.Value); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(sess))
}

func (s *Server) setStrategy(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req dto.SetStrategyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	sess.SetStrategy(req.Strategy)
	w.WriteHeader(http.StatusNoContent)
}

// saveSession fecha a sessão. Draft não confirmado → 409 sem nenhuma
// chamada remota.
func (s *Server) saveSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	if err := sess.SaveAndExit(r.Context(), time.Now()); err != nil {
		switch {
		case errors.Is(err, session.ErrUnconfirmedDrafts), errors.Is(err, session.ErrNotActive):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			s.log.Error("save session", zap.Error(err))
			http.Error(w, "save failed", http.StatusBadGateway)
		}
		return
	}

	s.sessions.Remove(sess.ID)
	writeJSON(w, http.StatusOK, sessionView(sess))
}

// discardSession descarta a sessão; sempre 200 (delete remoto é
// best-effort).
func (s *Server) discardSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Discard(r.Context())
	s.sessions.Remove(sess.ID)
	writeJSON(w, http.StatusOK, sessionView(sess))
}

func (s *Server) forceWin(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.ForceWin(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// ocrImport recebe o multipart, delega pro adapter e devolve quantos
// drafts entraram. Nunca falha pra UI além de 400 de request malformado.
func (s *Server) ocrImport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	im := ocrimport.New(s.log, s.ocr, sess.Drafts(), sess)
	n := im.Import(r.Context(), header.Filename, contentType, file)

	writeJSON(w, http.StatusOK, dto.ImportResponse{Imported: n})
}

// sessionBetTypes retorna o catálogo de seleção corrente da sessão
// (substituído a cada troca de disciplina num draft).
func (s *Server) sessionBetTypes(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Drafts().BetTypes())
}

func (s *Server) listDisciplines(w http.ResponseWriter, r *http.Request) {
	ds, err := s.catalogs.Disciplines(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (s *Server) listBetTypes(w http.ResponseWriter, r *http.Request) {
	var disciplineID *int64
	if q := r.URL.Query().Get("discipline"); q != "" {
		n, err := strconv.ParseInt(q, 10, 64)
		if err != nil {
			http.Error(w, "discipline must be numeric", http.StatusBadRequest)
			return
		}
		disciplineID = &n
	}

	bts, err := s.catalogs.BetTypes(r.Context(), disciplineID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, bts)
}

func (s *Server) getFavorites(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.favs.Snapshot())
}

// toggleFavorite alterna um favorito; a persistência é debounced e o
// resultado remoto nunca bloqueia a resposta.
func (s *Server) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	var req dto.ToggleFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	switch req.Kind {
	case "discipline":
		s.favs.ToggleDiscipline(req.ID)
	case "bet_type":
		s.favs.ToggleBetType(req.ID)
	default:
		http.Error(w, "kind must be discipline or bet_type", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.favs.Snapshot())
}

// session resolve a sessão do path ou responde 404.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, ok := s.sessions.Get(id)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func sessionView(sess *session.Session) dto.SessionView {
	m := sess.Metrics()
	drafts := sess.Drafts().Drafts()
	views := make([]dto.DraftView, len(drafts))
	for i, d := range drafts {
		views[i] = draftView(d)
	}
	return dto.SessionView{
		SessionID:       sess.ID,
		State:           string(sess.State()),
		CouponID:        sess.CouponID(),
		Stake:           m.Stake,
		CustomPending:   sess.CustomPending(),
		Strategy:        sess.Strategy(),
		Multiplier:      m.Multiplier,
		PotentialPayout: m.PotentialPayout,
		Estimated:       m.Estimated,
		Drafts:          views,
	}
}

func draftView(d draft.Draft) dto.DraftView {
	return dto.DraftView{
		ID:         d.ID,
		EventName:  d.EventName,
		BetType:    d.BetType,
		Line:       d.Line,
		Odds:       d.Odds,
		StartTime:  d.StartTime,
		Discipline: d.Discipline,
		Confirmed:  d.Confirmed,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
