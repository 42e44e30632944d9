package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/radieske/coupon-builder-poc/internal/builder/session"
)

// Hub gerencia conexões WebSocket inscritas em sessões de edição.
// Depois de cada recálculo absorvido, o snapshot de métricas é empurrado
// pra todos os clientes da sessão (a UI nunca precisa fazer polling).
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	// sessionID -> conjunto de conexões
	subs map[string]map[*websocket.Conn]struct{}
}

// ClientMsg é o que o cliente manda: subscribe/unsubscribe/ping.
type ClientMsg struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

// MetricsUpdate é o push enviado aos inscritos.
type MetricsUpdate struct {
	Type      string                  `json:"type"` // "metrics"
	SessionID string                  `json:"session_id"`
	Metrics   session.MetricsSnapshot `json:"metrics"`
}

// NewHub cria o hub com política customizada de origem (CORS).
func NewHub(allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*websocket.Conn]struct{}),
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão.
// Cada cliente pode acompanhar múltiplas sessões.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			h.mu.Lock()
			if _, ok := h.subs[msg.SessionID]; !ok {
				h.subs[msg.SessionID] = make(map[*websocket.Conn]struct{})
			}
			h.subs[msg.SessionID][conn] = struct{}{}
			h.mu.Unlock()
		case "unsubscribe":
			h.mu.Lock()
			if m, ok := h.subs[msg.SessionID]; ok {
				delete(m, conn)
				if len(m) == 0 {
					delete(h.subs, msg.SessionID)
				}
			}
			h.mu.Unlock()
		case "ping":
			_ = conn.WriteJSON(map[string]string{"type": "pong"})
		}
	}
	// remove a conexão de todas as assinaturas ao desconectar
	h.mu.Lock()
	for _, set := range h.subs {
		delete(set, conn)
	}
	h.mu.Unlock()
}

// SessionMetrics implementa session.MetricsSink: empurra o snapshot pra
// todos os clientes inscritos na sessão.
func (h *Hub) SessionMetrics(sessionID string, snap session.MetricsSnapshot) {
	h.mu.RLock()
	conns := h.subs[sessionID]
	h.mu.RUnlock()
	if len(conns) == 0 {
		return
	}

	b, _ := json.Marshal(MetricsUpdate{Type: "metrics", SessionID: sessionID, Metrics: snap})
	for c := range conns {
		_ = c.WriteMessage(websocket.TextMessage, b)
	}
}
