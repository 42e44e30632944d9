package registry

import (
	"sync"

	"github.com/radieske/coupon-builder-poc/internal/builder/session"
)

// Registry guarda as sessões de edição vivas, chaveadas pelo id da
// sessão. Sessões fechadas são removidas pelo handler que as fechou.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
}

func New() *Registry {
	return &Registry{sessions: make(map[string]*session.Session)}
}

func (r *Registry) Put(s *session.Session) {
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
}

func (r *Registry) Get(id string) (*session.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
