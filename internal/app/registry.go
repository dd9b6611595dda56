package app

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/counselpoint/gateway/internal/core"
	"github.com/counselpoint/gateway/internal/domain"
)

type sessionEntry struct {
	// strategy is resolved once, at the first admission for this key.
	// Later admissions observe the cached value even if the backing
	// record changes mid-session; that staleness is deliberate.
	strategy domain.MediaStrategy
	conns    map[core.ConnID]*core.Connection
}

// Registry is the in-memory map from session key to admitted connections.
// It is the only mutable shared state in the gateway and the single
// synchronization point; all other components are stateless or
// connection-scoped.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionKey]*sessionEntry
	log      zerolog.Logger
}

func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		sessions: make(map[core.SessionKey]*sessionEntry),
		log:      log.With().Str("module", "app.registry").Logger(),
	}
}

// Admit inserts conn under its session key, creating the entry lazily.
// Not idempotent by identity: two tabs of the same user are two
// connections, tracked independently. Returns true when this is the
// identity's first live connection in the session, so the caller knows
// whether to announce presence.
func (r *Registry) Admit(conn *core.Connection) bool {
	key := conn.Key()
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[key]
	if !ok {
		e = &sessionEntry{
			strategy: conn.Strategy(),
			conns:    make(map[core.ConnID]*core.Connection),
		}
		r.sessions[key] = e
	}

	first := true
	for _, c := range e.conns {
		if c.UserID() == conn.UserID() {
			first = false
			break
		}
	}
	e.conns[conn.ID()] = conn

	r.log.Info().
		Str("session", string(key)).
		Str("conn", string(conn.ID())).
		Str("user", string(conn.UserID())).
		Int("members", len(e.conns)).
		Msg("connection admitted")
	return first
}

// Evict removes exactly conn; the entry is deleted once empty. Returns
// whether the connection was registered and whether its identity has no
// remaining connections in the session.
func (r *Registry) Evict(conn *core.Connection) (removed, last bool) {
	key := conn.Key()
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[key]
	if !ok {
		return false, false
	}
	if _, ok := e.conns[conn.ID()]; !ok {
		return false, false
	}
	delete(e.conns, conn.ID())

	last = true
	for _, c := range e.conns {
		if c.UserID() == conn.UserID() {
			last = false
			break
		}
	}
	if len(e.conns) == 0 {
		delete(r.sessions, key)
	}

	r.log.Info().
		Str("session", string(key)).
		Str("conn", string(conn.ID())).
		Str("user", string(conn.UserID())).
		Int("members", len(e.conns)).
		Msg("connection evicted")
	return true, last
}

// Has reports whether conn is currently admitted.
func (r *Registry) Has(conn *core.Connection) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[conn.Key()]
	if !ok {
		return false
	}
	_, ok = e.conns[conn.ID()]
	return ok
}

// MembersOf snapshots the current member set. No iteration order is
// guaranteed.
func (r *Registry) MembersOf(key core.SessionKey) []*core.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[key]
	if !ok {
		return nil
	}
	out := make([]*core.Connection, 0, len(e.conns))
	for _, c := range e.conns {
		out = append(out, c)
	}
	return out
}

// StrategyOf returns the strategy cached at first admission.
func (r *Registry) StrategyOf(key core.SessionKey) (domain.MediaStrategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[key]
	if !ok {
		return "", false
	}
	return e.strategy, true
}

// SessionCount reports the number of live sessions.
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Counts snapshots member counts per live session, for monitoring.
func (r *Registry) Counts() map[core.SessionKey]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[core.SessionKey]int, len(r.sessions))
	for key, e := range r.sessions {
		out[key] = len(e.conns)
	}
	return out
}
