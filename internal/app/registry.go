package app

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/iter"

	"github.com/dkeye/Nursery/internal/domain"
	"github.com/dkeye/Nursery/internal/metrics"
)

var ErrRegistryClosed = errors.New("session registry closed")

// Registry maps participant identity to its session for one room. At most one
// ParticipantSession exists per identity at any time.
type Registry struct {
	ctx     context.Context
	room    domain.RoomName
	cfg     SessionConfig
	metrics *metrics.Metrics

	mu       sync.RWMutex
	closed   bool
	sessions map[domain.ParticipantIdentity]*ParticipantSession
}

func NewRegistry(ctx context.Context, room domain.RoomName, cfg SessionConfig, m *metrics.Metrics) *Registry {
	return &Registry{
		ctx:      ctx,
		room:     room,
		cfg:      cfg,
		metrics:  m,
		sessions: make(map[domain.ParticipantIdentity]*ParticipantSession),
	}
}

func (r *Registry) Get(id domain.ParticipantIdentity) (*ParticipantSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// GetOrCreate returns the session for id, creating it on first use.
func (r *Registry) GetOrCreate(id domain.ParticipantIdentity) (*ParticipantSession, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	closed := r.closed
	r.mu.RUnlock()
	if ok {
		return s, nil
	}
	if closed {
		return nil, ErrRegistryClosed
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRegistryClosed
	}
	if s, ok = r.sessions[id]; ok {
		return s, nil
	}
	s = newParticipantSession(r.ctx, r.room, id, r.cfg)
	r.sessions[id] = s
	r.metrics.ParticipantAdded()
	log.Info().Str("module", "app.registry").Str("room", string(r.room)).Str("identity", string(id)).Msg("created participant session")
	return s, nil
}

// Remove tears down the session for id. Unknown identities are a no-op.
// It reports whether a session was removed.
func (r *Registry) Remove(id domain.ParticipantIdentity) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	s.Close()
	r.metrics.ParticipantRemoved()
	log.Info().Str("module", "app.registry").Str("room", string(r.room)).Str("identity", string(id)).Msg("removed participant session")
	return true
}

// RemoveAll tears down every session and refuses new ones afterwards.
// Sessions are closed concurrently, in no particular order.
func (r *Registry) RemoveAll() {
	r.mu.Lock()
	r.closed = true
	all := make([]*ParticipantSession, 0, len(r.sessions))
	for id, s := range r.sessions {
		all = append(all, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	iter.ForEach(all, func(s **ParticipantSession) {
		(*s).Close()
		r.metrics.ParticipantRemoved()
	})
	log.Info().Str("module", "app.registry").Str("room", string(r.room)).Int("sessions", len(all)).Msg("removed all participant sessions")
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) Identities() []domain.ParticipantIdentity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ParticipantIdentity, 0, len(r.sessions))
	for id := range r.sessions {
		out = append(out, id)
	}
	return out
}
