package orch

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Nursery/internal/domain"
)

var (
	ErrRoomNotMonitored = errors.New("room is not monitored")
	ErrAlreadyJoined    = errors.New("already joined a room")
)

// Join enters m into a monitored room under identity id. Tracks that arrived
// before the join are handed over as the participant's existing tracks.
func (o *Orchestrator) Join(m *Member, room domain.RoomName, id domain.ParticipantIdentity) error {
	rs, ok := o.Room(room)
	if !ok {
		return ErrRoomNotMonitored
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.room != nil {
		return ErrAlreadyJoined
	}
	pending := m.pending
	if !rs.Join(id, pending...) {
		return ErrRoomNotMonitored
	}
	m.room = rs
	m.identity = id
	m.pending = nil
	log.Info().
		Str("module", "orch").
		Str("sid", string(m.sid)).
		Str("room", string(room)).
		Str("identity", string(id)).
		Int("tracks", len(pending)).
		Msg("joined room")
	return nil
}

// Leave removes m from its room. Leaving twice is a no-op.
func (o *Orchestrator) Leave(m *Member) {
	m.mu.Lock()
	rs, id := m.room, m.identity
	m.room = nil
	m.identity = ""
	m.pending = nil
	if rs != nil {
		rs.Leave(id)
	}
	m.mu.Unlock()
	if rs == nil {
		return
	}
	log.Info().Str("module", "orch").Str("sid", string(m.sid)).Str("room", string(rs.Name())).Str("identity", string(id)).Msg("left room")
}

// Disconnect is called once the signaling connection is gone.
func (o *Orchestrator) Disconnect(m *Member) {
	o.Leave(m)
	if mc := m.SetMedia(nil); mc != nil {
		mc.Close()
	}
}
