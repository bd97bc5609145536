package orch

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Nursery/internal/app"
	"github.com/dkeye/Nursery/internal/core"
	"github.com/dkeye/Nursery/internal/domain"
)

// Member is the state of one signaling connection: the room it joined, its
// identity there, its media connection and tracks received before joining.
type Member struct {
	sid core.SessionID

	mu       sync.Mutex
	room     *app.RoomSession
	identity domain.ParticipantIdentity
	pending  []core.Track
	media    core.MediaConnection
}

func NewMember(sid core.SessionID) *Member {
	return &Member{sid: sid}
}

func (m *Member) SID() core.SessionID { return m.sid }

// Joined returns the room and identity of m, if any.
func (m *Member) Joined() (domain.RoomName, domain.ParticipantIdentity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.room == nil {
		return "", "", false
	}
	return m.room.Name(), m.identity, true
}

func (m *Member) Media() core.MediaConnection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.media
}

// SetMedia replaces the media connection and returns the previous one.
func (m *Member) SetMedia(mc core.MediaConnection) core.MediaConnection {
	m.mu.Lock()
	defer m.mu.Unlock()
	old := m.media
	m.media = mc
	return old
}

func (o *Orchestrator) BindMediaHandlers(m *Member, mc core.MediaConnection) {
	mc.OnTrack(func(track core.Track) { o.OnTrack(m, track) })
	mc.OnClosed(func() { o.OnMediaDisconnect(m, mc) })
}

// OnTrack routes a remote track to the member's room, or holds it until the
// member joins. The notification is queued under the member lock so it can
// never overtake a concurrent Leave.
func (o *Orchestrator) OnTrack(m *Member, track core.Track) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.room == nil {
		m.pending = append(m.pending, track)
		log.Debug().Str("module", "orch").Str("sid", string(m.sid)).Str("track_id", track.ID()).Msg("track held until join")
		return
	}
	m.room.TrackAvailable(m.identity, track)
}

// OnMediaDisconnect forgets mc if it is still the member's connection. The
// participant stays in the room; its streams end on their own.
func (o *Orchestrator) OnMediaDisconnect(m *Member, mc core.MediaConnection) {
	m.mu.Lock()
	if m.media == mc {
		m.media = nil
	}
	m.mu.Unlock()
	log.Info().Str("module", "orch").Str("sid", string(m.sid)).Msg("media connection closed")
}
