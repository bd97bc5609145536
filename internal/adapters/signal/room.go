package signal

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Nursery/internal/app/orch"
	"github.com/dkeye/Nursery/internal/domain"
)

const maxRoomNameLen = 64

func (ctl *SignalWSController) handleJoin(
	m *orch.Member,
	conn *wsSignalConn,
	data []byte,
) {
	type joinPayload struct {
		Type     string `json:"type"`
		Room     string `json:"room"`
		Identity string `json:"identity"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if !ctl.Limiter.Allow(m.SID()) {
		ctl.sendError(conn, "rate_limited")
		return
	}

	room := strings.TrimSpace(p.Room)
	if room == "" || len(room) > maxRoomNameLen {
		ctl.sendError(conn, "invalid_room")
		return
	}
	id, err := domain.ParseIdentity(p.Identity)
	if err != nil {
		ctl.sendError(conn, "invalid_identity")
		return
	}

	switch err := ctl.Orch.Join(m, domain.RoomName(room), id); {
	case errors.Is(err, orch.ErrRoomNotMonitored):
		ctl.sendError(conn, "room_not_monitored")
		return
	case errors.Is(err, orch.ErrAlreadyJoined):
		ctl.sendError(conn, "already_joined")
		return
	case err != nil:
		log.Error().Err(err).Str("module", "signal").Str("sid", string(m.SID())).Msg("join")
		ctl.sendError(conn, "join_failed")
		return
	}

	resp := struct {
		Type     string `json:"type"`
		Room     string `json:"room"`
		Identity string `json:"identity"`
	}{
		Type:     "joined",
		Room:     room,
		Identity: string(id),
	}
	ctl.sendJSON(conn, resp)
}

// handleLeave leaves the current room; the connection stays open.
func (ctl *SignalWSController) handleLeave(
	m *orch.Member,
	conn *wsSignalConn,
) {
	log.Info().Str("module", "signal").Str("sid", string(m.SID())).Msg("leave")
	ctl.Orch.Leave(m)
	ctl.sendJSON(conn, map[string]any{
		"type": "left",
	})
}
