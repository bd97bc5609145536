package signal

import (
	"github.com/dkeye/Nursery/internal/app/orch"
)

func (ctl *SignalWSController) handlePing(
	conn *wsSignalConn,
) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *SignalWSController) handleWhoAmI(
	m *orch.Member,
	conn *wsSignalConn,
) {
	resp := struct {
		Type     string `json:"type"`
		SID      string `json:"sid"`
		Room     string `json:"room,omitempty"`
		Identity string `json:"identity,omitempty"`
		Media    bool   `json:"media"`
	}{
		Type:  "whoami",
		SID:   string(m.SID()),
		Media: m.Media() != nil,
	}
	if room, id, ok := m.Joined(); ok {
		resp.Room = string(room)
		resp.Identity = string(id)
	}
	ctl.sendJSON(conn, resp)
}
