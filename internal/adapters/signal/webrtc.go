package signal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Nursery/internal/adapters/rtc"
	"github.com/dkeye/Nursery/internal/app/orch"
)

func (ctl *SignalWSController) sendCandidate(c *wsSignalConn, ci webrtc.ICECandidateInit) {
	resp := struct {
		Type          string `json:"type"`
		Candidate     string `json:"candidate"`
		SDPMid        string `json:"sdpMid,omitempty"`
		SDPMLineIndex uint16 `json:"sdpMLineIndex,omitempty"`
	}{
		Type:      "candidate",
		Candidate: ci.Candidate,
	}
	if ci.SDPMid != nil {
		resp.SDPMid = *ci.SDPMid
	}
	if ci.SDPMLineIndex != nil {
		resp.SDPMLineIndex = *ci.SDPMLineIndex
	}
	ctl.sendJSON(c, resp)
}

// handleOffer negotiates the camera's media connection. Failing to establish
// it is fatal to the signaling connection.
func (ctl *SignalWSController) handleOffer(
	ctx context.Context,
	m *orch.Member,
	conn *wsSignalConn,
	data []byte,
) error {
	type offerPayload struct {
		Type string `json:"type"`
		SDP  string `json:"sdp"`
	}
	var p offerPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad offer payload")
		ctl.sendError(conn, "bad_payload")
		return nil
	}
	if !ctl.Limiter.Allow(m.SID()) {
		ctl.sendError(conn, "rate_limited")
		return nil
	}

	wc, err := rtc.NewWebRTCConnection(ctl.API, ctl.Opts.RTC, m.SID())
	if err != nil {
		ctl.sendError(conn, "media_unavailable")
		return fmt.Errorf("webrtc new pc: %w", err)
	}

	wc.OnICECandidate(func(ci webrtc.ICECandidateInit) {
		ctl.sendCandidate(conn, ci)
	})
	ctl.Orch.BindMediaHandlers(m, wc)

	if err = wc.Start(ctx); err != nil {
		wc.Close()
		ctl.sendError(conn, "media_unavailable")
		return fmt.Errorf("webrtc start: %w", err)
	}

	offer := webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  p.SDP,
	}
	answer, err := wc.ApplyOfferAndCreateAnswer(offer)
	if err != nil {
		wc.Close()
		ctl.sendError(conn, "bad_offer")
		return fmt.Errorf("webrtc apply offer: %w", err)
	}

	if old := m.SetMedia(wc); old != nil {
		log.Info().Str("module", "signal").Str("sid", string(m.SID())).Msg("renegotiation replaces media connection")
		old.Close()
	}

	ctl.sendJSON(conn, map[string]string{
		"type": "answer",
		"sdp":  answer.SDP,
	})
	return nil
}

func (ctl *SignalWSController) handleCandidate(
	m *orch.Member,
	data []byte,
) {
	type candidatePayload struct {
		Type          string `json:"type"`
		Candidate     string `json:"candidate"`
		SDPMid        string `json:"sdpMid"`
		SDPMLineIndex uint16 `json:"sdpMLineIndex"`
	}
	var p candidatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad candidate payload")
		return
	}

	cand := webrtc.ICECandidateInit{
		Candidate: p.Candidate,
	}
	if p.SDPMid != "" {
		cand.SDPMid = &p.SDPMid
	}
	cand.SDPMLineIndex = &p.SDPMLineIndex

	mc := m.Media()
	if mc == nil {
		log.Warn().Str("module", "signal").Str("sid", string(m.SID())).Msg("candidate: no media connection")
		return
	}
	if err := mc.AddICECandidate(cand); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("add ice candidate")
	}
}
