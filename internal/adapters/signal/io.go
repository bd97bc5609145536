package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Nursery/internal/app/orch"
)

const writeWait = 5 * time.Second

// pongWait derives the read deadline from the ping period.
func (ctl *SignalWSController) pongWait() time.Duration {
	if ctl.Opts.PingPeriod <= 0 {
		return 0
	}
	return ctl.Opts.PingPeriod * 10 / 9
}

// writePump owns the socket: it exits when the send queue is closed and
// drained, or when ctx is done, and closes the socket on its way out.
func (ctl *SignalWSController) writePump(ctx context.Context, c *wsSignalConn) {
	defer func() { _ = c.conn.Close() }()

	var ping <-chan time.Time
	if ctl.Opts.PingPeriod > 0 {
		t := time.NewTicker(ctl.Opts.PingPeriod)
		defer t.Stop()
		ping = t.C
	}
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-ping:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeWait))
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, m *orch.Member, c *wsSignalConn) {
	sid := string(m.SID())
	defer func() {
		log.Info().Str("module", "signal").Str("sid", sid).Msg("readPump closing")
		c.Close()
	}()

	if wait := ctl.pongWait(); wait > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(wait))
		c.conn.SetPongHandler(func(string) error {
			return c.conn.SetReadDeadline(time.Now().Add(wait))
		})
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", sid).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warn().Err(err).Str("module", "signal").Str("sid", sid).Msg("readPump read error")
				}
				return
			}
			if err := ctl.handleSignal(ctx, m, c, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", sid).Msg("fatal signaling error, closing connection")
				return
			}
		}
	}
}

// handleSignal dispatches one message. A returned error ends the connection.
func (ctl *SignalWSController) handleSignal(ctx context.Context, m *orch.Member, c *wsSignalConn, data []byte) error {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendError(c, "bad_json")
		return nil
	}

	switch env.Type {
	case "join":
		ctl.handleJoin(m, c, data)
	case "leave":
		ctl.handleLeave(m, c)
	case "ping":
		ctl.handlePing(c)
	case "whoami":
		ctl.handleWhoAmI(m, c)
	case "offer":
		return ctl.handleOffer(ctx, m, c, data)
	case "candidate":
		ctl.handleCandidate(m, data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		ctl.sendError(c, "unknown_type")
	}
	return nil
}

func (ctl *SignalWSController) sendJSON(c *wsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	if err := c.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("sendJSON dropped")
	}
}

func (ctl *SignalWSController) sendError(c *wsSignalConn, code string) {
	ctl.sendJSON(c, map[string]string{
		"type":  "error",
		"error": code,
	})
}
