package signal

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/dkeye/Nursery/internal/adapters/rtc"
	"github.com/dkeye/Nursery/internal/app"
	"github.com/dkeye/Nursery/internal/app/orch"
)

func newTestServer(t *testing.T) (*orch.Orchestrator, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	o := orch.New(ctx, app.RoomDeps{
		Session:    app.SessionConfig{WindowSeconds: 7, SampleEvery: 10},
		Policy:     app.PrefixPolicy{Prefix: "camera-"},
		Dispatcher: app.NewDispatcher(nil, nil, nil, app.DispatcherConfig{}, nil),
	})
	api, err := rtc.NewAPI()
	if err != nil {
		t.Fatal(err)
	}
	ctl := NewSignalWSController(o, api, Options{RTC: rtc.Config{}, ReadLimit: 1 << 16, JoinLimit: 3, JoinWindow: time.Minute})

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		c.Set("client_token", "sid-test")
		ctl.HandleSignal(ctx, c)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		o.Shutdown()
		cancel()
	})
	return o, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func roundTrip(t *testing.T, ws *websocket.Conn, req any) map[string]any {
	t.Helper()
	if err := ws.WriteJSON(req); err != nil {
		t.Fatal(err)
	}
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp map[string]any
	if err := ws.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestSignal_PingAndWhoAmI(t *testing.T) {
	_, url := newTestServer(t)
	ws := dial(t, url)

	if resp := roundTrip(t, ws, map[string]string{"type": "ping"}); resp["type"] != "pong" {
		t.Fatalf("ping -> %v", resp)
	}
	resp := roundTrip(t, ws, map[string]string{"type": "whoami"})
	if resp["type"] != "whoami" || resp["sid"] != "sid-test" {
		t.Fatalf("whoami -> %v", resp)
	}
	if _, joined := resp["room"]; joined {
		t.Fatal("whoami reports a room before join")
	}
}

func TestSignal_JoinFlow(t *testing.T) {
	o, url := newTestServer(t)
	ws := dial(t, url)

	resp := roundTrip(t, ws, map[string]string{"type": "join", "room": "nursery-1", "identity": "camera-A"})
	if resp["error"] != "room_not_monitored" {
		t.Fatalf("join unmonitored -> %v", resp)
	}

	o.Spawn("nursery-1")
	resp = roundTrip(t, ws, map[string]string{"type": "join", "room": "nursery-1", "identity": "camera-A"})
	if resp["type"] != "joined" || resp["identity"] != "camera-A" {
		t.Fatalf("join -> %v", resp)
	}

	resp = roundTrip(t, ws, map[string]string{"type": "whoami"})
	if resp["room"] != "nursery-1" || resp["identity"] != "camera-A" {
		t.Fatalf("whoami -> %v", resp)
	}

	resp = roundTrip(t, ws, map[string]string{"type": "join", "room": "nursery-1", "identity": "camera-A"})
	if resp["error"] != "already_joined" {
		t.Fatalf("second join -> %v", resp)
	}
	resp = roundTrip(t, ws, map[string]string{"type": "join", "room": "nursery-1", "identity": "camera-A"})
	if resp["error"] != "rate_limited" {
		t.Fatalf("fourth join attempt -> %v", resp)
	}

	if resp = roundTrip(t, ws, map[string]string{"type": "leave"}); resp["type"] != "left" {
		t.Fatalf("leave -> %v", resp)
	}
}

func TestSignal_BadInput(t *testing.T) {
	_, url := newTestServer(t)
	ws := dial(t, url)

	resp := roundTrip(t, ws, map[string]string{"type": "join", "room": "r", "identity": "   "})
	if resp["error"] != "invalid_identity" {
		t.Fatalf("blank identity -> %v", resp)
	}
	resp = roundTrip(t, ws, map[string]string{"type": "bogus"})
	if resp["error"] != "unknown_type" {
		t.Fatalf("unknown type -> %v", resp)
	}
	if err := ws.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := ws.ReadJSON(&out); err != nil || out["error"] != "bad_json" {
		t.Fatalf("bad json -> %v, %v", out, err)
	}
}

func TestSignal_BadOfferClosesConnection(t *testing.T) {
	_, url := newTestServer(t)
	ws := dial(t, url)

	resp := roundTrip(t, ws, map[string]string{"type": "offer", "sdp": "not an sdp"})
	if resp["error"] != "bad_offer" {
		t.Fatalf("offer -> %v", resp)
	}
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := ws.ReadMessage(); err == nil {
		t.Fatal("connection still open after failed negotiation")
	}
}
