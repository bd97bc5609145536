package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Nursery/internal/adapters/rtc"
	"github.com/dkeye/Nursery/internal/app/orch"
	"github.com/dkeye/Nursery/internal/core"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

type Options struct {
	RTC        rtc.Config
	ReadLimit  int64
	PingPeriod time.Duration
	// JoinLimit joins or offers are allowed per JoinWindow and connection.
	JoinLimit  int
	JoinWindow time.Duration
}

// SignalWSController serves the camera signaling protocol over websocket.
type SignalWSController struct {
	Orch    *orch.Orchestrator
	API     *webrtc.API
	Opts    Options
	Limiter *RateLimiter
}

func NewSignalWSController(o *orch.Orchestrator, api *webrtc.API, opts Options) *SignalWSController {
	if opts.JoinLimit <= 0 {
		opts.JoinLimit = 5
	}
	if opts.JoinWindow <= 0 {
		opts.JoinWindow = 10 * time.Second
	}
	return &SignalWSController{
		Orch:    o,
		API:     api,
		Opts:    opts,
		Limiter: NewRateLimiter(opts.JoinLimit, opts.JoinWindow),
	}
}

type wsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

var _ core.SignalConnection = (*wsSignalConn)(nil)

func (c *wsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

// Close stops accepting frames. The write pump flushes what is queued and
// then closes the socket.
func (c *wsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(c.GetString("client_token"))
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.Opts.ReadLimit > 0 {
		ws.SetReadLimit(ctl.Opts.ReadLimit)
	}

	conn := &wsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}
	member := orch.NewMember(sid)
	connCtx, cancel := context.WithCancel(ctx)

	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(connCtx, member, conn)
		ctl.Orch.Disconnect(member)
		ctl.Limiter.Forget(sid)
	}()
}
