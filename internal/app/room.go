package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Nursery/internal/core"
	"github.com/dkeye/Nursery/internal/domain"
	"github.com/dkeye/Nursery/internal/metrics"
)

// Notification is a typed transport event consumed by a room's run loop.
type Notification interface {
	isNotification()
}

// ParticipantJoined carries the tracks the participant already publishes.
type ParticipantJoined struct {
	Identity domain.ParticipantIdentity
	Tracks   []core.Track
}

type TrackAvailable struct {
	Identity domain.ParticipantIdentity
	Track    core.Track
}

type ParticipantLeft struct {
	Identity domain.ParticipantIdentity
}

type SessionEnded struct {
	Reason string
}

func (ParticipantJoined) isNotification() {}
func (TrackAvailable) isNotification()    {}
func (ParticipantLeft) isNotification()   {}
func (SessionEnded) isNotification()      {}

// RoomDeps are the collaborators shared by every room.
type RoomDeps struct {
	Session     SessionConfig
	Policy      AcceptPolicy
	Dispatcher  *Dispatcher
	Metrics     *metrics.Metrics
	IdleTimeout time.Duration
}

// RoomSession is one media session. A single goroutine consumes its
// notifications and is the only caller of the router, so participant
// creation and teardown happen in arrival order.
type RoomSession struct {
	name     domain.RoomName
	registry *Registry
	router   *Router
	metrics  *metrics.Metrics
	idle     time.Duration
	logger   zerolog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	inbox   chan Notification
	done    chan struct{}
	present map[domain.ParticipantIdentity]int
	reason  string
}

func NewRoomSession(parent context.Context, name domain.RoomName, deps RoomDeps) *RoomSession {
	ctx, cancel := context.WithCancel(parent)
	reg := NewRegistry(ctx, name, deps.Session, deps.Metrics)
	return &RoomSession{
		name:     name,
		registry: reg,
		router:   NewRouter(name, reg, deps.Policy, deps.Dispatcher, deps.Metrics),
		metrics:  deps.Metrics,
		idle:     deps.IdleTimeout,
		logger:   log.With().Str("module", "app.room").Str("room", string(name)).Logger(),
		ctx:      ctx,
		cancel:   cancel,
		inbox:    make(chan Notification, 64),
		done:     make(chan struct{}),
		present:  make(map[domain.ParticipantIdentity]int),
	}
}

func (s *RoomSession) Name() domain.RoomName { return s.name }

func (s *RoomSession) Registry() *Registry { return s.registry }

// Done is closed once the session has been torn down.
func (s *RoomSession) Done() <-chan struct{} { return s.done }

// Reason is valid after Done is closed.
func (s *RoomSession) Reason() string {
	<-s.done
	return s.reason
}

// Notify enqueues n. It returns false if the session already ended.
func (s *RoomSession) Notify(n Notification) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.inbox <- n:
		return true
	case <-s.done:
		return false
	}
}

func (s *RoomSession) Join(id domain.ParticipantIdentity, existing ...core.Track) bool {
	return s.Notify(ParticipantJoined{Identity: id, Tracks: existing})
}

func (s *RoomSession) TrackAvailable(id domain.ParticipantIdentity, track core.Track) bool {
	return s.Notify(TrackAvailable{Identity: id, Track: track})
}

func (s *RoomSession) Leave(id domain.ParticipantIdentity) bool {
	return s.Notify(ParticipantLeft{Identity: id})
}

// End requests teardown and waits for it.
func (s *RoomSession) End(reason string) {
	s.Notify(SessionEnded{Reason: reason})
	<-s.done
}

// Run consumes notifications until the session ends. It must be called once.
func (s *RoomSession) Run() {
	s.metrics.RoomOpened()
	s.logger.Info().Dur("idle_timeout", s.idle).Msg("room session started")

	idle := time.NewTimer(s.idleWait())
	defer idle.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.teardown("context canceled")
			return

		case <-idle.C:
			if len(s.present) == 0 && s.idle > 0 {
				s.teardown("room idle")
				return
			}

		case n := <-s.inbox:
			switch n := n.(type) {
			case ParticipantJoined:
				s.present[n.Identity]++
				idle.Stop()
				for _, t := range n.Tracks {
					s.route(n.Identity, t)
				}
			case TrackAvailable:
				s.route(n.Identity, n.Track)
			case ParticipantLeft:
				if s.present[n.Identity] > 1 {
					s.present[n.Identity]--
					continue
				}
				delete(s.present, n.Identity)
				s.router.OnParticipantLeft(n.Identity)
				if len(s.present) == 0 {
					idle.Reset(s.idleWait())
				}
			case SessionEnded:
				s.teardown(n.Reason)
				return
			}
		}
	}
}

func (s *RoomSession) route(id domain.ParticipantIdentity, t core.Track) {
	if _, err := s.router.OnTrackAvailable(t, id); err != nil {
		level := zerolog.WarnLevel
		if errors.Is(err, ErrRegistryClosed) {
			level = zerolog.DebugLevel
		}
		s.logger.WithLevel(level).Err(err).Str("identity", string(id)).Msg("track not attached")
	}
}

// idleWait keeps the timer armed but inert when idle detection is disabled.
func (s *RoomSession) idleWait() time.Duration {
	if s.idle <= 0 {
		return time.Duration(1<<63 - 1)
	}
	return s.idle
}

func (s *RoomSession) teardown(reason string) {
	s.router.OnSessionEnded()
	s.cancel()
	s.reason = reason
	s.metrics.RoomClosed()
	s.logger.Info().Str("reason", reason).Msg("room session ended")
	close(s.done)
}
