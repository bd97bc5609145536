package app

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/dkeye/Nursery/internal/audio"
	"github.com/dkeye/Nursery/internal/core"
	"github.com/dkeye/Nursery/internal/domain"
	"github.com/dkeye/Nursery/internal/video"
)

var ErrSessionClosed = errors.New("participant session closed")

// SessionConfig is shared by every participant of a room.
type SessionConfig struct {
	WindowSeconds int
	SampleEvery   int
}

type videoBinding struct {
	stream core.VideoStream
	gate   *video.SamplingGate
	cancel context.CancelFunc
}

// ParticipantSession owns one participant's audio buffer, its current video
// binding and every consumer task started for it. All tasks run inside one
// cancellation scope; Close cancels the scope, releases held streams and
// waits for the tasks to return.
type ParticipantSession struct {
	identity domain.ParticipantIdentity
	room     domain.RoomName
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	tasks  conc.WaitGroup

	audio       *audio.WindowBuffer
	sampleEvery int

	mu      sync.Mutex
	closed  bool
	streams map[io.Closer]struct{}
	video   *videoBinding
}

func newParticipantSession(parent context.Context, room domain.RoomName, id domain.ParticipantIdentity, cfg SessionConfig) *ParticipantSession {
	ctx, cancel := context.WithCancel(parent)
	return &ParticipantSession{
		identity: id,
		room:     room,
		logger: log.With().
			Str("module", "app.session").
			Str("room", string(room)).
			Str("identity", string(id)).
			Logger(),
		ctx:         ctx,
		cancel:      cancel,
		audio:       audio.NewWindowBuffer(cfg.WindowSeconds),
		sampleEvery: cfg.SampleEvery,
		streams:     make(map[io.Closer]struct{}),
	}
}

func (s *ParticipantSession) Identity() domain.ParticipantIdentity { return s.identity }

func (s *ParticipantSession) Room() domain.RoomName { return s.room }

// Audio returns the participant's window buffer, shared by all its audio tracks.
func (s *ParticipantSession) Audio() *audio.WindowBuffer { return s.audio }

// Done is closed when the session's scope is canceled.
func (s *ParticipantSession) Done() <-chan struct{} { return s.ctx.Done() }

// AttachAudio starts run for stream inside the session scope. The stream is
// closed when run returns or the session is closed.
func (s *ParticipantSession) AttachAudio(stream core.AudioStream, run func(ctx context.Context, stream core.AudioStream)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		_ = stream.Close()
		return ErrSessionClosed
	}
	s.streams[stream] = struct{}{}
	s.tasks.Go(func() {
		defer s.release(stream)
		run(s.ctx, stream)
	})
	return nil
}

// AttachVideo binds stream as the participant's only live video consumer.
// A previous binding is canceled and its stream released before this call
// returns. Each binding starts with a fresh sampling gate.
func (s *ParticipantSession) AttachVideo(stream core.VideoStream, run func(ctx context.Context, stream core.VideoStream, gate *video.SamplingGate)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = stream.Close()
		return ErrSessionClosed
	}
	old := s.video
	ctx, cancel := context.WithCancel(s.ctx)
	b := &videoBinding{
		stream: stream,
		gate:   video.NewSamplingGate(s.sampleEvery),
		cancel: cancel,
	}
	s.video = b
	s.streams[stream] = struct{}{}
	s.tasks.Go(func() {
		defer s.releaseVideo(b)
		run(ctx, stream, b.gate)
	})
	s.mu.Unlock()

	if old != nil {
		s.logger.Info().Msg("video track superseded, releasing previous stream")
		old.cancel()
		s.release(old.stream)
	}
	return nil
}

// HasVideo reports whether a video consumer is currently bound.
func (s *ParticipantSession) HasVideo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.video != nil
}

// OpenStreams returns the number of streams still held by the session.
func (s *ParticipantSession) OpenStreams() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams)
}

func (s *ParticipantSession) releaseVideo(b *videoBinding) {
	s.mu.Lock()
	if s.video == b {
		s.video = nil
	}
	s.mu.Unlock()
	b.cancel()
	s.release(b.stream)
}

func (s *ParticipantSession) release(c io.Closer) {
	s.mu.Lock()
	_, held := s.streams[c]
	delete(s.streams, c)
	s.mu.Unlock()
	if !held {
		return
	}
	if err := c.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("close stream")
	}
}

// Close cancels every task, releases every stream and waits for the tasks.
// Tasks finish their current frame or analyzer call before returning.
// Calling Close again is a no-op.
func (s *ParticipantSession) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancel()
	held := make([]io.Closer, 0, len(s.streams))
	for c := range s.streams {
		held = append(held, c)
	}
	if s.video != nil {
		s.video.cancel()
		s.video = nil
	}
	s.mu.Unlock()

	for _, c := range held {
		s.release(c)
	}
	if r := s.tasks.WaitAndRecover(); r != nil {
		s.logger.Error().Str("panic", r.String()).Msg("track task panicked")
	}
	s.logger.Info().Msg("participant session closed")
}
