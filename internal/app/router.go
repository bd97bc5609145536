package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Nursery/internal/core"
	"github.com/dkeye/Nursery/internal/domain"
	"github.com/dkeye/Nursery/internal/metrics"
	"github.com/dkeye/Nursery/internal/video"
)

var ErrUnsupportedTrack = errors.New("unsupported track")

// Router is the single funnel for tracks of a room, whether they existed at
// join time or were subscribed later.
type Router struct {
	room       domain.RoomName
	registry   *Registry
	policy     AcceptPolicy
	dispatcher *Dispatcher
	metrics    *metrics.Metrics
}

func NewRouter(room domain.RoomName, reg *Registry, policy AcceptPolicy, d *Dispatcher, m *metrics.Metrics) *Router {
	if policy == nil {
		policy = PrefixPolicy{}
	}
	return &Router{
		room:       room,
		registry:   reg,
		policy:     policy,
		dispatcher: d,
		metrics:    m,
	}
}

// OnTrackAvailable binds track to a consumer in the participant's session.
// Tracks of rejected participants are ignored without side effects; the
// returned bool reports whether the track was accepted.
func (rt *Router) OnTrackAvailable(track core.Track, id domain.ParticipantIdentity) (bool, error) {
	if !rt.policy.Accept(id) {
		return false, nil
	}

	switch track.Kind() {
	case core.TrackKindAudio:
		at, ok := track.(core.AudioTrack)
		if !ok {
			return false, fmt.Errorf("%w: audio track %s cannot be opened", ErrUnsupportedTrack, track.ID())
		}
		stream, err := at.OpenAudio()
		if err != nil {
			return false, fmt.Errorf("open audio track %s: %w", track.ID(), err)
		}
		sess, err := rt.registry.GetOrCreate(id)
		if err != nil {
			_ = stream.Close()
			return false, err
		}
		trackID := track.ID()
		if err := sess.AttachAudio(stream, func(ctx context.Context, s core.AudioStream) {
			rt.consumeAudio(ctx, sess, s, trackID)
		}); err != nil {
			return false, err
		}

	case core.TrackKindVideo:
		vt, ok := track.(core.VideoTrack)
		if !ok {
			return false, fmt.Errorf("%w: video track %s cannot be opened", ErrUnsupportedTrack, track.ID())
		}
		stream, err := vt.OpenVideo()
		if err != nil {
			return false, fmt.Errorf("open video track %s: %w", track.ID(), err)
		}
		sess, err := rt.registry.GetOrCreate(id)
		if err != nil {
			_ = stream.Close()
			return false, err
		}
		trackID := track.ID()
		if err := sess.AttachVideo(stream, func(ctx context.Context, s core.VideoStream, gate *video.SamplingGate) {
			rt.consumeVideo(ctx, sess, s, gate, trackID)
		}); err != nil {
			return false, err
		}

	default:
		return false, fmt.Errorf("%w: kind %s", ErrUnsupportedTrack, track.Kind())
	}

	rt.metrics.TrackAttached(track.Kind().String())
	log.Info().
		Str("module", "app.router").
		Str("room", string(rt.room)).
		Str("identity", string(id)).
		Str("kind", track.Kind().String()).
		Str("track_id", track.ID()).
		Msg("track attached")
	return true, nil
}

func (rt *Router) OnParticipantLeft(id domain.ParticipantIdentity) {
	rt.registry.Remove(id)
}

func (rt *Router) OnSessionEnded() {
	rt.registry.RemoveAll()
}
