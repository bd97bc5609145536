package app

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Nursery/internal/audio"
	"github.com/dkeye/Nursery/internal/core"
	"github.com/dkeye/Nursery/internal/video"
)

// consumeAudio feeds one audio track into the participant's window buffer and
// classifies every completed window before reading the next frame.
func (rt *Router) consumeAudio(ctx context.Context, sess *ParticipantSession, stream core.AudioStream, trackID string) {
	logger := log.With().
		Str("module", "app.audio").
		Str("room", string(rt.room)).
		Str("identity", string(sess.Identity())).
		Str("track_id", trackID).
		Logger()
	buf := sess.Audio()

	for {
		if ctx.Err() != nil {
			logger.Debug().Msg("audio task canceled")
			return
		}
		frame, err := stream.Recv(ctx)
		if err != nil {
			logStreamEnd(ctx, &logger, err, "audio")
			return
		}
		if len(frame.Data) == 0 {
			continue
		}
		if err := buf.Latch(audio.Format{SampleRate: frame.SampleRate, Channels: frame.Channels}); err != nil {
			logger.Error().Err(err).Msg("audio format rejected, stopping track")
			return
		}
		buf.Append(frame.Data)

		for {
			window, ok := buf.TryExtractWindow()
			if !ok {
				break
			}
			f, _ := buf.Format()
			wav, err := audio.EncodeWAV(window, f)
			if err != nil {
				logger.Error().Err(err).Msg("encode window")
				continue
			}
			rt.dispatcher.DispatchAudio(ctx, wav, rt.room, sess.Identity())
		}
	}
}

// consumeVideo samples frame pairs through gate and compares them for motion.
func (rt *Router) consumeVideo(ctx context.Context, sess *ParticipantSession, stream core.VideoStream, gate *video.SamplingGate, trackID string) {
	logger := log.With().
		Str("module", "app.video").
		Str("room", string(rt.room)).
		Str("identity", string(sess.Identity())).
		Str("track_id", trackID).
		Logger()

	for {
		if ctx.Err() != nil {
			logger.Debug().Msg("video task canceled")
			return
		}
		frame, err := stream.Recv(ctx)
		if err != nil {
			logStreamEnd(ctx, &logger, err, "video")
			return
		}
		d := gate.Observe(frame)
		if !d.ShouldAnalyze {
			continue
		}
		rt.dispatcher.DispatchVideo(ctx, *d.Previous, *d.Latest, rt.room, sess.Identity())
	}
}

func logStreamEnd(ctx context.Context, logger *zerolog.Logger, err error, kind string) {
	switch {
	case errors.Is(err, io.EOF):
		logger.Info().Str("kind", kind).Msg("stream ended")
	case ctx.Err() != nil:
		logger.Debug().Str("kind", kind).Msg("stream canceled")
	default:
		logger.Warn().Err(err).Str("kind", kind).Msg("stream read failed, stopping track")
	}
}
