package rtc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media/samplebuilder"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/vp8"

	"github.com/dkeye/Nursery/internal/core"
)

var (
	ErrUnsupportedCodec = errors.New("unsupported codec")
	ErrTrackInUse       = errors.New("track already opened")
)

// vp8MaxLate is how many packets the sample builder waits for a gap to fill.
const vp8MaxLate = 256

// rtpSource is the part of *webrtc.TrackRemote the streams read from.
type rtpSource interface {
	ReadRTP() (*rtp.Packet, interceptor.Attributes, error)
	SetReadDeadline(time.Time) error
}

// remoteTrack exposes a pion remote track as a core track. It can be opened once.
type remoteTrack struct {
	id     string
	kind   core.TrackKind
	mime   string
	src    rtpSource
	opened atomic.Bool
}

func newRemoteTrack(t *webrtc.TrackRemote) *remoteTrack {
	kind := core.TrackKindAudio
	if t.Kind() == webrtc.RTPCodecTypeVideo {
		kind = core.TrackKindVideo
	}
	return &remoteTrack{
		id:   t.ID(),
		kind: kind,
		mime: t.Codec().MimeType,
		src:  t,
	}
}

func (t *remoteTrack) ID() string { return t.id }

func (t *remoteTrack) Kind() core.TrackKind { return t.kind }

func (t *remoteTrack) OpenAudio() (core.AudioStream, error) {
	var law Law
	switch {
	case strings.EqualFold(t.mime, webrtc.MimeTypePCMU):
		law = ULaw
	case strings.EqualFold(t.mime, webrtc.MimeTypePCMA):
		law = ALaw
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, t.mime)
	}
	if !t.opened.CompareAndSwap(false, true) {
		return nil, ErrTrackInUse
	}
	return &audioStream{releaser: releaser{src: t.src}, law: law}, nil
}

func (t *remoteTrack) OpenVideo() (core.VideoStream, error) {
	if !strings.EqualFold(t.mime, webrtc.MimeTypeVP8) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, t.mime)
	}
	if !t.opened.CompareAndSwap(false, true) {
		return nil, ErrTrackInUse
	}
	return &videoStream{
		releaser: releaser{src: t.src},
		builder:  samplebuilder.New(vp8MaxLate, &codecs.VP8Packet{}, 90000),
		dec:      vp8.NewDecoder(),
		trackID:  t.id,
	}, nil
}

// releaser unblocks a pending read by expiring the track's read deadline.
type releaser struct {
	src    rtpSource
	closed atomic.Bool
}

func (r *releaser) unblock() { _ = r.src.SetReadDeadline(time.Now()) }

func (r *releaser) Close() error {
	if r.closed.CompareAndSwap(false, true) {
		r.unblock()
	}
	return nil
}

// readErr maps a failed read to the stream contract: ctx error on
// cancellation, io.EOF once closed or ended.
func (r *releaser) readErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if r.closed.Load() || errors.Is(err, io.EOF) {
		return io.EOF
	}
	return err
}

type audioStream struct {
	releaser
	law Law
}

func (s *audioStream) Recv(ctx context.Context) (core.AudioFrame, error) {
	stop := context.AfterFunc(ctx, s.unblock)
	defer stop()
	for {
		if s.closed.Load() {
			return core.AudioFrame{}, io.EOF
		}
		pkt, _, err := s.src.ReadRTP()
		if err != nil {
			return core.AudioFrame{}, s.readErr(ctx, err)
		}
		if len(pkt.Payload) == 0 {
			continue
		}
		return core.AudioFrame{
			SampleRate: g711Rate,
			Channels:   1,
			Data:       DecodeG711(pkt.Payload, s.law),
		}, nil
	}
}

type videoStream struct {
	releaser
	builder *samplebuilder.SampleBuilder
	dec     *vp8.Decoder
	trackID string
}

func (s *videoStream) Recv(ctx context.Context) (core.VideoFrame, error) {
	stop := context.AfterFunc(ctx, s.unblock)
	defer stop()
	for {
		if s.closed.Load() {
			return core.VideoFrame{}, io.EOF
		}
		for sample := s.builder.Pop(); sample != nil; sample = s.builder.Pop() {
			img, err := decodeKeyFrame(s.dec, sample.Data)
			if err != nil {
				log.Debug().Err(err).Str("module", "webrtc").Str("track_id", s.trackID).Msg("drop undecodable frame")
				continue
			}
			if img == nil {
				continue
			}
			b := img.Bounds()
			return core.VideoFrame{
				Width:     b.Dx(),
				Height:    b.Dy(),
				Image:     img,
				Timestamp: time.Now().UTC(),
			}, nil
		}
		pkt, _, err := s.src.ReadRTP()
		if err != nil {
			return core.VideoFrame{}, s.readErr(ctx, err)
		}
		s.builder.Push(pkt)
	}
}

// decodeKeyFrame returns nil without error for inter frames, which are skipped.
func decodeKeyFrame(dec *vp8.Decoder, frame []byte) (image.Image, error) {
	if len(frame) < 10 || frame[0]&0x01 != 0 {
		return nil, nil
	}
	dec.Init(bytes.NewReader(frame), len(frame))
	fh, err := dec.DecodeFrameHeader()
	if err != nil {
		return nil, fmt.Errorf("vp8 header: %w", err)
	}
	if !fh.KeyFrame {
		return nil, nil
	}
	img, err := dec.DecodeFrame()
	if err != nil {
		return nil, fmt.Errorf("vp8 frame: %w", err)
	}
	return img, nil
}
