package core

import (
	"context"
	"image"
	"time"

	"github.com/pion/webrtc/v4"
)

type TrackKind int

const (
	TrackKindAudio TrackKind = iota + 1
	TrackKindVideo
)

func (k TrackKind) String() string {
	switch k {
	case TrackKindAudio:
		return "audio"
	case TrackKindVideo:
		return "video"
	default:
		return "unknown"
	}
}

// Track is one media stream published by a participant.
// Audio tracks implement AudioTrack, video tracks implement VideoTrack.
type Track interface {
	ID() string
	Kind() TrackKind
}

type AudioTrack interface {
	Track
	OpenAudio() (AudioStream, error)
}

type VideoTrack interface {
	Track
	OpenVideo() (VideoStream, error)
}

// AudioFrame carries interleaved little-endian PCM16 samples.
type AudioFrame struct {
	SampleRate int
	Channels   int
	Data       []byte
}

// VideoFrame is a decoded picture. Image must not be modified once published.
type VideoFrame struct {
	Width     int
	Height    int
	Image     image.Image
	Timestamp time.Time
}

// AudioStream yields frames until io.EOF. Close releases the underlying
// track and may be called more than once; it unblocks a pending Recv.
type AudioStream interface {
	Recv(ctx context.Context) (AudioFrame, error)
	Close() error
}

type VideoStream interface {
	Recv(ctx context.Context) (VideoFrame, error)
	Close() error
}

type MediaConnection interface {
	// Start configures internal callbacks and binds the connection lifetime to ctx.
	Start(ctx context.Context) error
	// Close should stop all underlying media resources.
	Close()
	IsClosed() bool
	// AddICECandidate applies a remote ICE candidate.
	AddICECandidate(webrtc.ICECandidateInit) error
	ApplyOfferAndCreateAnswer(webrtc.SessionDescription) (*webrtc.SessionDescription, error)
	// OnICECandidate sets a callback for newly gathered local ICE candidates.
	OnICECandidate(func(webrtc.ICECandidateInit))
	// OnTrack sets a callback that will be invoked when a new remote track is readable.
	OnTrack(func(track Track))
	// OnClosed sets a callback for cleanup media session.
	OnClosed(func())
}
