package app

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkeye/Nursery/internal/core"
)

type fakeAudioStream struct {
	frames chan core.AudioFrame
	closed chan struct{}
	once   sync.Once
	closes atomic.Int32
}

func newFakeAudioStream() *fakeAudioStream {
	return &fakeAudioStream{
		frames: make(chan core.AudioFrame),
		closed: make(chan struct{}),
	}
}

func (s *fakeAudioStream) Recv(ctx context.Context) (core.AudioFrame, error) {
	select {
	case f, ok := <-s.frames:
		if !ok {
			return core.AudioFrame{}, io.EOF
		}
		return f, nil
	case <-s.closed:
		return core.AudioFrame{}, io.EOF
	case <-ctx.Done():
		return core.AudioFrame{}, ctx.Err()
	}
}

func (s *fakeAudioStream) Close() error {
	s.closes.Add(1)
	s.once.Do(func() { close(s.closed) })
	return nil
}

type fakeVideoStream struct {
	frames chan core.VideoFrame
	closed chan struct{}
	once   sync.Once
	closes atomic.Int32
}

func newFakeVideoStream() *fakeVideoStream {
	return &fakeVideoStream{
		frames: make(chan core.VideoFrame),
		closed: make(chan struct{}),
	}
}

func (s *fakeVideoStream) Recv(ctx context.Context) (core.VideoFrame, error) {
	select {
	case f, ok := <-s.frames:
		if !ok {
			return core.VideoFrame{}, io.EOF
		}
		return f, nil
	case <-s.closed:
		return core.VideoFrame{}, io.EOF
	case <-ctx.Done():
		return core.VideoFrame{}, ctx.Err()
	}
}

func (s *fakeVideoStream) Close() error {
	s.closes.Add(1)
	s.once.Do(func() { close(s.closed) })
	return nil
}

type fakeTrack struct {
	id     string
	kind   core.TrackKind
	audio  *fakeAudioStream
	video  *fakeVideoStream
	opened atomic.Int32
}

func audioTrack(id string) *fakeTrack {
	return &fakeTrack{id: id, kind: core.TrackKindAudio, audio: newFakeAudioStream()}
}

func videoTrack(id string) *fakeTrack {
	return &fakeTrack{id: id, kind: core.TrackKindVideo, video: newFakeVideoStream()}
}

func (t *fakeTrack) ID() string           { return t.id }
func (t *fakeTrack) Kind() core.TrackKind { return t.kind }

func (t *fakeTrack) OpenAudio() (core.AudioStream, error) {
	t.opened.Add(1)
	return t.audio, nil
}

func (t *fakeTrack) OpenVideo() (core.VideoStream, error) {
	t.opened.Add(1)
	return t.video, nil
}

func waitClosed(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met: %s", what)
}
