package audio

import (
	"errors"
	"fmt"
	"sync"
)

// SampleWidthBytes is fixed: all windows are PCM16.
const SampleWidthBytes = 2

var ErrFormatMismatch = errors.New("audio format changed mid-stream")

// Format is latched from the first non-empty frame of a participant.
type Format struct {
	SampleRate int
	Channels   int
}

// WindowBuffer collects PCM bytes until windowSeconds of audio are present.
// The target size is computed once, when the format is latched, and never
// recomputed for the life of the buffer.
type WindowBuffer struct {
	windowSeconds int

	mu      sync.Mutex
	buf     []byte
	format  Format
	latched bool
	target  int
}

func NewWindowBuffer(windowSeconds int) *WindowBuffer {
	if windowSeconds <= 0 {
		windowSeconds = 7
	}
	return &WindowBuffer{windowSeconds: windowSeconds}
}

// Latch fixes the sample format on first use. Subsequent calls must carry the
// same format, otherwise ErrFormatMismatch is returned and the buffer is left
// untouched.
func (b *WindowBuffer) Latch(f Format) error {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return fmt.Errorf("invalid audio format %d Hz x %d ch", f.SampleRate, f.Channels)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.latched {
		b.format = f
		b.target = f.SampleRate * SampleWidthBytes * f.Channels * b.windowSeconds
		if cap(b.buf) < b.target {
			grown := make([]byte, len(b.buf), b.target)
			copy(grown, b.buf)
			b.buf = grown
		}
		b.latched = true
		return nil
	}
	if f != b.format {
		return fmt.Errorf("%w: have %d Hz x %d ch, got %d Hz x %d ch",
			ErrFormatMismatch, b.format.SampleRate, b.format.Channels, f.SampleRate, f.Channels)
	}
	return nil
}

// Append adds samples to the tail. Bytes appended before Latch are kept and
// counted towards the first window.
func (b *WindowBuffer) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	b.mu.Lock()
	b.buf = append(b.buf, p...)
	b.mu.Unlock()
}

// TryExtractWindow removes exactly one target-sized window from the head.
// It returns false and leaves the buffer untouched when not enough audio is
// buffered or the format has not been latched yet.
func (b *WindowBuffer) TryExtractWindow() ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.latched || len(b.buf) < b.target {
		return nil, false
	}
	window := make([]byte, b.target)
	copy(window, b.buf[:b.target])

	// Shift the remainder down instead of reslicing so the backing array
	// does not grow without bound.
	n := copy(b.buf, b.buf[b.target:])
	b.buf = b.buf[:n]
	return window, true
}

func (b *WindowBuffer) Format() (Format, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.format, b.latched
}

// TargetBytes is zero until the format is latched.
func (b *WindowBuffer) TargetBytes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.target
}

// Len returns the number of buffered bytes.
func (b *WindowBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

func (b *WindowBuffer) WindowSeconds() int { return b.windowSeconds }
