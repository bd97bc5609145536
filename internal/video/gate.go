// Package video decides which frame pairs of a participant are compared for
// motion and provides the default frame-difference analyzer.
package video

import "github.com/dkeye/Nursery/internal/core"

const DefaultSampleEvery = 10

// Decision is the result of observing one frame. Previous is nil until two
// frames have been seen.
type Decision struct {
	ShouldAnalyze bool
	Previous      *core.VideoFrame
	Latest        *core.VideoFrame
	Count         uint64
}

// SamplingGate keeps the last two frames and fires on every Nth frame.
// A gate belongs to one consumer goroutine and is not safe for concurrent use.
type SamplingGate struct {
	every    uint64
	count    uint64
	previous *core.VideoFrame
	latest   *core.VideoFrame
}

func NewSamplingGate(every int) *SamplingGate {
	if every <= 0 {
		every = DefaultSampleEvery
	}
	return &SamplingGate{every: uint64(every)}
}

// Observe never blocks; it is a pure state transition.
func (g *SamplingGate) Observe(frame core.VideoFrame) Decision {
	g.count++
	g.previous = g.latest
	g.latest = &frame
	return Decision{
		ShouldAnalyze: g.previous != nil && g.count%g.every == 0,
		Previous:      g.previous,
		Latest:        g.latest,
		Count:         g.count,
	}
}

func (g *SamplingGate) Count() uint64 { return g.count }

func (g *SamplingGate) Every() int { return int(g.every) }
