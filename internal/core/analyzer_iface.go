package core

import (
	"context"

	"github.com/dkeye/Nursery/internal/domain"
)

// CryClass is the audio classifier verdict.
type CryClass string

const (
	ClassCry    CryClass = "cry"
	ClassNotCry CryClass = "not_cry"
	ClassError  CryClass = "error"
)

//go:generate mockgen -destination=../app/mock_analyzers_test.go -package=app github.com/dkeye/Nursery/internal/core AudioAnalyzer,MotionAnalyzer,Reporter

// AudioAnalyzer classifies one self-describing WAV window.
type AudioAnalyzer interface {
	Classify(ctx context.Context, wav []byte) (CryClass, error)
}

// MotionAnalyzer compares two frames of the same participant.
type MotionAnalyzer interface {
	Detect(ctx context.Context, prev, cur VideoFrame, threshold int64) (bool, error)
}

// Reporter delivers detection events. Delivery is best-effort.
type Reporter interface {
	Report(ctx context.Context, ev domain.DetectionEvent) error
}

// Prewarmer is implemented by analyzers that need one-time initialization
// before the accept path goes live.
type Prewarmer interface {
	Prewarm(ctx context.Context) error
}
