package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Nursery/internal/core"
	"github.com/dkeye/Nursery/internal/domain"
	"github.com/dkeye/Nursery/internal/metrics"
)

type DispatcherConfig struct {
	MotionThreshold int64
	AnalyzerTimeout time.Duration
	ReportTimeout   time.Duration
}

// Dispatcher hands completed windows and frame pairs to the analyzers and
// reports positive results. Analyzer and reporter failures never leave this
// boundary: they are logged and count as "no detection".
type Dispatcher struct {
	audio    core.AudioAnalyzer
	motion   core.MotionAnalyzer
	reporter core.Reporter
	cfg      DispatcherConfig
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewDispatcher(a core.AudioAnalyzer, m core.MotionAnalyzer, r core.Reporter, cfg DispatcherConfig, mt *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		audio:    a,
		motion:   m,
		reporter: r,
		cfg:      cfg,
		metrics:  mt,
		now:      time.Now,
	}
}

// DispatchAudio classifies one WAV window and reports a CRY event on "cry".
// It returns true when an event was handed to the reporter.
func (d *Dispatcher) DispatchAudio(ctx context.Context, wav []byte, group domain.RoomName, subject domain.ParticipantIdentity) bool {
	logger := log.With().Str("module", "app.dispatcher").Str("room", string(group)).Str("identity", string(subject)).Logger()

	actx, cancel := d.bound(ctx, d.cfg.AnalyzerTimeout)
	defer cancel()

	var class core.CryClass
	start := time.Now()
	err := safeCall(func() (err error) {
		class, err = d.audio.Classify(actx, wav)
		return err
	})
	if err == nil && class == core.ClassError {
		err = fmt.Errorf("classifier returned %q", class)
	}
	d.metrics.Analyzed("cry", time.Since(start).Seconds(), err)
	if err != nil {
		logger.Warn().Err(err).Msg("audio analysis failed, treating as no detection")
		return false
	}

	logger.Debug().Str("class", string(class)).Msg("audio window classified")
	if class != core.ClassCry {
		return false
	}
	d.report(ctx, domain.NewDetectionEvent(group, subject, domain.DetectionCry, d.now()))
	return true
}

// DispatchVideo compares two frames and reports a MOTION event on a positive result.
func (d *Dispatcher) DispatchVideo(ctx context.Context, prev, cur core.VideoFrame, group domain.RoomName, subject domain.ParticipantIdentity) bool {
	logger := log.With().Str("module", "app.dispatcher").Str("room", string(group)).Str("identity", string(subject)).Logger()

	actx, cancel := d.bound(ctx, d.cfg.AnalyzerTimeout)
	defer cancel()

	var moved bool
	start := time.Now()
	err := safeCall(func() (err error) {
		moved, err = d.motion.Detect(actx, prev, cur, d.cfg.MotionThreshold)
		return err
	})
	d.metrics.Analyzed("motion", time.Since(start).Seconds(), err)
	if err != nil {
		logger.Warn().Err(err).Msg("motion analysis failed, treating as no detection")
		return false
	}
	if !moved {
		return false
	}
	d.report(ctx, domain.NewDetectionEvent(group, subject, domain.DetectionMotion, d.now()))
	return true
}

func (d *Dispatcher) report(ctx context.Context, ev domain.DetectionEvent) {
	rctx, cancel := d.bound(ctx, d.cfg.ReportTimeout)
	defer cancel()

	logger := log.With().
		Str("module", "app.dispatcher").
		Str("event_id", ev.ID).
		Str("room", string(ev.Group)).
		Str("identity", string(ev.Subject)).
		Str("type", ev.Kind.WireName()).
		Logger()

	err := safeCall(func() error { return d.reporter.Report(rctx, ev) })
	d.metrics.Reported(ev.Kind.String(), err)
	if err != nil {
		logger.Error().Err(err).Msg("report detection failed, event dropped")
		return
	}
	logger.Info().Msg("detection reported")
}

// bound detaches the call from the caller's cancellation so an in-flight
// call completes after the participant leaves, and caps it with timeout.
func (d *Dispatcher) bound(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if timeout <= 0 {
		return context.WithCancel(detached)
	}
	return context.WithTimeout(detached, timeout)
}

func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
