package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the monitoring agent.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Session metrics
	ActiveRooms        prometheus.Gauge
	ActiveParticipants prometheus.Gauge
	TracksAttached     *prometheus.CounterVec

	// Analysis metrics
	WindowsAnalyzed  prometheus.Counter
	FramesAnalyzed   prometheus.Counter
	AnalyzerErrors   *prometheus.CounterVec
	AnalyzerDuration *prometheus.HistogramVec

	// Reporting metrics
	DetectionsReported *prometheus.CounterVec
	ReportFailures     prometheus.Counter
}

// NewMetrics creates and registers all metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ActiveRooms: f.NewGauge(prometheus.GaugeOpts{
			Name: "nursery_active_rooms",
			Help: "Current number of monitored rooms",
		}),
		ActiveParticipants: f.NewGauge(prometheus.GaugeOpts{
			Name: "nursery_active_participants",
			Help: "Current number of participant sessions",
		}),
		TracksAttached: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nursery_tracks_attached_total",
			Help: "Total number of tracks bound to a consumer",
		}, []string{"kind"}),

		WindowsAnalyzed: f.NewCounter(prometheus.CounterOpts{
			Name: "nursery_audio_windows_analyzed_total",
			Help: "Total number of audio windows handed to the classifier",
		}),
		FramesAnalyzed: f.NewCounter(prometheus.CounterOpts{
			Name: "nursery_frame_pairs_analyzed_total",
			Help: "Total number of frame pairs handed to the motion analyzer",
		}),
		AnalyzerErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nursery_analyzer_errors_total",
			Help: "Total number of failed analyzer calls",
		}, []string{"kind"}),
		AnalyzerDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nursery_analyzer_duration_seconds",
			Help:    "Analyzer call latency",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),

		DetectionsReported: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nursery_detections_reported_total",
			Help: "Total number of detection events handed to the reporter",
		}, []string{"kind"}),
		ReportFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "nursery_report_failures_total",
			Help: "Total number of detection events dropped after a reporting error",
		}),
	}
}

func (m *Metrics) RoomOpened() {
	if m != nil {
		m.ActiveRooms.Inc()
	}
}

func (m *Metrics) RoomClosed() {
	if m != nil {
		m.ActiveRooms.Dec()
	}
}

func (m *Metrics) ParticipantAdded() {
	if m != nil {
		m.ActiveParticipants.Inc()
	}
}

func (m *Metrics) ParticipantRemoved() {
	if m != nil {
		m.ActiveParticipants.Dec()
	}
}

func (m *Metrics) TrackAttached(kind string) {
	if m != nil {
		m.TracksAttached.WithLabelValues(kind).Inc()
	}
}

// Analyzed records one analyzer call of the given kind ("cry" or "motion").
func (m *Metrics) Analyzed(kind string, seconds float64, err error) {
	if m == nil {
		return
	}
	switch kind {
	case "cry":
		m.WindowsAnalyzed.Inc()
	case "motion":
		m.FramesAnalyzed.Inc()
	}
	m.AnalyzerDuration.WithLabelValues(kind).Observe(seconds)
	if err != nil {
		m.AnalyzerErrors.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) Reported(kind string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.ReportFailures.Inc()
		return
	}
	m.DetectionsReported.WithLabelValues(kind).Inc()
}
