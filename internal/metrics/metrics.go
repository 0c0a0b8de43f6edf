package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the launcher. Each
// instance carries its own registry so repeated construction never
// collides on metric names.
type Metrics struct {
	registry *prometheus.Registry

	// Session metrics
	SessionsActive  prometheus.Gauge
	SessionsCreated prometheus.Counter
	SessionsClosed  prometheus.Counter
	SessionsReaped  prometheus.Counter

	// Stream metrics
	MediaConstructed prometheus.Counter
	PacketsSent      *prometheus.CounterVec
	BytesSent        *prometheus.CounterVec
	PacketsRetained  prometheus.Gauge

	// Pipeline metrics
	PipelineErrors *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)

	return &Metrics{
		registry: registry,
		SessionsActive: auto.NewGauge(prometheus.GaugeOpts{
			Name: "rtsp_launch_sessions_active",
			Help: "Current number of client sessions in the pool",
		}),
		SessionsCreated: auto.NewCounter(prometheus.CounterOpts{
			Name: "rtsp_launch_sessions_created_total",
			Help: "Total number of client sessions opened",
		}),
		SessionsClosed: auto.NewCounter(prometheus.CounterOpts{
			Name: "rtsp_launch_sessions_closed_total",
			Help: "Total number of client sessions closed by teardown or disconnect",
		}),
		SessionsReaped: auto.NewCounter(prometheus.CounterOpts{
			Name: "rtsp_launch_sessions_reaped_total",
			Help: "Total number of expired client sessions evicted by the reaper",
		}),
		MediaConstructed: auto.NewCounter(prometheus.CounterOpts{
			Name: "rtsp_launch_media_constructed_total",
			Help: "Total number of times the shared media pipeline was constructed",
		}),
		PacketsSent: auto.NewCounterVec(prometheus.CounterOpts{
			Name: "rtsp_launch_rtp_packets_sent_total",
			Help: "Total number of RTP packets forwarded to clients",
		}, []string{"stream"}),
		BytesSent: auto.NewCounterVec(prometheus.CounterOpts{
			Name: "rtsp_launch_rtp_bytes_sent_total",
			Help: "Total RTP payload bytes forwarded to clients",
		}, []string{"stream"}),
		PacketsRetained: auto.NewGauge(prometheus.GaugeOpts{
			Name: "rtsp_launch_rtp_packets_retained",
			Help: "RTP packets currently held in the retransmission window",
		}),
		PipelineErrors: auto.NewCounterVec(prometheus.CounterOpts{
			Name: "rtsp_launch_pipeline_errors_total",
			Help: "Total pipeline bus errors by category",
		}, []string{"category"}),
	}
}

// RecordSessionOpened tracks a new client session.
func (m *Metrics) RecordSessionOpened() {
	m.SessionsCreated.Inc()
	m.SessionsActive.Inc()
}

// RecordSessionClosed tracks a session torn down by the client or its
// connection dropping.
func (m *Metrics) RecordSessionClosed() {
	m.SessionsActive.Dec()
	m.SessionsClosed.Inc()
}

// RecordSessionsReaped tracks n expired sessions evicted in one reaper pass.
func (m *Metrics) RecordSessionsReaped(n int) {
	m.SessionsActive.Sub(float64(n))
	m.SessionsReaped.Add(float64(n))
}

// RecordPacketSent tracks one RTP packet forwarded on a payload stream.
func (m *Metrics) RecordPacketSent(stream string, bytes int) {
	m.PacketsSent.WithLabelValues(stream).Inc()
	m.BytesSent.WithLabelValues(stream).Add(float64(bytes))
}
