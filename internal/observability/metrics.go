// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"solana-cert-mint/internal/domain"
	"solana-cert-mint/internal/mint"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Content store metrics
	UploadsTotal   *prometheus.CounterVec
	UploadBytes    *prometheus.CounterVec
	UploadDuration *prometheus.HistogramVec

	// Mint metrics
	MintStageDuration *prometheus.HistogramVec
	MintStageFailures *prometheus.CounterVec

	// Latency metrics
	RPCCallLatency *prometheus.HistogramVec
	RPCCallErrors  *prometheus.CounterVec

	// Pipeline metrics
	CertificatesIssued *prometheus.CounterVec
	PipelineDuration   *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulIssuance prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "certmint"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Content store metrics
		UploadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "contentstore",
			Name:      "uploads_total",
			Help:      "Total number of uploads by store and status",
		}, []string{"store", "status"}),
		UploadBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "contentstore",
			Name:      "upload_bytes_total",
			Help:      "Total bytes successfully uploaded by store",
		}, []string{"store"}),
		UploadDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "contentstore",
			Name:      "upload_duration_seconds",
			Help:      "Upload duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"store"}),

		// Mint metrics
		MintStageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mint",
			Name:      "stage_duration_seconds",
			Help:      "Mint stage duration (submit + confirm) in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90},
		}, []string{"stage"}),
		MintStageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mint",
			Name:      "stage_failures_total",
			Help:      "Total number of failed mint stages",
		}, []string{"stage"}),

		// Latency metrics
		RPCCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_errors_total",
			Help:      "Total number of failed Solana RPC calls",
		}, []string{"method"}),

		// Pipeline metrics
		CertificatesIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "certificates_total",
			Help:      "Total number of issuance runs by terminal status",
		}, []string{"status"}),
		PipelineDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Issuance pipeline duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 180, 300},
		}, []string{"status"}),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"table", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"table", "operation"}),

		// Health metrics
		LastSuccessfulIssuance: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_issuance_timestamp",
			Help:      "Unix timestamp of last fully minted certificate",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint of the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor returns an HTTP handler exposing gatherer.
func HandlerFor(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// RecordUpload records a content store upload.
func (m *Metrics) RecordUpload(store string, size int, d time.Duration, err error) {
	m.UploadDuration.WithLabelValues(store).Observe(d.Seconds())
	if err != nil {
		m.UploadsTotal.WithLabelValues(store, "failed").Inc()
		return
	}
	m.UploadsTotal.WithLabelValues(store, "ok").Inc()
	m.UploadBytes.WithLabelValues(store).Add(float64(size))
}

// ObserveStage records a mint stage outcome.
func (m *Metrics) ObserveStage(_ context.Context, ev mint.StageEvent) {
	stage := string(ev.Stage)
	m.MintStageDuration.WithLabelValues(stage).Observe(ev.Duration.Seconds())
	if ev.Err != nil {
		m.MintStageFailures.WithLabelValues(stage).Inc()
	}
}

// RecordRPC records RPC call latency. Matches the solana.WithCallObserver callback.
func (m *Metrics) RecordRPC(method string, d time.Duration, err error) {
	m.RPCCallLatency.WithLabelValues(method).Observe(d.Seconds())
	if err != nil {
		m.RPCCallErrors.WithLabelValues(method).Inc()
	}
}

// RecordIssuance records a finished issuance run.
func (m *Metrics) RecordIssuance(status domain.IssuanceStatus, d time.Duration) {
	m.CertificatesIssued.WithLabelValues(string(status)).Inc()
	m.PipelineDuration.WithLabelValues(string(status)).Observe(d.Seconds())
	if status == domain.IssuanceMinted {
		m.LastSuccessfulIssuance.SetToCurrentTime()
	}
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(table, operation string, d time.Duration, err error) {
	m.DBQueryDuration.WithLabelValues(table, operation).Observe(d.Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(table, operation).Inc()
	}
}

var _ mint.StageObserver = (*Metrics)(nil)
