// Package metrics provides Prometheus metrics for the Morpheus Maps backend.
package metrics

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// External call outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeCached  = "cached"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Collaborator metrics
	ExternalCallsTotal *prometheus.CounterVec
	FallbacksTotal     *prometheus.CounterVec
	AnalysesTotal      *prometheus.CounterVec

	// Database pool metrics
	DBConnectionsTotal    prometheus.Gauge
	DBConnectionsAcquired prometheus.Gauge
	DBConnectionsIdle     prometheus.Gauge

	logger           *zap.Logger
	collectorStarted atomic.Bool
	cancel           context.CancelFunc
	wg               sync.WaitGroup
}

// New creates and registers all application metrics with a new registry.
func New(logger *zap.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "morpheus_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "morpheus_http_request_duration_seconds",
				Help:    "HTTP request latency distribution",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		ExternalCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "morpheus_external_calls_total",
				Help: "Calls to external collaborators by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		FallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "morpheus_fallbacks_total",
				Help: "Synthetic substitutions for failed collaborators",
			},
			[]string{"component"},
		),
		AnalysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "morpheus_route_analyses_total",
				Help: "Completed route analyses by mode",
			},
			[]string{"mode"},
		),
		DBConnectionsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "morpheus_db_connections_total",
			Help: "Number of connections held by the pool",
		}),
		DBConnectionsAcquired: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "morpheus_db_connections_acquired",
			Help: "Number of pool connections currently in use",
		}),
		DBConnectionsIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "morpheus_db_connections_idle",
			Help: "Number of idle pool connections",
		}),
		logger: logger,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ExternalCallsTotal,
		m.FallbacksTotal,
		m.AnalysesTotal,
		m.DBConnectionsTotal,
		m.DBConnectionsAcquired,
		m.DBConnectionsIdle,
	)

	return m
}

// ObserveRequest records one served HTTP request
func (m *Metrics) ObserveRequest(method, path, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ExternalCall records a call to provider
func (m *Metrics) ExternalCall(provider, outcome string) {
	if m == nil {
		return
	}
	m.ExternalCallsTotal.WithLabelValues(provider, outcome).Inc()
}

// Fallback records a synthetic substitution in component
func (m *Metrics) Fallback(component string) {
	if m == nil {
		return
	}
	m.FallbacksTotal.WithLabelValues(component).Inc()
}

// Analysis records a completed route analysis
func (m *Metrics) Analysis(mode string) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(mode).Inc()
}

// StartPoolStatsCollector polls pool statistics every interval until
// Shutdown. Calling it more than once has no effect.
func (m *Metrics) StartPoolStatsCollector(pool *pgxpool.Pool, interval time.Duration) {
	if m == nil || pool == nil {
		return
	}
	if !m.collectorStarted.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.wg.Add(1)
	m.cancel = cancel

	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil && m.logger != nil {
				m.logger.Error("panic in pool stats collector", zap.Any("error", r))
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				stats := pool.Stat()
				m.DBConnectionsTotal.Set(float64(stats.TotalConns()))
				m.DBConnectionsAcquired.Set(float64(stats.AcquiredConns()))
				m.DBConnectionsIdle.Set(float64(stats.IdleConns()))
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Shutdown stops the pool stats collector and waits for it to exit.
func (m *Metrics) Shutdown() {
	if m == nil {
		return
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}
