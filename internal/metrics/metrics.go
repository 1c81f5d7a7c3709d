// Package metrics exposes Prometheus collectors for C1-C4: store queue
// depth, remote connection/backoff state, and workflow latency. The
// supervisor builds one Registry with New at startup and serves it over HTTP.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "roseline"

var durationBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

// Registry wraps the collectors a running supervisor updates.
type Registry struct {
	reg *prometheus.Registry

	// C1 store worker pool.
	StoreQueueDepth prometheus.Gauge
	StoreInFlight   prometheus.Gauge

	// C2 remote client actor.
	RemoteConnected      prometheus.Gauge
	RemoteReconnects     prometheus.Counter
	RemotePending        prometheus.Gauge
	RemoteBackoffSeconds prometheus.Gauge

	// C3 executor workflows.
	WorkflowDuration *prometheus.HistogramVec
	WorkflowErrors   *prometheus.CounterVec

	// C4 dispatcher.
	CommandsTotal *prometheus.CounterVec
}

// New builds a registry with the Go runtime collector and every roseline
// collector registered, ready to be mounted at an HTTP /metrics endpoint.
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	r := &Registry{
		reg: reg,

		StoreQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "queue_depth",
			Help:      "Number of store requests waiting for a worker goroutine.",
		}),
		StoreInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "in_flight",
			Help:      "Number of store requests currently executing.",
		}),

		RemoteConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "connected",
			Help:      "1 if the vndb.org TLS connection is currently up, else 0.",
		}),
		RemoteReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "reconnects_total",
			Help:      "Total successful connections made by the remote client actor.",
		}),
		RemotePending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "pending_requests",
			Help:      "Number of in-flight requests awaiting a response on the wire.",
		}),
		RemoteBackoffSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "backoff_seconds",
			Help:      "Current reconnect backoff delay in seconds.",
		}),

		WorkflowDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "workflow_duration_milliseconds",
			Help:      "Latency of executor workflow calls in milliseconds.",
			Buckets:   durationBuckets,
		}, []string{"workflow"}),
		WorkflowErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "workflow_errors_total",
			Help:      "Executor workflow failures by workflow and error kind.",
		}, []string{"workflow", "kind"}),

		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatcher",
			Name:      "commands_total",
			Help:      "Parsed chat commands by kind.",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		r.StoreQueueDepth, r.StoreInFlight,
		r.RemoteConnected, r.RemoteReconnects, r.RemotePending, r.RemoteBackoffSeconds,
		r.WorkflowDuration, r.WorkflowErrors,
		r.CommandsTotal,
	)
	return r
}

// Handler returns the HTTP handler a supervisor mounts at /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
