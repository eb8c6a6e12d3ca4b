// Package metrics exposes Prometheus counters/histograms for phase
// duration, node/edge counts, and LSP call latency (§2 EXPANDED ambient
// stack), grounded on kraklabs-cie's pkg/ingestion/metrics.go
// once.Do-initialized package-level registry shape.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type collectors struct {
	once sync.Once

	phaseDuration  *prometheus.HistogramVec
	phaseFiles     *prometheus.CounterVec
	nodesTotal     *prometheus.CounterVec
	edgesTotal     *prometheus.CounterVec
	lspCallLatency *prometheus.HistogramVec
	lspCallErrors  *prometheus.CounterVec
}

var m collectors

func (c *collectors) init() {
	c.once.Do(func() {
		buckets := []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
		c.phaseDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "graphbuild_phase_duration_seconds", Help: "Duration of one builder phase", Buckets: buckets,
		}, []string{"phase"})
		c.phaseFiles = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "graphbuild_phase_files_total", Help: "Files processed per phase",
		}, []string{"phase"})
		c.nodesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "graphbuild_nodes_total", Help: "Nodes inserted, by kind",
		}, []string{"kind"})
		c.edgesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "graphbuild_edges_total", Help: "Edges inserted, by kind",
		}, []string{"kind"})
		c.lspCallLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "graphbuild_lsp_call_duration_seconds", Help: "LSP bridge call latency", Buckets: buckets,
		}, []string{"command"})
		c.lspCallErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "graphbuild_lsp_call_errors_total", Help: "LSP bridge calls that returned an error",
		}, []string{"command"})

		prometheus.MustRegister(
			c.phaseDuration, c.phaseFiles, c.nodesTotal, c.edgesTotal,
			c.lspCallLatency, c.lspCallErrors,
		)
	})
}

// ObservePhaseDuration records how long one builder phase took.
func ObservePhaseDuration(phase string, seconds float64) {
	m.init()
	m.phaseDuration.WithLabelValues(phase).Observe(seconds)
}

// IncPhaseFiles counts a file processed within a phase.
func IncPhaseFiles(phase string) {
	m.init()
	m.phaseFiles.WithLabelValues(phase).Inc()
}

// IncNode counts a node insertion by kind.
func IncNode(kind string) {
	m.init()
	m.nodesTotal.WithLabelValues(kind).Inc()
}

// IncEdge counts an edge insertion by kind.
func IncEdge(kind string) {
	m.init()
	m.edgesTotal.WithLabelValues(kind).Inc()
}

// ObserveLSPCall records latency and error state for one LSP bridge call.
func ObserveLSPCall(command string, seconds float64, err error) {
	m.init()
	m.lspCallLatency.WithLabelValues(command).Observe(seconds)
	if err != nil {
		m.lspCallErrors.WithLabelValues(command).Inc()
	}
}
