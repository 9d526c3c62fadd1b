package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	Namespace = "curator"

	// Status label values for success/error metrics
	StatusSuccess = "success"
	StatusError   = "error"

	Scanner  = "scanner"
	Reaction = "reaction"
	RPC      = "rpc"
)

// Reaction label values.
const (
	ReactionVote  = "vote"
	ReactionReply = "reply"
)

// Labels holds constant labels applied to all metrics.
// These are useful for distinguishing metrics from multiple curator instances.
type Labels struct {
	Account       string // Reacting account (e.g., "curation.bot")
	Environment   string // Deployment environment (e.g., "production", "staging", "development")
	Region        string // Cloud region (e.g., "us-east-1", "eu-west-1")
	CloudProvider string // Cloud provider (e.g., "aws", "oci", "gcp")
}

// toPrometheusLabels converts Labels to prometheus.Labels map.
// Only non-empty labels are included to avoid empty label values.
func (l Labels) toPrometheusLabels() prometheus.Labels {
	labels := prometheus.Labels{}
	if l.Account != "" {
		labels["account"] = l.Account
	}
	if l.Environment != "" {
		labels["environment"] = l.Environment
	}
	if l.Region != "" {
		labels["region"] = l.Region
	}
	if l.CloudProvider != "" {
		labels["cloud_provider"] = l.CloudProvider
	}
	return labels
}

type Metrics struct {
	// Feed position
	checkpoint prometheus.Gauge
	headBlock  prometheus.Gauge

	// Pipeline counters
	opsScanned       prometheus.Counter
	opsSkipped       *prometheus.CounterVec
	commandsDetected prometheus.Counter
	dispatchDuration prometheus.Histogram

	// Reactions by kind and outcome
	reactions *prometheus.CounterVec

	// RPC metrics
	rpcCalls    *prometheus.CounterVec
	rpcDuration *prometheus.HistogramVec
	rpcInFlight prometheus.Gauge
}

// New creates a new Metrics instance and registers all metrics with the provided registerer.
// Returns an error if any metric registration fails.
// For metrics with constant labels (e.g., account), use NewWithLabels instead.
func New(reg prometheus.Registerer) (*Metrics, error) {
	return NewWithLabels(reg, Labels{})
}

// NewWithLabels creates a new Metrics instance with constant labels applied to all metrics.
func NewWithLabels(reg prometheus.Registerer, labels Labels) (*Metrics, error) {
	promLabels := labels.toPrometheusLabels()
	if len(promLabels) > 0 {
		reg = prometheus.WrapRegistererWith(promLabels, reg)
	}

	return newMetrics(reg)
}

func newMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		checkpoint: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: Scanner,
			Name:      "checkpoint_height",
			Help:      "Block height of the last observed comment operation",
		}),
		headBlock: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: Scanner,
			Name:      "head_block_height",
			Help:      "Latest block height reported by the API node",
		}),
		opsScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Scanner,
			Name:      "operations_scanned_total",
			Help:      "Total comment operations read from the feed",
		}),
		opsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Scanner,
			Name:      "operations_skipped_total",
			Help:      "Total comment operations discarded by reason",
		}, []string{"reason"}),
		commandsDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Scanner,
			Name:      "commands_total",
			Help:      "Total commands that passed filtering and parsing",
		}),
		dispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: Scanner,
			Name:      "dispatch_duration_seconds",
			Help:      "Time to dispatch a command end-to-end, cooldowns included",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 7.5, 10, 15, 30},
		}),
		reactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Reaction,
			Name:      "total",
			Help:      "Total reactions by kind (vote/reply) and outcome",
		}, []string{"reaction", "outcome"}),
		rpcCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: RPC,
			Name:      "calls_total",
			Help:      "Total RPC calls by method and status",
		}, []string{"method", "status"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: RPC,
			Name:      "duration_seconds",
			Help:      "RPC call duration in seconds",
			// Buckets cover typical RPC latencies: 1ms, 5ms, 10ms, 25ms, 50ms,
			// 100ms, 250ms, 500ms, 1s, 2.5s, 5s, 10s
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		rpcInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: RPC,
			Name:      "in_flight",
			Help:      "Number of RPC calls currently in progress",
		}),
	}

	err := errors.Join(
		reg.Register(m.checkpoint),
		reg.Register(m.headBlock),
		reg.Register(m.opsScanned),
		reg.Register(m.opsSkipped),
		reg.Register(m.commandsDetected),
		reg.Register(m.dispatchDuration),
		reg.Register(m.reactions),
		reg.Register(m.rpcCalls),
		reg.Register(m.rpcDuration),
		reg.Register(m.rpcInFlight),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordOperation records an operation read from the feed and the checkpoint it produced.
func (m *Metrics) RecordOperation(blockNumber uint64) {
	if m == nil {
		return
	}
	m.opsScanned.Inc()
	m.checkpoint.Set(float64(blockNumber))
}

// SetHeadBlock records the node's latest block height.
func (m *Metrics) SetHeadBlock(height uint64) {
	if m == nil {
		return
	}
	m.headBlock.Set(float64(height))
}

// IncSkipped increments the skipped operations counter for reason.
func (m *Metrics) IncSkipped(reason string) {
	if m == nil {
		return
	}
	m.opsSkipped.WithLabelValues(reason).Inc()
}

// IncCommands increments the detected commands counter.
func (m *Metrics) IncCommands() {
	if m == nil {
		return
	}
	m.commandsDetected.Inc()
}

// ObserveDispatchDuration records how long a dispatch took.
func (m *Metrics) ObserveDispatchDuration(seconds float64) {
	if m == nil {
		return
	}
	m.dispatchDuration.Observe(seconds)
}

// RecordReaction records the outcome of a vote or reply.
func (m *Metrics) RecordReaction(reaction, outcome string) {
	if m == nil {
		return
	}
	m.reactions.WithLabelValues(reaction, outcome).Inc()
}

// IncRPCInFlight increments the in-flight RPC gauge.
func (m *Metrics) IncRPCInFlight() {
	if m == nil {
		return
	}
	m.rpcInFlight.Inc()
}

// DecRPCInFlight decrements the in-flight RPC gauge.
func (m *Metrics) DecRPCInFlight() {
	if m == nil {
		return
	}
	m.rpcInFlight.Dec()
}

// RecordRPCCall records an RPC call outcome.
func (m *Metrics) RecordRPCCall(method string, err error, durationSeconds float64) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.rpcCalls.WithLabelValues(method, status).Inc()
	m.rpcDuration.WithLabelValues(method).Observe(durationSeconds)
}
