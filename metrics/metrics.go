package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "perpclient"

// Collector holds the client-side Prometheus metrics. A nil *Collector is
// valid and records nothing.
type Collector struct {
	RPCRequests *prometheus.CounterVec
	RPCLatency  *prometheus.HistogramVec
	Signatures  *prometheus.CounterVec
	ConfigLoads prometheus.Counter
}

// NewCollector creates the metrics and registers them on reg. A nil reg
// leaves them unregistered.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RPCRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "JSON-RPC calls issued to the engine by method and outcome",
		}, []string{"method", "outcome"}),

		RPCLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_request_duration_seconds",
			Help:      "Round trip time of JSON-RPC calls by method",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),

		Signatures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signatures_total",
			Help:      "EIP-712 signatures produced by primary type and outcome",
		}, []string{"primary_type", "outcome"}),

		ConfigLoads: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_loads_total",
			Help:      "Trading config fetches from the engine",
		}),
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveRPC records one JSON-RPC round trip.
func (c *Collector) ObserveRPC(method string, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	c.RPCRequests.WithLabelValues(method, outcome(err)).Inc()
	c.RPCLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}

// RecordSignature records one typed-data signing attempt.
func (c *Collector) RecordSignature(primaryType string, err error) {
	if c == nil {
		return
	}
	c.Signatures.WithLabelValues(primaryType, outcome(err)).Inc()
}

func (c *Collector) RecordConfigLoad() {
	if c == nil {
		return
	}
	c.ConfigLoads.Inc()
}
