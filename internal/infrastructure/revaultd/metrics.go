package revaultd

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/revault/revault-gui/internal/core/ports"
)

const (
	outcomeOk             = "ok"
	outcomeRpcError       = "rpc_error"
	outcomeTransportError = "transport_error"
	outcomeNoAnswer       = "no_answer"
	outcomeUnexpected     = "unexpected"
)

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	requests, err := register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "revault_gui",
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "Number of revaultd calls by method and outcome.",
		},
		[]string{"method", "outcome"},
	))
	if err != nil {
		return nil, err
	}

	duration, err := register(reg, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "revault_gui",
			Subsystem: "rpc",
			Name:      "duration_seconds",
			Help:      "Duration of revaultd calls by method.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	))
	if err != nil {
		return nil, err
	}

	return &metrics{requests, duration}, nil
}

func (m *metrics) observe(method string, start time.Time, err error) {
	m.duration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	m.requests.WithLabelValues(method, outcome(err)).Inc()
}

func outcome(err error) string {
	if err == nil {
		return outcomeOk
	}
	switch ports.ToDaemonError(err).Kind {
	case ports.DaemonErrorRpc:
		return outcomeRpcError
	case ports.DaemonErrorTransport:
		return outcomeTransportError
	case ports.DaemonErrorNoAnswer:
		return outcomeNoAnswer
	default:
		return outcomeUnexpected
	}
}

// register registers c, or returns the equal collector already registered
// by a previous client.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var alreadyRegistered prometheus.AlreadyRegisteredError
		if errors.As(err, &alreadyRegistered) {
			if existing, ok := alreadyRegistered.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}
