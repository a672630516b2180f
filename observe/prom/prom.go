// Package prom provides a Prometheus-backed cancel.Observer.
package prom

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/NetPo4ki/go-cancel/cancel"
)

// Metrics implements cancel.Observer with collectors registered on the
// given registerer. One Metrics value can observe any number of tokens.
type Metrics struct {
	tokensCreated    prometheus.Counter
	cancelsDelivered prometheus.Counter
	sendsRejected    *prometheus.CounterVec
	tokensAbandoned  prometheus.Counter
	observeWait      prometheus.Histogram
}

// New registers the token collectors on reg and returns the observer.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		tokensCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: "cancel",
			Name:      "tokens_created_total",
			Help:      "Cancellation tokens created.",
		}),
		cancelsDelivered: f.NewCounter(prometheus.CounterOpts{
			Namespace: "cancel",
			Name:      "cancels_delivered_total",
			Help:      "Winning sends that delivered a cancellation payload.",
		}),
		sendsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cancel",
			Name:      "sends_rejected_total",
			Help:      "Sends that failed, by reason.",
		}, []string{"reason"}),
		tokensAbandoned: f.NewCounter(prometheus.CounterOpts{
			Namespace: "cancel",
			Name:      "tokens_abandoned_total",
			Help:      "Tokens whose senders all closed without a delivery.",
		}),
		observeWait: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cancel",
			Name:      "observe_wait_seconds",
			Help:      "Time a receiver spent suspended before observing cancellation.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) TokenCreated()    { m.tokensCreated.Inc() }
func (m *Metrics) CancelDelivered() { m.cancelsDelivered.Inc() }

func (m *Metrics) SendRejected(err error) {
	m.sendsRejected.WithLabelValues(rejectionReason(err)).Inc()
}

func (m *Metrics) SendersGone() { m.tokensAbandoned.Inc() }

func (m *Metrics) CancelObserved(wait time.Duration) {
	m.observeWait.Observe(wait.Seconds())
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, cancel.ErrAlreadyCancelled):
		return "already_cancelled"
	case errors.Is(err, cancel.ErrReceiverGone):
		return "receiver_gone"
	default:
		return "other"
	}
}

var _ cancel.Observer = (*Metrics)(nil)
