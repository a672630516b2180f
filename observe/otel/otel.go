package otel

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/NetPo4ki/go-cancel/cancel"
)

const instrumentationName = "github.com/NetPo4ki/go-cancel/observe/otel"

// Observer implements cancel.Observer on top of OpenTelemetry metric
// instruments. With no meter provider configured the global provider is
// a no-op and the observer costs almost nothing.
type Observer struct {
	created   metric.Int64Counter
	delivered metric.Int64Counter
	rejected  metric.Int64Counter
	abandoned metric.Int64Counter
	wait      metric.Float64Histogram
}

// New creates the instruments from the global meter provider.
func New() (*Observer, error) {
	m := otel.Meter(instrumentationName)

	created, err := m.Int64Counter("cancel.tokens.created",
		metric.WithDescription("Cancellation tokens created."))
	if err != nil {
		return nil, err
	}
	delivered, err := m.Int64Counter("cancel.deliveries",
		metric.WithDescription("Winning sends that delivered a payload."))
	if err != nil {
		return nil, err
	}
	rejected, err := m.Int64Counter("cancel.sends.rejected",
		metric.WithDescription("Sends that failed, by reason."))
	if err != nil {
		return nil, err
	}
	abandoned, err := m.Int64Counter("cancel.tokens.abandoned",
		metric.WithDescription("Tokens whose senders all closed without a delivery."))
	if err != nil {
		return nil, err
	}
	wait, err := m.Float64Histogram("cancel.observe.wait",
		metric.WithDescription("Time a receiver spent suspended before observing cancellation."),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &Observer{
		created:   created,
		delivered: delivered,
		rejected:  rejected,
		abandoned: abandoned,
		wait:      wait,
	}, nil
}

func (o *Observer) TokenCreated() {
	o.created.Add(context.Background(), 1)
}

func (o *Observer) CancelDelivered() {
	o.delivered.Add(context.Background(), 1)
}

func (o *Observer) SendRejected(err error) {
	o.rejected.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("reason", rejectionReason(err))))
}

func (o *Observer) SendersGone() {
	o.abandoned.Add(context.Background(), 1)
}

func (o *Observer) CancelObserved(wait time.Duration) {
	o.wait.Record(context.Background(), wait.Seconds())
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

var _ cancel.Observer = (*Observer)(nil)
