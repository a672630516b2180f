// Package otel provides an OpenTelemetry-metric-backed cancel.Observer.
// Instruments are created from the global meter provider.
package otel
