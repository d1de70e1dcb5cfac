// Package otel binds routegate guard metrics to OpenTelemetry instruments.
//
// [NewOTelExporter] registers an Int64ObservableCounter per guard counter.
// Verification latency becomes one cumulative bucket gauge carrying an "le"
// attribute, plus a count gauge, so dashboards built for the Prometheus
// exposition read the same series. When latency recording is disabled on
// the guard the latency gauges report no points. One callback reads
// [routegate.Guard.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate guard state.
package otel
