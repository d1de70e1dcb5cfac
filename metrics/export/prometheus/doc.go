// Package prometheus renders routegate guard metrics in the Prometheus text
// exposition format.
//
// [NewPrometheusExporter] takes a built [routegate.Guard] and exposes an
// [http.Handler]. Counters are named routegate_*_total; the only histogram is
// routegate_verify_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the Handler.
//   - Mutate guard state.
package prometheus
