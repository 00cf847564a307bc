// Package prometheus exports goGate metrics through client_golang.
//
// [PrometheusExporter] is a prometheus.Collector: register it in any registry,
// or mount [PrometheusExporter.Handler] for a standalone endpoint. Counter
// names are gogate_*_total; the single histogram is gogate_admit_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry.
//   - Mutate engine state.
package prometheus
