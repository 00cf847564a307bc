// Package otel exports goGate counters and histograms as OpenTelemetry
// observable instruments.
//
// [NewOTelExporter] registers an Int64ObservableCounter per counter. Each
// histogram becomes a "_bucket" gauge carrying one point per "le" attribute
// plus a "_count" gauge. A single callback reads
// [goGate.Engine.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider; callers supply the Meter.
//   - Mutate engine state.
package otel
