// Package otel publishes session metrics through an OpenTelemetry meter.
//
// [NewOTelExporter] registers one Int64ObservableCounter per counter and one
// Int64ObservableGauge per refresh latency bucket. A single callback reads
// [goSession.Client.MetricsSnapshot] on each collection. Callers own the
// MeterProvider.
package otel
