// Package prometheus renders session metrics in Prometheus text exposition
// format.
//
// Counters are named goride_*_total and the refresh latency histogram is
// goride_refresh_latency_seconds. Nothing is registered globally; callers
// mount [PrometheusExporter.Handler] or print [PrometheusExporter.Render].
package prometheus
