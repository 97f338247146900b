// Package oteladapters implements eventrepo.MetricsCollector on the OpenTelemetry metric API.
//
// Instruments are created lazily per metric name:
//   - RecordDuration -> Float64Histogram in seconds
//   - IncrementCounter -> Int64Counter
//   - RecordValue -> Float64Gauge
//
// Combined with the OpenTelemetry Prometheus exporter this is what the CLI serves on its metrics endpoint.
package oteladapters
