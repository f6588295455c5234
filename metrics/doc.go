/*
Package metrics records statement and connection activity of the database
package.

A Recorder receives one observation per executed statement, one per
connection attempt and one per dropped connection. Nop is the default.
HostRecorder reports through HostMetrics, whose Counter, Gauge and Histogram
handles send protobuf payloads over waPC host calls. PrometheusRecorder
registers its collectors with a prometheus.Registerer.

Metric emission is best-effort and never returns errors. Marshal or host-call
failures are swallowed so they cannot change the outcome of a statement.
*/
package metrics
