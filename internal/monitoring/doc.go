// Package monitoring provides the comboer's logging streams and Prometheus
// metrics.
//
// Logging is split into three streams: ops (always on), diag and trace. Each
// can be pointed at its own writer or disabled with SetLogWriters.
package monitoring
