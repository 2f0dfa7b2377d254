// Package prometheus renders authgate counters in Prometheus text
// exposition format without depending on the Prometheus client library.
package prometheus
