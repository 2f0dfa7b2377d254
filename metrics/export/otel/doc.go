// Package otel exposes authgate counters as OpenTelemetry observable
// instruments. Counter values are sampled at collection time from the
// gate's snapshot.
package otel
