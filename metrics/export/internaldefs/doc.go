// Package internaldefs holds the shared counter name table for the metrics
// exporters. It exists so the Prometheus and OTel exporters render the same
// names without either importing the other.
package internaldefs
