package otel

import (
	"context"
	"errors"
	"fmt"

	authgate "github.com/opsdesk/authgate"
	"github.com/opsdesk/authgate/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrNilMeter is returned when no meter is supplied.
	ErrNilMeter = errors.New("nil meter")
	// ErrNilSource is returned when no metrics source is supplied.
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() authgate.MetricsSnapshot
	AuditDropped() uint64
}

type observedCounter struct {
	id         authgate.MetricID
	instrument metric.Int64ObservableCounter
}

// Exporter bridges gate counters to OpenTelemetry observable instruments.
// Values are read on collection, not pushed.
type Exporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []observedCounter
	auditDropped metric.Int64ObservableCounter
}

// NewExporter registers the gate's counters on the meter.
func NewExporter(meter metric.Meter, gate *authgate.Gate) (*Exporter, error) {
	if gate == nil {
		return nil, ErrNilSource
	}
	return NewExporterFromSource(meter, gate)
}

// NewExporterFromSource registers counters over a custom source.
func NewExporterFromSource(meter metric.Meter, source metricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{source: source}

	instruments := make([]metric.Observable, 0, len(internaldefs.CounterDefs)+1)
	for _, def := range internaldefs.CounterDefs {
		counter, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, observedCounter{id: def.ID, instrument: counter})
		instruments = append(instruments, counter)
	}

	dropped, err := meter.Int64ObservableCounter(internaldefs.AuditDroppedName, metric.WithDescription(internaldefs.AuditDroppedHelp))
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", internaldefs.AuditDroppedName, err)
	}
	e.auditDropped = dropped
	instruments = append(instruments, dropped)

	registration, err := meter.RegisterCallback(e.collect, instruments...)
	if err != nil {
		return nil, err
	}
	e.registration = registration

	return e, nil
}

func (e *Exporter) collect(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()

	for _, counter := range e.counters {
		observer.ObserveInt64(counter.instrument, int64(snapshot.Counters[counter.id]))
	}
	observer.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))

	return nil
}

// Close unregisters the collection callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
