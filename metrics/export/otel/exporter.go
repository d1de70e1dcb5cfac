package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/routegate"
	"github.com/MrEthical07/routegate/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// MetricsSource is satisfied by *routegate.Guard.
type MetricsSource interface {
	MetricsSnapshot() routegate.MetricsSnapshot
	AuditDropped() uint64
}

// Option configures an OTelExporter.
type Option func(*exporterOptions)

type exporterOptions struct {
	attrs []attribute.KeyValue
}

// WithAttributes tags every observation, e.g. with the gate's name when
// several guards report into one meter.
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return func(o *exporterOptions) {
		o.attrs = append(o.attrs, attrs...)
	}
}

type observedCounter struct {
	id         routegate.MetricID
	instrument metric.Int64ObservableCounter
}

// observedLatency is the verification latency histogram as one cumulative
// bucket gauge keyed by "le", matching the Prometheus exposition.
type observedLatency struct {
	id      routegate.MetricID
	buckets metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
	le      [8]metric.ObserveOption
}

// OTelExporter publishes guard metrics as observable instruments. Values are
// read from the source on each collection.
type OTelExporter struct {
	source       MetricsSource
	registration metric.Registration
	common       metric.ObserveOption
	counters     []observedCounter
	latency      []observedLatency
	auditDropped metric.Int64ObservableCounter
}

// NewOTelExporter registers instruments on meter that read from g.
func NewOTelExporter(meter metric.Meter, g *routegate.Guard, opts ...Option) (*OTelExporter, error) {
	if g == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, g, opts...)
}

func NewOTelExporterFromSource(meter metric.Meter, source MetricsSource, opts ...Option) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	var o exporterOptions
	for _, opt := range opts {
		opt(&o)
	}

	e := &OTelExporter{
		source: source,
		common: metric.WithAttributeSet(attribute.NewSet(o.attrs...)),
	}

	observables := make([]metric.Observable, 0, len(internaldefs.CounterDefs)+2*len(internaldefs.HistogramDefs)+1)

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		buckets, err := meter.Int64ObservableGauge(def.Name+"_bucket",
			metric.WithDescription(def.Help+" Cumulative count per upper bound."),
			metric.WithUnit("{verification}"))
		if err != nil {
			return nil, fmt.Errorf("create bucket gauge %s: %w", def.Name, err)
		}
		count, err := meter.Int64ObservableGauge(def.Name+"_count",
			metric.WithDescription(def.Help+" Total samples."),
			metric.WithUnit("{verification}"))
		if err != nil {
			return nil, fmt.Errorf("create count gauge %s: %w", def.Name, err)
		}

		l := observedLatency{id: def.ID, buckets: buckets, count: count}
		for i, bound := range internaldefs.HistogramBounds {
			attrs := append(append([]attribute.KeyValue(nil), o.attrs...), attribute.String("le", bound))
			l.le[i] = metric.WithAttributeSet(attribute.NewSet(attrs...))
		}
		e.latency = append(e.latency, l)
		observables = append(observables, buckets, count)
	}

	auditDropped, err := meter.Int64ObservableCounter(
		internaldefs.AuditDroppedName,
		metric.WithDescription(internaldefs.AuditDroppedHelp),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	e.auditDropped = auditDropped
	observables = append(observables, auditDropped)

	registration, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = registration
	return e, nil
}

func (e *OTelExporter) observe(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]), e.common)
	}
	for _, l := range e.latency {
		raw, ok := snapshot.Histograms[l.id]
		if !ok {
			// Latency recording is off; report nothing rather than zeros.
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		for i, v := range cumulative {
			observer.ObserveInt64(l.buckets, int64(v), l.le[i])
		}
		observer.ObserveInt64(l.count, int64(cumulative[len(cumulative)-1]), e.common)
	}
	observer.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()), e.common)
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
