package otel

import (
	"context"
	"errors"
	"fmt"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// Source is what the exporter observes on every collection. *goSession.Client
// satisfies it.
type Source interface {
	MetricsSnapshot() goSession.MetricsSnapshot
	EventsDropped() map[goSession.EventKind]uint64
}

// family pairs a counter family with its instrument and the precomputed
// attribute set of each series.
type family struct {
	def        internaldefs.Family
	instrument metric.Int64ObservableCounter
	attrs      []metric.ObserveOption
}

// OTelExporter publishes the same families as the Prometheus exporter. A family
// label becomes an attribute. The latency histogram is a cumulative bucket gauge
// keyed by an "le" attribute, plus a count gauge.
type OTelExporter struct {
	source       Source
	registration metric.Registration
	families     []family
	buckets      metric.Int64ObservableGauge
	bucketAttrs  []metric.ObserveOption
	count        metric.Int64ObservableGauge
	dropped      metric.Int64ObservableCounter
}

// NewOTelExporter publishes client's metrics through meter as observable
// instruments. Close unregisters the callback.
func NewOTelExporter(meter metric.Meter, client *goSession.Client) (*OTelExporter, error) {
	if client == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, client)
}

func NewOTelExporterFromSource(meter metric.Meter, source Source) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	observables := make([]metric.Observable, 0, len(internaldefs.CounterFamilies)+3)

	for _, def := range internaldefs.CounterFamilies {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", def.Name, err)
		}
		f := family{def: def, instrument: ins, attrs: make([]metric.ObserveOption, len(def.Series))}
		for i, s := range def.Series {
			if def.Label != "" {
				f.attrs[i] = metric.WithAttributes(attribute.String(def.Label, s.LabelValue))
			}
		}
		e.families = append(e.families, f)
		observables = append(observables, ins)
	}

	h := internaldefs.RefreshLatency
	var err error
	e.buckets, err = meter.Int64ObservableGauge(h.Name+"_bucket",
		metric.WithDescription(h.Help+" Cumulative count per upper bound."))
	if err != nil {
		return nil, fmt.Errorf("create histogram buckets %s: %w", h.Name, err)
	}
	for _, bound := range internaldefs.LatencyBounds {
		e.bucketAttrs = append(e.bucketAttrs,
			metric.WithAttributes(attribute.String("le", internaldefs.FormatBound(bound))))
	}
	e.count, err = meter.Int64ObservableGauge(h.Name+"_count", metric.WithDescription(h.Help+" Sample count."))
	if err != nil {
		return nil, fmt.Errorf("create histogram count %s: %w", h.Name, err)
	}

	d := internaldefs.EventsDropped
	e.dropped, err = meter.Int64ObservableCounter(d.Name, metric.WithDescription(d.Help))
	if err != nil {
		return nil, fmt.Errorf("create counter %s: %w", d.Name, err)
	}
	observables = append(observables, e.buckets, e.count, e.dropped)

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, f := range e.families {
		for i, s := range f.def.Series {
			v := int64(snapshot.Counters[s.ID])
			if f.attrs[i] == nil {
				o.ObserveInt64(f.instrument, v)
				continue
			}
			o.ObserveInt64(f.instrument, v, f.attrs[i])
		}
	}

	cumulative := internaldefs.Cumulative(snapshot.Histograms[internaldefs.RefreshLatency.ID])
	for i, v := range cumulative {
		o.ObserveInt64(e.buckets, int64(v), e.bucketAttrs[i])
	}
	o.ObserveInt64(e.count, int64(cumulative[len(cumulative)-1]))

	label := internaldefs.EventsDropped.Label
	for _, d := range internaldefs.DroppedSeries(e.source.EventsDropped()) {
		o.ObserveInt64(e.dropped, int64(d.Value), metric.WithAttributes(attribute.String(label, d.Kind)))
	}
	return nil
}

func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
