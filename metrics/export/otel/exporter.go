package otel

import (
	"context"
	"errors"
	"fmt"

	goIdentity "github.com/MrEthical07/goIdentity"
	"github.com/MrEthical07/goIdentity/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type observedCounter struct {
	id         goIdentity.MetricID
	instrument metric.Int64ObservableCounter
}

type observedHistogram struct {
	id      goIdentity.MetricID
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

type observedGauge struct {
	def        internaldefs.GaugeDef
	instrument metric.Int64ObservableGauge
}

// OTelExporter publishes engine counters, the resolve latency histogram and
// store sizes as observable instruments read on each collection.
type OTelExporter struct {
	source       internaldefs.Source
	registration metric.Registration

	counters     []observedCounter
	histograms   []observedHistogram
	gauges       []observedGauge
	auditDropped metric.Int64ObservableCounter
	storeUp      metric.Int64ObservableGauge
}

func NewOTelExporter(meter metric.Meter, engine *goIdentity.Engine) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, engine)
}

func NewOTelExporterFromSource(meter metric.Meter, source internaldefs.Source) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	r := &registrar{meter: meter}

	for _, def := range internaldefs.CounterDefs {
		e.counters = append(e.counters, observedCounter{id: def.ID, instrument: r.counter(def.Name, def.Help)})
	}
	for _, def := range internaldefs.HistogramDefs {
		h := observedHistogram{id: def.ID}
		for i, suffix := range internaldefs.HistogramBoundSuffix {
			h.buckets[i] = r.gauge(def.Name+"_bucket_le_"+suffix, "Cumulative histogram bucket count.")
		}
		h.count = r.gauge(def.Name+"_count", "Histogram total sample count.")
		e.histograms = append(e.histograms, h)
	}
	e.auditDropped = r.counter(internaldefs.AuditDroppedName, "Audit events that never reached the audit queue.")
	e.storeUp = r.gauge(internaldefs.StoreUpName, "Whether the last store count succeeded.")
	for _, def := range internaldefs.GaugeDefs {
		e.gauges = append(e.gauges, observedGauge{def: def, instrument: r.gauge(def.Name, def.Help)})
	}
	if r.err != nil {
		return nil, r.err
	}

	registration, err := meter.RegisterCallback(e.observe, r.observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = registration
	return e, nil
}

// observe reports one collection. A failed store count sets
// goidentity_store_up to 0 and skips the size gauges rather than failing the
// whole collection.
func (e *OTelExporter) observe(ctx context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		o.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
	}
	for _, h := range e.histograms {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[h.id]))
		for i, v := range cumulative {
			o.ObserveInt64(h.buckets[i], int64(v))
		}
		o.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}
	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))

	stats, err := e.source.StoreStats(ctx)
	if err != nil {
		o.ObserveInt64(e.storeUp, 0)
		return nil
	}
	o.ObserveInt64(e.storeUp, 1)
	for _, g := range e.gauges {
		o.ObserveInt64(g.instrument, int64(g.def.Value(stats)))
	}
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}

// registrar creates instruments and keeps the first creation error.
type registrar struct {
	meter       metric.Meter
	observables []metric.Observable
	err         error
}

func (r *registrar) counter(name, help string) metric.Int64ObservableCounter {
	if r.err != nil {
		return nil
	}
	ins, err := r.meter.Int64ObservableCounter(name, metric.WithDescription(help))
	if err != nil {
		r.err = fmt.Errorf("create observable counter %s: %w", name, err)
		return nil
	}
	r.observables = append(r.observables, ins)
	return ins
}

func (r *registrar) gauge(name, help string) metric.Int64ObservableGauge {
	if r.err != nil {
		return nil
	}
	ins, err := r.meter.Int64ObservableGauge(name, metric.WithDescription(help))
	if err != nil {
		r.err = fmt.Errorf("create observable gauge %s: %w", name, err)
		return nil
	}
	r.observables = append(r.observables, ins)
	return ins
}
