package prometheus

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	goIdentity "github.com/MrEthical07/goIdentity"
	"github.com/MrEthical07/goIdentity/metrics/export/internaldefs"
)

// PrometheusExporter renders engine counters, the resolve latency histogram
// and store sizes in the Prometheus text format.
type PrometheusExporter struct {
	source internaldefs.Source
}

// NewPrometheusExporter reads from engine on every scrape.
func NewPrometheusExporter(engine *goIdentity.Engine) *PrometheusExporter {
	return &PrometheusExporter{source: engine}
}

// NewPrometheusExporterFromSource reads from any source.
func NewPrometheusExporterFromSource(source internaldefs.Source) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves Render over HTTP, bounded by the request context.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render(r.Context())))
	})
}

// Render returns the current exposition. Engine counters and histograms are
// left out while metrics are disabled; store gauges are always present. When
// the token store cannot be counted, goidentity_store_up is 0 and the size
// gauges are omitted.
func (p *PrometheusExporter) Render(ctx context.Context) string {
	if p == nil || p.source == nil {
		return ""
	}

	var w textWriter
	w.Grow(8192)

	snapshot := p.source.MetricsSnapshot()
	if len(snapshot.Counters) > 0 || len(snapshot.Histograms) > 0 {
		for _, def := range internaldefs.CounterDefs {
			w.family(def.Name, def.Help, "counter")
			w.sample(def.Name, "", snapshot.Counters[def.ID])
		}
		for _, def := range internaldefs.HistogramDefs {
			w.histogram(def, snapshot.Histograms[def.ID])
		}
	}

	w.family(internaldefs.AuditDroppedName, "Audit events that never reached the audit queue.", "counter")
	w.sample(internaldefs.AuditDroppedName, "", p.source.AuditDropped())

	stats, err := p.source.StoreStats(ctx)
	w.family(internaldefs.StoreUpName, "Whether the last store count succeeded.", "gauge")
	if err != nil {
		w.sample(internaldefs.StoreUpName, "", 0)
		return w.String()
	}
	w.sample(internaldefs.StoreUpName, "", 1)
	for _, def := range internaldefs.GaugeDefs {
		w.family(def.Name, def.Help, "gauge")
		w.sample(def.Name, "", uint64(def.Value(stats)))
	}
	return w.String()
}

type textWriter struct {
	strings.Builder
}

func (w *textWriter) family(name, help, kind string) {
	w.WriteString("# HELP ")
	w.WriteString(name)
	w.WriteByte(' ')
	w.WriteString(escapeHelp(help))
	w.WriteString("\n# TYPE ")
	w.WriteString(name)
	w.WriteByte(' ')
	w.WriteString(kind)
	w.WriteByte('\n')
}

// sample writes one line; suffix carries everything between the family name
// and the value, such as `_bucket{le="0.1"}`.
func (w *textWriter) sample(name, suffix string, value uint64) {
	w.WriteString(name)
	w.WriteString(suffix)
	w.WriteByte(' ')
	w.WriteString(strconv.FormatUint(value, 10))
	w.WriteByte('\n')
}

func (w *textWriter) histogram(def internaldefs.HistogramDef, raw []uint64) {
	cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
	w.family(def.Name, def.Help, "histogram")
	for i, le := range internaldefs.HistogramBounds {
		w.sample(def.Name, `_bucket{le="`+le+`"}`, cumulative[i])
	}
	w.sample(def.Name, "_count", cumulative[len(cumulative)-1])
	// Snapshots carry no sum.
	w.sample(def.Name, "_sum", 0)
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}
