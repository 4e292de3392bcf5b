package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/metrics/export/internaldefs"
)

// Source is what the exporter reads on every scrape. *goSession.Client
// satisfies it.
type Source interface {
	MetricsSnapshot() goSession.MetricsSnapshot
	EventsDropped() map[goSession.EventKind]uint64
}

// PrometheusExporter renders session metrics in Prometheus text exposition format.
type PrometheusExporter struct {
	source Source
}

// NewPrometheusExporter reads from client.
func NewPrometheusExporter(client *goSession.Client) *PrometheusExporter {
	return &PrometheusExporter{source: client}
}

// NewPrometheusExporterFromSource reads from any snapshot source.
func NewPrometheusExporterFromSource(source Source) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves Render over HTTP.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the current metrics, or "" when metrics are disabled and no
// events were dropped.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.EventsDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && len(dropped) == 0 {
		return ""
	}

	w := textWriter{}
	w.b.Grow(2048)

	for _, f := range internaldefs.CounterFamilies {
		w.header(f.Name, f.Help, "counter")
		for _, s := range f.Series {
			w.sample(f.Name, f.Label, s.LabelValue, snapshot.Counters[s.ID])
		}
	}

	h := internaldefs.RefreshLatency
	w.header(h.Name, h.Help, "histogram")
	cumulative := internaldefs.Cumulative(snapshot.Histograms[h.ID])
	for i, bound := range internaldefs.LatencyBounds {
		w.sample(h.Name+"_bucket", "le", internaldefs.FormatBound(bound), cumulative[i])
	}
	w.sample(h.Name+"_count", "", "", cumulative[len(cumulative)-1])
	// Buckets are all the Client records; there is no running sum.
	w.sample(h.Name+"_sum", "", "", 0)

	e := internaldefs.EventsDropped
	w.header(e.Name, e.Help, "counter")
	for _, d := range internaldefs.DroppedSeries(dropped) {
		w.sample(e.Name, e.Label, d.Kind, d.Value)
	}

	return w.b.String()
}

type textWriter struct {
	b strings.Builder
}

func (w *textWriter) header(name, help, kind string) {
	w.b.WriteString("# HELP ")
	w.b.WriteString(name)
	w.b.WriteByte(' ')
	w.b.WriteString(escape(help, false))
	w.b.WriteString("\n# TYPE ")
	w.b.WriteString(name)
	w.b.WriteByte(' ')
	w.b.WriteString(kind)
	w.b.WriteByte('\n')
}

// sample writes one line. An empty label writes the bare name.
func (w *textWriter) sample(name, label, value string, v uint64) {
	w.b.WriteString(name)
	if label != "" {
		w.b.WriteByte('{')
		w.b.WriteString(label)
		w.b.WriteString(`="`)
		w.b.WriteString(escape(value, true))
		w.b.WriteString(`"}`)
	}
	w.b.WriteByte(' ')
	w.b.WriteString(strconv.FormatUint(v, 10))
	w.b.WriteByte('\n')
}

// escape applies the exposition format escaping. Label values also escape
// double quotes.
func escape(s string, quoted bool) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	if quoted {
		s = strings.ReplaceAll(s, `"`, `\"`)
	}
	return s
}
