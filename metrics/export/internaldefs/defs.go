package internaldefs

import (
	"math"
	"strconv"

	goSession "github.com/MrEthical07/goSession"
)

// Series is one sample of a Family. LabelValue is empty for an unlabelled family.
type Series struct {
	LabelValue string
	ID         goSession.MetricID
}

// Family is one exported counter. With a Label it splits into one series per
// label value, and summing the series gives a meaningful total.
type Family struct {
	Name   string
	Help   string
	Label  string
	Series []Series
}

// CounterFamilies lists every counter family in export order.
var CounterFamilies = []Family{
	{
		Name:  "goride_logins_total",
		Help:  "Login attempts by outcome.",
		Label: "outcome",
		Series: []Series{
			{LabelValue: "success", ID: goSession.MetricLoginSuccess},
			{LabelValue: "failure", ID: goSession.MetricLoginFailure},
		},
	},
	{
		Name:  "goride_refreshes_total",
		Help:  "Refresh callers by outcome. Only success and failure reached the backend; coalesced callers joined one in flight.",
		Label: "outcome",
		Series: []Series{
			{LabelValue: "success", ID: goSession.MetricRefreshSuccess},
			{LabelValue: "failure", ID: goSession.MetricRefreshFailure},
			{LabelValue: "coalesced", ID: goSession.MetricRefreshCoalesced},
		},
	},
	{
		Name:  "goride_verifications_total",
		Help:  "Verify calls by result.",
		Label: "result",
		Series: []Series{
			{LabelValue: "valid", ID: goSession.MetricVerifyValid},
			{LabelValue: "invalid", ID: goSession.MetricVerifyInvalid},
		},
	},
	{
		Name:   "goride_verify_unavailable_total",
		Help:   "Verify calls that could not reach the backend. They are also counted as invalid.",
		Series: []Series{{ID: goSession.MetricVerifyUnavailable}},
	},
	{
		Name:   "goride_logouts_total",
		Help:   "Logouts, including the ones forced by a failed refresh.",
		Series: []Series{{ID: goSession.MetricLogout}},
	},
	{
		Name:   "goride_malformed_credentials_total",
		Help:   "Stored access credentials that could not be decoded.",
		Series: []Series{{ID: goSession.MetricMalformedCredential}},
	},
}

// EventsDropped describes the per-kind dropped session event counter. Its
// values come from the Client's dispatcher, not from MetricsSnapshot.
var EventsDropped = Family{
	Name:  "goride_events_dropped_total",
	Help:  "Session events that never reached the sink, by kind.",
	Label: "kind",
}

// DroppedSeries returns one value per event kind, zero included, in kind order.
func DroppedSeries(dropped map[goSession.EventKind]uint64) []DroppedValue {
	out := make([]DroppedValue, 0, len(eventKinds))
	for _, k := range eventKinds {
		out = append(out, DroppedValue{Kind: k.String(), Value: dropped[k]})
	}
	return out
}

// DroppedValue is the drop count of one event kind.
type DroppedValue struct {
	Kind  string
	Value uint64
}

var eventKinds = []goSession.EventKind{goSession.EventLogin, goSession.EventRefresh, goSession.EventLogout}

// Histogram describes an exported latency histogram.
type Histogram struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// RefreshLatency is the only histogram the Client records.
var RefreshLatency = Histogram{
	ID:   goSession.MetricRefreshLatency,
	Name: "goride_refresh_latency_seconds",
	Help: "Refresh round trip latency.",
}

// LatencyBounds are the upper bounds, in seconds, of the in-process buckets.
var LatencyBounds = []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 5, math.Inf(1)}

// FormatBound renders a bound the way Prometheus writes le labels.
func FormatBound(bound float64) string {
	if math.IsInf(bound, 1) {
		return "+Inf"
	}
	return strconv.FormatFloat(bound, 'g', -1, 64)
}

// Cumulative turns per-bucket counts into running totals, one per LatencyBounds
// entry. Missing buckets count as zero.
func Cumulative(raw []uint64) []uint64 {
	out := make([]uint64, len(LatencyBounds))
	var running uint64
	for i := range out {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}
