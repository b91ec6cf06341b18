package sensor

import (
	"fmt"
	"math"
)

// Query is a normalized fetch target: either a named preset span understood by
// the service ("1h", "24h", "7d", ...) or an explicit [start, end] window in
// epoch milliseconds. Both forms resolve to the same fetch contract; callers
// never branch on which one was used.
type Query struct {
	preset  string
	startMs int64
	endMs   int64
}

// PresetQuery builds a query for a named span. The name is opaque here and is
// forwarded verbatim to the service, which owns its interpretation.
func PresetQuery(name string) Query {
	return Query{preset: name}
}

// ExplicitQuery builds a query for arbitrary bounds in epoch milliseconds.
func ExplicitQuery(startMs, endMs int64) Query {
	return Query{startMs: startMs, endMs: endMs}
}

// QueryFromViewport maps chart viewport bounds back to an explicit query.
// Continuous pan/zoom math produces fractional milliseconds; both bounds are
// rounded to whole milliseconds the same way so that repeating an identical
// gesture yields an identical query.
func QueryFromViewport(minMs, maxMs float64) Query {
	return ExplicitQuery(int64(math.Round(minMs)), int64(math.Round(maxMs)))
}

// IsPreset reports whether the query targets a named span.
func (q Query) IsPreset() bool { return q.preset != "" }

// Preset returns the named span, or "" for explicit queries.
func (q Query) Preset() string { return q.preset }

// Bounds returns the explicit window. Only meaningful when !IsPreset().
func (q Query) Bounds() (startMs, endMs int64) { return q.startMs, q.endMs }

// Path renders the request path for the combined readings endpoint.
func (q Query) Path() string {
	if q.IsPreset() {
		return "/api/readings/range/" + q.preset
	}
	return fmt.Sprintf("/api/readings/from/%d/to/%d", q.startMs, q.endMs)
}

func (q Query) String() string {
	if q.IsPreset() {
		return q.preset
	}
	return fmt.Sprintf("[%d, %d]", q.startMs, q.endMs)
}
