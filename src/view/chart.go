// Package view holds the view-synchronization engine: the load state machine
// driven around each fetch, the dataset reconciler that pushes derived series
// into the chart without disturbing view state, and the controller that wires
// user gestures to fetch-and-reconcile pipelines.
//
// The rendering library is an external collaborator behind the Chart
// interface, and all element visibility / text updates go through Presenter,
// so the engine itself is plain testable Go.
package view

import "airview/src/derive"

// Metric identifies one tracked quantity.
type Metric int

const (
	MetricTemperature Metric = iota
	MetricHumidity
	MetricAbsHumidity
	MetricCO2
)

func (m Metric) String() string {
	switch m {
	case MetricTemperature:
		return "temperature"
	case MetricHumidity:
		return "humidity"
	case MetricAbsHumidity:
		return "absolute humidity"
	case MetricCO2:
		return "co2"
	}
	return "unknown"
}

// DatasetSlot is the stable binding between a metric and its position in the
// chart's dataset list. Slot count and order are fixed once a chart has been
// populated; only the point sequence inside a slot changes afterwards. Axis
// color and legend assignment depend on insertion order, so the slot table is
// the single source of truth for it.
type DatasetSlot struct {
	Metric Metric
	AxisID string
	Label  string
	Color  string
}

// DefaultSlots is the fixed slot table used by the viewer, in insertion
// order.
func DefaultSlots() []DatasetSlot {
	return []DatasetSlot{
		{Metric: MetricTemperature, AxisID: "celsius", Label: "Temperature (°C)", Color: "#e53935"},
		{Metric: MetricHumidity, AxisID: "percent", Label: "Humidity (%RH)", Color: "#1e88e5"},
		{Metric: MetricAbsHumidity, AxisID: "grams", Label: "Abs humidity (g/m³)", Color: "#00897b"},
		{Metric: MetricCO2, AxisID: "ppm", Label: "CO2 (ppm)", Color: "#757575"},
	}
}

// Chart is the opaque rendering collaborator. Implementations own pixels,
// axes and gesture handling; the engine only sets slot data, reads and resets
// the time viewport, and asks for redraws.
//
// Redraw must not replay entry animations: it is called on every pan/zoom
// refresh and an animated redraw would visibly fight the user's gesture.
type Chart interface {
	// DatasetCount reports how many dataset slots have been inserted.
	DatasetCount() int
	// InsertDataset appends a dataset bound to the slot's axis, at the next
	// index. Called once per slot, on first population only.
	InsertDataset(slot DatasetSlot, points []derive.Point)
	// SetDatasetPoints replaces the point sequence of the dataset at index.
	// The dataset itself, its axis binding and its legend entry stay intact.
	SetDatasetPoints(index int, points []derive.Point)
	// Viewport returns the visible time-axis bounds in epoch milliseconds.
	// The bounds may be fractional after continuous pan/zoom math.
	Viewport() (minMs, maxMs float64)
	// ResetViewport re-fits the viewport to the current data.
	ResetViewport()
	// Redraw repaints without animation.
	Redraw()
}

// Presenter abstracts the result-dependent UI around the chart. The two
// visibility roles are disjoint: the in-flight indicator shows only while a
// fetch is running, the result UI shows only once a fetch has succeeded.
type Presenter interface {
	SetLoadingVisible(bool)
	SetResultsVisible(bool)
	ShowError(message string)
	ClearError()
	// SetTimespan displays the first and last reading timestamps (epoch ms).
	SetTimespan(firstMs, lastMs int64)
	// HideTimespan suppresses the timespan display entirely; it is used for
	// empty results instead of showing stale or blank values.
	HideTimespan()
	// SetStats displays fetch observability: elapsed wall-clock ms and the
	// number of readings received.
	SetStats(elapsedMs int64, readings int)
}
