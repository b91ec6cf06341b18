package view

import "airview/src/derive"

// Reconciler pushes derived series into a chart's dataset list while
// preserving view state. It commits to the lazy-insertion strategy: charts
// start with zero datasets, and the full slot table is inserted in order on
// the first reconcile (detected by the chart's dataset count not matching the
// slot count). Every later reconcile only replaces point sequences in place,
// so axis bindings, colors and legend entries survive repeated updates.
type Reconciler struct {
	slots []DatasetSlot
}

func NewReconciler(slots []DatasetSlot) *Reconciler {
	return &Reconciler{slots: slots}
}

// Slots returns the fixed slot table, in insertion order.
func (r *Reconciler) Slots() []DatasetSlot { return r.slots }

// seriesFor picks the slot's series out of the derivation result.
func seriesFor(m Metric, ds derive.DerivedSeries) derive.Series {
	switch m {
	case MetricTemperature:
		return ds.Temp
	case MetricHumidity:
		return ds.Humidity
	case MetricAbsHumidity:
		return ds.AbsHumidity
	case MetricCO2:
		return ds.CO2
	}
	return nil
}

// Reconcile updates the chart from one fetch's derived series and triggers a
// non-animated redraw. A full reload additionally resets the viewport to fit
// the new data after the redraw; a pan/zoom-driven refresh never touches the
// viewport, since that would fight the gesture that triggered it.
func (r *Reconciler) Reconcile(ch Chart, ds derive.DerivedSeries, fullReload bool) {
	if ch.DatasetCount() != len(r.slots) {
		for _, slot := range r.slots {
			ch.InsertDataset(slot, seriesFor(slot.Metric, ds))
		}
	} else {
		for i, slot := range r.slots {
			ch.SetDatasetPoints(i, seriesFor(slot.Metric, ds))
		}
	}
	ch.Redraw()
	if fullReload {
		ch.ResetViewport()
	}
}
