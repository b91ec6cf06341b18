package view

import (
	"sync"
	"testing"

	"airview/src/derive"
)

// fakeChart records dataset mutations and the redraw/reset order. Shared
// with the controller tests.
type fakeChart struct {
	mu sync.Mutex

	slots []DatasetSlot
	data  [][]derive.Point
	ops   []string
	vpMin float64
	vpMax float64
}

func (c *fakeChart) DatasetCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slots)
}

func (c *fakeChart) InsertDataset(slot DatasetSlot, points []derive.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots = append(c.slots, slot)
	c.data = append(c.data, points)
	c.ops = append(c.ops, "insert")
}

func (c *fakeChart) SetDatasetPoints(index int, points []derive.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[index] = points
	c.ops = append(c.ops, "set")
}

func (c *fakeChart) Viewport() (float64, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vpMin, c.vpMax
}

func (c *fakeChart) ResetViewport() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, "reset")
}

func (c *fakeChart) Redraw() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, "redraw")
}

func (c *fakeChart) opLog() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.ops...)
}

func (c *fakeChart) countOps(name string) int {
	n := 0
	for _, op := range c.opLog() {
		if op == name {
			n++
		}
	}
	return n
}

func someSeries(times ...int64) derive.Series {
	s := make(derive.Series, len(times))
	for i, tm := range times {
		s[i] = derive.Point{Time: tm, Value: float64(i)}
	}
	return s
}

func testDerived() derive.DerivedSeries {
	return derive.DerivedSeries{
		Temp:        someSeries(1, 2, 3),
		Humidity:    someSeries(1, 2, 3),
		AbsHumidity: someSeries(1, 2, 3),
		CO2:         someSeries(2, 3),
	}
}

func TestReconcile_FirstCallInsertsSlotsInOrder(t *testing.T) {
	ch := &fakeChart{}
	r := NewReconciler(DefaultSlots())

	r.Reconcile(ch, testDerived(), true)

	if len(ch.slots) != 4 {
		t.Fatalf("expected 4 datasets, got %d", len(ch.slots))
	}
	wantOrder := []Metric{MetricTemperature, MetricHumidity, MetricAbsHumidity, MetricCO2}
	for i, m := range wantOrder {
		if ch.slots[i].Metric != m {
			t.Fatalf("slot %d is %v, want %v", i, ch.slots[i].Metric, m)
		}
	}
	if len(ch.data[3]) != 2 {
		t.Fatalf("co2 dataset should carry the shorter series, got %d points", len(ch.data[3]))
	}
}

// Calling reconcile twice with identical series must leave dataset count,
// order and axis bindings unchanged; only point contents are replaced.
func TestReconcile_SecondCallReplacesPointsOnly(t *testing.T) {
	ch := &fakeChart{}
	r := NewReconciler(DefaultSlots())

	r.Reconcile(ch, testDerived(), true)
	before := append([]DatasetSlot(nil), ch.slots...)

	r.Reconcile(ch, testDerived(), false)

	if got := ch.countOps("insert"); got != 4 {
		t.Fatalf("second reconcile inserted datasets: %d inserts total", got)
	}
	if got := ch.countOps("set"); got != 4 {
		t.Fatalf("expected 4 in-place updates, got %d", got)
	}
	if len(ch.slots) != len(before) {
		t.Fatalf("dataset count changed: %d -> %d", len(before), len(ch.slots))
	}
	for i := range before {
		if ch.slots[i] != before[i] {
			t.Fatalf("slot %d changed: %+v -> %+v", i, before[i], ch.slots[i])
		}
	}
}

func TestReconcile_FullReloadResetsViewportAfterRedraw(t *testing.T) {
	ch := &fakeChart{}
	r := NewReconciler(DefaultSlots())

	r.Reconcile(ch, testDerived(), true)

	ops := ch.opLog()
	if len(ops) < 2 || ops[len(ops)-2] != "redraw" || ops[len(ops)-1] != "reset" {
		t.Fatalf("expected redraw then reset, got %v", ops)
	}
}

// A pan/zoom-driven refresh must never reset the viewport; that would fight
// the gesture that triggered it.
func TestReconcile_RefreshNeverResetsViewport(t *testing.T) {
	ch := &fakeChart{}
	r := NewReconciler(DefaultSlots())

	r.Reconcile(ch, testDerived(), true)
	resets := ch.countOps("reset")

	r.Reconcile(ch, testDerived(), false)
	r.Reconcile(ch, testDerived(), false)

	if got := ch.countOps("reset"); got != resets {
		t.Fatalf("refresh reset the viewport: %d -> %d resets", resets, got)
	}
	if got := ch.countOps("redraw"); got != 3 {
		t.Fatalf("every reconcile must redraw: got %d", got)
	}
}
