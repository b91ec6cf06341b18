package view

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"airview/src/sensor"
)

// gatedFetcher serves canned outcomes, optionally blocking a query until the
// test releases its gate. Gates are keyed by query string so out-of-order
// responses can be staged deterministically.
type gatedFetcher struct {
	mu      sync.Mutex
	calls   []sensor.Query
	gates   map[string]chan sensor.Outcome
	outcome sensor.Outcome
}

func (f *gatedFetcher) FetchReadings(ctx context.Context, q sensor.Query) sensor.Outcome {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	gate := f.gates[q.String()]
	f.mu.Unlock()
	if gate != nil {
		return <-gate
	}
	return f.outcome
}

func (f *gatedFetcher) SetCredential(string) {}

func (f *gatedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// countingApply wraps the inline apply hook with an invocation counter so
// tests can wait until all pipelines have applied their results.
func countingApply(n *atomic.Int32) func(func()) {
	return func(f func()) {
		f()
		n.Add(1)
	}
}

func readings(times ...int64) []sensor.Reading {
	rs := make([]sensor.Reading, len(times))
	for i, tm := range times {
		rs[i] = sensor.Reading{Time: tm, Temperature: 20, Humidity: 40}
	}
	return rs
}

func TestController_PresetLoadPopulatesChartAndTimespan(t *testing.T) {
	ch := &fakeChart{}
	p := &fakePresenter{}
	f := &gatedFetcher{outcome: sensor.Success(readings(100, 200, 300), 7)}
	c := NewController(ch, p, f, ControllerConfig{})

	c.SetPreset("1h")

	waitFor(t, "full reload to land", func() bool { return ch.countOps("reset") == 1 })
	if got := ch.DatasetCount(); got != 4 {
		t.Fatalf("dataset count after first load: %d, want one per tracked metric", got)
	}
	s := p.snapshot()
	if !s.spanVisible || s.spanFirst != 100 || s.spanLast != 300 {
		t.Fatalf("timespan display wrong: %+v", s)
	}
	if s.statReadings != 3 {
		t.Fatalf("stats wrong: %+v", s)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) != 1 || !f.calls[0].IsPreset() || f.calls[0].Preset() != "1h" {
		t.Fatalf("unexpected fetch calls: %+v", f.calls)
	}
}

func TestController_FailureSurfacesVerbatimAndLeavesChartAlone(t *testing.T) {
	ch := &fakeChart{}
	p := &fakePresenter{}
	f := &gatedFetcher{outcome: sensor.Failure("db unavailable")}
	c := NewController(ch, p, f, ControllerConfig{})

	c.SetPreset("1h")

	waitFor(t, "failure to surface", func() bool { return p.snapshot().errVisible })
	s := p.snapshot()
	if s.errMsg != "db unavailable" {
		t.Fatalf("error message not verbatim: %q", s.errMsg)
	}
	if s.resultsVisible {
		t.Fatalf("result UI must stay hidden on failure")
	}
	if s.loadingVisible {
		t.Fatalf("in-flight indicator must settle on failure")
	}
	if len(ch.opLog()) != 0 {
		t.Fatalf("chart must not be touched on failure: %v", ch.opLog())
	}
}

// Pan completion reads the viewport at initiation and rounds it to whole
// milliseconds before fetching.
func TestController_PanFetchesRoundedViewportWithoutReset(t *testing.T) {
	ch := &fakeChart{vpMin: 1000.4, vpMax: 2000.6}
	p := &fakePresenter{}
	f := &gatedFetcher{outcome: sensor.Success(readings(1200, 1800), 3)}
	c := NewController(ch, p, f, ControllerConfig{})

	// Populate once so the pan refresh updates in place.
	c.SetPreset("1h")
	waitFor(t, "initial load", func() bool { return ch.countOps("reset") == 1 })

	c.PanCompleted()
	waitFor(t, "pan refresh", func() bool { return ch.countOps("set") == 4 })

	f.mu.Lock()
	q := f.calls[len(f.calls)-1]
	f.mu.Unlock()
	start, end := q.Bounds()
	if q.IsPreset() || start != 1000 || end != 2001 {
		t.Fatalf("pan fetched wrong window: %v", q)
	}
	if got := ch.countOps("reset"); got != 1 {
		t.Fatalf("pan refresh reset the viewport: %d resets", got)
	}
}

func TestController_DegenerateViewportDoesNotFetch(t *testing.T) {
	ch := &fakeChart{vpMin: 500, vpMax: 500}
	p := &fakePresenter{}
	f := &gatedFetcher{outcome: sensor.Success(nil, 1)}
	c := NewController(ch, p, f, ControllerConfig{})

	c.ZoomCompleted()
	time.Sleep(50 * time.Millisecond)
	if f.callCount() != 0 {
		t.Fatalf("degenerate viewport still fetched: %d calls", f.callCount())
	}
}

// Two pan gestures fire before either response resolves, and the older
// response arrives last. The chart must keep the newer gesture's data: the
// result of the most recently initiated request wins.
func TestController_StaleResponseIsDiscarded(t *testing.T) {
	ch := &fakeChart{}
	p := &fakePresenter{}
	var applies atomic.Int32
	f := &gatedFetcher{outcome: sensor.Success(readings(1, 2, 3), 1), gates: map[string]chan sensor.Outcome{}}
	c := NewController(ch, p, f, ControllerConfig{Apply: countingApply(&applies)})

	// Initial population (ungated).
	c.SetPreset("1h")
	waitFor(t, "initial load", func() bool { return ch.countOps("reset") == 1 })
	baseApplies := applies.Load()

	olderQ := sensor.ExplicitQuery(1000, 2000)
	newerQ := sensor.ExplicitQuery(5000, 6000)
	gateOld := make(chan sensor.Outcome, 1)
	gateNew := make(chan sensor.Outcome, 1)
	f.mu.Lock()
	f.gates[olderQ.String()] = gateOld
	f.gates[newerQ.String()] = gateNew
	f.mu.Unlock()

	ch.mu.Lock()
	ch.vpMin, ch.vpMax = 1000, 2000
	ch.mu.Unlock()
	c.PanCompleted()
	// Let the first fetch block on its gate before the second gesture fires,
	// so both responses are genuinely in flight at once.
	waitFor(t, "first pan fetch in flight", func() bool { return f.callCount() == 2 })

	ch.mu.Lock()
	ch.vpMin, ch.vpMax = 5000, 6000
	ch.mu.Unlock()
	c.PanCompleted()
	waitFor(t, "second pan fetch in flight", func() bool { return f.callCount() == 3 })

	// Newer response resolves first, then the stale one trickles in.
	gateNew <- sensor.Success(readings(5000, 5500, 6000), 2)
	gateOld <- sensor.Success(readings(1000, 1500, 2000), 2)

	// Begin x2 + one result apply each.
	waitFor(t, "all pipelines to apply", func() bool { return applies.Load() >= baseApplies+4 })

	ch.mu.Lock()
	tempPoints := ch.data[0]
	ch.mu.Unlock()
	if len(tempPoints) != 3 || tempPoints[0].Time != 5000 {
		t.Fatalf("chart shows stale data: %+v", tempPoints)
	}
	s := p.snapshot()
	if s.spanFirst != 5000 || s.spanLast != 6000 {
		t.Fatalf("timespan shows stale range: %+v", s)
	}
	if s.loadingVisible {
		t.Fatalf("in-flight indicator stuck after settlement")
	}
}

func TestController_SetCredentialReloadsCurrentPreset(t *testing.T) {
	ch := &fakeChart{}
	p := &fakePresenter{}
	f := &gatedFetcher{outcome: sensor.Success(readings(1, 2), 1)}
	c := NewController(ch, p, f, ControllerConfig{})

	c.SetPreset("7d")
	waitFor(t, "preset load", func() bool { return f.callCount() == 1 })

	c.SetCredential("new-password")
	waitFor(t, "credential reload", func() bool { return f.callCount() == 2 })

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.calls[1].IsPreset() || f.calls[1].Preset() != "7d" {
		t.Fatalf("credential change should reload the current preset, fetched %v", f.calls[1])
	}
	// Both loads are full reloads.
	waitFor(t, "viewport reset", func() bool { return ch.countOps("reset") == 2 })
}
