package view

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"airview/src/derive"
	"airview/src/sensor"
)

// Fetcher is the data-service dependency of the controller; *sensor.Client
// satisfies it.
type Fetcher interface {
	FetchReadings(ctx context.Context, q sensor.Query) sensor.Outcome
	SetCredential(token string)
}

// ControllerConfig tunes a Controller. The zero value is usable.
type ControllerConfig struct {
	// Slots overrides the dataset slot table; nil means DefaultSlots.
	Slots []DatasetSlot
	// Derive configures metric derivation (CO2 zero handling).
	Derive derive.Options
	// RefreshLimit / RefreshBurst cap how fast pan/zoom gestures may hit the
	// service. Gestures are never dropped, each one still fetches, but excess
	// ones wait their turn. Zero means 4 req/s with burst 2.
	RefreshLimit rate.Limit
	RefreshBurst int
	// Apply runs UI mutations. GUI hosts pass fyne.Do so presenter and chart
	// updates land on the event loop; nil runs them inline.
	Apply func(func())
}

// Controller is the top-level orchestrator of one visualization session. It
// owns the current preset and credential, and turns each user event into its
// own fetch → derive → reconcile → redraw pipeline.
//
// Preset changes, credential changes and explicit resets are full reloads:
// the viewport re-fits the new data after render. Pan and zoom completions
// are refreshes for the viewport's own bounds and never reset the viewport.
//
// Every pipeline carries a sequence number taken when the gesture fires.
// A response is discarded when a newer pipeline has started since, so the
// chart always shows the result of the most recently initiated gesture, even
// when responses resolve out of order.
type Controller struct {
	chart   Chart
	tracker *LoadTracker
	rec     *Reconciler
	fetcher Fetcher
	opts    derive.Options
	limiter *rate.Limiter
	apply   func(func())

	seq atomic.Uint64

	mu     sync.Mutex
	preset string
}

// NewController wires a session around a chart, its surrounding UI and a
// fetch client. The initial preset is "24h" until the host selects another.
func NewController(chart Chart, presenter Presenter, fetcher Fetcher, cfg ControllerConfig) *Controller {
	slots := cfg.Slots
	if slots == nil {
		slots = DefaultSlots()
	}
	limit := cfg.RefreshLimit
	if limit == 0 {
		limit = 4
	}
	burst := cfg.RefreshBurst
	if burst == 0 {
		burst = 2
	}
	apply := cfg.Apply
	if apply == nil {
		apply = func(f func()) { f() }
	}
	return &Controller{
		chart:   chart,
		tracker: NewLoadTracker(presenter),
		rec:     NewReconciler(slots),
		fetcher: fetcher,
		opts:    cfg.Derive,
		limiter: rate.NewLimiter(limit, burst),
		apply:   apply,
		preset:  "24h",
	}
}

// Preset returns the currently selected preset span.
func (c *Controller) Preset() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preset
}

// SetPreset selects a named span and performs a full reload.
func (c *Controller) SetPreset(name string) {
	c.mu.Lock()
	c.preset = name
	c.mu.Unlock()
	c.run(sensor.PresetQuery(name), true)
}

// SetCredential swaps the bearer credential and performs a full reload of the
// current preset, so a corrected password takes effect immediately.
func (c *Controller) SetCredential(token string) {
	c.fetcher.SetCredential(token)
	c.Reload()
}

// Reload re-fetches the current preset as a full reload.
func (c *Controller) Reload() {
	c.run(sensor.PresetQuery(c.Preset()), true)
}

// PanCompleted refreshes data for the viewport reached by a finished pan
// gesture. Call on the UI thread; the viewport is read synchronously so the
// pipeline targets the bounds the gesture actually ended on.
func (c *Controller) PanCompleted() { c.refreshViewport() }

// ZoomCompleted refreshes data for the viewport reached by a finished zoom.
func (c *Controller) ZoomCompleted() { c.refreshViewport() }

func (c *Controller) refreshViewport() {
	minMs, maxMs := c.chart.Viewport()
	if maxMs <= minMs {
		return
	}
	c.run(sensor.QueryFromViewport(minMs, maxMs), false)
}

// run starts one pipeline. The sequence number is taken here, at initiation,
// not when the response lands.
func (c *Controller) run(q sensor.Query, fullReload bool) {
	seq := c.seq.Add(1)
	go c.pipeline(seq, q, fullReload)
}

func (c *Controller) pipeline(seq uint64, q sensor.Query, fullReload bool) {
	if !fullReload {
		if err := c.limiter.Wait(context.Background()); err != nil {
			return
		}
		// A newer gesture may have fired while we waited for a slot.
		if seq != c.seq.Load() {
			return
		}
	}

	c.apply(func() {
		if seq != c.seq.Load() {
			return
		}
		c.tracker.Begin()
	})

	out := c.fetcher.FetchReadings(context.Background(), q)

	c.apply(func() {
		if seq != c.seq.Load() {
			// Superseded: the newer pipeline owns the UI now, including the
			// in-flight indicator its own Begin re-showed.
			sensor.Debugf("discarding stale response for %s (seq %d)", q, seq)
			return
		}
		c.tracker.Finish(out)
		if out.Failed() {
			sensor.Warnf("fetch %s failed: %s", q, out.Failure)
			return
		}
		ds := derive.DeriveSeries(out.Readings, c.opts)
		c.rec.Reconcile(c.chart, ds, fullReload)
	})
}
