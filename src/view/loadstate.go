package view

import "airview/src/sensor"

// LoadState is the UI state around fetches.
type LoadState int

const (
	StateIdle LoadState = iota
	StateLoading
	StateLoaded
	StateErrored
)

func (s LoadState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateErrored:
		return "errored"
	}
	return "unknown"
}

// LoadTracker drives Presenter visibility through the
// Idle → Loading → {Loaded, Errored} machine. Any state other than Loading
// may re-enter Loading on a new fetch.
//
// The tracker is not safe for concurrent use; the controller funnels all
// calls through its UI apply hook.
type LoadTracker struct {
	p       Presenter
	state   LoadState
	settled bool
}

func NewLoadTracker(p Presenter) *LoadTracker {
	return &LoadTracker{p: p, state: StateIdle, settled: true}
}

// State returns the current state.
func (t *LoadTracker) State() LoadState { return t.state }

// Begin enters Loading: result-dependent UI hides, the in-flight indicator
// shows.
func (t *LoadTracker) Begin() {
	t.state = StateLoading
	t.settled = false
	t.p.SetResultsVisible(false)
	t.p.SetLoadingVisible(true)
}

// Settle hides the in-flight indicator. It runs on every exit path of a fetch
// cycle (call it via defer before consuming the outcome) and is idempotent
// within a cycle, so the indicator is hidden exactly once per settlement no
// matter how the fetch ended.
func (t *LoadTracker) Settle() {
	if t.settled {
		return
	}
	t.settled = true
	t.p.SetLoadingVisible(false)
}

// Finish consumes a fetch outcome and enters Loaded or Errored.
//
// Loaded reveals the result UI, clears any prior error and exposes the first
// and last reading timestamps; an empty result suppresses the timespan
// display instead. Errored hides the result UI and surfaces the failure
// message verbatim. Data already rendered from an earlier success is never
// rolled back here.
func (t *LoadTracker) Finish(out sensor.Outcome) {
	defer t.Settle()
	if out.Failed() {
		t.state = StateErrored
		t.p.SetResultsVisible(false)
		t.p.ShowError(out.Failure)
		return
	}
	t.state = StateLoaded
	t.p.ClearError()
	t.p.SetResultsVisible(true)
	t.p.SetStats(out.ElapsedMs, len(out.Readings))
	if len(out.Readings) == 0 {
		t.p.HideTimespan()
		return
	}
	t.p.SetTimespan(out.Readings[0].Time, out.Readings[len(out.Readings)-1].Time)
}
