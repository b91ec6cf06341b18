package main

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	png "image/png"
	"math"
	"strings"
	"time"

	fyne "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"airview/src/derive"
	"airview/src/view"
)

// Approximate horizontal gutter (axis labels + padding) used when converting
// gesture pixels to time. It only has to be close; the fetch window is what
// matters and small errors just shift the pan slightly.
const plotGutterPx = 70

// minViewportSpanMs stops zooming in past a 10 second window.
const minViewportSpanMs = 10_000

// chartPanel renders the visible window of every dataset slot with go-chart
// and owns the time viewport. Dragging pans, scrolling zooms about the
// cursor; when a gesture completes the panel fires its callbacks so the
// controller can refetch for the new window.
//
// The panel implements view.Chart. All methods run on the Fyne event loop;
// the controller funnels its mutations through fyne.Do.
type chartPanel struct {
	widget.BaseWidget

	img      *canvas.Image
	lastSize fyne.Size

	slots []view.DatasetSlot
	data  [][]derive.Point

	minMs, maxMs float64
	dragging     bool
	showHints    bool

	onPanEnd func()
	onZoom   func()
}

func newChartPanel() *chartPanel {
	p := &chartPanel{img: canvas.NewImageFromImage(blank(800, 420))}
	p.img.FillMode = canvas.ImageFillStretch
	p.ExtendBaseWidget(p)
	return p
}

var _ view.Chart = (*chartPanel)(nil)
var _ fyne.Draggable = (*chartPanel)(nil)
var _ fyne.Scrollable = (*chartPanel)(nil)

// --- view.Chart ---

func (p *chartPanel) DatasetCount() int { return len(p.slots) }

func (p *chartPanel) InsertDataset(slot view.DatasetSlot, points []derive.Point) {
	p.slots = append(p.slots, slot)
	p.data = append(p.data, points)
}

func (p *chartPanel) SetDatasetPoints(index int, points []derive.Point) {
	if index < 0 || index >= len(p.data) {
		return
	}
	p.data[index] = points
}

func (p *chartPanel) Viewport() (minMs, maxMs float64) { return p.minMs, p.maxMs }

// ResetViewport fits the viewport to the full extent of the current data,
// with a small margin so edge points don't sit on the plot border.
func (p *chartPanel) ResetViewport() {
	lo := math.MaxFloat64
	hi := -math.MaxFloat64
	for _, pts := range p.data {
		for _, pt := range pts {
			t := float64(pt.Time)
			if t < lo {
				lo = t
			}
			if t > hi {
				hi = t
			}
		}
	}
	if hi <= lo {
		return
	}
	pad := (hi - lo) * 0.02
	if pad < 1000 {
		pad = 1000
	}
	p.minMs = lo - pad
	p.maxMs = hi + pad
	p.renderNow()
}

// Redraw repaints the panel. go-chart produces a fresh static image, so the
// redraw is inherently animation-free.
func (p *chartPanel) Redraw() { p.renderNow() }

// --- gestures ---

func (p *chartPanel) plotWidth() float64 {
	w := float64(p.lastSize.Width) - plotGutterPx
	if w < 1 {
		return 0
	}
	return w
}

func (p *chartPanel) Dragged(e *fyne.DragEvent) {
	span := p.maxMs - p.minMs
	plotW := p.plotWidth()
	if span <= 0 || plotW <= 0 {
		return
	}
	p.minMs, p.maxMs = panWindow(p.minMs, p.maxMs, plotW, float64(e.Dragged.DX))
	p.dragging = true
	p.renderNow()
}

// panWindow shifts the window left or right by dx gesture pixels. Dragging
// right (positive dx) moves the window into the past.
func panWindow(minMs, maxMs, plotW, dx float64) (float64, float64) {
	dMs := dx * (maxMs - minMs) / plotW
	return minMs - dMs, maxMs - dMs
}

// zoomWindow scales the window span by factor, anchored so the time at
// fraction frac (0 = left edge, 1 = right edge) stays put.
func zoomWindow(minMs, maxMs, frac, factor float64) (float64, float64) {
	span := maxMs - minMs
	newSpan := span * factor
	if newSpan < minViewportSpanMs {
		newSpan = minViewportSpanMs
	}
	anchor := minMs + frac*span
	newMin := anchor - frac*newSpan
	return newMin, newMin + newSpan
}

func (p *chartPanel) DragEnd() {
	if !p.dragging {
		return
	}
	p.dragging = false
	if p.onPanEnd != nil {
		p.onPanEnd()
	}
}

func (p *chartPanel) Scrolled(e *fyne.ScrollEvent) {
	span := p.maxMs - p.minMs
	plotW := p.plotWidth()
	if span <= 0 || plotW <= 0 {
		return
	}
	factor := 1.25
	if e.Scrolled.DY > 0 {
		factor = 0.8
	}
	// Anchor the zoom at the cursor's time position so the point under the
	// pointer stays put.
	frac := (float64(e.Position.X) - plotGutterPx/2) / plotW
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	p.minMs, p.maxMs = zoomWindow(p.minMs, p.maxMs, frac, factor)
	p.renderNow()
	if p.onZoom != nil {
		p.onZoom()
	}
}

// --- rendering ---

func (p *chartPanel) renderNow() {
	w := int(p.lastSize.Width)
	h := int(p.lastSize.Height)
	if w < 100 {
		w = 800
	}
	if h < 100 {
		h = 420
	}
	p.img.Image = p.render(w, h)
	p.img.Refresh()
}

func (p *chartPanel) render(w, h int) image.Image {
	if len(p.slots) == 0 || p.maxMs <= p.minMs {
		return drawHint(blank(w, h), "Waiting for data.")
	}

	var climate, co2 []int // slot indexes per sub-plot
	for i, slot := range p.slots {
		if slot.AxisID == "ppm" {
			co2 = append(co2, i)
		} else {
			climate = append(climate, i)
		}
	}
	co2Visible := false
	for _, i := range co2 {
		if len(clipToWindow(p.data[i], p.minMs, p.maxMs)) > 0 {
			co2Visible = true
		}
	}

	hClimate := h
	if co2Visible {
		hClimate = h * 62 / 100
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	top := p.renderSubChart(climate, w, hClimate, true)
	draw.Draw(out, image.Rect(0, 0, w, hClimate), top, image.Point{}, draw.Src)
	if co2Visible {
		bottom := p.renderSubChart(co2, w, h-hClimate, false)
		draw.Draw(out, image.Rect(0, hClimate, w, h), bottom, image.Point{}, draw.Src)
	}
	if p.showHints {
		return drawHint(out, "Hint: drag to pan, scroll to zoom, Reset Zoom to refit.")
	}
	return out
}

// renderSubChart renders the slots' visible windows into one chart image.
// Slots on the "percent" axis go to the secondary Y axis; everything else
// shares the primary.
func (p *chartPanel) renderSubChart(indexes []int, w, h int, legend bool) image.Image {
	minT := msToTime(p.minMs)
	maxT := msToTime(p.maxMs)

	var series []chart.Series
	priMin, priMax := math.MaxFloat64, -math.MaxFloat64
	secMin, secMax := math.MaxFloat64, -math.MaxFloat64
	for _, i := range indexes {
		pts := clipToWindow(p.data[i], p.minMs, p.maxMs)
		if len(pts) == 0 {
			continue
		}
		secondary := p.slots[i].AxisID == "percent"
		for _, pt := range pts {
			if secondary {
				secMin = math.Min(secMin, pt.Value)
				secMax = math.Max(secMax, pt.Value)
			} else {
				priMin = math.Min(priMin, pt.Value)
				priMax = math.Max(priMax, pt.Value)
			}
		}
		series = append(series, slotSeries(p.slots[i], pts, secondary))
	}
	if len(series) == 0 {
		return drawHint(blank(w, h), "No readings in this window.")
	}

	ch := chart.Chart{
		Width:  w,
		Height: h,
		Background: chart.Style{
			Padding: chart.Box{Top: 12, Left: 12, Right: 12, Bottom: 24},
		},
		XAxis: chart.XAxis{
			Ticks: timeTicksForWindow(minT, maxT),
			Range: &chart.ContinuousRange{
				Min: chart.TimeToFloat64(minT),
				Max: chart.TimeToFloat64(maxT),
			},
		},
		Series: series,
	}
	if priMin != math.MaxFloat64 {
		lo, hi := niceAxisBounds(priMin, priMax)
		ch.YAxis = chart.YAxis{
			Range:          &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: axisValueFormatter,
		}
	}
	if secMin != math.MaxFloat64 {
		lo, hi := niceAxisBounds(secMin, secMax)
		ch.YAxisSecondary = chart.YAxis{
			Range:          &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: axisValueFormatter,
		}
	}
	if legend {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		// Blank fallback keeps the UI visibly updating on render edge cases.
		return drawHint(blank(w, h), err.Error())
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return blank(w, h)
	}
	return img
}

func slotSeries(slot view.DatasetSlot, pts []derive.Point, secondary bool) chart.TimeSeries {
	xs := make([]time.Time, len(pts))
	ys := make([]float64, len(pts))
	for i, pt := range pts {
		xs[i] = time.UnixMilli(pt.Time)
		ys[i] = pt.Value
	}
	// go-chart needs at least two X values per series.
	if len(xs) == 1 {
		xs = append(xs, xs[0].Add(time.Second))
		ys = append(ys, ys[0])
	}
	return chart.TimeSeries{
		Name:    slot.Label,
		XValues: xs,
		YValues: ys,
		Style: chart.Style{
			StrokeColor: colorFromHex(slot.Color),
			StrokeWidth: 1.6,
		},
		YAxis: axisFor(secondary),
	}
}

func axisFor(secondary bool) chart.YAxisType {
	if secondary {
		return chart.YAxisSecondary
	}
	return chart.YAxisPrimary
}

// clipToWindow keeps the points inside [minMs, maxMs] plus one neighbor on
// each side so lines keep running to the plot edge.
func clipToWindow(pts []derive.Point, minMs, maxMs float64) []derive.Point {
	first := -1
	last := -1
	for i, pt := range pts {
		t := float64(pt.Time)
		if t < minMs {
			first = i
			continue
		}
		if t > maxMs {
			last = i
			break
		}
	}
	start := 0
	if first >= 0 {
		start = first
	}
	end := len(pts)
	if last >= 0 {
		end = last + 1
	}
	if start >= end {
		return nil
	}
	return pts[start:end]
}

func msToTime(ms float64) time.Time {
	return time.Unix(0, int64(ms*float64(time.Millisecond)))
}

func colorFromHex(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

// blank returns a subtle dark placeholder image.
func blank(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 18, G: 18, B: 18, A: 255})
		}
	}
	return img
}

// --- renderer ---

func (p *chartPanel) CreateRenderer() fyne.WidgetRenderer {
	return &chartPanelRenderer{p: p, objs: []fyne.CanvasObject{p.img}}
}

type chartPanelRenderer struct {
	p    *chartPanel
	objs []fyne.CanvasObject
}

func (r *chartPanelRenderer) Destroy() {}

func (r *chartPanelRenderer) Layout(size fyne.Size) {
	r.p.img.Resize(size)
	if size != r.p.lastSize {
		r.p.lastSize = size
		r.p.renderNow()
	}
}

func (r *chartPanelRenderer) MinSize() fyne.Size { return fyne.NewSize(800, 420) }

func (r *chartPanelRenderer) Objects() []fyne.CanvasObject { return r.objs }

func (r *chartPanelRenderer) Refresh() { r.p.img.Refresh() }
