package main

import (
	"fmt"
	"math"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
)

// pickTimeStep maps the visible span to a tick step and label format, so the
// axis stays readable from minute-level zooms out to multi-week presets.
func pickTimeStep(span time.Duration) (time.Duration, string) {
	switch {
	case span <= 2*time.Minute:
		return 10 * time.Second, "15:04:05"
	case span <= 10*time.Minute:
		return 1 * time.Minute, "15:04"
	case span <= 30*time.Minute:
		return 5 * time.Minute, "15:04"
	case span <= 2*time.Hour:
		return 10 * time.Minute, "15:04"
	case span <= 6*time.Hour:
		return 30 * time.Minute, "Jan 2 15:04"
	case span <= 24*time.Hour:
		return 1 * time.Hour, "Jan 2 15:04"
	case span <= 3*24*time.Hour:
		return 6 * time.Hour, "Jan 2 15:04"
	case span <= 14*24*time.Hour:
		return 1 * 24 * time.Hour, "Jan 2"
	default:
		return 7 * 24 * time.Hour, "Jan 2"
	}
}

// makeTimeTicks returns rounded ticks between min and max at the given step.
// Alignment happens in UTC to avoid DST anomalies; labels render local.
func makeTimeTicks(minT, maxT time.Time, step time.Duration, labelFmt string) []chart.Tick {
	if step <= 0 {
		return nil
	}
	st := int64(step.Seconds())
	if st <= 0 {
		st = 1
	}
	aligned := time.Unix((minT.UTC().Unix()/st)*st, 0).UTC()
	ticks := []chart.Tick{}
	for t := aligned; !t.After(maxT.UTC().Add(step)); t = t.Add(step) {
		ticks = append(ticks, chart.Tick{Value: chart.TimeToFloat64(t), Label: t.Local().Format(labelFmt)})
		if len(ticks) > 20 { // keep it readable
			break
		}
	}
	return ticks
}

// timeTicksForWindow combines the two helpers for a viewport window.
func timeTicksForWindow(minT, maxT time.Time) []chart.Tick {
	step, labelFmt := pickTimeStep(maxT.Sub(minT))
	return makeTimeTicks(minT, maxT, step, labelFmt)
}

// niceAxisBounds expands [min,max] by a small margin and rounds to "nice"
// numbers for readability.
func niceAxisBounds(min, max float64) (float64, float64) {
	if math.IsNaN(min) || math.IsNaN(max) {
		return min, max
	}
	if max <= min {
		max = min + 1
	}
	span := max - min
	// 5% margin on both sides
	pad := span * 0.05
	if pad <= 0 {
		pad = 1
	}
	a := min - pad
	b := max + pad
	mag := math.Pow(10, math.Floor(math.Log10(span)))
	if !math.IsInf(mag, 0) && mag > 0 {
		a = math.Floor(a/mag) * mag
		b = math.Ceil(b/mag) * mag
	}
	return a, b
}

func formatValue(v float64) string {
	av := math.Abs(v)
	switch {
	case av >= 1000:
		return fmt.Sprintf("%.0f", v)
	case av >= 10:
		return fmt.Sprintf("%.1f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// axisValueFormatter adapts formatValue to go-chart's formatter signature for
// Y-axis tick labels.
func axisValueFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return formatValue(f)
	}
	return ""
}
