// Package derive turns raw station readings into the plotted quantities:
// identity projections for temperature and humidity, absolute humidity
// computed from the two, and an optional CO2 series for stations that carry
// the sensor. Everything here is pure computation; the fetch and chart layers
// live elsewhere.
package derive

import (
	"math"

	"airview/src/sensor"
)

// Point is one derived sample: a timestamp in epoch milliseconds and the
// metric's value at that instant.
type Point struct {
	Time  int64
	Value float64
}

// Series is one metric's ordered point sequence over a fetched range. Series
// are regenerated wholesale on every fetch; there is no incremental patching.
type Series []Point

// Options configures derivation.
type Options struct {
	// CO2ZeroMeansAbsent treats a reported value of exactly 0 ppm as "no
	// sensor attached" rather than a true reading of 0. Deployments with
	// stations that report 0 while warming up want this on.
	CO2ZeroMeansAbsent bool
}

// DerivedPoints is the per-reading derivation result. CO2 is nil when the
// reading carries no usable CO2 value.
type DerivedPoints struct {
	Temp        Point
	Humidity    Point
	AbsHumidity Point
	CO2         *Point
}

// DerivedSeries holds one series per tracked metric for a fetched range.
// Series lengths are independent: the CO2 series only contains points for
// readings that carried a CO2 value and may be shorter than the others.
type DerivedSeries struct {
	Temp        Series
	Humidity    Series
	AbsHumidity Series
	CO2         Series
}

// AbsoluteHumidity computes grams of water per cubic meter of air from
// temperature (°C) and relative humidity (%RH, 0-100), using the Buck
// approximation for saturation vapor pressure.
//
// The formula divides by tempC and by (257.14 + tempC), so it is undefined at
// exactly 0°C and -257.14°C; callers get a non-finite result there rather
// than an error. Below 0°C the division by tempC flips the sign, so subzero
// temperatures with humidity above zero yield a negative density; the result
// is only physically meaningful above freezing. Inputs are otherwise trusted
// as delivered by the service.
func AbsoluteHumidity(tempC, relHumidity float64) float64 {
	t1 := tempC / 234.5
	t2 := tempC / (257.14 + tempC)
	saturationPressure := 0.61121 * math.Exp((18.678-t1)*t2)
	vaporPressure := saturationPressure * (relHumidity / 100)
	molarDensity := vaporPressure / (461.5 * tempC)
	return molarDensity * 18.02 * 1000
}

// Derive maps one reading to its plotted points.
func Derive(r sensor.Reading, opt Options) DerivedPoints {
	d := DerivedPoints{
		Temp:        Point{Time: r.Time, Value: r.Temperature},
		Humidity:    Point{Time: r.Time, Value: r.Humidity},
		AbsHumidity: Point{Time: r.Time, Value: AbsoluteHumidity(r.Temperature, r.Humidity)},
	}
	if r.CO2 != nil && !(opt.CO2ZeroMeansAbsent && *r.CO2 == 0) {
		d.CO2 = &Point{Time: r.Time, Value: *r.CO2}
	}
	return d
}

// DeriveSeries maps an ordered reading sequence to per-metric series.
func DeriveSeries(readings []sensor.Reading, opt Options) DerivedSeries {
	ds := DerivedSeries{
		Temp:        make(Series, 0, len(readings)),
		Humidity:    make(Series, 0, len(readings)),
		AbsHumidity: make(Series, 0, len(readings)),
	}
	for _, r := range readings {
		d := Derive(r, opt)
		ds.Temp = append(ds.Temp, d.Temp)
		ds.Humidity = append(ds.Humidity, d.Humidity)
		ds.AbsHumidity = append(ds.AbsHumidity, d.AbsHumidity)
		if d.CO2 != nil {
			ds.CO2 = append(ds.CO2, *d.CO2)
		}
	}
	return ds
}
