package service

import (
	"context"
	"fmt"
	"math"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"airview/src/sensor"
)

// InfluxStore reads station samples out of InfluxDB. Each query aggregates
// into mean windows sized so a response carries on the order of a thousand
// points regardless of span, with a 30s floor matching the stations' sample
// cadence.
type InfluxStore struct {
	client      influxdb2.Client
	org         string
	bucket      string
	measurement string
}

func NewInfluxStore(client influxdb2.Client, org, bucket, measurement string) *InfluxStore {
	return &InfluxStore{client: client, org: org, bucket: bucket, measurement: measurement}
}

// aggregateWindowMs picks the mean-window size for a span.
func aggregateWindowMs(span time.Duration) int64 {
	w := span.Milliseconds() / 1000
	if w < 30000 {
		w = 30000
	}
	return w
}

// fluxRange is the range(...) argument set: "start: -90000ms" for spans,
// "start: 1700000000, stop: 1700000300" for explicit windows.
func (s *InfluxStore) readingsForRange(ctx context.Context, fluxRange string, windowMs int64) ([]sensor.Reading, error) {
	flux := fmt.Sprintf(`
from(bucket: %q)
  |> range(%s)
  |> filter(fn: (r) => r["_measurement"] == %q)
  |> aggregateWindow(every: %dms, fn: mean, createEmpty: false)
  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
  |> sort(columns: ["_time"])`,
		s.bucket, fluxRange, s.measurement, windowMs)

	defer sensor.TimeTrack(time.Now(), fmt.Sprintf("influx query (%s)", fluxRange))
	result, err := s.client.QueryAPI(s.org).Query(ctx, flux)
	if err != nil {
		return nil, err
	}

	var readings []sensor.Reading
	for result.Next() {
		rec := result.Record()
		r := sensor.Reading{Time: rec.Time().UnixMilli()}
		if v, ok := rec.ValueByKey("temperature").(float64); ok {
			r.Temperature = round2(v)
		}
		if v, ok := rec.ValueByKey("humidity").(float64); ok {
			r.Humidity = round2(v)
		}
		if v, ok := rec.ValueByKey("co2").(float64); ok {
			co2 := round2(v)
			r.CO2 = &co2
		}
		readings = append(readings, r)
	}
	if result.Err() != nil {
		return nil, result.Err()
	}
	sensor.Debugf("influx query (%s) returned %d readings", fluxRange, len(readings))
	return readings, nil
}

// ReadingsInSpan returns mean-windowed readings for the trailing span.
func (s *InfluxStore) ReadingsInSpan(ctx context.Context, span time.Duration) ([]sensor.Reading, error) {
	ms := span.Milliseconds()
	return s.readingsForRange(ctx, fmt.Sprintf("start: -%dms", ms), aggregateWindowMs(span))
}

// ReadingsBetween returns mean-windowed readings for [startMs, stopMs].
// Influx ranges take whole seconds here; the stop bound rounds up so the
// window's last sample is never cut off.
func (s *InfluxStore) ReadingsBetween(ctx context.Context, startMs, stopMs int64) ([]sensor.Reading, error) {
	span := time.Duration(stopMs-startMs) * time.Millisecond
	fluxRange := fmt.Sprintf("start: %d, stop: %d", startMs/1000, (stopMs+1000)/1000)
	return s.readingsForRange(ctx, fluxRange, aggregateWindowMs(span))
}

// CurrentCO2 returns the most recent CO2 sample of the past day.
func (s *InfluxStore) CurrentCO2(ctx context.Context) (float64, error) {
	defer sensor.TimeTrack(time.Now(), "influx co2 query")
	flux := fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -24h)
  |> filter(fn: (r) => r["_measurement"] == %q and r["_field"] == "co2")
  |> last()`,
		s.bucket, s.measurement)

	result, err := s.client.QueryAPI(s.org).Query(ctx, flux)
	if err != nil {
		return 0, err
	}
	for result.Next() {
		if v, ok := result.Record().Value().(float64); ok {
			return v, nil
		}
	}
	if result.Err() != nil {
		return 0, result.Err()
	}
	return 0, fmt.Errorf("no co2 samples in the past 24h")
}

// round2 keeps two decimals, matching what the stations can resolve anyway
// and shrinking response bodies noticeably on long spans.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
