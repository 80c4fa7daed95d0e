// Package feature turns raw request records into numeric feature matrices.
package feature

import (
	"math"
	"strings"
	"time"

	"github.com/go-sod/vtml/internal/predictor"
)

// Column order of GPS feature rows.
const (
	ColLatitude = iota
	ColLongitude
	ColSpeed
	ColHour

	GPSWidth
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp accepts ISO-8601 variants. The zone offset is kept; values
// without one are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, predictor.MalformedInput("unable to parse timestamp %q", s)
}

// BuildGPSFeatures returns one [latitude, longitude, speed, hour] row per
// point. A single bad point fails the whole batch.
func BuildGPSFeatures(points []GPSPoint) ([][]float64, error) {
	rows := make([][]float64, len(points))
	for i, p := range points {
		lat, ok := p.Latitude.Value()
		if !ok {
			return nil, predictor.MalformedInput("point %d: latitude is required", i)
		}
		lon, ok := p.Longitude.Value()
		if !ok {
			return nil, predictor.MalformedInput("point %d: longitude is required", i)
		}
		speed, _ := p.Speed.Value()
		heading, _ := p.Heading.Value()
		for _, c := range []struct {
			name  string
			value float64
		}{{"latitude", lat}, {"longitude", lon}, {"speed", speed}, {"heading", heading}} {
			if !finite(c.value) {
				return nil, predictor.MalformedInput("point %d: %s contains NaN or infinity", i, c.name)
			}
		}
		ts, err := ParseTimestamp(p.Timestamp)
		if err != nil {
			return nil, err
		}
		row := make([]float64, GPSWidth)
		row[ColLatitude] = lat
		row[ColLongitude] = lon
		row[ColSpeed] = speed
		row[ColHour] = float64(ts.Hour())
		rows[i] = row
	}
	return rows, nil
}

// RouteCoordinates returns one [latitude, longitude] row per point.
func RouteCoordinates(points []RoutePoint) ([][]float64, error) {
	rows := make([][]float64, len(points))
	for i, p := range points {
		lat, ok := p.Latitude.Value()
		if !ok {
			return nil, predictor.MalformedInput("point %d: 'latitude'", i)
		}
		lon, ok := p.Longitude.Value()
		if !ok {
			return nil, predictor.MalformedInput("point %d: 'longitude'", i)
		}
		if !finite(lat) || !finite(lon) {
			return nil, predictor.MalformedInput("point %d: coordinates contain NaN or infinity", i)
		}
		rows[i] = []float64{lat, lon}
	}
	return rows, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
