package feature

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/go-sod/vtml/internal/predictor"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		hour int
		err  bool
	}{
		{in: "2024-03-01T10:15:00Z", hour: 10},
		{in: "2024-03-01T10:15:00.123456Z", hour: 10},
		{in: "2024-03-01T23:59:59+05:30", hour: 23},
		{in: "2024-03-01T07:00:00", hour: 7},
		{in: "2024-03-01 18:30:00", hour: 18},
		{in: "2024-03-01 18:30:00.5+02", hour: 18},
		{in: "2024-03-01T04:05", hour: 4},
		{in: "2024-03-01", hour: 0},
		{in: "yesterday", err: true},
		{in: "", err: true},
	}
	for _, test := range tests {
		ts, err := ParseTimestamp(test.in)
		if test.err {
			if !errors.Is(err, predictor.ErrMalformedInput) {
				t.Errorf("ParseTimestamp(%q), expected malformed input, got: %v", test.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimestamp(%q): %v", test.in, err)
			continue
		}
		if ts.Hour() != test.hour {
			t.Errorf("ParseTimestamp(%q) hour, got: %d, expected: %d", test.in, ts.Hour(), test.hour)
		}
	}
}

func TestBuildGPSFeatures(t *testing.T) {
	var points []GPSPoint
	body := `[
		{"vehicle_id": 1, "latitude": 40.1, "longitude": -73.5, "speed": 42.5, "timestamp": "2024-03-01T10:15:00Z"},
		{"vehicle_id": 1, "latitude": "40.2", "longitude": "-73.6", "heading": 90, "timestamp": "2024-03-01T22:00:00+02:00"},
		{"vehicle_id": 1, "latitude": 40.3, "longitude": -73.7, "speed": null, "timestamp": "2024-03-01 05:00:00"}
	]`
	if err := json.Unmarshal([]byte(body), &points); err != nil {
		t.Fatalf("decode: %v", err)
	}
	rows, err := BuildGPSFeatures(points)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	expected := [][]float64{
		{40.1, -73.5, 42.5, 10},
		{40.2, -73.6, 0, 22},
		{40.3, -73.7, 0, 5},
	}
	for i := range expected {
		if len(rows[i]) != GPSWidth {
			t.Fatalf("row %d width, got: %d, expected: %d", i, len(rows[i]), GPSWidth)
		}
		for j := range expected[i] {
			if rows[i][j] != expected[i][j] {
				t.Errorf("row %d col %d, got: %v, expected: %v", i, j, rows[i][j], expected[i][j])
			}
		}
	}
}

func TestBuildGPSFeatures_Malformed(t *testing.T) {
	lat, lon := Float(1), Float(2)
	nan, inf := Float(math.NaN()), Float(math.Inf(1))
	tests := []struct {
		name   string
		points []GPSPoint
	}{
		{
			name: "bad timestamp in the middle",
			points: []GPSPoint{
				{Latitude: &lat, Longitude: &lon, Timestamp: "2024-03-01T10:00:00Z"},
				{Latitude: &lat, Longitude: &lon, Timestamp: "not a date"},
				{Latitude: &lat, Longitude: &lon, Timestamp: "2024-03-01T11:00:00Z"},
			},
		},
		{
			name:   "missing latitude",
			points: []GPSPoint{{Longitude: &lon, Timestamp: "2024-03-01T10:00:00Z"}},
		},
		{
			name:   "missing longitude",
			points: []GPSPoint{{Latitude: &lat, Timestamp: "2024-03-01T10:00:00Z"}},
		},
		{
			name:   "nan latitude",
			points: []GPSPoint{{Latitude: &nan, Longitude: &lon, Timestamp: "2024-03-01T10:00:00Z"}},
		},
		{
			name:   "infinite speed",
			points: []GPSPoint{{Latitude: &lat, Longitude: &lon, Speed: &inf, Timestamp: "2024-03-01T10:00:00Z"}},
		},
		{
			name:   "infinite heading",
			points: []GPSPoint{{Latitude: &lat, Longitude: &lon, Heading: &inf, Timestamp: "2024-03-01T10:00:00Z"}},
		},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			rows, err := BuildGPSFeatures(test.points)
			if !errors.Is(err, predictor.ErrMalformedInput) {
				t.Errorf("expected malformed input, got: %v", err)
			}
			if rows != nil {
				t.Errorf("no partial rows expected, got: %v", rows)
			}
		})
	}
}

func TestFloat_UnmarshalJSON(t *testing.T) {
	var v struct {
		A Float `json:"a"`
	}
	if err := json.Unmarshal([]byte(`{"a": " 12.5 "}`), &v); err != nil || v.A != 12.5 {
		t.Errorf("string number, got: %v, %v", v.A, err)
	}
	if err := json.Unmarshal([]byte(`{"a": "abc"}`), &v); err == nil {
		t.Errorf("expected error for non numeric string")
	}
	if err := json.Unmarshal([]byte(`{"a": true}`), &v); err == nil {
		t.Errorf("expected error for bool")
	}
}

func TestRoutePoint_Passthrough(t *testing.T) {
	body := `[{"latitude": 1.5, "longitude": 2.5, "name": "depot", "extra": {"a": [1, 2]}}, {"longitude": 3}, 7]`
	var points []RoutePoint
	if err := json.Unmarshal([]byte(body), &points); err != nil {
		t.Fatalf("decode: %v", err)
	}
	out, err := json.Marshal(points[0])
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(out) != `{"latitude":1.5,"longitude":2.5,"name":"depot","extra":{"a":[1,2]}}` {
		t.Errorf("passthrough, got: %s", out)
	}

	rows, err := RouteCoordinates(points[:1])
	if err != nil || rows[0][0] != 1.5 || rows[0][1] != 2.5 {
		t.Errorf("coordinates, got: %v, %v", rows, err)
	}
	for _, bad := range points[1:] {
		if _, err := RouteCoordinates([]RoutePoint{bad}); !errors.Is(err, predictor.ErrMalformedInput) {
			t.Errorf("expected malformed input, got: %v", err)
		}
	}
}

func TestRouteCoordinates_NonFinite(t *testing.T) {
	body := `[{"latitude": "NaN", "longitude": 1}, {"latitude": 1, "longitude": "-Inf"}, {"latitude": 1, "longitude": 2}]`
	var points []RoutePoint
	if err := json.Unmarshal([]byte(body), &points); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i, p := range points[:2] {
		if _, err := RouteCoordinates([]RoutePoint{p}); !errors.Is(err, predictor.ErrMalformedInput) {
			t.Errorf("point %d, got: %v, expected: %v", i, err, predictor.ErrMalformedInput)
		}
	}
	if _, err := RouteCoordinates(points[2:]); err != nil {
		t.Errorf("finite point, got: %v, expected: nil", err)
	}
}
