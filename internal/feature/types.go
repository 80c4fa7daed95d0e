package feature

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Float accepts both JSON numbers and numeric strings, the way NUMERIC
// columns arrive from the tracking database.
type Float float64

func (f *Float) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", s)
		}
		*f = Float(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

func (f *Float) Value() (float64, bool) {
	if f == nil {
		return 0, false
	}
	return float64(*f), true
}

// GPSPoint is a single vehicle position report.
type GPSPoint struct {
	VehicleID int64  `json:"vehicle_id"`
	Latitude  *Float `json:"latitude"`
	Longitude *Float `json:"longitude"`
	Speed     *Float `json:"speed"`
	Heading   *Float `json:"heading"`
	Timestamp string `json:"timestamp"`

	hasVehicleID bool
	hasTimestamp bool
}

func (p *GPSPoint) UnmarshalJSON(b []byte) error {
	type plain GPSPoint
	aux := struct {
		*plain
		VehicleID *int64  `json:"vehicle_id"`
		Timestamp *string `json:"timestamp"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.VehicleID != nil {
		p.VehicleID, p.hasVehicleID = *aux.VehicleID, true
	}
	if aux.Timestamp != nil {
		p.Timestamp, p.hasTimestamp = *aux.Timestamp, true
	}
	return nil
}

// Missing names the first required field absent from a decoded point, or
// returns "" when the point is complete.
func (p GPSPoint) Missing() string {
	switch {
	case !p.hasVehicleID:
		return "vehicle_id"
	case p.Latitude == nil:
		return "latitude"
	case p.Longitude == nil:
		return "longitude"
	case !p.hasTimestamp:
		return "timestamp"
	}
	return ""
}

// RoutePoint keeps the raw JSON of a route point so that it can be echoed back
// untouched; only the coordinates are decoded.
type RoutePoint struct {
	raw       json.RawMessage
	Latitude  *Float
	Longitude *Float
}

func NewRoutePoint(lat, lon float64) RoutePoint {
	la, lo := Float(lat), Float(lon)
	raw, _ := json.Marshal(map[string]float64{"latitude": lat, "longitude": lon})
	return RoutePoint{raw: raw, Latitude: &la, Longitude: &lo}
}

func (p *RoutePoint) UnmarshalJSON(b []byte) error {
	p.raw = append(p.raw[:0], b...)
	var coords struct {
		Latitude  *Float `json:"latitude"`
		Longitude *Float `json:"longitude"`
	}
	// a point that is not an object or carries bad coordinates is kept raw and
	// rejected later as malformed
	if err := json.Unmarshal(b, &coords); err == nil {
		p.Latitude = coords.Latitude
		p.Longitude = coords.Longitude
	}
	return nil
}

func (p RoutePoint) MarshalJSON() ([]byte, error) {
	if len(p.raw) == 0 {
		return []byte("null"), nil
	}
	return p.raw, nil
}
