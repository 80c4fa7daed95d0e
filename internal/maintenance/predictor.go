// Package maintenance predicts service needs from a static threshold table.
package maintenance

import (
	"strings"
	"time"

	"github.com/go-sod/vtml/internal/predictor"
)

type Request struct {
	VehicleID       int64
	Mileage         float64
	EngineHours     float64
	FuelConsumption float64
	LastServiceDate string
}

type Prediction struct {
	Type    string `json:"type"`
	Urgency string `json:"urgency"`
	Message string `json:"message"`
}

type Result struct {
	VehicleID       int64        `json:"vehicle_id"`
	Predictions     []Prediction `json:"predictions"`
	NextServiceDate string       `json:"next_service_date"`
	Recommendations []string     `json:"recommendations"`
}

func NewPredictor(rules Rules) *Predictor {
	return &Predictor{rules: rules}
}

type Predictor struct {
	rules Rules
}

func (p *Predictor) Predict(req Request) (*Result, error) {
	last, zoned, err := parseServiceDate(req.LastServiceDate)
	if err != nil {
		return nil, err
	}

	res := &Result{
		VehicleID:       req.VehicleID,
		Predictions:     []Prediction{},
		Recommendations: append([]string{}, p.rules.Recommendations...),
	}
	for _, rule := range p.rules.Rules {
		if value(req, rule.Field) > rule.Threshold {
			res.Predictions = append(res.Predictions, Prediction{
				Type:    rule.Type,
				Urgency: rule.Urgency,
				Message: rule.Message,
			})
		}
	}
	next := last.Add(time.Duration(p.rules.ServiceIntervalDays) * 24 * time.Hour)
	res.NextServiceDate = formatISO(next, zoned)
	return res, nil
}

func value(req Request, field string) float64 {
	switch field {
	case FieldMileage:
		return req.Mileage
	case FieldEngineHours:
		return req.EngineHours
	case FieldFuelConsumption:
		return req.FuelConsumption
	default:
		return 0
	}
}

var (
	zonedLayouts = []string{
		"2006-01-02T15:04:05.999999999Z07:00",
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02T15:04Z07:00",
	}
	naiveLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04",
		"2006-01-02",
	}
)

// parseServiceDate reports whether the value carried a zone; a trailing Z
// counts as +00:00.
func parseServiceDate(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, false, nil
		}
	}
	return time.Time{}, false, predictor.MalformedInput("Invalid isoformat string: %q", s)
}

// formatISO renders seconds always, microseconds only when set, and the
// numeric offset only for zoned values.
func formatISO(t time.Time, zoned bool) string {
	layout := "2006-01-02T15:04:05"
	if t.Nanosecond() != 0 {
		layout += ".000000"
	}
	if zoned {
		layout += "-07:00"
	}
	return t.Format(layout)
}
