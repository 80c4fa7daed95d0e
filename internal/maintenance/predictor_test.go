package maintenance

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-sod/vtml/internal/predictor"
)

func TestPredict(t *testing.T) {
	tests := []struct {
		name        string
		req         Request
		types       []string
		urgencies   []string
		nextService string
	}{
		{
			name:        "mileage only",
			req:         Request{VehicleID: 1, Mileage: 12000, EngineHours: 100, LastServiceDate: "2024-01-01T00:00:00Z"},
			types:       []string{"mileage_service"},
			urgencies:   []string{"high"},
			nextService: "2024-03-31T00:00:00+00:00",
		},
		{
			name:        "both",
			req:         Request{VehicleID: 2, Mileage: 10001, EngineHours: 501, LastServiceDate: "2024-06-15T08:30:00+02:00"},
			types:       []string{"mileage_service", "engine_service"},
			urgencies:   []string{"high", "medium"},
			nextService: "2024-09-13T08:30:00+02:00",
		},
		{
			name:        "thresholds are strict",
			req:         Request{VehicleID: 3, Mileage: 10000, EngineHours: 500, LastServiceDate: "2024-01-01"},
			nextService: "2024-03-31T00:00:00",
		},
		{
			name:        "microseconds kept",
			req:         Request{VehicleID: 4, LastServiceDate: "2024-01-01T10:00:00.25"},
			nextService: "2024-03-31T10:00:00.250000",
		},
	}
	p := NewPredictor(DefaultRules())
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			res, err := p.Predict(test.req)
			if err != nil {
				t.Fatalf("predict: %v", err)
			}
			if len(res.Predictions) != len(test.types) {
				t.Fatalf("predictions, got: %v, expected types: %v", res.Predictions, test.types)
			}
			for i := range test.types {
				if res.Predictions[i].Type != test.types[i] || res.Predictions[i].Urgency != test.urgencies[i] {
					t.Errorf("prediction %d, got: %+v, expected: %s/%s", i, res.Predictions[i], test.types[i], test.urgencies[i])
				}
			}
			if res.NextServiceDate != test.nextService {
				t.Errorf("next service date, got: %s, expected: %s", res.NextServiceDate, test.nextService)
			}
			if res.VehicleID != test.req.VehicleID {
				t.Errorf("vehicle id, got: %d, expected: %d", res.VehicleID, test.req.VehicleID)
			}
			if len(res.Recommendations) != 3 {
				t.Errorf("recommendations, got: %v", res.Recommendations)
			}
		})
	}
}

func TestPredict_BadDate(t *testing.T) {
	_, err := NewPredictor(DefaultRules()).Predict(Request{LastServiceDate: "last tuesday"})
	if !errors.Is(err, predictor.ErrMalformedInput) {
		t.Errorf("expected malformed input, got: %v", err)
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.toml")
	content := `
service_interval_days = 30

[[rule]]
field = "fuel_consumption"
threshold = 12.5
type = "fuel_system_check"
urgency = "low"
message = "Fuel consumption above normal"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rules.ServiceIntervalDays != 30 || len(rules.Rules) != 1 {
		t.Fatalf("rules, got: %+v", rules)
	}
	if len(rules.Recommendations) != 3 {
		t.Errorf("recommendations must keep defaults, got: %v", rules.Recommendations)
	}

	res, err := NewPredictor(rules).Predict(Request{FuelConsumption: 13, Mileage: 50000, LastServiceDate: "2024-01-01T00:00:00Z"})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(res.Predictions) != 1 || res.Predictions[0].Type != "fuel_system_check" {
		t.Errorf("predictions, got: %+v", res.Predictions)
	}
	if res.NextServiceDate != "2024-01-31T00:00:00+00:00" {
		t.Errorf("next service date, got: %s", res.NextServiceDate)
	}
}

func TestLoadRules_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "syntax", content: `service_interval_days = `},
		{name: "unknown field", content: "[[rule]]\nfield = \"tyres\"\ntype = \"x\"\n"},
		{name: "interval", content: `service_interval_days = 0`},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "rules.toml")
			if err := os.WriteFile(path, []byte(test.content), 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := LoadRules(path); err == nil {
				t.Errorf("expected error")
			}
		})
	}
	if _, err := LoadRules(""); err != nil {
		t.Errorf("empty path must return defaults, got: %v", err)
	}
}
