package maintenance

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

const (
	FieldMileage         = "mileage"
	FieldEngineHours     = "engine_hours"
	FieldFuelConsumption = "fuel_consumption"
)

// Rule fires when the request field is strictly greater than Threshold.
type Rule struct {
	Field     string  `toml:"field"`
	Threshold float64 `toml:"threshold"`
	Type      string  `toml:"type"`
	Urgency   string  `toml:"urgency"`
	Message   string  `toml:"message"`
}

type Rules struct {
	Rules               []Rule   `toml:"rule"`
	ServiceIntervalDays int      `toml:"service_interval_days"`
	Recommendations     []string `toml:"recommendations"`
}

func DefaultRules() Rules {
	return Rules{
		Rules: []Rule{
			{
				Field:     FieldMileage,
				Threshold: 10000,
				Type:      "mileage_service",
				Urgency:   "high",
				Message:   "Vehicle due for mileage-based service",
			},
			{
				Field:     FieldEngineHours,
				Threshold: 500,
				Type:      "engine_service",
				Urgency:   "medium",
				Message:   "Engine hours service recommended",
			},
		},
		ServiceIntervalDays: 90,
		Recommendations: []string{
			"Check oil levels",
			"Inspect brakes",
			"Verify tire pressure",
		},
	}
}

// LoadRules reads a rule table from a TOML file. Keys missing from the file
// keep their default values.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}
	var file Rules
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return Rules{}, fmt.Errorf("decode rules file %s: %w", path, err)
	}
	if md.IsDefined("rule") {
		rules.Rules = file.Rules
	}
	if md.IsDefined("service_interval_days") {
		rules.ServiceIntervalDays = file.ServiceIntervalDays
	}
	if md.IsDefined("recommendations") {
		rules.Recommendations = file.Recommendations
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, fmt.Errorf("rules file %s: %w", path, err)
	}
	return rules, nil
}

func (r Rules) Validate() error {
	if r.ServiceIntervalDays <= 0 {
		return fmt.Errorf("service_interval_days must be positive, got %d", r.ServiceIntervalDays)
	}
	for i, rule := range r.Rules {
		switch rule.Field {
		case FieldMileage, FieldEngineHours, FieldFuelConsumption:
		default:
			return fmt.Errorf("rule %d: unknown field %q", i, rule.Field)
		}
		if rule.Type == "" {
			return fmt.Errorf("rule %d: type is required", i)
		}
	}
	return nil
}
