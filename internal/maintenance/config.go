package maintenance

import "time"

type Config struct {
	RequestTimeout time.Duration `envconfig:"VTML_MAINTENANCE_REQUEST_TIMEOUT" default:"10s"`
	// Optional TOML file replacing the built-in rule table
	RulesFile string `envconfig:"VTML_MAINTENANCE_RULES_FILE"`
}
