package database

import "time"

type Config struct {
	FileName    string        `envconfig:"VTML_BOLT_FILE" default:"data/vtml.db"`
	OpenTimeout time.Duration `envconfig:"VTML_BOLT_OPEN_TIMEOUT" default:"1s"`
}
