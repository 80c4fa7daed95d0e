package stream

import "time"

type Config struct {
	Enabled bool `envconfig:"VTML_STREAM_ENABLED" default:"true"`
	// Messages buffered per subscriber before new ones are dropped
	Buffer       int           `envconfig:"VTML_STREAM_BUFFER" default:"64"`
	WriteTimeout time.Duration `envconfig:"VTML_STREAM_WRITE_TIMEOUT" default:"5s"`
}
