package route

import "time"

type Config struct {
	RequestTimeout time.Duration `envconfig:"VTML_ROUTE_REQUEST_TIMEOUT" default:"30s"`
	// Routes shorter than this are returned untouched
	MinPoints       int `envconfig:"VTML_ROUTE_MIN_POINTS" default:"5"`
	MaxDataItemsLen int `envconfig:"VTML_ROUTE_MAX_POINTS" default:"100000"`
}
