package anomaly

import "time"

type Config struct {
	RequestTimeout time.Duration `envconfig:"VTML_ANOMALY_REQUEST_TIMEOUT" default:"30s"`
	// Batches smaller than this are never fitted
	MinPoints       int `envconfig:"VTML_ANOMALY_MIN_POINTS" default:"11"`
	MaxDataItemsLen int `envconfig:"VTML_ANOMALY_MAX_POINTS" default:"100000"`
}
