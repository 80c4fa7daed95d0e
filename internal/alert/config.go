package alert

import (
	"encoding/json"
	"time"

	"github.com/go-sod/vtml/internal/httputil"
)

type Config struct {
	AllowAlerts          bool          `envconfig:"VTML_ALLOW_ALERTS" default:"true"`
	Targets              Targets       `envconfig:"VTML_ALERT_TARGETS"`
	Interval             time.Duration `envconfig:"VTML_ALERT_INTERVAL" default:"5s"`
	MaxConcurrentRequest int           `envconfig:"VTML_ALERT_MAX_CONCURRENT_REQUEST" default:"64"`
	RequestTimeout       time.Duration `envconfig:"VTML_ALERT_REQUEST_TIMEOUT" default:"10s"`
	// Pending anomalies kept per vehicle; the oldest are dropped beyond it
	MaxPending int `envconfig:"VTML_ALERT_MAX_PENDING" default:"1000"`
}

type Targets []Target

func (ts *Targets) Decode(value string) error {
	targets := []Target{}
	if err := json.Unmarshal([]byte(value), &targets); err != nil {
		return err
	}
	*ts = targets
	return nil
}

// Target is a webhook. An empty VehicleIDs list subscribes to every vehicle.
type Target struct {
	URL        string                    `json:"url"`
	VehicleIDs []int64                   `json:"vehicleIds"`
	HTTPConfig httputil.HTTPClientConfig `json:"httpConfig"`
}

func (t Target) Accepts(vehicleID int64) bool {
	if len(t.VehicleIDs) == 0 {
		return true
	}
	for _, id := range t.VehicleIDs {
		if id == vehicleID {
			return true
		}
	}
	return false
}
