package model

import (
	"time"

	"github.com/go-sod/vtml/internal/anomaly"
	"github.com/google/uuid"
)

func NewAlert(vehicleID int64, records []anomaly.Record) Alert {
	return Alert{
		ID:        uuid.New(),
		VehicleID: vehicleID,
		Records:   records,
		CreatedAt: time.Now(),
	}
}

// Alert is a batch of anomalies of one vehicle waiting for delivery.
type Alert struct {
	ID        uuid.UUID        `json:"id"`
	VehicleID int64            `json:"vehicleId"`
	Records   []anomaly.Record `json:"records"`
	CreatedAt time.Time        `json:"createdAt"`
}
