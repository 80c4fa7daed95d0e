package integration

import "encoding/json"

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type AnomalyResponse struct {
	Anomalies    []json.RawMessage `json:"anomalies"`
	TotalPoints  int               `json:"total_points"`
	AnomalyCount int               `json:"anomaly_count"`
}

type RouteResponse struct {
	OriginalPoints   int               `json:"original_points"`
	OptimizedRoute   []json.RawMessage `json:"optimized_route"`
	EstimatedSavings string            `json:"estimated_savings"`
	Clusters         int               `json:"clusters"`
	Message          string            `json:"message"`
}

type MaintenanceResponse struct {
	VehicleID   int64 `json:"vehicle_id"`
	Predictions []struct {
		Type    string `json:"type"`
		Urgency string `json:"urgency"`
		Message string `json:"message"`
	} `json:"predictions"`
	NextServiceDate string   `json:"next_service_date"`
	Recommendations []string `json:"recommendations"`
}
