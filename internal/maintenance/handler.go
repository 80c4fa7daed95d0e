package maintenance

import (
	"context"
	"net/http"

	"github.com/go-sod/vtml/internal/feature"
	"github.com/go-sod/vtml/internal/httputil"
)

const stage = "Maintenance prediction"

type request struct {
	VehicleID       *int64         `json:"vehicle_id"`
	Mileage         *feature.Float `json:"mileage"`
	EngineHours     *feature.Float `json:"engine_hours"`
	FuelConsumption *feature.Float `json:"fuel_consumption"`
	LastServiceDate *string        `json:"last_service_date"`
}

func (r request) missing() string {
	switch {
	case r.VehicleID == nil:
		return "vehicle_id"
	case r.Mileage == nil:
		return "mileage"
	case r.EngineHours == nil:
		return "engine_hours"
	case r.FuelConsumption == nil:
		return "fuel_consumption"
	case r.LastServiceDate == nil:
		return "last_service_date"
	}
	return ""
}

func NewHandler(cfg *Config, predictor *Predictor) (http.Handler, error) {
	return &handler{
		cfg:       cfg,
		predictor: predictor,
	}, nil
}

type handler struct {
	cfg       *Config
	predictor *Predictor
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	if r.Method != http.MethodPost {
		httputil.RespMethodNotAllowed(ctx, w, r.Method, http.MethodPost)
		return
	}

	var req request
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return
	}
	if field := req.missing(); field != "" {
		httputil.RespUnprocessable(ctx, w, "%s is required", field)
		return
	}

	res, err := h.predictor.Predict(Request{
		VehicleID:       *req.VehicleID,
		Mileage:         float64(*req.Mileage),
		EngineHours:     float64(*req.EngineHours),
		FuelConsumption: float64(*req.FuelConsumption),
		LastServiceDate: *req.LastServiceDate,
	})
	if err != nil {
		httputil.RespInternalError(ctx, w, stage, err)
		return
	}
	httputil.RespJSON(ctx, w, http.StatusOK, res)
}
