package route

import (
	"context"
	"net/http"

	"github.com/go-sod/vtml/internal/feature"
	"github.com/go-sod/vtml/internal/httputil"
)

const (
	stage = "Route optimization"

	EstimatedSavings    = "15-20%"
	InsufficientMessage = "Insufficient data for optimization"
)

type request struct {
	VehicleID *int64               `json:"vehicle_id"`
	Points    []feature.RoutePoint `json:"points"`
}

func (r request) missing() string {
	switch {
	case r.VehicleID == nil:
		return "vehicle_id"
	case r.Points == nil:
		return "points"
	}
	return ""
}

type response struct {
	OriginalPoints   int                  `json:"original_points"`
	OptimizedRoute   []feature.RoutePoint `json:"optimized_route"`
	EstimatedSavings string               `json:"estimated_savings"`
	Clusters         int                  `json:"clusters"`
}

type insufficientResponse struct {
	OptimizedRoute []feature.RoutePoint `json:"optimized_route"`
	Message        string               `json:"message"`
}

func NewHandler(cfg *Config, clusterer *Clusterer) (http.Handler, error) {
	return &handler{
		cfg:       cfg,
		clusterer: clusterer,
	}, nil
}

type handler struct {
	cfg       *Config
	clusterer *Clusterer
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
	if len(req.Points) > h.cfg.MaxDataItemsLen {
		httputil.RespBadRequest(ctx, w, "data items is too large, max allowed len is %d", h.cfg.MaxDataItemsLen)
		return
	}

	res, err := h.clusterer.Optimize(ctx, req.Points)
	if err != nil {
		httputil.RespInternalError(ctx, w, stage, err)
		return
	}
	if res.Insufficient {
		httputil.RespJSON(ctx, w, http.StatusOK, insufficientResponse{
			OptimizedRoute: res.OptimizedRoute,
			Message:        InsufficientMessage,
		})
		return
	}
	httputil.RespJSON(ctx, w, http.StatusOK, response{
		OriginalPoints:   len(req.Points),
		OptimizedRoute:   res.OptimizedRoute,
		EstimatedSavings: EstimatedSavings,
		Clusters:         res.Clusters,
	})
}
