package anomaly

import (
	"context"
	"net/http"

	"github.com/go-sod/vtml/internal/feature"
	"github.com/go-sod/vtml/internal/httputil"
	"github.com/go-sod/vtml/internal/logging"
)

const stage = "Anomaly detection"

type response struct {
	Anomalies    []Record `json:"anomalies"`
	TotalPoints  int      `json:"total_points"`
	AnomalyCount int      `json:"anomaly_count"`
}

func NewHandler(cfg *Config, detector *Detector) (http.Handler, error) {
	return &handler{
		cfg:      cfg,
		detector: detector,
	}, nil
}

type handler struct {
	cfg      *Config
	detector *Detector
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	logger := logging.FromContext(ctx)

	if r.Method != http.MethodPost {
		httputil.RespMethodNotAllowed(ctx, w, r.Method, http.MethodPost)
		return
	}

	var points []feature.GPSPoint
	if err := httputil.DecodeJSON(w, r, &points); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return
	}
	if len(points) > h.cfg.MaxDataItemsLen {
		httputil.RespBadRequest(ctx, w, "data items is too large, max allowed len is %d", h.cfg.MaxDataItemsLen)
		return
	}
	for i, p := range points {
		if field := p.Missing(); field != "" {
			httputil.RespUnprocessable(ctx, w, "point %d: %s is required", i, field)
			return
		}
	}

	res, err := h.detector.Detect(ctx, points)
	if err != nil {
		httputil.RespInternalError(ctx, w, stage, err)
		return
	}
	logger.Debugf("%d points, %d anomalies", len(points), res.AnomalyCount)

	httputil.RespJSON(ctx, w, http.StatusOK, response{
		Anomalies:    res.Anomalies,
		TotalPoints:  len(points),
		AnomalyCount: res.AnomalyCount,
	})
}
