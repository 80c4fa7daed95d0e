package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-sod/vtml/internal/httputil"
)

const (
	StatusHealthy = "healthy"
	ServiceName   = "Vehicle Tracking ML Service"

	timestampLayout = "2006-01-02T15:04:05.000000"
)

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type rootResponse struct {
	Message string `json:"message"`
}

// HandleHealth reports liveness. Reported timestamps never go backwards, even
// if the wall clock is stepped back.
func HandleHealth() http.Handler {
	return &healthHandler{now: time.Now}
}

type healthHandler struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func (h *healthHandler) timestamp() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	t := h.now().UTC()
	if t.Before(h.last) {
		t = h.last
	}
	h.last = t
	return t
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		httputil.RespMethodNotAllowed(ctx, w, r.Method, http.MethodGet, http.MethodHead)
		return
	}
	httputil.RespJSON(ctx, w, http.StatusOK, healthResponse{
		Status:    StatusHealthy,
		Timestamp: h.timestamp().Format(timestampLayout),
	})
}

// HandleRoot answers the exact "/" path with the service name.
func HandleRoot() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if r.URL.Path != "/" {
			httputil.RespJSON(ctx, w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			httputil.RespMethodNotAllowed(ctx, w, r.Method, http.MethodGet, http.MethodHead)
			return
		}
		httputil.RespJSON(ctx, w, http.StatusOK, rootResponse{Message: ServiceName})
	})
}
