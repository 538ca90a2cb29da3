package handlers

import (
	"net/http"
	"time"

	"github.com/ukpostcodes/internal/service"
)

type healthResponse struct {
	Status         string        `json:"status"`
	DatabaseLoaded bool          `json:"database_loaded"`
	DatabaseInfo   *service.Info `json:"database_info,omitempty"`
	Timestamp      string        `json:"timestamp"`
}

// Health always answers 200; a degraded service reports "unhealthy" in the
// body so load balancers can still reach the detail.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	info, err := h.Service.Info(r.Context())
	if err != nil || !h.Service.Ready() {
		h.Logger.Warn("health check degraded", "error", err, "spatial_ready", h.Service.Ready())
		resp.Status = "unhealthy"
	}
	resp.DatabaseLoaded = err == nil && info.TotalPostcodes > 0
	resp.DatabaseInfo = &info
	writeJSON(w, http.StatusOK, resp)
}

type infoResponse struct {
	DatabaseStats service.Info `json:"database_stats"`
	Status        string       `json:"status"`
}

// DatabaseInfo reports directory statistics.
func (h *Handlers) DatabaseInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.Service.Info(r.Context())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, infoResponse{DatabaseStats: info, Status: "success"})
}
