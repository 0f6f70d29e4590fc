package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether the store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health serves GET /healthz
type Health struct {
	Store   Pinger
	Version string
}

func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.Store.Ping(ctx); err != nil {
		writeJSON(w, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		}, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]string{
		"status":  "ok",
		"version": h.Version,
	}, http.StatusOK)
}
