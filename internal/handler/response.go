package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"devicectl/internal/domain"
)

// ErrorResponse is the body of every non-2xx API response
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// ScanResponse is returned by a completed scan
type ScanResponse struct {
	Message string           `json:"message"`
	Count   int              `json:"count"` // newly recorded devices
	Devices []*domain.Device `json:"devices"`
}

// CommandResponse is returned by a successful remote command
type CommandResponse struct {
	Message string            `json:"message"`
	Result  domain.ExecResult `json:"result"`
}

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Debug().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, message, details string, statusCode int) {
	writeJSON(w, ErrorResponse{Message: message, Error: details}, statusCode)
}
