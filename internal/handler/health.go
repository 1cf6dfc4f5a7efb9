package handler

import (
	"net/http"

	"alarmserver/internal/logger"
)

// WorkerCounter reports how many detector workers are loaded.
type WorkerCounter interface {
	Workers() int
}

// HealthHandler reports liveness and the detector pool size.
func HealthHandler(workers WorkerCounter, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, logger, http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"workers": workers.Workers(),
		})
	}
}
