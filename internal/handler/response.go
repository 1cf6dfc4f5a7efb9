package handler

import (
	"encoding/json"
	"net/http"

	"alarmserver/internal/dto"
	"alarmserver/internal/logger"
)

// respondJSON writes v as a JSON body with the given status.
func respondJSON(w http.ResponseWriter, logger *logger.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

// respondError writes {"error": message}.
func respondError(w http.ResponseWriter, logger *logger.Logger, status int, message string) {
	respondJSON(w, logger, status, dto.ErrorResponse{Error: message})
}
