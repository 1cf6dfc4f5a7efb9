package handler

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"alarmserver/internal/dto"
	"alarmserver/internal/logger"
	"alarmserver/internal/repository"
	"alarmserver/internal/service/storage"
)

const (
	defaultCaptureLimit = 50
	maxCaptureLimit     = 500
)

// CaptureStore locates and removes retained capture files.
type CaptureStore interface {
	ResolvePath(filename string) (string, error)
	Delete(filename string) error
}

// ListCapturesHandler returns the indexed captures, newest first.
// Query parameters: limit, offset, class.
func ListCapturesHandler(captureRepo repository.CaptureRepository, detectionRepo repository.DetectionRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit := atoiDefault(q.Get("limit"), defaultCaptureLimit)
		if limit > maxCaptureLimit {
			limit = maxCaptureLimit
		}
		offset, err := strconv.Atoi(q.Get("offset"))
		if err != nil || offset < 0 {
			offset = 0
		}

		filter := &dto.CaptureFilter{
			Class:  strings.TrimSpace(q.Get("class")),
			Limit:  limit,
			Offset: offset,
		}

		captures, err := captureRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying captures: %v", err)
			respondError(w, logger, http.StatusInternalServerError, "failed to list captures")
			return
		}

		total, err := captureRepo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting captures: %v", err)
			total = len(captures)
		}

		infos := make([]dto.CaptureInfo, 0, len(captures))
		for _, c := range captures {
			classes := []string{}
			if detectionRepo != nil {
				names, err := detectionRepo.GetClassNamesByCaptureID(c.ID)
				if err != nil {
					logger.Error("Error getting classes for capture %d: %v", c.ID, err)
				} else if names != nil {
					classes = names
				}
			}
			infos = append(infos, dto.CaptureInfo{
				ID:         c.UUID,
				Filename:   c.Filename,
				Faces:      c.Faces,
				Classes:    classes,
				FileSize:   c.FileSize,
				DetectedAt: c.DetectedAt,
			})
		}

		respondJSON(w, logger, http.StatusOK, dto.CapturesData{
			Captures: infos,
			Total:    total,
			Limit:    limit,
			Offset:   offset,
		})
	}
}

// ViewCaptureHandler serves a retained JPEG by filename.
func ViewCaptureHandler(store CaptureStore, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, err := store.ResolvePath(chi.URLParam(r, "filename"))
		if err != nil {
			respondError(w, logger, http.StatusBadRequest, err.Error())
			return
		}
		if _, err := os.Stat(path); err != nil {
			respondError(w, logger, http.StatusNotFound, "capture not found")
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		http.ServeFile(w, r, path)
	}
}

// DeleteCaptureHandler removes a retained capture from disk and the index.
func DeleteCaptureHandler(store CaptureStore, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := chi.URLParam(r, "filename")
		if err := store.Delete(filename); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, storage.ErrInvalidFilename) {
				status = http.StatusBadRequest
			}
			logger.Error("Failed to delete capture %s: %v", filename, err)
			respondError(w, logger, status, err.Error())
			return
		}
		respondJSON(w, logger, http.StatusOK, map[string]string{"status": "deleted", "filename": filename})
	}
}

// atoiDefault converts s to a positive int or returns def.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}
