package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"alarmserver/internal/dto"
	"alarmserver/internal/logger"
	"alarmserver/internal/service/detection"
)

const (
	// ImageField is the multipart field carrying the upload.
	ImageField = "image"
	// maxMemory is the part of a multipart body kept in memory; the rest spills to temp files.
	maxMemory = 32 << 20
)

// Processor runs the detection pipeline on raw image bytes.
type Processor interface {
	Process(ctx context.Context, raw []byte) (dto.DetectionResult, error)
}

// DetectHandler handles POST /detect. The multipart field "image" is run
// through the pipeline and the fused result is returned as JSON.
func DetectHandler(processor Processor, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, status, message := readUpload(r)
		if status != 0 {
			respondError(w, logger, status, message)
			return
		}

		result, err := processor.Process(r.Context(), raw)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, detection.ErrDetectionTimeout) {
				status = http.StatusGatewayTimeout
			}
			logger.Error("Detection failed: %v", err)
			respondError(w, logger, status, err.Error())
			return
		}

		respondJSON(w, logger, http.StatusOK, result)
	}
}

// readUpload extracts the image bytes. A non-zero status means the request
// must be rejected with message before any processing.
func readUpload(r *http.Request) ([]byte, int, string) {
	if err := r.ParseMultipartForm(maxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, http.StatusBadRequest, "No image part"
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile(ImageField)
	if err != nil {
		// Parts without a filename are parsed as plain values.
		if r.MultipartForm != nil && len(r.MultipartForm.Value[ImageField]) > 0 {
			return nil, http.StatusBadRequest, "No selected file"
		}
		return nil, http.StatusBadRequest, "No image part"
	}
	defer file.Close()

	if header.Filename == "" {
		return nil, http.StatusBadRequest, "No selected file"
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, http.StatusBadRequest, "No image part"
	}
	return raw, 0, ""
}
