package repository

import (
	"alarmserver/internal/dto"
	"alarmserver/internal/model"
)

// CaptureRepository defines the interface for retained image records.
type CaptureRepository interface {
	// Create operations
	Insert(capture *model.Capture) (int64, error)

	// Read operations
	GetByFilename(filename string) (*model.Capture, error)
	GetAll(filter *dto.CaptureFilter) ([]model.Capture, error)
	GetTotalCount(filter *dto.CaptureFilter) (int, error)
	Exists(filename string) (bool, error)

	// Delete operations
	DeleteByFilename(filename string) error
}

// DetectionRepository defines the interface for object detections stored per capture.
type DetectionRepository interface {
	// Create operations
	InsertBatch(detections []model.Detection) error

	// Read operations
	GetByCaptureID(captureID int64) ([]model.Detection, error)
	GetClassNamesByCaptureID(captureID int64) ([]string, error)

	// Delete operations
	DeleteByCaptureID(captureID int64) error
}
