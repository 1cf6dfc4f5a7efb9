package storage

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"alarmserver/internal/config"
	"alarmserver/internal/dto"
	"alarmserver/internal/logger"
	"alarmserver/internal/model"
	"alarmserver/internal/repository"
)

const (
	// TimestampLayout is the second-resolution stamp embedded in capture filenames.
	TimestampLayout = "20060102-150405"
	capturePrefix   = "image_"
	captureExt      = ".jpg"
	// maxSuffix bounds the collision counter for captures saved within one second.
	maxSuffix = 1000
)

var (
	// ErrStorage is returned when the capture directory or file cannot be written.
	ErrStorage = errors.New("storage error")
	// ErrInvalidFilename is returned for names that are not plain capture filenames.
	ErrInvalidFilename = errors.New("invalid capture filename")
)

// RetentionService writes positive detections to the capture directory and
// indexes them. Files are append-only; the index is best effort.
type RetentionService struct {
	dir           string
	quality       int
	captureRepo   repository.CaptureRepository
	detectionRepo repository.DetectionRepository
	logger        *logger.Logger
	now           func() time.Time
}

// NewRetentionService creates a RetentionService. Either repository may be nil.
func NewRetentionService(cfg *config.Config, logger *logger.Logger, captureRepo repository.CaptureRepository, detectionRepo repository.DetectionRepository) *RetentionService {
	quality := cfg.JPEGQuality
	if quality < 1 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	return &RetentionService{
		dir:           cfg.CaptureDirectory,
		quality:       quality,
		captureRepo:   captureRepo,
		detectionRepo: detectionRepo,
		logger:        logger,
		now:           time.Now,
	}
}

// Directory returns the capture directory.
func (s *RetentionService) Directory() string {
	return s.dir
}

// Retain saves img as JPEG when result is a detection and returns the new
// capture record. It is a no-op returning nil for negative results.
func (s *RetentionService) Retain(img *image.RGBA, result dto.DetectionResult) (*model.Capture, error) {
	if !result.Detected {
		return nil, nil
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: creating directory %s: %v", ErrStorage, s.dir, err)
	}

	detectedAt := s.now()
	file, path, err := s.createCaptureFile(detectedAt)
	if err != nil {
		return nil, err
	}

	if err := jpeg.Encode(file, img, &jpeg.Options{Quality: s.quality}); err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("%w: encoding %s: %v", ErrStorage, path, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("%w: writing %s: %v", ErrStorage, path, err)
	}

	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}

	capture := &model.Capture{
		UUID:       uuid.NewString(),
		Filename:   filepath.Base(path),
		FilePath:   path,
		FileSize:   size,
		Faces:      result.Faces,
		DetectedAt: detectedAt,
	}
	s.index(capture, result.YoloDetections)

	s.logger.Info("Image saved to %s", path)
	return capture, nil
}

// createCaptureFile exclusively creates the capture file for ts. When the
// canonical name is taken, a counter suffix is appended.
func (s *RetentionService) createCaptureFile(ts time.Time) (*os.File, string, error) {
	for seq := 0; seq < maxSuffix; seq++ {
		path := filepath.Join(s.dir, CaptureFilename(ts, seq))
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return file, path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("%w: creating %s: %v", ErrStorage, path, err)
		}
	}
	return nil, "", fmt.Errorf("%w: too many captures at %s", ErrStorage, ts.Format(TimestampLayout))
}

// index records the capture and its detections. Failures are logged only.
func (s *RetentionService) index(capture *model.Capture, detections []dto.Detection) {
	if s.captureRepo == nil {
		return
	}

	id, err := s.captureRepo.Insert(capture)
	if err != nil {
		s.logger.Warning("Error indexing capture %s: %v", capture.Filename, err)
		return
	}
	capture.ID = id

	if s.detectionRepo == nil || len(detections) == 0 {
		return
	}

	records := make([]model.Detection, 0, len(detections))
	for _, det := range detections {
		records = append(records, model.Detection{
			CaptureID:  id,
			ClassName:  det.Class,
			Confidence: det.Confidence,
			X1:         det.BBox[0],
			Y1:         det.BBox[1],
			X2:         det.BBox[2],
			Y2:         det.BBox[3],
		})
	}
	if err := s.detectionRepo.InsertBatch(records); err != nil {
		s.logger.Warning("Error indexing detections for %s: %v", capture.Filename, err)
	}
}

// ResolvePath returns the on-disk path of a capture, rejecting anything that
// is not a plain capture filename.
func (s *RetentionService) ResolvePath(filename string) (string, error) {
	if !IsCaptureFilename(filename) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	return filepath.Join(s.dir, filename), nil
}

// Delete removes a capture file and its index entry.
func (s *RetentionService) Delete(filename string) error {
	path, err := s.ResolvePath(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: removing %s: %v", ErrStorage, path, err)
	}
	if s.captureRepo != nil {
		if err := s.captureRepo.DeleteByFilename(filename); err != nil {
			s.logger.Warning("Error removing %s from index: %v", filename, err)
		}
	}
	s.logger.Info("Deleted capture: %s", filename)
	return nil
}

// CaptureFilename builds image_<YYYYMMDD-HHMMSS>.jpg, with _<seq> before the
// extension when seq > 0.
func CaptureFilename(ts time.Time, seq int) string {
	name := capturePrefix + ts.Format(TimestampLayout)
	if seq > 0 {
		name += fmt.Sprintf("_%d", seq)
	}
	return name + captureExt
}

// ParseCaptureFilename extracts the save time from a capture filename.
func ParseCaptureFilename(filename string) (time.Time, error) {
	if !IsCaptureFilename(filename) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(filename, capturePrefix), captureExt)
	if len(stamp) < len(TimestampLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	ts, err := time.ParseInLocation(TimestampLayout, stamp[:len(TimestampLayout)], time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidFilename, filename, err)
	}
	return ts, nil
}

// IsCaptureFilename reports whether name looks like image_*.jpg with no path elements.
func IsCaptureFilename(name string) bool {
	return name != "" &&
		name == filepath.Base(name) &&
		!strings.ContainsAny(name, `/\`) &&
		strings.HasPrefix(name, capturePrefix) &&
		strings.HasSuffix(name, captureExt)
}
