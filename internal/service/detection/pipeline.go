package detection

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"golang.org/x/sync/errgroup"

	"alarmserver/internal/dto"
	"alarmserver/internal/logger"
	"alarmserver/internal/model"
	"alarmserver/internal/service/imaging"
)

// ErrDetectionTimeout is returned when detection does not finish within the configured deadline.
var ErrDetectionTimeout = errors.New("detection timed out")

// FaceCounter counts faces on a grayscale image.
type FaceCounter interface {
	CountFaces(ctx context.Context, gray *image.Gray) (int, error)
}

// ObjectDetector lists objects found on a color image.
type ObjectDetector interface {
	DetectObjects(ctx context.Context, img *image.RGBA) ([]dto.Detection, error)
}

// Retainer persists the original image of a positive result.
// It returns nil without writing when the result is not a detection.
type Retainer interface {
	Retain(img *image.RGBA, result dto.DetectionResult) (*model.Capture, error)
}

// EventPublisher is notified of every retained capture.
type EventPublisher interface {
	Publish(event dto.CaptureEvent)
}

// Pipeline decodes an upload, runs both detectors, fuses their output and
// retains the image when presence is detected.
type Pipeline struct {
	faces     FaceCounter
	objects   ObjectDetector
	retention Retainer
	events    EventPublisher
	timeout   time.Duration
	logger    *logger.Logger
}

// NewPipeline wires the pipeline collaborators. events may be nil; timeout 0 disables the deadline.
func NewPipeline(faces FaceCounter, objects ObjectDetector, retention Retainer, events EventPublisher, timeout time.Duration, logger *logger.Logger) *Pipeline {
	return &Pipeline{
		faces:     faces,
		objects:   objects,
		retention: retention,
		events:    events,
		timeout:   timeout,
		logger:    logger,
	}
}

// Process runs the whole decision pipeline on raw upload bytes. Either a full
// result is returned with persistence done, or an error and no result.
func (p *Pipeline) Process(ctx context.Context, raw []byte) (dto.DetectionResult, error) {
	img, err := imaging.Decode(raw)
	if err != nil {
		return dto.DetectionResult{}, err
	}

	faces, detections, err := p.detect(ctx, img)
	if err != nil {
		return dto.DetectionResult{}, err
	}

	result := Fuse(faces, detections)
	p.logger.Info("Faces: %d, objects: %d, detected: %t", result.Faces, len(result.YoloDetections), result.Detected)

	if !result.Detected {
		return result, nil
	}

	capture, err := p.retention.Retain(img.Color, result)
	if err != nil {
		return dto.DetectionResult{}, err
	}

	if capture != nil && p.events != nil {
		p.events.Publish(dto.CaptureEvent{
			ID:         capture.UUID,
			Filename:   capture.Filename,
			Faces:      result.Faces,
			Detections: result.YoloDetections,
			Timestamp:  capture.DetectedAt,
		})
	}

	return result, nil
}

// detect runs both detectors concurrently, bounded by the configured timeout.
func (p *Pipeline) detect(ctx context.Context, img *imaging.DecodedImage) (int, []dto.Detection, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	var (
		faces      int
		detections []dto.Detection
		runErr     error
	)
	done := make(chan struct{})

	go func() {
		defer close(done)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			n, err := p.faces.CountFaces(gctx, img.Gray)
			if err != nil {
				return fmt.Errorf("face detection failed: %w", err)
			}
			faces = n
			return nil
		})
		g.Go(func() error {
			dets, err := p.objects.DetectObjects(gctx, img.Color)
			if err != nil {
				return fmt.Errorf("object detection failed: %w", err)
			}
			detections = dets
			return nil
		})
		runErr = g.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return 0, nil, contextError(ctx.Err())
	}

	if runErr != nil {
		if errors.Is(runErr, context.DeadlineExceeded) {
			return 0, nil, contextError(runErr)
		}
		return 0, nil, runErr
	}
	return faces, detections, nil
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrDetectionTimeout, err)
	}
	return err
}
