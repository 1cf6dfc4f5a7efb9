package ai

import (
	"context"
	"fmt"
	"image"

	"alarmserver/internal/config"
	"alarmserver/internal/dto"
	"alarmserver/internal/logger"
)

// DetectorPool owns a fixed set of cascade and network instances loaded at
// startup. Requests borrow an instance per call, so the OpenCV objects are
// never used concurrently while the class table stays shared.
type DetectorPool struct {
	faces   chan *FaceDetector
	objects chan *ObjectDetector
	all     []closer
	classes ClassTable
	logger  *logger.Logger
}

type closer interface {
	Close() error
}

// NewDetectorPool loads the class table once and cfg.ProcessingWorkers
// instances of each detector.
func NewDetectorPool(cfg *config.Config, logger *logger.Logger) (*DetectorPool, error) {
	workers := cfg.ProcessingWorkers
	if workers < 1 {
		workers = 1
	}

	classes, err := LoadClassNames(cfg.ClassNamesPath)
	if err != nil {
		return nil, err
	}

	pool := &DetectorPool{
		faces:   make(chan *FaceDetector, workers),
		objects: make(chan *ObjectDetector, workers),
		classes: classes,
		logger:  logger,
	}

	opts := ObjectDetectorOptions{
		ModelPath:           cfg.ModelPath,
		InputSize:           cfg.ModelInputSize,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		NMSThreshold:        cfg.NMSThreshold,
	}

	for i := 0; i < workers; i++ {
		face, err := NewFaceDetector(cfg.CascadePath)
		if err != nil {
			pool.Close()
			return nil, err
		}
		pool.all = append(pool.all, face)
		pool.faces <- face

		object, err := NewObjectDetector(opts, classes)
		if err != nil {
			pool.Close()
			return nil, err
		}
		pool.all = append(pool.all, object)
		pool.objects <- object
	}

	logger.Info("Detector pool ready: %d worker(s), %d classes", workers, len(classes))
	return pool, nil
}

// Workers returns the number of instances of each detector.
func (p *DetectorPool) Workers() int {
	return cap(p.faces)
}

// Classes returns the shared class table.
func (p *DetectorPool) Classes() ClassTable {
	return p.classes
}

// CountFaces borrows a cascade, waiting until one is free or ctx is done.
func (p *DetectorPool) CountFaces(ctx context.Context, gray *image.Gray) (int, error) {
	var face *FaceDetector
	select {
	case face = <-p.faces:
	case <-ctx.Done():
		return 0, fmt.Errorf("waiting for face detector: %w", ctx.Err())
	}
	defer func() { p.faces <- face }()

	return face.CountFaces(gray)
}

// DetectObjects borrows a network, waiting until one is free or ctx is done.
func (p *DetectorPool) DetectObjects(ctx context.Context, img *image.RGBA) ([]dto.Detection, error) {
	var object *ObjectDetector
	select {
	case object = <-p.objects:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for object detector: %w", ctx.Err())
	}
	defer func() { p.objects <- object }()

	detections, err := object.DetectObjects(img)
	if err != nil {
		return nil, err
	}
	for _, det := range detections {
		p.logger.Debug("Detected %s (%.2f) at %v", det.Class, det.Confidence, det.BBox)
	}
	return detections, nil
}

// Close releases every loaded detector. It must only be called once no
// request is using the pool.
func (p *DetectorPool) Close() {
	for _, c := range p.all {
		if err := c.Close(); err != nil {
			p.logger.Warning("Error closing detector: %v", err)
		}
	}
	p.all = nil
}
