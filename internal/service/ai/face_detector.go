package ai

import (
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"
)

// Cascade parameters. Coarser scale steps miss small or angled faces.
const (
	FaceScaleFactor  = 1.05
	FaceMinNeighbors = 3
	FaceMinSize      = 30
)

// FaceDetector counts frontal faces with a Haar cascade.
// A single FaceDetector must not be used from several goroutines at once.
type FaceDetector struct {
	classifier gocv.CascadeClassifier
}

// NewFaceDetector loads the cascade XML at path.
func NewFaceDetector(path string) (*FaceDetector, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("cascade file not found: %s", path)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("failed to load face cascade classifier: %s", path)
	}
	return &FaceDetector{classifier: classifier}, nil
}

// CountFaces returns how many face regions the cascade reports, overlaps included.
func (d *FaceDetector) CountFaces(gray *image.Gray) (int, error) {
	mat, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return 0, fmt.Errorf("failed to convert grayscale image: %w", err)
	}
	defer mat.Close()

	faces := d.classifier.DetectMultiScaleWithParams(
		mat,
		FaceScaleFactor,
		FaceMinNeighbors,
		0,
		image.Pt(FaceMinSize, FaceMinSize),
		image.Pt(0, 0),
	)
	return len(faces), nil
}

// Close releases the classifier.
func (d *FaceDetector) Close() error {
	return d.classifier.Close()
}
