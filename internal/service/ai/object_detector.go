package ai

import (
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"alarmserver/internal/dto"
)

// ObjectDetector runs a YOLOv5 ONNX network through the OpenCV DNN module.
// A single ObjectDetector must not be used from several goroutines at once;
// the class table it holds is shared and never written.
type ObjectDetector struct {
	net           gocv.Net
	classes       ClassTable
	inputSize     int
	confThreshold float32
	nmsThreshold  float32
}

// ObjectDetectorOptions configure model loading and post-processing.
type ObjectDetectorOptions struct {
	ModelPath           string
	InputSize           int
	ConfidenceThreshold float64
	NMSThreshold        float64
}

// NewObjectDetector loads the network and binds it to the shared class table.
func NewObjectDetector(opts ObjectDetectorOptions, classes ClassTable) (*ObjectDetector, error) {
	if _, err := os.Stat(opts.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", opts.ModelPath)
	}
	if opts.InputSize <= 0 {
		return nil, fmt.Errorf("invalid model input size %d", opts.InputSize)
	}

	net := gocv.ReadNetFromONNX(opts.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network: %s", opts.ModelPath)
	}
	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set preferable backend or target")
	}

	return &ObjectDetector{
		net:           net,
		classes:       classes,
		inputSize:     opts.InputSize,
		confThreshold: float32(opts.ConfidenceThreshold),
		nmsThreshold:  float32(opts.NMSThreshold),
	}, nil
}

// DetectObjects returns the model's detections in NMS output order.
func (d *ObjectDetector) DetectObjects(img *image.RGBA) ([]dto.Detection, error) {
	width, height := img.Rect.Dx(), img.Rect.Dy()
	lb := newLetterbox(width, height, d.inputSize)

	mat, err := gocv.ImageToMatRGB(lb.apply(img))
	if err != nil {
		return nil, fmt.Errorf("failed to convert image to mat: %w", err)
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(d.inputSize, d.inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	// Output shape: [1, rows, 5 + classes]
	sizes := output.Size()
	if len(sizes) != 3 {
		return nil, fmt.Errorf("unexpected network output shape %v", sizes)
	}
	rows, dims := sizes[1], sizes[2]

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read network output: %w", err)
	}

	candidates := parseYOLOv5Output(data, rows, dims, d.confThreshold)
	if len(candidates) == 0 {
		return []dto.Detection{}, nil
	}

	boxes, scores := nmsInputs(candidates)
	keep := gocv.NMSBoxes(boxes, scores, d.confThreshold, d.nmsThreshold)

	return toDetections(candidates, keep, lb, d.classes, width, height), nil
}

// Close releases the network.
func (d *ObjectDetector) Close() error {
	return d.net.Close()
}
