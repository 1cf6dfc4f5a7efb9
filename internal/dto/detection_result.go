package dto

// Detection is a single object detector hit mapped onto the shared class table.
// BBox holds pixel coordinates [x1, y1, x2, y2] with x1<=x2 and y1<=y2.
type Detection struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
	BBox       [4]int  `json:"bbox"`
}

// DetectionResult is the fused outcome of both detectors for one image.
type DetectionResult struct {
	Faces          int         `json:"faces"`
	YoloDetections []Detection `json:"yolo_detections"`
	Detected       bool        `json:"detected"`
}

// ErrorResponse is the body returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
