package model

// Detection represents an object detection stored alongside a capture.
type Detection struct {
	ID         int64   `json:"id"`
	CaptureID  int64   `json:"capture_id"`
	ClassName  string  `json:"class_name"`
	Confidence float64 `json:"confidence"`
	X1         int     `json:"x1"`
	Y1         int     `json:"y1"`
	X2         int     `json:"x2"`
	Y2         int     `json:"y2"`
}
