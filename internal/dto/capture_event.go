package dto

import "time"

// CaptureEvent is broadcast to event stream viewers whenever an image is retained.
type CaptureEvent struct {
	ID         string      `json:"id"`
	Filename   string      `json:"filename"`
	Faces      int         `json:"faces"`
	Detections []Detection `json:"detections"`
	Timestamp  time.Time   `json:"timestamp"`
}
