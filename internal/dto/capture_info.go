package dto

import (
	"encoding/json"
	"time"
)

// CaptureInfo describes one retained image in the capture listing.
type CaptureInfo struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Faces      int       `json:"faces"`
	Classes    []string  `json:"classes"`
	FileSize   int64     `json:"filesize"`
	DetectedAt time.Time `json:"detected_at"`
}

// MarshalJSON formats the detection time the same way capture filenames do.
func (c CaptureInfo) MarshalJSON() ([]byte, error) {
	type Alias CaptureInfo
	return json.Marshal(&struct {
		DetectedAt string `json:"detected_at"`
		Alias
	}{
		DetectedAt: c.DetectedAt.Format("2006-01-02 15:04:05"),
		Alias:      (Alias)(c),
	})
}

// CapturesData is the paginated capture listing.
type CapturesData struct {
	Captures []CaptureInfo `json:"captures"`
	Total    int           `json:"total"`
	Limit    int           `json:"limit"`
	Offset   int           `json:"offset"`
}
