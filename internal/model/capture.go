package model

import "time"

// Capture represents a retained image record.
type Capture struct {
	ID         int64     `json:"id"`
	UUID       string    `json:"uuid"`
	Filename   string    `json:"filename"`
	FilePath   string    `json:"filepath"`
	FileSize   int64     `json:"filesize"`
	Faces      int       `json:"faces"`
	DetectedAt time.Time `json:"detected_at"`
}
