package dto

// CaptureFilter narrows the capture listing.
type CaptureFilter struct {
	Class  string
	Limit  int
	Offset int
}
