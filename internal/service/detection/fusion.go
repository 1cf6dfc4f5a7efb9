package detection

import (
	"strings"

	"alarmserver/internal/dto"
)

// PersonClass is the object detector label that counts as presence.
const PersonClass = "person"

// Fuse combines the face count and object detections into one result.
// Either signal alone raises detection; neither source can veto the other,
// and a face and a person box for the same subject are both kept.
func Fuse(faces int, detections []dto.Detection) dto.DetectionResult {
	if faces < 0 {
		faces = 0
	}
	if detections == nil {
		detections = []dto.Detection{}
	}

	return dto.DetectionResult{
		Faces:          faces,
		YoloDetections: detections,
		Detected:       faces > 0 || HasPerson(detections),
	}
}

// HasPerson reports whether any detection is of the person class, ignoring case.
func HasPerson(detections []dto.Detection) bool {
	for _, det := range detections {
		if strings.EqualFold(det.Class, PersonClass) {
			return true
		}
	}
	return false
}
