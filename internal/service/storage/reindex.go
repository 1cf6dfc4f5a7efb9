package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"alarmserver/internal/model"
)

// ReindexResult summarizes a capture directory scan.
type ReindexResult struct {
	Indexed int
	Present int
	Skipped int
}

// Reindex scans the capture directory and indexes capture files missing from
// the repository. Face and object details of such files are unknown.
func (s *RetentionService) Reindex() (ReindexResult, error) {
	var result ReindexResult
	if s.captureRepo == nil {
		return result, fmt.Errorf("no capture repository configured")
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return result, fmt.Errorf("failed to read capture directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != captureExt {
			continue
		}

		detectedAt, err := ParseCaptureFilename(entry.Name())
		if err != nil {
			s.logger.Warning("Skipping %s: %v", entry.Name(), err)
			result.Skipped++
			continue
		}

		exists, err := s.captureRepo.Exists(entry.Name())
		if err != nil {
			return result, err
		}
		if exists {
			result.Present++
			continue
		}

		info, err := entry.Info()
		if err != nil {
			s.logger.Warning("Failed to get info for %s: %v", entry.Name(), err)
			result.Skipped++
			continue
		}

		_, err = s.captureRepo.Insert(&model.Capture{
			UUID:       uuid.NewString(),
			Filename:   entry.Name(),
			FilePath:   filepath.Join(s.dir, entry.Name()),
			FileSize:   info.Size(),
			DetectedAt: detectedAt,
		})
		if err != nil {
			return result, err
		}
		result.Indexed++
	}

	return result, nil
}
