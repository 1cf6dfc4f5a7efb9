package sqlite

import (
	"database/sql"
	"fmt"

	"alarmserver/internal/dto"
	"alarmserver/internal/model"
)

// CaptureRepository implements repository.CaptureRepository for SQLite.
type CaptureRepository struct {
	db *DB
}

// NewCaptureRepository creates a new SQLite capture repository.
func NewCaptureRepository(db *DB) *CaptureRepository {
	return &CaptureRepository{db: db}
}

// Insert adds a new capture record to the database.
func (r *CaptureRepository) Insert(capture *model.Capture) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO captures (uuid, filename, filepath, filesize, faces, detected_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, capture.UUID, capture.Filename, capture.FilePath, capture.FileSize, capture.Faces, capture.DetectedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert capture: %w", err)
	}

	return result.LastInsertId()
}

// GetByFilename retrieves a capture by its filename. It returns nil when absent.
func (r *CaptureRepository) GetByFilename(filename string) (*model.Capture, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var c model.Capture
	err := r.db.Conn().QueryRow(`
		SELECT id, uuid, filename, filepath, filesize, faces, detected_at
		FROM captures WHERE filename = ?
	`, filename).Scan(&c.ID, &c.UUID, &c.Filename, &c.FilePath, &c.FileSize, &c.Faces, &c.DetectedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get capture: %w", err)
	}
	return &c, nil
}

// filterClause builds the WHERE clause shared by GetAll and GetTotalCount.
func filterClause(filter *dto.CaptureFilter) (string, []interface{}) {
	clause := " WHERE 1=1"
	args := []interface{}{}

	if filter != nil && filter.Class != "" {
		clause += " AND EXISTS (SELECT 1 FROM detections d WHERE d.capture_id = c.id AND LOWER(d.class_name) = LOWER(?))"
		args = append(args, filter.Class)
	}
	return clause, args
}

// GetAll retrieves captures newest first based on filter criteria.
func (r *CaptureRepository) GetAll(filter *dto.CaptureFilter) ([]model.Capture, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := filterClause(filter)
	query := `SELECT c.id, c.uuid, c.filename, c.filepath, c.filesize, c.faces, c.detected_at FROM captures c` +
		where + " ORDER BY c.detected_at DESC, c.id DESC"

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query captures: %w", err)
	}
	defer rows.Close()

	var captures []model.Capture
	for rows.Next() {
		var c model.Capture
		if err := rows.Scan(&c.ID, &c.UUID, &c.Filename, &c.FilePath, &c.FileSize, &c.Faces, &c.DetectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan capture: %w", err)
		}
		captures = append(captures, c)
	}

	return captures, rows.Err()
}

// GetTotalCount returns the number of captures matching the filter, ignoring pagination.
func (r *CaptureRepository) GetTotalCount(filter *dto.CaptureFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := filterClause(filter)

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM captures c`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count captures: %w", err)
	}
	return count, nil
}

// Exists checks if a capture with the given filename is indexed.
func (r *CaptureRepository) Exists(filename string) (bool, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM captures WHERE filename = ?`, filename).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check capture existence: %w", err)
	}
	return count > 0, nil
}

// DeleteByFilename removes a capture and its detections.
func (r *CaptureRepository) DeleteByFilename(filename string) error {
	r.db.Lock()
	defer r.db.Unlock()

	var captureID int64
	err := r.db.Conn().QueryRow(`SELECT id FROM captures WHERE filename = ?`, filename).Scan(&captureID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get capture id: %w", err)
	}

	if _, err := r.db.Conn().Exec(`DELETE FROM detections WHERE capture_id = ?`, captureID); err != nil {
		return fmt.Errorf("failed to delete detections: %w", err)
	}

	if _, err := r.db.Conn().Exec(`DELETE FROM captures WHERE id = ?`, captureID); err != nil {
		return fmt.Errorf("failed to delete capture: %w", err)
	}
	return nil
}
