package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alarmserver/internal/dto"
	"alarmserver/internal/model"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newCapture(filename string, at time.Time) *model.Capture {
	return &model.Capture{
		UUID:       "uuid-" + filename,
		Filename:   filename,
		FilePath:   filepath.Join("captured_images", filename),
		FileSize:   2048,
		Faces:      1,
		DetectedAt: at,
	}
}

func TestNew_CreatesDatabaseFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "captures.db")
	db, err := New(dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestNew_MigrationIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "captures.db")
	first, err := New(dbPath)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := New(dbPath)
	require.NoError(t, err)
	assert.NoError(t, second.Close())
}

func TestCaptureRepository_InsertAndGetByFilename(t *testing.T) {
	repo := NewCaptureRepository(setupTestDB(t))
	at := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)

	id, err := repo.Insert(newCapture("image_20240102-150405.jpg", at))
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	got, err := repo.GetByFilename("image_20240102-150405.jpg")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "uuid-image_20240102-150405.jpg", got.UUID)
	assert.Equal(t, int64(2048), got.FileSize)
	assert.Equal(t, 1, got.Faces)
	assert.True(t, at.Equal(got.DetectedAt))
}

func TestCaptureRepository_GetByFilename_NotFound(t *testing.T) {
	repo := NewCaptureRepository(setupTestDB(t))

	got, err := repo.GetByFilename("missing.jpg")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCaptureRepository_DuplicateFilename(t *testing.T) {
	repo := NewCaptureRepository(setupTestDB(t))
	c := newCapture("image_dup.jpg", time.Now())

	_, err := repo.Insert(c)
	require.NoError(t, err)

	c.UUID = "another-uuid"
	_, err = repo.Insert(c)
	assert.Error(t, err)
}

func TestCaptureRepository_GetAll_NewestFirstWithPagination(t *testing.T) {
	repo := NewCaptureRepository(setupTestDB(t))
	base := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_, err := repo.Insert(newCapture(fmt.Sprintf("image_%d.jpg", i), base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	all, err := repo.GetAll(&dto.CaptureFilter{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "image_4.jpg", all[0].Filename)
	assert.Equal(t, "image_0.jpg", all[4].Filename)

	page, err := repo.GetAll(&dto.CaptureFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "image_2.jpg", page[0].Filename)
	assert.Equal(t, "image_1.jpg", page[1].Filename)

	total, err := repo.GetTotalCount(&dto.CaptureFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
}

func TestCaptureRepository_FilterByClass(t *testing.T) {
	db := setupTestDB(t)
	captures := NewCaptureRepository(db)
	detections := NewDetectionRepository(db)
	now := time.Now()

	withPerson, err := captures.Insert(newCapture("person.jpg", now))
	require.NoError(t, err)
	withCar, err := captures.Insert(newCapture("car.jpg", now.Add(time.Second)))
	require.NoError(t, err)
	_, err = captures.Insert(newCapture("face_only.jpg", now.Add(2*time.Second)))
	require.NoError(t, err)

	require.NoError(t, detections.InsertBatch([]model.Detection{
		{CaptureID: withPerson, ClassName: "person", Confidence: 0.9, X2: 10, Y2: 10},
		{CaptureID: withPerson, ClassName: "person", Confidence: 0.8, X2: 12, Y2: 12},
		{CaptureID: withCar, ClassName: "car", Confidence: 0.7, X2: 5, Y2: 5},
	}))

	got, err := captures.GetAll(&dto.CaptureFilter{Class: "PERSON"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "person.jpg", got[0].Filename)

	total, err := captures.GetTotalCount(&dto.CaptureFilter{Class: "person"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestCaptureRepository_Exists(t *testing.T) {
	repo := NewCaptureRepository(setupTestDB(t))
	_, err := repo.Insert(newCapture("exists.jpg", time.Now()))
	require.NoError(t, err)

	ok, err := repo.Exists("exists.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists("nope.jpg")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCaptureRepository_DeleteByFilename(t *testing.T) {
	db := setupTestDB(t)
	captures := NewCaptureRepository(db)
	detections := NewDetectionRepository(db)

	id, err := captures.Insert(newCapture("delete.jpg", time.Now()))
	require.NoError(t, err)
	require.NoError(t, detections.InsertBatch([]model.Detection{{CaptureID: id, ClassName: "person"}}))

	require.NoError(t, captures.DeleteByFilename("delete.jpg"))
	require.NoError(t, captures.DeleteByFilename("delete.jpg"))

	got, err := captures.GetByFilename("delete.jpg")
	require.NoError(t, err)
	assert.Nil(t, got)

	dets, err := detections.GetByCaptureID(id)
	require.NoError(t, err)
	assert.Empty(t, dets)
}

func TestDetectionRepository_InsertBatchAndRead(t *testing.T) {
	db := setupTestDB(t)
	captures := NewCaptureRepository(db)
	detections := NewDetectionRepository(db)

	id, err := captures.Insert(newCapture("batch.jpg", time.Now()))
	require.NoError(t, err)

	require.NoError(t, detections.InsertBatch([]model.Detection{
		{CaptureID: id, ClassName: "person", Confidence: 0.91, X1: 1, Y1: 2, X2: 30, Y2: 40},
		{CaptureID: id, ClassName: "dog", Confidence: 0.55, X1: 5, Y1: 6, X2: 7, Y2: 8},
		{CaptureID: id, ClassName: "person", Confidence: 0.42, X1: 0, Y1: 0, X2: 3, Y2: 3},
	}))

	dets, err := detections.GetByCaptureID(id)
	require.NoError(t, err)
	require.Len(t, dets, 3)
	assert.Equal(t, "person", dets[0].ClassName)
	assert.InDelta(t, 0.91, dets[0].Confidence, 1e-9)
	assert.Equal(t, [4]int{1, 2, 30, 40}, [4]int{dets[0].X1, dets[0].Y1, dets[0].X2, dets[0].Y2})

	classes, err := detections.GetClassNamesByCaptureID(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"dog", "person"}, classes)

	require.NoError(t, detections.DeleteByCaptureID(id))
	dets, err = detections.GetByCaptureID(id)
	require.NoError(t, err)
	assert.Empty(t, dets)
}

func TestDetectionRepository_InsertBatchEmpty(t *testing.T) {
	detections := NewDetectionRepository(setupTestDB(t))
	assert.NoError(t, detections.InsertBatch(nil))
}

func TestDatabase_ConcurrentInserts(t *testing.T) {
	repo := NewCaptureRepository(setupTestDB(t))

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := repo.Insert(newCapture(fmt.Sprintf("concurrent_%d.jpg", i), time.Now())); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent insert failed: %v", err)
	}

	total, err := repo.GetTotalCount(nil)
	require.NoError(t, err)
	assert.Equal(t, 20, total)
}
