package ai

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// row builds a YOLOv5 prediction row for three classes.
func row(cx, cy, w, h, obj float32, scores ...float32) []float32 {
	return append([]float32{cx, cy, w, h, obj}, scores...)
}

func TestNewLetterbox(t *testing.T) {
	lb := newLetterbox(1280, 720, 640)

	assert.InDelta(t, 0.5, lb.scale, 1e-9)
	assert.Equal(t, 640, lb.width)
	assert.Equal(t, 360, lb.height)
	assert.Equal(t, 0, lb.padLeft)
	assert.Equal(t, 140, lb.padTop)

	x, y := lb.toSource(320, 320)
	assert.InDelta(t, 640, x, 1e-9)
	assert.InDelta(t, 360, y, 1e-9)
}

func TestLetterbox_ApplyPadsWithGray(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for i := range src.Pix {
		src.Pix[i] = 0xff
	}

	lb := newLetterbox(20, 10, 40)
	out := lb.apply(src)

	require.Equal(t, image.Rect(0, 0, 40, 40), out.Rect)
	assert.Equal(t, yoloPadColor, out.RGBAAt(0, 0))
	assert.Equal(t, yoloPadColor, out.RGBAAt(39, 39))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, out.RGBAAt(20, 20))
}

func TestParseYOLOv5Output(t *testing.T) {
	var data []float32
	data = append(data, row(100, 100, 20, 40, 0.9, 0.9, 0.05, 0.05)...) // person, kept
	data = append(data, row(50, 50, 10, 10, 0.1, 0.9, 0.1, 0.1)...)     // low objectness
	data = append(data, row(60, 60, 10, 10, 0.5, 0.1, 0.2, 0.4)...)     // score 0.2, dropped
	data = append(data, row(200, 80, 30, 30, 0.8, 0.1, 0.1, 0.7)...)    // class 2, kept

	got := parseYOLOv5Output(data, 4, 8, 0.25)
	require.Len(t, got, 2)

	assert.Equal(t, 0, got[0].classID)
	assert.InDelta(t, 0.81, got[0].score, 1e-6)
	assert.InDelta(t, 90, got[0].x1, 1e-9)
	assert.InDelta(t, 80, got[0].y1, 1e-9)
	assert.InDelta(t, 110, got[0].x2, 1e-9)
	assert.InDelta(t, 120, got[0].y2, 1e-9)

	assert.Equal(t, 2, got[1].classID)
	assert.InDelta(t, 0.56, got[1].score, 1e-6)
}

func TestParseYOLOv5Output_Malformed(t *testing.T) {
	assert.Nil(t, parseYOLOv5Output([]float32{1, 2, 3}, 1, 5, 0.25))
	assert.Nil(t, parseYOLOv5Output([]float32{1, 2, 3}, 1, 8, 0.25))
}

func TestNMSInputs_OffsetsByClass(t *testing.T) {
	boxes, scores := nmsInputs([]candidate{
		{x1: 1, y1: 2, x2: 3, y2: 4, score: 0.5, classID: 0},
		{x1: 1, y1: 2, x2: 3, y2: 4, score: 0.6, classID: 1},
	})

	assert.Equal(t, image.Rect(1, 2, 3, 4), boxes[0])
	assert.Equal(t, image.Rect(1+classOffset, 2+classOffset, 3+classOffset, 4+classOffset), boxes[1])
	assert.False(t, boxes[0].Overlaps(boxes[1]))
	assert.Equal(t, []float32{0.5, 0.6}, scores)
}

func TestToDetections_TruncatesAndClips(t *testing.T) {
	lb := newLetterbox(100, 50, 200) // scale 2, padTop 50
	classes := ClassTable{"person", "car"}
	candidates := []candidate{
		{x1: 21.9, y1: 71.9, x2: 61.9, y2: 111.9, score: 0.75, classID: 0},
		{x1: -10, y1: 40, x2: 250, y2: 170, score: 0.5, classID: 1},
		{x1: 0, y1: 50, x2: 2, y2: 52, score: 0.4, classID: 7},
	}

	got := toDetections(candidates, []int{1, 0, 2, 9}, lb, classes, 100, 50)
	require.Len(t, got, 3)

	// keep order is preserved
	assert.Equal(t, "car", got[0].Class)
	assert.Equal(t, [4]int{0, 0, 100, 50}, got[0].BBox)

	assert.Equal(t, "person", got[1].Class)
	assert.InDelta(t, 0.75, got[1].Confidence, 1e-6)
	// 21.9/2 = 10.95, (71.9-50)/2 = 10.95, 61.9/2 = 30.95, (111.9-50)/2 = 30.95
	assert.Equal(t, [4]int{10, 10, 30, 30}, got[1].BBox)

	assert.Equal(t, "unknown7", got[2].Class)

	for _, det := range got {
		assert.LessOrEqual(t, det.BBox[0], det.BBox[2])
		assert.LessOrEqual(t, det.BBox[1], det.BBox[3])
		assert.GreaterOrEqual(t, det.Confidence, 0.0)
		assert.LessOrEqual(t, det.Confidence, 1.0)
	}
}
