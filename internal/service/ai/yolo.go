package ai

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"alarmserver/internal/dto"
)

// yoloPadColor is the neutral gray YOLOv5 letterboxing pads with.
var yoloPadColor = color.RGBA{R: 114, G: 114, B: 114, A: 255}

// letterbox describes how a source image is fitted into the square model input.
type letterbox struct {
	scale   float64
	width   int // scaled content size
	height  int
	padLeft int
	padTop  int
	size    int
}

func newLetterbox(srcWidth, srcHeight, size int) letterbox {
	scale := float64(size) / float64(srcWidth)
	if s := float64(size) / float64(srcHeight); s < scale {
		scale = s
	}
	width := int(float64(srcWidth)*scale + 0.5)
	height := int(float64(srcHeight)*scale + 0.5)
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return letterbox{
		scale:   scale,
		width:   width,
		height:  height,
		padLeft: (size - width) / 2,
		padTop:  (size - height) / 2,
		size:    size,
	}
}

// apply scales src into a size×size canvas padded with yoloPadColor.
func (lb letterbox) apply(src *image.RGBA) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, lb.size, lb.size))
	draw.Draw(canvas, canvas.Rect, &image.Uniform{C: yoloPadColor}, image.Point{}, draw.Src)
	target := image.Rect(lb.padLeft, lb.padTop, lb.padLeft+lb.width, lb.padTop+lb.height)
	draw.ApproxBiLinear.Scale(canvas, target, src, src.Rect, draw.Src, nil)
	return canvas
}

// toSource maps a model-input x/y back to source pixel space.
func (lb letterbox) toSource(x, y float64) (float64, float64) {
	return (x - float64(lb.padLeft)) / lb.scale, (y - float64(lb.padTop)) / lb.scale
}

// candidate is one YOLOv5 prediction row that survived the confidence filter.
// Box coordinates are corners in model-input pixels.
type candidate struct {
	x1, y1, x2, y2 float64
	score          float32
	classID        int
}

// parseYOLOv5Output decodes a [rows × dims] prediction matrix where each row is
// cx, cy, w, h, objectness, class scores... Rows whose objectness or best
// objectness×class score fall below threshold are dropped.
func parseYOLOv5Output(data []float32, rows, dims int, threshold float32) []candidate {
	if dims <= 5 || len(data) < rows*dims {
		return nil
	}

	var out []candidate
	for i := 0; i < rows; i++ {
		row := data[i*dims : (i+1)*dims]
		objectness := row[4]
		if objectness <= threshold {
			continue
		}

		classID := 0
		best := row[5]
		for c := 1; c < dims-5; c++ {
			if row[5+c] > best {
				best = row[5+c]
				classID = c
			}
		}
		score := objectness * best
		if score <= threshold {
			continue
		}

		cx, cy, w, h := float64(row[0]), float64(row[1]), float64(row[2]), float64(row[3])
		out = append(out, candidate{
			x1:      cx - w/2,
			y1:      cy - h/2,
			x2:      cx + w/2,
			y2:      cy + h/2,
			score:   score,
			classID: classID,
		})
	}
	return out
}

// classOffset separates boxes of different classes so a class-agnostic NMS
// behaves per class.
const classOffset = 4096

// nmsInputs returns class-offset rectangles and scores for non-maximum suppression.
func nmsInputs(candidates []candidate) ([]image.Rectangle, []float32) {
	boxes := make([]image.Rectangle, len(candidates))
	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		off := c.classID * classOffset
		boxes[i] = image.Rect(int(c.x1)+off, int(c.y1)+off, int(c.x2)+off, int(c.y2)+off)
		scores[i] = c.score
	}
	return boxes, scores
}

// maxDetections caps the detections reported for a single image.
const maxDetections = 1000

// toDetections maps the kept candidates back to source pixels in keep order.
// Coordinates are clipped to the image and truncated toward zero.
func toDetections(candidates []candidate, keep []int, lb letterbox, classes ClassTable, width, height int) []dto.Detection {
	detections := make([]dto.Detection, 0, len(keep))
	for _, idx := range keep {
		if idx < 0 || idx >= len(candidates) {
			continue
		}
		if len(detections) == maxDetections {
			break
		}
		c := candidates[idx]
		x1, y1 := lb.toSource(c.x1, c.y1)
		x2, y2 := lb.toSource(c.x2, c.y2)
		if x2 < x1 {
			x1, x2 = x2, x1
		}
		if y2 < y1 {
			y1, y2 = y2, y1
		}

		detections = append(detections, dto.Detection{
			Class:      classes.Name(c.classID),
			Confidence: clampUnit(float64(c.score)),
			BBox: [4]int{
				int(clip(x1, float64(width))),
				int(clip(y1, float64(height))),
				int(clip(x2, float64(width))),
				int(clip(y2, float64(height))),
			},
		})
	}
	return detections
}

func clip(v, max float64) float64 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

func clampUnit(v float64) float64 {
	return clip(v, 1)
}
