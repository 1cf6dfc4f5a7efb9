package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode is returned when uploaded bytes are empty, truncated or not an image.
var ErrDecode = errors.New("cannot decode image")

// DecodedImage holds the normalized color pixels of an upload and its grayscale view.
// Both images share the same bounds, anchored at the origin.
type DecodedImage struct {
	Color  *image.RGBA
	Gray   *image.Gray
	Format string
	MIME   string
}

// Width returns the image width in pixels.
func (d *DecodedImage) Width() int { return d.Color.Rect.Dx() }

// Height returns the image height in pixels.
func (d *DecodedImage) Height() int { return d.Color.Rect.Dy() }

// Decode parses raw upload bytes into an opaque RGB image plus its grayscale projection.
func Decode(raw []byte) (*DecodedImage, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrDecode)
	}

	mime := mimetype.Detect(raw).String()

	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w (%s): %v", ErrDecode, mime, err)
	}

	bounds := src.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w (%s): image has no pixels", ErrDecode, mime)
	}

	rgb := ToRGB(src)
	return &DecodedImage{
		Color:  rgb,
		Gray:   ToGray(rgb),
		Format: format,
		MIME:   mime,
	}, nil
}

// ToRGB copies src into an opaque RGBA image anchored at the origin.
// Alpha is discarded rather than composited, keeping the straight color values.
func ToRGB(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	if isOpaque(src) {
		draw.Draw(dst, dst.Rect, src, bounds.Min, draw.Src)
		return dst
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x-bounds.Min.X, y-bounds.Min.Y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return dst
}

// ToGray projects an RGB image onto a single luma channel (BT.601 weights).
func ToGray(src *image.RGBA) *image.Gray {
	gray := image.NewGray(src.Rect)
	for y := src.Rect.Min.Y; y < src.Rect.Max.Y; y++ {
		for x := src.Rect.Min.X; x < src.Rect.Max.X; x++ {
			i := src.PixOffset(x, y)
			r, g, b := uint32(src.Pix[i]), uint32(src.Pix[i+1]), uint32(src.Pix[i+2])
			gray.Pix[gray.PixOffset(x, y)] = uint8((299*r + 587*g + 114*b + 500) / 1000)
		}
	}
	return gray
}

func isOpaque(src image.Image) bool {
	if o, ok := src.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}
