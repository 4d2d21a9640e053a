package evidence

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxSourcePixels bounds the decoded size of an input image.
const MaxSourcePixels = 64 << 20

var errEmptyImage = errors.New("image has no pixels")

// Decoder turns encoded bytes into pixels.
type Decoder interface {
	Name() string
	Decode(data []byte) (image.Image, error)
}

type orientedDecoder struct{}

// OrientedDecoder decodes and then applies the EXIF orientation tag, so a
// phone photo taken sideways comes out upright.
func OrientedDecoder() Decoder { return orientedDecoder{} }

func (orientedDecoder) Name() string { return "oriented" }

func (orientedDecoder) Decode(data []byte) (img image.Image, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			img, err = nil, fmt.Errorf("oriented decode panicked: %v", rec)
		}
	}()

	img, err = decodeBounded(data)
	if err != nil {
		return nil, err
	}
	return applyOrientation(img, readOrientation(data)), nil
}

type plainDecoder struct{}

// PlainDecoder decodes with the registered image formats and ignores metadata.
func PlainDecoder() Decoder { return plainDecoder{} }

func (plainDecoder) Name() string { return "plain" }

func (plainDecoder) Decode(data []byte) (image.Image, error) {
	return decodeBounded(data)
}

func decodeBounded(data []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errEmptyImage
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxSourcePixels {
		return nil, fmt.Errorf("image %dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxSourcePixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errEmptyImage
	}
	return img, nil
}

// readOrientation returns the EXIF orientation (1-8), or 1 when absent.
func readOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	value, err := tag.Int(0)
	if err != nil || value < 1 || value > 8 {
		return 1
	}
	return value
}

// applyOrientation maps img into its upright form. Orientations 5-8 swap
// width and height.
func applyOrientation(img image.Image, orientation int) image.Image {
	if orientation <= 1 || orientation > 8 {
		return img
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dw, dh := w, h
	if orientation >= 5 {
		dw, dh = h, w
	}

	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			var sx, sy int
			switch orientation {
			case 2:
				sx, sy = w-1-x, y
			case 3:
				sx, sy = w-1-x, h-1-y
			case 4:
				sx, sy = x, h-1-y
			case 5:
				sx, sy = y, x
			case 6:
				sx, sy = y, h-1-x
			case 7:
				sx, sy = w-1-y, h-1-x
			case 8:
				sx, sy = w-1-y, x
			}
			dst.Set(x, y, img.At(b.Min.X+sx, b.Min.Y+sy))
		}
	}
	return dst
}
