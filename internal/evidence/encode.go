package evidence

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"strings"
)

// Encoder turns rendered pixels into JPEG bytes. quality is 1-100.
type Encoder interface {
	Name() string
	Encode(img image.Image, quality int) ([]byte, error)
}

type streamEncoder struct{}

// StreamEncoder writes JPEG straight into a buffer.
func StreamEncoder() Encoder { return streamEncoder{} }

func (streamEncoder) Name() string { return "stream" }

func (streamEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type dataURLEncoder struct{}

// DataURLEncoder renders a data: URL first and decodes the bytes back out
// of it.
func DataURLEncoder() Encoder { return dataURLEncoder{} }

func (dataURLEncoder) Name() string { return "dataURL" }

func (dataURLEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	var sb strings.Builder
	sb.WriteString("data:" + JPEGMIMEType + ";base64,")

	b64 := base64.NewEncoder(base64.StdEncoding, &sb)
	if err := jpeg.Encode(b64, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	if err := b64.Close(); err != nil {
		return nil, err
	}
	return decodeDataURL(sb.String())
}
