// Package compress shrinks photos before they are stored.
package compress

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/partyhub/partyhub/internal/errdef"
)

// Compressor downsizes and re-encodes JPEG and PNG images. Any other content is passed through.
type Compressor struct {
	// MaxDimension is the maximum width and height of a compressed image. Zero disables resizing.
	MaxDimension int
	// JPEGQuality ranges from 1 to 100.
	JPEGQuality int
	// MinBytes is the size below which images are not touched.
	MinBytes int
}

type Image struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

func (c Compressor) Compress(data []byte) (*Image, error) {
	contentType := mimetype.Detect(data).String()

	format, ok := formats[contentType]
	if !ok {
		return &Image{Data: data, ContentType: contentType}, nil
	}

	// dimensions are reported as displayed, after applying the EXIF orientation
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errdef.NewBadRequest("failed to decode %s image: %v", contentType, err)
	}
	original := img.Bounds()

	if len(data) < c.MinBytes {
		return &Image{Data: data, ContentType: contentType, Width: original.Dx(), Height: original.Dy()}, nil
	}

	if c.MaxDimension > 0 && (original.Dx() > c.MaxDimension || original.Dy() > c.MaxDimension) {
		img = imaging.Fit(img, c.MaxDimension, c.MaxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, c.encodeOptions()...); err != nil {
		return nil, fmt.Errorf("failed to encode %s image: %v", contentType, err)
	}

	if buf.Len() >= len(data) {
		return &Image{Data: data, ContentType: contentType, Width: original.Dx(), Height: original.Dy()}, nil
	}

	bounds := img.Bounds()
	return &Image{Data: buf.Bytes(), ContentType: contentType, Width: bounds.Dx(), Height: bounds.Dy()}, nil
}

var formats = map[string]imaging.Format{
	"image/jpeg": imaging.JPEG,
	"image/png":  imaging.PNG,
}

func (c Compressor) encodeOptions() []imaging.EncodeOption {
	quality := c.JPEGQuality
	if quality < 1 || quality > 100 {
		quality = 80
	}
	return []imaging.EncodeOption{
		imaging.JPEGQuality(quality),
		imaging.PNGCompressionLevel(png.BestCompression),
	}
}
