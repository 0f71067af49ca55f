package compress

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/partyhub/partyhub/internal/errdef"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: uint8((x * y) % 256), A: 255})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}))
	return buf.Bytes()
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: png.NoCompression}
	require.NoError(t, encoder.Encode(&buf, img))
	return buf.Bytes()
}

// withOrientation inserts an EXIF segment holding only the orientation tag right after the start of
// image marker, the way cameras do for photos taken in portrait.
func withOrientation(data []byte, orientation byte) []byte {
	exif := []byte{
		'E', 'x', 'i', 'f', 0, 0,
		'M', 'M', 0x00, 0x2a, 0x00, 0x00, 0x00, 0x08, // big endian TIFF header, IFD at offset 8
		0x00, 0x01, // one entry
		0x01, 0x12, 0x00, 0x03, 0x00, 0x00, 0x00, 0x01, 0x00, orientation, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, // no next IFD
	}
	size := len(exif) + 2
	segment := append([]byte{0xff, 0xe1, byte(size >> 8), byte(size)}, exif...)

	oriented := append([]byte{}, data[:2]...)
	oriented = append(oriented, segment...)
	return append(oriented, data[2:]...)
}

func TestCompress_EXIFOrientation(t *testing.T) {
	// 6 means the camera was rotated 90 degrees clockwise
	data := withOrientation(encodeJPEG(t, newImage(400, 200)), 6)

	t.Run("Compressed", func(t *testing.T) {
		got, err := Compressor{MaxDimension: 1000, JPEGQuality: 60}.Compress(data)

		require.NoError(t, err)
		assert.Equal(t, 200, got.Width)
		assert.Equal(t, 400, got.Height)
	})

	t.Run("Resized", func(t *testing.T) {
		got, err := Compressor{MaxDimension: 100, JPEGQuality: 60}.Compress(data)

		require.NoError(t, err)
		assert.Equal(t, 50, got.Width)
		assert.Equal(t, 100, got.Height)
		config, _, err := image.DecodeConfig(bytes.NewReader(got.Data))
		require.NoError(t, err)
		assert.Equal(t, 50, config.Width, "pixels should be rotated as EXIF is not kept")
	})

	t.Run("SmallerThanMinBytes", func(t *testing.T) {
		got, err := Compressor{MaxDimension: 100, MinBytes: len(data) + 1}.Compress(data)

		require.NoError(t, err)
		assert.Equal(t, data, got.Data)
		assert.Equal(t, 200, got.Width)
		assert.Equal(t, 400, got.Height)
	})
}

func TestCompress(t *testing.T) {
	t.Run("ResizesLargeJPEG", func(t *testing.T) {
		data := encodeJPEG(t, newImage(1600, 1200))
		compressor := Compressor{MaxDimension: 800, JPEGQuality: 70}

		got, err := compressor.Compress(data)

		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", got.ContentType)
		assert.Equal(t, 800, got.Width)
		assert.Equal(t, 600, got.Height)
		assert.Less(t, len(got.Data), len(data))
		config, format, err := image.DecodeConfig(bytes.NewReader(got.Data))
		require.NoError(t, err)
		assert.Equal(t, "jpeg", format)
		assert.Equal(t, 800, config.Width)
	})

	t.Run("KeepsPNGFormat", func(t *testing.T) {
		data := encodePNG(t, newImage(400, 1000))
		compressor := Compressor{MaxDimension: 500}

		got, err := compressor.Compress(data)

		require.NoError(t, err)
		assert.Equal(t, "image/png", got.ContentType)
		assert.Equal(t, 200, got.Width)
		assert.Equal(t, 500, got.Height)
		_, format, err := image.DecodeConfig(bytes.NewReader(got.Data))
		require.NoError(t, err)
		assert.Equal(t, "png", format)
	})

	t.Run("NeverUpscales", func(t *testing.T) {
		data := encodeJPEG(t, newImage(300, 200))
		compressor := Compressor{MaxDimension: 1920, JPEGQuality: 60}

		got, err := compressor.Compress(data)

		require.NoError(t, err)
		assert.Equal(t, 300, got.Width)
		assert.Equal(t, 200, got.Height)
	})

	t.Run("SmallerThanMinBytesIsUnchanged", func(t *testing.T) {
		data := encodeJPEG(t, newImage(1600, 1200))
		compressor := Compressor{MaxDimension: 800, JPEGQuality: 70, MinBytes: len(data) + 1}

		got, err := compressor.Compress(data)

		require.NoError(t, err)
		assert.Equal(t, data, got.Data)
		assert.Equal(t, 1600, got.Width)
		assert.Equal(t, 1200, got.Height)
	})

	t.Run("OriginalKeptWhenNotSmaller", func(t *testing.T) {
		var buf bytes.Buffer
		encoder := png.Encoder{CompressionLevel: png.BestCompression}
		require.NoError(t, encoder.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))
		data := buf.Bytes()

		got, err := Compressor{}.Compress(data)

		require.NoError(t, err)
		assert.LessOrEqual(t, len(got.Data), len(data))
		assert.Equal(t, 2, got.Width)
	})

	t.Run("NonImagePassesThrough", func(t *testing.T) {
		data := []byte("just some text about a party")

		got, err := Compressor{MaxDimension: 10}.Compress(data)

		require.NoError(t, err)
		assert.Equal(t, data, got.Data)
		assert.Equal(t, "text/plain; charset=utf-8", got.ContentType)
		assert.Zero(t, got.Width)
	})

	t.Run("CorruptImage", func(t *testing.T) {
		data := encodeJPEG(t, newImage(50, 50))[:40]

		_, err := Compressor{}.Compress(data)

		require.Error(t, err)
		assert.True(t, errdef.IsBadRequest(err))
	})
}
