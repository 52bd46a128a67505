package images

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodeTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessReencodesPNGAsJPEG(t *testing.T) {
	data := encodeTestPNG(t, 64, 48)

	got := Process(data, "photo.png")
	require.Equal(t, "image/jpeg", got.ContentType)
	require.Equal(t, ".jpg", got.Ext)

	decoded, err := jpeg.Decode(bytes.NewReader(got.Data))
	require.NoError(t, err)
	require.Equal(t, 64, decoded.Bounds().Dx())
	require.Equal(t, 48, decoded.Bounds().Dy())
}

func TestProcessKeepsJPEGAsJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	got := Process(buf.Bytes(), "photo.jpeg")
	require.Equal(t, "image/jpeg", got.ContentType)
	require.Equal(t, ".jpg", got.Ext)
}

func TestProcessFallsBackOnUndecodableData(t *testing.T) {
	data := []byte("%PDF-1.4 definitely not an image")

	got := Process(data, "contract.pdf")
	require.Equal(t, data, got.Data)
	require.Equal(t, ".pdf", got.Ext)
	require.NotEqual(t, "image/jpeg", got.ContentType)
}

func TestProcessFallbackWithoutExtension(t *testing.T) {
	got := Process([]byte{0x00, 0x01, 0x02}, "blob")
	require.Equal(t, ".bin", got.Ext)
}

func TestDownscalePreservesAspectRatio(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2048, 1024))

	scaled := downscale(img, 1024)
	require.NotNil(t, scaled)
	require.Equal(t, 1024, scaled.Bounds().Dx())
	require.Equal(t, 512, scaled.Bounds().Dy())

	// Already narrow enough: no work to do.
	require.Nil(t, downscale(image.NewRGBA(image.Rect(0, 0, 800, 600)), 1024))
}
