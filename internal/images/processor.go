// Package images normalizes uploaded pictures: everything decodable is
// re-encoded as JPEG, compressed, and downscaled if still over the size
// ceiling. Undecodable input falls back to the original bytes so an exotic
// but valid image never fails an upload.
package images

import (
	"bytes"
	"image"
	"image/jpeg"
	"net/http"
	"path/filepath"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

const (
	// maxEncodedSize is the ceiling after re-encoding; larger results get
	// downscaled once before giving up.
	maxEncodedSize = 2 * 1024 * 1024
	resizeWidth    = 1024
	jpegQuality    = 80
)

// Processed is the normalized upload payload.
type Processed struct {
	Data        []byte
	ContentType string
	Ext         string
}

// Process re-encodes data as a compressed JPEG. If decoding or encoding
// fails the original bytes are returned unchanged with their detected
// content type and the extension of originalName.
func Process(data []byte, originalName string) Processed {
	fallback := Processed{
		Data:        data,
		ContentType: http.DetectContentType(data),
		Ext:         extOf(originalName),
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fallback
	}

	encoded, err := encodeJPEG(img)
	if err != nil {
		return fallback
	}

	if len(encoded) > maxEncodedSize {
		if scaled := downscale(img, resizeWidth); scaled != nil {
			if reencoded, err := encodeJPEG(scaled); err == nil {
				encoded = reencoded
			}
		}
	}

	return Processed{
		Data:        encoded,
		ContentType: "image/jpeg",
		Ext:         ".jpg",
	}
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// downscale resizes to the target width, preserving aspect ratio. Images
// already narrower are left alone.
func downscale(img image.Image, width int) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() <= width {
		return nil
	}

	height := bounds.Dy() * width / bounds.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func extOf(name string) string {
	if ext := filepath.Ext(name); ext != "" {
		return ext
	}
	return ".bin"
}
