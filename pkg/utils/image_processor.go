package utils

import (
	"bytes"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"mime/multipart"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

const (
	maxImageWidth = 2000
	webpQuality   = 85
)

// ProcessImage resizes oversized uploads and re-encodes them as WebP.
// Falls back to JPEG when the WebP encoder rejects the image.
func ProcessImage(file multipart.File) ([]byte, string, error) {
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, "", err
	}

	if img.Bounds().Dx() > maxImageWidth {
		img = imaging.Resize(img, maxImageWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: false, Quality: webpQuality}); err != nil {
		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: webpQuality}); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/jpeg", nil
	}

	return buf.Bytes(), "image/webp", nil
}
