package models

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/disintegration/imaging"
)

var ErrImageNotFound = errors.New("Image not found")

const maxThumbnailWidth = 1200

// Thumbnail resizes image data to width (aspect preserved) and re-encodes it as JPEG.
// width <= 0 returns the data unchanged with its sniffed content type.
func Thumbnail(data []byte, width int) ([]byte, string, error) {
	if len(data) == 0 {
		return nil, "", ErrImageNotFound
	}
	if width <= 0 {
		return data, http.DetectContentType(data), nil
	}
	if width > maxThumbnailWidth {
		width = maxThumbnailWidth
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}
	thumbnail := imaging.Resize(img, width, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail, imaging.JPEG); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "image/jpeg", nil
}
