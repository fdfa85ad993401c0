package models

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestThumbnail(t *testing.T) {
	data := testPNG(t, 200, 100)

	original, contentType, err := Thumbnail(data, 0)
	if err != nil {
		t.Fatalf("Thumbnail(0): %v", err)
	}
	if contentType != "image/png" || !bytes.Equal(original, data) {
		t.Fatalf("width 0 should return original png, got %s", contentType)
	}

	resized, contentType, err := Thumbnail(data, 50)
	if err != nil {
		t.Fatalf("Thumbnail(50): %v", err)
	}
	if contentType != "image/jpeg" {
		t.Fatalf("content type = %s, want image/jpeg", contentType)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(resized))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	if format != "jpeg" || cfg.Width != 50 || cfg.Height != 25 {
		t.Fatalf("thumbnail = %s %dx%d, want jpeg 50x25", format, cfg.Width, cfg.Height)
	}
}

func TestThumbnail_Errors(t *testing.T) {
	if _, _, err := Thumbnail(nil, 100); !errors.Is(err, ErrImageNotFound) {
		t.Fatalf("expected ErrImageNotFound, got %v", err)
	}
	if _, _, err := Thumbnail([]byte("not an image"), 100); err == nil {
		t.Fatalf("expected decode error")
	}
}
