package optimize

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func encodeTestJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestOptimizeNonImagePassthrough(t *testing.T) {
	payload := []byte("%PDF-1.4 not an image")
	got := Optimize(payload, "application/pdf")
	if !bytes.Equal(got, payload) {
		t.Fatal("non-image payload must pass through unchanged")
	}
}

func TestOptimizeInvalidImagePassthrough(t *testing.T) {
	payload := []byte("definitely not a jpeg")
	got := Optimize(payload, "image/jpeg")
	if !bytes.Equal(got, payload) {
		t.Fatal("undecodable image must pass through unchanged")
	}
}

func TestOptimizeShrinksLargeImage(t *testing.T) {
	original := encodeTestJPEG(t, 2400, 1200)
	got := Optimize(original, "image/jpeg")
	if len(got) >= len(original) {
		t.Fatalf("expected optimized payload smaller than original: got %d >= %d", len(got), len(original))
	}

	decoded, _, err := image.DecodeConfig(bytes.NewReader(got))
	if err != nil {
		t.Fatalf("decode optimized image: %v", err)
	}
	if decoded.Width > 1920 || decoded.Height > 1920 {
		t.Fatalf("expected longest edge bounded to 1920, got %dx%d", decoded.Width, decoded.Height)
	}
}

func TestOptimizeNeverUpscales(t *testing.T) {
	original := encodeTestJPEG(t, 100, 60)
	got := Optimize(original, "image/jpeg")

	decoded, _, err := image.DecodeConfig(bytes.NewReader(got))
	if err != nil {
		t.Fatalf("decode optimized image: %v", err)
	}
	if decoded.Width > 100 || decoded.Height > 60 {
		t.Fatalf("small image must not be upscaled, got %dx%d", decoded.Width, decoded.Height)
	}
}
