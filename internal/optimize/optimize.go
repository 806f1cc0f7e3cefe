// Package optimize shrinks image payloads before they reach the object
// store. Optimization is best-effort: any failure returns the original
// bytes untouched so ingestion never aborts here.
package optimize

import (
	"bytes"
	"strings"

	"github.com/disintegration/imaging"

	"records-backend/internal/shared/telemetry"
)

const (
	// maxEdge bounds the longest edge of stored images. Images are never
	// upscaled.
	maxEdge = 1920

	jpegQuality = 80
)

// Optimize returns a reduced-size encoding of image payloads and passes
// every other payload through unchanged.
func Optimize(data []byte, mimeType string) []byte {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "image/") {
		return data
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		telemetry.Warn("optimize.decode_failed", map[string]any{
			"mime_type": mimeType,
			"error":     err.Error(),
		})
		return data
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxEdge || bounds.Dy() > maxEdge {
		img = imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos)
	}

	format := imaging.JPEG
	var encodeOpts []imaging.EncodeOption
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/png":
		format = imaging.PNG
	case "image/gif":
		format = imaging.GIF
	default:
		encodeOpts = append(encodeOpts, imaging.JPEGQuality(jpegQuality))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, encodeOpts...); err != nil {
		telemetry.Warn("optimize.encode_failed", map[string]any{
			"mime_type": mimeType,
			"error":     err.Error(),
		})
		return data
	}

	// Re-encoding small images can grow them; the smaller payload wins.
	if buf.Len() >= len(data) {
		return data
	}
	return buf.Bytes()
}
