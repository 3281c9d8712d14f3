package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/jpeg"
	"image/png"
	"strings"
)

// Image format identifiers as the PDF engine expects them.
const (
	formatPNG = "PNG"
	formatJPG = "JPG"
)

// decodedImage is a raster image ready to embed: raw bytes, the recognized
// format, and natural pixel dimensions.
type decodedImage struct {
	data   []byte
	format string
	width  float64
	height float64
}

// decodeBase64Image strips an optional data-URL prefix and decodes the
// base64 payload.
func decodeBase64Image(encoded string) ([]byte, error) {
	if strings.HasPrefix(encoded, "data:") {
		idx := strings.IndexByte(encoded, ',')
		if idx < 0 {
			return nil, fmt.Errorf("data URL without payload separator")
		}
		encoded = encoded[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode base64 image: %w", err)
	}
	return data, nil
}

// sniffImage attempts to read the image header as PNG; on failure it attempts
// JPEG before giving up. The two-branch fallback mirrors how authored
// templates arrive in either format regardless of their declared name.
func sniffImage(data []byte) (decodedImage, error) {
	if cfg, err := png.DecodeConfig(bytes.NewReader(data)); err == nil {
		return decodedImage{
			data:   data,
			format: formatPNG,
			width:  float64(cfg.Width),
			height: float64(cfg.Height),
		}, nil
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return decodedImage{}, fmt.Errorf("image is neither PNG nor JPEG: %w", err)
	}
	return decodedImage{
		data:   data,
		format: formatJPG,
		width:  float64(cfg.Width),
		height: float64(cfg.Height),
	}, nil
}

// decodeEncodedImage combines base64 decoding and format sniffing.
func decodeEncodedImage(encoded string) (decodedImage, error) {
	data, err := decodeBase64Image(encoded)
	if err != nil {
		return decodedImage{}, err
	}
	return sniffImage(data)
}
