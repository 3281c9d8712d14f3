package testutil

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/attesta/certmailer/internal/domain/model"
)

// PNGBase64 builds a small solid-color PNG and returns it base64 encoded.
func PNGBase64(t *testing.T, w, h int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 230, G: 230, B: 210, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// JobFixture builds a fully renderable job for the given recipient.
func JobFixture(t *testing.T, name, email string) *model.Job {
	t.Helper()

	return &model.Job{
		Recipient:     model.Recipient{Name: name, Email: email},
		TemplateImage: PNGBase64(t, 200, 150),
		Layout: model.Layout{
			Name: model.NameStyle{
				X: 50, Y: 60, FontSize: 18,
				FontFamily: "Helvetica",
				Color:      "#000000",
			},
			EditorDimensions: model.EditorDimensions{Width: 100, Height: 75},
		},
		EmailContent: model.EmailContent{
			Subject: "Your certificate",
			Body:    "Hello {{name}},\nyour certificate is attached.",
		},
	}
}
