// Package render produces the final certificate document bytes from a job's
// template image, recipient name and signature images.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/attesta/certmailer/internal/domain/layout"
	"github.com/attesta/certmailer/internal/domain/model"
	apperrors "github.com/attesta/certmailer/internal/errors"
)

// Exactly two typefaces are supported: a serif face when the requested family
// names a Times variant, and a sans-serif fallback for everything else.
const (
	fontSerif = "Times"
	fontSans  = "Helvetica"
)

// Renderer builds single-page PDF certificates sized to the template image.
// It performs no disk or network I/O; Render is safe for concurrent use.
type Renderer struct{}

// New constructs a Renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render produces the certificate bytes for one job. It fails with a Render
// error on malformed images or document assembly failures.
func (r *Renderer) Render(job *model.Job) ([]byte, error) {
	tmpl, err := decodeEncodedImage(job.TemplateImage)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeRender, "decode template image")
	}

	sigs := make([]decodedImage, len(job.SignatureImages))
	sizes := make([]layout.Size, len(job.SignatureImages))
	for i, encoded := range job.SignatureImages {
		sig, sigErr := decodeEncodedImage(encoded)
		if sigErr != nil {
			return nil, apperrors.Wrapf(sigErr, apperrors.ErrCodeRender, "decode signature image %d", i)
		}
		sigs[i] = sig
		sizes[i] = layout.Size{Width: sig.width, Height: sig.height}
	}

	abs, err := layout.ComputeAbsolute(layout.Input{
		Editor:         job.Layout.EditorDimensions,
		Name:           job.Layout.Name,
		Signatures:     job.Layout.Signatures,
		SignatureSizes: sizes,
		DocWidth:       tmpl.width,
		DocHeight:      tmpl.height,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeRender, "compute layout")
	}

	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: tmpl.width, Ht: tmpl.height},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()

	drawImage(doc, "template", tmpl, 0, 0, tmpl.width, tmpl.height)
	drawName(doc, job, abs.Name, tmpl.height)

	// Placement order is the pairing key with the image list; never reorder.
	for i, sig := range sigs {
		p := abs.Signatures[i]
		// The layout's y locates the image's bottom edge in bottom-left
		// space; the page draws from the top edge downward.
		drawImage(doc, fmt.Sprintf("signature-%d", i), sig, p.X, tmpl.height-p.Y-p.Height, p.Width, p.Height)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeRender, "assemble document")
	}
	return buf.Bytes(), nil
}

func drawName(doc *fpdf.Fpdf, job *model.Job, p layout.TextPlacement, docHeight float64) {
	doc.SetFont(selectFont(job.Layout.Name.FontFamily), "", p.FontSize)
	red, green, blue := ParseHexColor(job.Layout.Name.Color).Byte()
	doc.SetTextColor(red, green, blue)

	// Core fonts are cp1252: translate so accented names survive.
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.Text(p.X, docHeight-p.Y, tr(job.Recipient.Name))
}

func drawImage(doc *fpdf.Fpdf, name string, img decodedImage, x, y, w, h float64) {
	opts := fpdf.ImageOptions{ImageType: img.format}
	doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.data))
	doc.ImageOptions(name, x, y, w, h, false, opts, 0, "")
}

func selectFont(family string) string {
	if strings.Contains(strings.ToLower(family), "times") {
		return fontSerif
	}
	return fontSans
}
