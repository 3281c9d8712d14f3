// Package layout converts editor-space placement settings into absolute
// document coordinates. Editor space has its origin top-left with y increasing
// downward; document space has its origin bottom-left with y increasing
// upward. The transform is pure and deterministic so that the queued batch
// path and any on-demand path produce identical layout for identical inputs.
package layout

import (
	"fmt"

	"github.com/attesta/certmailer/internal/domain/model"
)

const (
	// textInset and signatureInset compensate for the authoring surface's
	// border, in editor pixels, applied to both axes before the flip.
	textInset      = 6.0
	signatureInset = 1.0

	// baselineRatio approximates the distance from a text's visual top to
	// its baseline as a fraction of the font size.
	baselineRatio = 0.85

	// maxSignatureHeight caps rendered signature height, in editor pixels.
	maxSignatureHeight = 120.0

	// signatureLift nudges signatures up by a fraction of their rendered
	// height to correct the visual baseline mismatch after the flip.
	signatureLift = 0.08
)

// Size is a natural pixel size of a decoded signature image.
type Size struct {
	Width  float64
	Height float64
}

// TextPlacement is an absolute baseline position and font size in document space.
type TextPlacement struct {
	X        float64
	Y        float64
	FontSize float64
}

// ImagePlacement is an absolute rectangle in document space; X, Y locate the
// rectangle's bottom-left corner.
type ImagePlacement struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Absolute is the computed document-space layout for one certificate.
type Absolute struct {
	Name       TextPlacement
	Signatures []ImagePlacement
}

// Input carries everything the transform needs. SignatureSizes pairs by index
// with Signatures and holds each image's natural pixel dimensions.
type Input struct {
	Editor         model.EditorDimensions
	Name           model.NameStyle
	Signatures     []model.SignaturePlacement
	SignatureSizes []Size
	DocWidth       float64
	DocHeight      float64
}

// ComputeAbsolute maps editor-space settings onto a document of known pixel
// size. It fails when the editor width is unset or the signature pairing is
// inconsistent; zero signatures is valid.
func ComputeAbsolute(in Input) (Absolute, error) {
	if in.Editor.Width <= 0 {
		return Absolute{}, fmt.Errorf("editor width must be positive, got %v", in.Editor.Width)
	}
	if len(in.Signatures) != len(in.SignatureSizes) {
		return Absolute{}, fmt.Errorf("signature placements (%d) do not pair with sizes (%d)",
			len(in.Signatures), len(in.SignatureSizes))
	}

	scale := in.DocWidth / in.Editor.Width

	abs := Absolute{
		Name:       placeName(in.Name, scale, in.DocHeight),
		Signatures: make([]ImagePlacement, len(in.Signatures)),
	}
	for i, sig := range in.Signatures {
		abs.Signatures[i] = placeSignature(sig, in.SignatureSizes[i], scale, in.DocHeight)
	}
	return abs, nil
}

func placeName(style model.NameStyle, scale, docHeight float64) TextPlacement {
	inset := textInset * scale
	fontSize := style.FontSize * scale

	x := style.X*scale + inset
	yTop := style.Y*scale + inset

	// Flip into bottom-left space, then drop from the visual top to the baseline.
	y := docHeight - yTop - fontSize*baselineRatio

	return TextPlacement{X: x, Y: y, FontSize: fontSize}
}

func placeSignature(pos model.SignaturePlacement, natural Size, scale, docHeight float64) ImagePlacement {
	width, height := fitSignature(natural, maxSignatureHeight*scale)

	inset := signatureInset * scale
	x := pos.X*scale + inset
	yTop := pos.Y*scale + inset

	y := docHeight - yTop - height + height*signatureLift

	return ImagePlacement{X: x, Y: y, Width: width, Height: height}
}

// fitSignature downscales a signature to the cap height preserving aspect
// ratio; images at or under the cap keep their natural size.
func fitSignature(natural Size, capHeight float64) (width, height float64) {
	if natural.Height > capHeight {
		ratio := capHeight / natural.Height
		return natural.Width * ratio, capHeight
	}
	return natural.Width, natural.Height
}
