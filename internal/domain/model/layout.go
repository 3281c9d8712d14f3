package model

import "fmt"

// NameStyle positions the recipient name in editor-pixel space
// (top-left origin, y increasing downward).
type NameStyle struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	FontSize   float64 `json:"font_size"`
	FontFamily string  `json:"font_family"`
	Color      string  `json:"color"` // hex, 3 or 6 digits, optional leading '#'
}

// SignaturePlacement positions one signature image in editor-pixel space.
// Placements pair by index with the job's signature image list.
type SignaturePlacement struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EditorDimensions is the on-screen pixel size of the template image at the
// time the layout was authored. A zero width marks an unset layout.
type EditorDimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Layout is the reusable visual arrangement authored against the reference
// template: name style, ordered signature placements, and the editor size
// they were expressed in.
type Layout struct {
	Name             NameStyle            `json:"name"`
	Signatures       []SignaturePlacement `json:"signatures"`
	EditorDimensions EditorDimensions     `json:"editor_dimensions"`
}

// Validate rejects layouts that cannot be rendered. signatureCount is the
// number of signature images the layout must pair with.
func (l *Layout) Validate(signatureCount int) error {
	if l.EditorDimensions.Width <= 0 {
		return fmt.Errorf("editor dimensions are unset (width %v)", l.EditorDimensions.Width)
	}
	if len(l.Signatures) != signatureCount {
		return fmt.Errorf("signature placements (%d) do not match signature images (%d)",
			len(l.Signatures), signatureCount)
	}
	return nil
}
