package render

import "strconv"

// RGB holds normalized color components in [0, 1].
type RGB struct {
	R float64
	G float64
	B float64
}

// ParseHexColor parses a 3- or 6-digit hex color with an optional leading '#'
// into normalized RGB. An empty or malformed value yields pure black.
func ParseHexColor(hex string) RGB {
	if hex == "" {
		return RGB{}
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	switch len(hex) {
	case 3:
		r, okR := hexNibble(hex[0])
		g, okG := hexNibble(hex[1])
		b, okB := hexNibble(hex[2])
		if !okR || !okG || !okB {
			return RGB{}
		}
		// Each nibble doubles: "f" → 0xff.
		return RGB{
			R: float64(r*16+r) / 255,
			G: float64(g*16+g) / 255,
			B: float64(b*16+b) / 255,
		}
	case 6:
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return RGB{}
		}
		return RGB{
			R: float64(v>>16&0xff) / 255,
			G: float64(v>>8&0xff) / 255,
			B: float64(v&0xff) / 255,
		}
	default:
		return RGB{}
	}
}

// Byte returns the components as 0-255 integers for drawing APIs.
func (c RGB) Byte() (r, g, b int) {
	return int(c.R*255 + 0.5), int(c.G*255 + 0.5), int(c.B*255 + 0.5)
}

func hexNibble(b byte) (uint64, bool) {
	v, err := strconv.ParseUint(string(b), 16, 8)
	if err != nil {
		return 0, false
	}
	return v, true
}
