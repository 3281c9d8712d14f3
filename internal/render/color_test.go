package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want RGB
	}{
		{"short white with hash", "#fff", RGB{1, 1, 1}},
		{"long white with hash", "#ffffff", RGB{1, 1, 1}},
		{"long black without hash", "000000", RGB{0, 0, 0}},
		{"empty defaults to black", "", RGB{0, 0, 0}},
		{"short expands nibbles", "#a0c", RGB{R: 170.0 / 255, G: 0, B: 204.0 / 255}},
		{"red", "ff0000", RGB{R: 1}},
		{"malformed digits default to black", "zzzzzz", RGB{0, 0, 0}},
		{"malformed short defaults to black", "#xyz", RGB{0, 0, 0}},
		{"wrong length defaults to black", "#1234", RGB{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseHexColor(tt.in)
			assert.InDelta(t, tt.want.R, got.R, 1e-9)
			assert.InDelta(t, tt.want.G, got.G, 1e-9)
			assert.InDelta(t, tt.want.B, got.B, 1e-9)
		})
	}
}

func TestRGB_Byte(t *testing.T) {
	r, g, b := ParseHexColor("#fff").Byte()
	assert.Equal(t, 255, r)
	assert.Equal(t, 255, g)
	assert.Equal(t, 255, b)

	r, g, b = ParseHexColor("").Byte()
	assert.Equal(t, 0, r)
	assert.Equal(t, 0, g)
	assert.Equal(t, 0, b)
}
