package colorutil

import (
	"fmt"
	"strconv"
	"strings"
)

// RGB is an 8-bit-per-channel color triple.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// HexToRGB parses a 6-digit hex color, with or without a leading '#'.
func HexToRGB(s string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("invalid hex color %q: want 6 digits", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return FromPacked(uint32(v)), nil
}

// RGBToHex renders the color as uppercase "#RRGGBB".
func RGBToHex(c RGB) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// FromPacked splits a packed 0xRRGGBB integer into channels. Some device
// responses report color this way.
func FromPacked(v uint32) RGB {
	return RGB{
		R: uint8((v >> 16) & 0xFF),
		G: uint8((v >> 8) & 0xFF),
		B: uint8(v & 0xFF),
	}
}

// Parse canonicalizes a color value to an uppercase hex string. It accepts a
// hex string, an RGB value, or a pointer to one.
func Parse(v any) (string, error) {
	switch c := v.(type) {
	case string:
		rgb, err := HexToRGB(c)
		if err != nil {
			return "", err
		}
		return RGBToHex(rgb), nil
	case RGB:
		return RGBToHex(c), nil
	case *RGB:
		if c == nil {
			return "", fmt.Errorf("nil color")
		}
		return RGBToHex(*c), nil
	default:
		return "", fmt.Errorf("unsupported color type %T", v)
	}
}
