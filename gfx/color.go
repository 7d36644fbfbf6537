package gfx

import (
	"encoding/json"
	"fmt"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGB is an opaque 8-bit colour.
type RGB [3]uint8

// Common colours
var (
	Black = RGB{0, 0, 0}
	White = RGB{255, 255, 255}
)

// Color converts c to an opaque color.RGBA.
func (c RGB) Color() color.RGBA {
	return color.RGBA{c[0], c[1], c[2], 0xff}
}

// ParseRGB reads a "#rrggbb" or "#rgb" hex colour.
func ParseRGB(s string) (RGB, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid colour %q: %v", s, err)
	}
	r, g, b := c.RGB255()
	return RGB{r, g, b}, nil
}

// UnmarshalJSON accepts either [r, g, b] or a hex string.
func (c *RGB) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		rgb, err := ParseRGB(s)
		if err != nil {
			return err
		}
		*c = rgb
		return nil
	}

	var arr [3]uint8
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("colour must be [r, g, b] or \"#rrggbb\": %v", err)
	}
	*c = arr
	return nil
}

func (c RGB) String() string {
	return colorful.Color{
		R: float64(c[0]) / 255,
		G: float64(c[1]) / 255,
		B: float64(c[2]) / 255,
	}.Hex()
}
