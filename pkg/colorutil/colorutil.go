// Package colorutil provides palette color utilities for cell categories.
package colorutil

import (
	"image/color"
	"math"

	"golang.org/x/image/math/f32"
)

// RGB is a palette entry with channels in 0..1, laid out as the kernel and
// the snapshot format store it.
type RGB = f32.Vec3

// Common palette colors.
var (
	Gray   = RGB{0.67, 0.67, 0.67}
	Red    = RGB{1, 0, 0}
	Green  = RGB{0, 1, 0}
	Blue   = RGB{0, 0, 1}
	Yellow = RGB{1, 1, 0}
)

// RGBToHSV converts RGB (0-1) to HSV (H 0-360, S 0-1, V 0-1).
func RGBToHSV(r, g, b float64) (h, s, v float64) {
	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	diff := maxC - minC

	v = maxC

	if maxC == 0 {
		s = 0
	} else {
		s = diff / maxC
	}

	if diff == 0 {
		h = 0
	} else if maxC == r {
		h = 60 * math.Mod((g-b)/diff, 6)
	} else if maxC == g {
		h = 60 * ((b-r)/diff + 2)
	} else {
		h = 60 * ((r-g)/diff + 4)
	}

	if h < 0 {
		h += 360
	}
	return h, s, v
}

// HSVToRGB converts HSV (H 0-360, S 0-1, V 0-1) to RGB (0-1).
func HSVToRGB(h, s, v float64) (r, g, b float64) {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}

// DefaultPalette returns n evenly spaced hues, one per active category.
func DefaultPalette(n int) []RGB {
	if n <= 0 {
		return nil
	}
	pal := make([]RGB, n)
	for i := range pal {
		r, g, b := HSVToRGB(float64(i)*360/float64(n), 0.55, 0.9)
		pal[i] = RGB{float32(r), float32(g), float32(b)}
	}
	return pal
}

// ToNRGBA converts a palette entry to an opaque display color.
func ToNRGBA(c RGB) color.NRGBA {
	return color.NRGBA{R: channel(c[0]), G: channel(c[1]), B: channel(c[2]), A: 255}
}

// FromColor converts any display color to a palette entry.
func FromColor(c color.Color) RGB {
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGB{float32(nc.R) / 255, float32(nc.G) / 255, float32(nc.B) / 255}
}

// ForType returns the palette entry for a cell type, where type 1 selects
// palette[0]. Types outside the palette fall back to Gray.
func ForType(palette []RGB, typ int) RGB {
	if typ < 1 || typ > len(palette) {
		return Gray
	}
	return palette[typ-1]
}

func channel(v float32) uint8 {
	if v <= 0 || v != v {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(float64(v) * 255))
}
