package canvas

import (
	"image/color"

	"gonum.org/v1/gonum/spatial/r3"
)

// Marker highlights a world position, e.g. a selected cell.
type Marker struct {
	Pos    r3.Vec
	Radius float64 // pixels
	Color  color.RGBA
	Filled bool
}

var (
	background    = color.RGBA{R: 0x14, G: 0x16, B: 0x1A, A: 0xFF}
	boxColor      = color.RGBA{R: 0x50, G: 0x58, B: 0x66, A: 0xFF}
	previewColor  = color.RGBA{R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF}
	inactiveColor = color.RGBA{R: 0x70, G: 0x70, B: 0x70, A: 0xFF}

	// SelectionColor outlines selected cells.
	SelectionColor = color.RGBA{R: 0xFF, G: 0xA0, B: 0x00, A: 0xFF}
	// InactiveColor fills type 0 cells.
	InactiveColor = inactiveColor
)
