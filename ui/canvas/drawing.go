package canvas

import (
	"image"
	"image/color"
)

func fill(output *image.RGBA, col color.RGBA) {
	for i := 0; i+3 < len(output.Pix); i += 4 {
		output.Pix[i] = col.R
		output.Pix[i+1] = col.G
		output.Pix[i+2] = col.B
		output.Pix[i+3] = col.A
	}
}

// drawCircle draws a filled or outlined circle on the output image.
func drawCircle(output *image.RGBA, cx, cy, r float64, col color.RGBA, filled bool) {
	bounds := output.Bounds()

	minX := int(cx - r - 1)
	maxX := int(cx + r + 1)
	minY := int(cy - r - 1)
	maxY := int(cy + r + 1)

	r2 := r * r
	innerR2 := (r - 2) * (r - 2) // 2 pixel outline thickness

	for y := minY; y <= maxY; y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		for x := minX; x <= maxX; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X {
				continue
			}
			dx := float64(x) - cx
			dy := float64(y) - cy
			dist2 := dx*dx + dy*dy
			if dist2 > r2 {
				continue
			}
			if filled || dist2 >= innerR2 {
				output.SetRGBA(x, y, col)
			}
		}
	}
}

// drawLine draws a line between two points using Bresenham's algorithm.
func drawLine(output *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	bounds := output.Bounds()

	dx := x2 - x1
	dy := y2 - y1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy

	for {
		for t := -thickness / 2; t <= thickness/2; t++ {
			for s := -thickness / 2; s <= thickness/2; s++ {
				px, py := x1+s, y1+t
				if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
					output.SetRGBA(px, py, col)
				}
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// drawRect outlines the rectangle spanned by two corners.
func drawRect(output *image.RGBA, x1, y1, x2, y2 int, col color.RGBA) {
	drawLine(output, x1, y1, x2, y1, col, 1)
	drawLine(output, x2, y1, x2, y2, col, 1)
	drawLine(output, x2, y2, x1, y2, col, 1)
	drawLine(output, x1, y2, x1, y1, col, 1)
}
