package brush

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
)

// disc is a hard-edged circular mask image. A pixel belongs to the disc
// when its center lies within radius of (cx, cy).
type disc struct {
	cx, cy, r float32
}

func (d *disc) ColorModel() color.Model { return color.Alpha16Model }

// Bounds covers every pixel whose center can fall inside the disc.
func (d *disc) Bounds() image.Rectangle {
	return image.Rect(
		int(math32.Floor(d.cx-d.r-0.5)),
		int(math32.Floor(d.cy-d.r-0.5)),
		int(math32.Ceil(d.cx+d.r+0.5)),
		int(math32.Ceil(d.cy+d.r+0.5)),
	)
}

func (d *disc) At(x, y int) color.Color {
	if d.Contains(x, y) {
		return color.Alpha16{A: 0xffff}
	}
	return color.Alpha16{}
}

// Contains reports whether pixel (x, y) is covered.
func (d *disc) Contains(x, y int) bool {
	dx := float32(x) + 0.5 - d.cx
	dy := float32(y) + 0.5 - d.cy
	return dx*dx+dy*dy <= d.r*d.r
}
