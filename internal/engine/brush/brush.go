// Package brush stamps filled discs into texture layers at texture-space
// (UV) coordinates. It has no knowledge of 3D geometry.
package brush

import (
	"image"
	"image/color"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/Faultbox/garment-paint/internal/engine/texture"
	"github.com/Faultbox/garment-paint/pkg/math"
)

// Painter applies stamps to a set of layers.
type Painter struct {
	log *zap.Logger
}

// New creates a painter that reports out-of-range coordinates to log.
// A nil log discards them.
func New(log *zap.Logger) *Painter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Painter{log: log}
}

// PixelCenter maps a UV coordinate to pixel space. V grows upward in texture
// space and Y grows downward in pixel space, hence the flip. Values outside
// [0,1] extrapolate.
func PixelCenter(uv math.Vec2, width, height int) (x, y float32) {
	return uv.X * float32(width), (1 - uv.Y) * float32(height)
}

// Stamp draws a disc of the given radius and color into the paint layer and
// an opaque edited-sentinel disc of the same shape into the mask, then
// recomposites the affected area and marks the layers painted.
//
// The stroke color's own alpha is kept; the disc is composited source-over
// onto earlier paint. Coordinates outside [0,1] are logged and still applied.
// It returns the pixel rectangle that may have changed.
func (p *Painter) Stamp(l *texture.Layers, uv math.Vec2, c color.Color, radius float32) image.Rectangle {
	if !uv.InUnitSquare() {
		p.log.Warn("uv out of range",
			zap.Float32("u", uv.X),
			zap.Float32("v", uv.Y),
		)
	}

	cx, cy := PixelCenter(uv, l.Width(), l.Height())
	d := &disc{cx: cx, cy: cy, r: radius}
	r := d.Bounds()

	draw.DrawMask(l.Paint, r, image.NewUniform(c), image.Point{}, d, r.Min, draw.Over)
	draw.DrawMask(l.Mask, r, image.NewUniform(texture.MaskEdited), image.Point{}, d, r.Min, draw.Over)

	l.RecompositeRect(r)
	l.MarkPainted()

	return r.Intersect(l.Bounds())
}
