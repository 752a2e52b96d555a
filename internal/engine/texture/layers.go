// Package texture owns the layered pixel buffers painted onto a surface:
// the untouched base texture, the paint layer, the edit mask, and the
// composite that the renderer samples.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/transform"
	"golang.org/x/image/draw"
)

const (
	// DefaultSize is the buffer edge length used when the surface has no texture.
	DefaultSize = 1024
	// MaxSize bounds either dimension of a layer set.
	MaxSize = 8192
)

// Mask sentinels. The mask only ever holds these two opaque colors.
var (
	MaskUnedited = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	MaskEdited   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// ErrInvalidSize is returned when a buffer cannot be allocated for the
// requested dimensions.
var ErrInvalidSize = errors.New("texture: invalid layer size")

// Layers is the set of same-sized buffers backing one paintable surface.
// Composite is base with paint drawn over it (source-over). Dimensions are
// fixed at creation.
type Layers struct {
	Base      *image.RGBA
	Paint     *image.RGBA
	Mask      *image.RGBA
	Composite *image.RGBA

	width, height int
	painted       bool
	version       uint64
}

// SizeFor returns the layer dimensions for a surface whose current texture
// is src: the texture's own size, or DefaultSize square when src is nil or
// empty. Textures larger than MaxSize are scaled down keeping their aspect.
func SizeFor(src image.Image) (width, height int) {
	if src == nil {
		return DefaultSize, DefaultSize
	}
	b := src.Bounds()
	width, height = b.Dx(), b.Dy()
	if width <= 0 || height <= 0 {
		return DefaultSize, DefaultSize
	}
	if width > MaxSize || height > MaxSize {
		if width >= height {
			height = max(1, height*MaxSize/width)
			width = MaxSize
		} else {
			width = max(1, width*MaxSize/height)
			height = MaxSize
		}
	}
	return width, height
}

// New allocates the four buffers. When src is non-nil it is scaled to fit
// and copied, flipped to layer orientation, into the base layer; otherwise base is fully transparent.
// The paint layer starts transparent and the mask starts unedited.
func New(width, height int, src image.Image) (*Layers, error) {
	if width <= 0 || height <= 0 || width > MaxSize || height > MaxSize {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	rect := image.Rect(0, 0, width, height)
	l := &Layers{
		Base:      image.NewRGBA(rect),
		Paint:     image.NewRGBA(rect),
		Mask:      image.NewRGBA(rect),
		Composite: image.NewRGBA(rect),
		width:     width,
		height:    height,
	}

	if src != nil {
		l.copyBase(src)
	}
	fill(l.Mask, MaskUnedited)
	l.Recomposite()

	return l, nil
}

// copyBase scales src to the layer size and flips it vertically. Model
// textures keep v=0 in the top row while layer rows follow y=(1-v)*H.
// Images already at the right size are copied pixel for pixel.
func (l *Layers) copyBase(src image.Image) {
	b := src.Bounds()
	var scaled *image.RGBA
	if b.Dx() == l.width && b.Dy() == l.height {
		scaled = clone.AsRGBA(src)
	} else {
		scaled = transform.Resize(src, l.width, l.height, transform.Linear)
	}
	flipped := transform.FlipV(scaled)
	draw.Draw(l.Base, l.Base.Bounds(), flipped, flipped.Bounds().Min, draw.Src)
}

// Width returns the buffer width in pixels.
func (l *Layers) Width() int { return l.width }

// Height returns the buffer height in pixels.
func (l *Layers) Height() int { return l.height }

// Bounds returns the shared buffer rectangle.
func (l *Layers) Bounds() image.Rectangle {
	return image.Rect(0, 0, l.width, l.height)
}

// Painted reports whether any stamp has been applied since creation or the
// last Clear.
func (l *Layers) Painted() bool { return l.painted }

// MarkPainted records that a stamp has been applied.
func (l *Layers) MarkPainted() { l.painted = true }

// Version increases every time the composite changes. Renderers compare it
// to decide whether to re-upload.
func (l *Layers) Version() uint64 { return l.version }

// Recomposite rebuilds the whole composite from base and paint.
func (l *Layers) Recomposite() {
	l.RecompositeRect(l.Bounds())
}

// RecompositeRect rebuilds the composite inside r only. The result inside r
// is identical to a full Recomposite.
func (l *Layers) RecompositeRect(r image.Rectangle) {
	r = r.Intersect(l.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(l.Composite, r, l.Base, r.Min, draw.Src)
	draw.Draw(l.Composite, r, l.Paint, r.Min, draw.Over)
	l.version++
}

// Clear erases all paint, resets the mask to unedited, recomposites, and
// clears the painted flag.
func (l *Layers) Clear() {
	fill(l.Paint, color.RGBA{})
	fill(l.Mask, MaskUnedited)
	l.Recomposite()
	l.painted = false
}

func fill(dst *image.RGBA, c color.RGBA) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}
