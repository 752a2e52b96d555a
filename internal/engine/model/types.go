// Package model holds the loaded garment model as a tree of tagged nodes,
// and selects which of its surfaces can be painted.
package model

import (
	"image"
	"image/color"

	"github.com/Faultbox/garment-paint/pkg/math"
)

// NodeKind tags what a node is. It is decided once at load time.
type NodeKind int

const (
	KindOther NodeKind = iota
	KindGroup
	KindSurface
)

func (k NodeKind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindSurface:
		return "surface"
	default:
		return "other"
	}
}

// Node is one element of the model hierarchy. Surface is set iff Kind is
// KindSurface.
type Node struct {
	Name     string
	Kind     NodeKind
	Local    math.Mat4
	Children []*Node
	Surface  *Surface
}

// Model is a loaded scene graph.
type Model struct {
	Name string
	Root *Node
}

// Material is the render state of one surface. Source is the texture the
// model shipped with and is never modified; Map is what the renderer
// currently samples (nil means Color only).
type Material struct {
	Name        string
	Color       color.RGBA
	Source      image.Image
	Map         image.Image
	Visible     bool
	Opacity     float32
	Transparent bool
	Wireframe   bool
	DoubleSided bool
}

// NewMaterial returns an opaque white, visible material.
func NewMaterial(name string) *Material {
	return &Material{
		Name:        name,
		Color:       color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Visible:     true,
		Opacity:     1,
		DoubleSided: true,
	}
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min, Max math.Vec3
	Valid    bool
}

// Extend grows b to include p.
func (b *Bounds) Extend(p math.Vec3) {
	if !b.Valid {
		b.Min, b.Max, b.Valid = p, p, true
		return
	}
	b.Min = b.Min.Min(p)
	b.Max = b.Max.Max(p)
}

// Union grows b to include o.
func (b *Bounds) Union(o Bounds) {
	if !o.Valid {
		return
	}
	b.Extend(o.Min)
	b.Extend(o.Max)
}

// Center returns the box midpoint.
func (b Bounds) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the box extent along each axis.
func (b Bounds) Size() math.Vec3 {
	return b.Max.Sub(b.Min)
}
