package model

import "github.com/Faultbox/garment-paint/pkg/math"

// NewGroup creates a group node.
func NewGroup(name string, children ...*Node) *Node {
	return &Node{Name: name, Kind: KindGroup, Local: math.Identity(), Children: children}
}

// NewSurfaceNode wraps a surface in a node.
func NewSurfaceNode(s *Surface) *Node {
	return &Node{Name: s.Name, Kind: KindSurface, Local: math.Identity(), Surface: s}
}

// New builds a model around root and computes world transforms.
func New(name string, root *Node) *Model {
	m := &Model{Name: name, Root: root}
	m.UpdateWorld()
	return m
}

// Walk visits nodes depth-first in pre-order, children in declaration
// order, passing each node's world transform.
func (m *Model) Walk(fn func(n *Node, world math.Mat4)) {
	if m == nil || m.Root == nil {
		return
	}
	var visit func(n *Node, parent math.Mat4)
	visit = func(n *Node, parent math.Mat4) {
		world := parent.Mul(n.Local)
		fn(n, world)
		for _, c := range n.Children {
			visit(c, world)
		}
	}
	visit(m.Root, math.Identity())
}

// Surfaces returns every surface in traversal order.
func (m *Model) Surfaces() []*Surface {
	var out []*Surface
	m.Walk(func(n *Node, _ math.Mat4) {
		if n.Kind == KindSurface && n.Surface != nil {
			out = append(out, n.Surface)
		}
	})
	return out
}

// UpdateWorld pushes node transforms down to the surfaces.
func (m *Model) UpdateWorld() {
	m.Walk(func(n *Node, world math.Mat4) {
		if n.Kind == KindSurface && n.Surface != nil {
			n.Surface.SetWorld(world)
		}
	})
}

// Bounds returns the world-space bounds of all surfaces.
func (m *Model) Bounds() Bounds {
	var b Bounds
	for _, s := range m.Surfaces() {
		b.Union(s.WorldBounds())
	}
	return b
}

// Normalize centers the model on the origin and scales it uniformly so
// its largest dimension equals targetSize.
func (m *Model) Normalize(targetSize float32) {
	if m == nil || m.Root == nil || targetSize <= 0 {
		return
	}
	b := m.Bounds()
	if !b.Valid {
		return
	}
	size := b.Size()
	maxDim := size.X
	if size.Y > maxDim {
		maxDim = size.Y
	}
	if size.Z > maxDim {
		maxDim = size.Z
	}
	if maxDim == 0 {
		return
	}

	s := targetSize / maxDim
	c := b.Center().Scale(-s)
	m.Root.Local = math.Translate(c.X, c.Y, c.Z).Mul(math.Scale(s, s, s)).Mul(m.Root.Local)
	m.UpdateWorld()
}
