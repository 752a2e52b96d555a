package model

import "github.com/Faultbox/garment-paint/pkg/math"

// Surface is a drawable triangle mesh. HasUV records whether every vertex
// carries a texture coordinate; only such surfaces can be painted.
type Surface struct {
	Name      string
	Positions []math.Vec3
	UVs       []math.Vec2
	Indices   []uint32
	HasUV     bool
	Material  *Material

	world       math.Mat4
	worldPos    []math.Vec3
	worldBounds Bounds
}

// NewSurface creates a surface with an identity world transform. uvs may be
// nil; when present it must have one entry per position.
func NewSurface(name string, positions []math.Vec3, uvs []math.Vec2, indices []uint32) *Surface {
	s := &Surface{
		Name:      name,
		Positions: positions,
		Indices:   indices,
		Material:  NewMaterial(name),
		world:     math.Identity(),
	}
	if len(uvs) > 0 && len(uvs) == len(positions) {
		s.UVs = uvs
		s.HasUV = true
	}
	return s
}

// VertexCount returns the number of vertices.
func (s *Surface) VertexCount() int {
	return len(s.Positions)
}

// TriangleCount returns the number of triangles.
func (s *Surface) TriangleCount() int {
	if s.Indices != nil {
		return len(s.Indices) / 3
	}
	return len(s.Positions) / 3
}

// Triangle returns the vertex indices of triangle i.
func (s *Surface) Triangle(i int) (a, b, c uint32) {
	if s.Indices != nil {
		return s.Indices[3*i], s.Indices[3*i+1], s.Indices[3*i+2]
	}
	return uint32(3 * i), uint32(3*i + 1), uint32(3*i + 2)
}

// World returns the surface's world transform.
func (s *Surface) World() math.Mat4 {
	return s.world
}

// SetWorld sets the world transform and drops cached world-space data.
func (s *Surface) SetWorld(m math.Mat4) {
	s.world = m
	s.worldPos = nil
	s.worldBounds = Bounds{}
}

// WorldPositions returns vertex positions in world space, computed lazily.
func (s *Surface) WorldPositions() []math.Vec3 {
	if s.worldPos == nil && len(s.Positions) > 0 {
		s.worldPos = make([]math.Vec3, len(s.Positions))
		for i, p := range s.Positions {
			w := s.world.TransformPoint(p)
			s.worldPos[i] = w
			s.worldBounds.Extend(w)
		}
	}
	return s.worldPos
}

// WorldBounds returns the world-space bounding box.
func (s *Surface) WorldBounds() Bounds {
	s.WorldPositions()
	return s.worldBounds
}
