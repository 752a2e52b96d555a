package picking

import (
	"sort"

	"github.com/Faultbox/garment-paint/internal/engine/model"
	"github.com/Faultbox/garment-paint/pkg/math"
)

// Viewport is the on-screen rectangle the scene is drawn into, in window
// pixels.
type Viewport struct {
	X, Y          int
	Width, Height int
}

// Contains reports whether the window position lies inside the viewport.
func (vp Viewport) Contains(x, y float32) bool {
	return x >= float32(vp.X) && x < float32(vp.X+vp.Width) &&
		y >= float32(vp.Y) && y < float32(vp.Y+vp.Height)
}

// PointerEvent is a pointer position in window pixels.
type PointerEvent struct {
	X, Y float32
}

// Camera supplies the combined view-projection transform.
type Camera interface {
	ViewProjection() math.Mat4
}

// Hit is a ray intersection with a surface.
type Hit struct {
	Surface  *model.Surface
	Triangle int
	Distance float32
	Point    math.Vec3
	UV       math.Vec2 // zero when the surface has no UVs
}

// RayFor builds the world-space ray under the pointer. It fails when the
// pointer is outside the viewport or the camera transform is singular.
func RayFor(ev PointerEvent, vp Viewport, cam Camera) (Ray, bool) {
	if vp.Width <= 0 || vp.Height <= 0 || !vp.Contains(ev.X, ev.Y) {
		return Ray{}, false
	}
	inv, ok := cam.ViewProjection().Inverse()
	if !ok {
		return Ray{}, false
	}
	return ScreenToRay(
		ev.X-float32(vp.X), ev.Y-float32(vp.Y),
		float32(vp.Width), float32(vp.Height), inv,
	), true
}

// Cast intersects the ray with every triangle of s and returns the closest
// hit. Triangles are double-sided.
func Cast(r Ray, s *model.Surface) (Hit, bool) {
	if s == nil {
		return Hit{}, false
	}
	b := s.WorldBounds()
	if !b.Valid {
		return Hit{}, false
	}
	if _, ok := r.IntersectAABB(AABB{Min: b.Min, Max: b.Max}); !ok {
		return Hit{}, false
	}

	pos := s.WorldPositions()
	n := uint32(len(pos))
	best := Hit{Triangle: -1}
	for i := 0; i < s.TriangleCount(); i++ {
		ia, ib, ic := s.Triangle(i)
		if ia >= n || ib >= n || ic >= n {
			continue
		}
		t, u, v, ok := r.IntersectTriangle(pos[ia], pos[ib], pos[ic])
		if !ok || (best.Triangle >= 0 && t >= best.Distance) {
			continue
		}
		best = Hit{Surface: s, Triangle: i, Distance: t, Point: r.At(t)}
		if s.HasUV {
			w := 1 - u - v
			best.UV = s.UVs[ia].Scale(w).Add(s.UVs[ib].Scale(u)).Add(s.UVs[ic].Scale(v))
		}
	}
	return best, best.Triangle >= 0
}

// Resolve maps a pointer position to the texture coordinate of the closest
// point on s under it. Surfaces without UVs never resolve.
func Resolve(ev PointerEvent, vp Viewport, cam Camera, s *model.Surface) (math.Vec2, bool) {
	if s == nil || !s.HasUV {
		return math.Vec2{}, false
	}
	r, ok := RayFor(ev, vp, cam)
	if !ok {
		return math.Vec2{}, false
	}
	hit, ok := Cast(r, s)
	if !ok {
		return math.Vec2{}, false
	}
	return hit.UV, true
}

// SurveyHits casts r against every surface and returns all hits, nearest
// first. It is used for diagnostics.
func SurveyHits(r Ray, surfaces []*model.Surface) []Hit {
	var hits []Hit
	for _, s := range surfaces {
		if h, ok := Cast(r, s); ok {
			hits = append(hits, h)
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits
}
