package picking

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/Faultbox/garment-paint/internal/engine/model"
	"github.com/Faultbox/garment-paint/pkg/math"
)

type fixedCamera math.Mat4

func (c fixedCamera) ViewProjection() math.Mat4 { return math.Mat4(c) }

// identityCamera maps NDC straight to world space, so rays run along +Z
// from z=-1 at the pointer's NDC position.
var identityCamera = fixedCamera(math.Identity())

// quad builds a square of half-size h at depth z, with UV (0,0) at the
// bottom-left corner.
func quad(name string, h, z float32, withUV bool) *model.Surface {
	pos := []math.Vec3{
		{X: -h, Y: -h, Z: z},
		{X: h, Y: -h, Z: z},
		{X: h, Y: h, Z: z},
		{X: -h, Y: h, Z: z},
	}
	var uvs []math.Vec2
	if withUV {
		uvs = []math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	}
	return model.NewSurface(name, pos, uvs, []uint32{0, 1, 2, 0, 2, 3})
}

func near(a, b float32) bool {
	return math32.Abs(a-b) < 1e-4
}

func TestScreenToRayIdentity(t *testing.T) {
	r := ScreenToRay(400, 300, 800, 600, math.Identity())
	if !near(r.Origin.X, 0) || !near(r.Origin.Y, 0) || !near(r.Origin.Z, -1) {
		t.Errorf("origin = %+v, want {0 0 -1}", r.Origin)
	}
	if !near(r.Direction.Z, 1) {
		t.Errorf("direction = %+v, want +Z", r.Direction)
	}
}

func TestIntersectAABB(t *testing.T) {
	box := AABB{Min: math.Vec3{X: -1, Y: -1, Z: -1}, Max: math.Vec3{X: 1, Y: 1, Z: 1}}
	tests := []struct {
		name  string
		ray   Ray
		hit   bool
		wantT float32
	}{
		{"straight on", Ray{math.Vec3{Z: -5}, math.Vec3{Z: 1}}, true, 4},
		{"from inside", Ray{math.Vec3{}, math.Vec3{Z: 1}}, true, 1},
		{"behind", Ray{math.Vec3{Z: 5}, math.Vec3{Z: 1}}, false, 0},
		{"beside, parallel", Ray{math.Vec3{X: 3, Z: -5}, math.Vec3{Z: 1}}, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := tt.ray.IntersectAABB(box)
			if hit != tt.hit {
				t.Fatalf("hit = %v, want %v", hit, tt.hit)
			}
			if hit && !near(got, tt.wantT) {
				t.Errorf("t = %v, want %v", got, tt.wantT)
			}
		})
	}
}

func TestIntersectTriangle(t *testing.T) {
	a := math.Vec3{X: -1, Y: -1}
	b := math.Vec3{X: 1, Y: -1}
	c := math.Vec3{X: 0, Y: 1}

	tests := []struct {
		name string
		ray  Ray
		hit  bool
	}{
		{"front face", Ray{math.Vec3{Z: 2}, math.Vec3{Z: -1}}, true},
		{"back face", Ray{math.Vec3{Z: -2}, math.Vec3{Z: 1}}, true},
		{"outside", Ray{math.Vec3{X: 2, Z: 2}, math.Vec3{Z: -1}}, false},
		{"parallel", Ray{math.Vec3{Z: 0}, math.Vec3{X: 1}}, false},
		{"pointing away", Ray{math.Vec3{Z: 2}, math.Vec3{Z: 1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dist, _, _, hit := tt.ray.IntersectTriangle(a, b, c)
			if hit != tt.hit {
				t.Fatalf("hit = %v, want %v", hit, tt.hit)
			}
			if hit && !near(dist, 2) {
				t.Errorf("t = %v, want 2", dist)
			}
		})
	}
}

func TestResolveInterpolatesUV(t *testing.T) {
	s := quad("front", 1, 0, true)
	vp := Viewport{Width: 800, Height: 600}

	tests := []struct {
		name   string
		ev     PointerEvent
		wantUV math.Vec2
	}{
		{"center", PointerEvent{X: 400, Y: 300}, math.Vec2{X: 0.5, Y: 0.5}},
		{"upper right", PointerEvent{X: 600, Y: 150}, math.Vec2{X: 0.75, Y: 0.75}},
		{"lower left", PointerEvent{X: 200, Y: 450}, math.Vec2{X: 0.25, Y: 0.25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uv, ok := Resolve(tt.ev, vp, identityCamera, s)
			if !ok {
				t.Fatal("expected a hit")
			}
			if !near(uv.X, tt.wantUV.X) || !near(uv.Y, tt.wantUV.Y) {
				t.Errorf("uv = %+v, want %+v", uv, tt.wantUV)
			}
		})
	}
}

func TestResolveMisses(t *testing.T) {
	vp := Viewport{Width: 800, Height: 600}

	tests := []struct {
		name string
		s    *model.Surface
		ev   PointerEvent
	}{
		{"off the surface", quad("small", 0.5, 0, true), PointerEvent{X: 10, Y: 10}},
		{"no uvs", quad("plain", 1, 0, false), PointerEvent{X: 400, Y: 300}},
		{"nil surface", nil, PointerEvent{X: 400, Y: 300}},
		{"outside viewport", quad("front", 1, 0, true), PointerEvent{X: 900, Y: 300}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if uv, ok := Resolve(tt.ev, vp, identityCamera, tt.s); ok {
				t.Errorf("unexpected hit at %+v", uv)
			}
		})
	}
}

func TestResolveViewportOffset(t *testing.T) {
	s := quad("front", 1, 0, true)
	vp := Viewport{X: 100, Y: 50, Width: 400, Height: 400}

	uv, ok := Resolve(PointerEvent{X: 300, Y: 250}, vp, identityCamera, s)
	if !ok {
		t.Fatal("expected a hit")
	}
	if !near(uv.X, 0.5) || !near(uv.Y, 0.5) {
		t.Errorf("uv = %+v, want center", uv)
	}
}

func TestResolveSingularCamera(t *testing.T) {
	s := quad("front", 1, 0, true)
	vp := Viewport{Width: 800, Height: 600}
	if _, ok := Resolve(PointerEvent{X: 400, Y: 300}, vp, fixedCamera{}, s); ok {
		t.Error("singular camera should not resolve")
	}
}

func TestCastPicksClosestTriangle(t *testing.T) {
	// Two stacked quads in one surface: the far one at z=0.5 has all UVs
	// at (0.9, 0.9); the near one at z=0 uses the usual layout.
	pos := []math.Vec3{
		{X: -1, Y: -1, Z: 0.5}, {X: 1, Y: -1, Z: 0.5}, {X: 1, Y: 1, Z: 0.5}, {X: -1, Y: 1, Z: 0.5},
		{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1},
	}
	far := math.Vec2{X: 0.9, Y: 0.9}
	uvs := []math.Vec2{far, far, far, far, {X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	s := model.NewSurface("layered", pos, uvs, []uint32{0, 1, 2, 0, 2, 3, 4, 5, 6, 4, 6, 7})

	r := Ray{Origin: math.Vec3{X: 0.5, Y: 0.5, Z: -1}, Direction: math.Vec3{Z: 1}}
	hit, ok := Cast(r, s)
	if !ok {
		t.Fatal("expected a hit")
	}
	if !near(hit.Distance, 1) {
		t.Errorf("distance = %v, want 1", hit.Distance)
	}
	if !near(hit.UV.X, 0.75) || !near(hit.UV.Y, 0.75) {
		t.Errorf("uv = %+v, want {0.75 0.75}", hit.UV)
	}
}

func TestResolvePerspective(t *testing.T) {
	proj := math.Perspective(math32.Pi/4, 800.0/600.0, 0.1, 1000)
	view := math.LookAt(math.Vec3{Z: 5}, math.Vec3{}, math.Vec3{Y: 1})
	cam := fixedCamera(proj.Mul(view))
	s := quad("front", 1, 0, true)

	uv, ok := Resolve(PointerEvent{X: 400, Y: 300}, Viewport{Width: 800, Height: 600}, cam, s)
	if !ok {
		t.Fatal("expected a hit through the screen center")
	}
	if !near(uv.X, 0.5) || !near(uv.Y, 0.5) {
		t.Errorf("uv = %+v, want center", uv)
	}
}

func TestSurveyHitsNearestFirst(t *testing.T) {
	back := quad("back", 1, 0.5, true)
	front := quad("front", 1, 0, true)
	beside := quad("beside", 0.1, 0, true)
	beside.SetWorld(math.Translate(5, 0, 0))

	r := Ray{Origin: math.Vec3{Z: -1}, Direction: math.Vec3{Z: 1}}
	hits := SurveyHits(r, []*model.Surface{back, beside, front})
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].Surface != front || hits[1].Surface != back {
		t.Errorf("order = %s, %s; want front, back", hits[0].Surface.Name, hits[1].Surface.Name)
	}
}
