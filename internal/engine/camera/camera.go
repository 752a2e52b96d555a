// Package camera provides the orbit camera used to view the garment.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/garment-paint/pkg/math"
)

// Defaults for the garment viewer.
const (
	DefaultFovY            = math32.Pi / 4 // 45 degrees
	DefaultNear            = 0.1
	DefaultFar             = 1000
	DefaultMinDistance     = 3
	DefaultMaxDistance     = 10
	DefaultAutoRotateSpeed = 2 * math32.Pi / 30 // one turn every 30s
)

// OrbitCamera orbits around a target point.
type OrbitCamera struct {
	Target math.Vec3

	// Spherical coordinates
	Distance float32 // Distance from target
	Pitch    float32 // Vertical angle above the horizon (radians)
	Yaw      float32 // Horizontal angle (radians)

	// Projection
	FovY   float32
	Aspect float32
	Near   float32
	Far    float32

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Auto rotation, radians per second
	AutoRotate      bool
	AutoRotateSpeed float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates a camera at (0, 1, 5) looking at the origin.
func NewOrbitCamera(aspect float32) *OrbitCamera {
	c := &OrbitCamera{
		FovY:            DefaultFovY,
		Aspect:          aspect,
		Near:            DefaultNear,
		Far:             DefaultFar,
		MinDistance:     DefaultMinDistance,
		MaxDistance:     DefaultMaxDistance,
		MinPitch:        0,
		MaxPitch:        math32.Pi/2 - 0.01,
		AutoRotateSpeed: DefaultAutoRotateSpeed,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
	c.SetPosition(math.Vec3{X: 0, Y: 1, Z: 5})
	return c
}

// SetPosition places the camera at p, keeping the current target.
func (c *OrbitCamera) SetPosition(p math.Vec3) {
	d := p.Sub(c.Target)
	c.Distance = d.Length()
	if c.Distance == 0 {
		return
	}
	c.Pitch = math32.Asin(d.Y / c.Distance)
	c.Yaw = math32.Atan2(d.X, d.Z)
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	cp := math32.Cos(c.Pitch)
	return c.Target.Add(math.Vec3{
		X: c.Distance * cp * math32.Sin(c.Yaw),
		Y: c.Distance * math32.Sin(c.Pitch),
		Z: c.Distance * cp * math32.Cos(c.Yaw),
	})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Target, math.Vec3{X: 0, Y: 1, Z: 0})
}

// ProjectionMatrix returns the perspective projection.
func (c *OrbitCamera) ProjectionMatrix() math.Mat4 {
	return math.Perspective(c.FovY, c.Aspect, c.Near, c.Far)
}

// ViewProjection returns projection * view.
func (c *OrbitCamera) ViewProjection() math.Mat4 {
	return c.ProjectionMatrix().Mul(c.ViewMatrix())
}

// SetAspect updates the aspect ratio after a resize.
func (c *OrbitCamera) SetAspect(width, height int) {
	if width > 0 && height > 0 {
		c.Aspect = float32(width) / float32(height)
	}
}

// Update advances auto rotation by dt seconds.
func (c *OrbitCamera) Update(dt float32) {
	if c.AutoRotate {
		c.Yaw += c.AutoRotateSpeed * dt
	}
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch += deltaY * c.DragSensitivity
	c.Pitch = clamp(c.Pitch, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = clamp(c.Distance, c.MinDistance, c.MaxDistance)
}

// Reset returns the camera to its starting pose.
func (c *OrbitCamera) Reset() {
	c.Target = math.Vec3{}
	c.SetPosition(math.Vec3{X: 0, Y: 1, Z: 5})
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
