package camera

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/Faultbox/garment-paint/pkg/math"
)

func near(a, b float32) bool {
	return math32.Abs(a-b) < 1e-4
}

func TestNewOrbitCameraPosition(t *testing.T) {
	c := NewOrbitCamera(4.0 / 3.0)
	p := c.Position()
	if !near(p.X, 0) || !near(p.Y, 1) || !near(p.Z, 5) {
		t.Errorf("Position = %+v, want {0 1 5}", p)
	}
	if c.FovY != DefaultFovY || c.Near != DefaultNear || c.Far != DefaultFar {
		t.Errorf("projection = %v/%v/%v", c.FovY, c.Near, c.Far)
	}
}

func TestSetPositionRoundTrip(t *testing.T) {
	c := NewOrbitCamera(1)
	want := math.Vec3{X: 3, Y: 2, Z: -4}
	c.SetPosition(want)
	got := c.Position()
	if !near(got.X, want.X) || !near(got.Y, want.Y) || !near(got.Z, want.Z) {
		t.Errorf("Position = %+v, want %+v", got, want)
	}
}

func TestHandleZoomClamps(t *testing.T) {
	tests := []struct {
		name  string
		delta float32
		want  float32
	}{
		{"zoom far in", 100, DefaultMinDistance},
		{"zoom far out", -100, DefaultMaxDistance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewOrbitCamera(1)
			for i := 0; i < 50; i++ {
				c.HandleZoom(tt.delta)
			}
			if c.Distance != tt.want {
				t.Errorf("Distance = %v, want %v", c.Distance, tt.want)
			}
		})
	}
}

func TestHandleDragClampsPitch(t *testing.T) {
	c := NewOrbitCamera(1)
	c.HandleDrag(0, -10000)
	if c.Pitch != c.MinPitch {
		t.Errorf("Pitch = %v, want %v", c.Pitch, c.MinPitch)
	}
	c.HandleDrag(0, 10000)
	if c.Pitch != c.MaxPitch {
		t.Errorf("Pitch = %v, want %v", c.Pitch, c.MaxPitch)
	}
}

func TestUpdateAutoRotate(t *testing.T) {
	c := NewOrbitCamera(1)
	yaw := c.Yaw
	c.Update(1)
	if c.Yaw != yaw {
		t.Error("yaw changed with auto rotate off")
	}
	c.AutoRotate = true
	c.Update(0.5)
	if !near(c.Yaw-yaw, DefaultAutoRotateSpeed/2) {
		t.Errorf("yaw advanced %v, want %v", c.Yaw-yaw, DefaultAutoRotateSpeed/2)
	}
}

func TestViewProjectionCentersTarget(t *testing.T) {
	c := NewOrbitCamera(16.0 / 9.0)
	p := c.ViewProjection().TransformPoint(c.Target)
	if !near(p.X, 0) || !near(p.Y, 0) {
		t.Errorf("target projects to %+v, want screen center", p)
	}
	if p.Z <= -1 || p.Z >= 1 {
		t.Errorf("target depth %v outside clip range", p.Z)
	}
}

func TestSetAspectIgnoresZero(t *testing.T) {
	c := NewOrbitCamera(2)
	c.SetAspect(0, 100)
	if c.Aspect != 2 {
		t.Errorf("Aspect = %v, want 2", c.Aspect)
	}
	c.SetAspect(300, 100)
	if c.Aspect != 3 {
		t.Errorf("Aspect = %v, want 3", c.Aspect)
	}
}
