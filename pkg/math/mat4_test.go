package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())
	if result != m {
		t.Errorf("M * I should equal M, got %v", result)
	}
}

func TestTranslate(t *testing.T) {
	m := Translate(5, 10, 15)
	if m[12] != 5 || m[13] != 10 || m[14] != 15 {
		t.Errorf("Translate: got (%f, %f, %f), want (5, 10, 15)", m[12], m[13], m[14])
	}
}

func TestTransformPoint(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
		p    Vec3
		want Vec3
	}{
		{"translate", Translate(10, 20, 30), Vec3{1, 2, 3}, Vec3{11, 22, 33}},
		{"scale", Scale(2, 2, 2), Vec3{1, 2, 3}, Vec3{2, 4, 6}},
		{"scale then translate", Translate(1, 0, 0).Mul(Scale(2, 2, 2)), Vec3{1, 1, 1}, Vec3{3, 2, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.TransformPoint(tt.p); got != tt.want {
				t.Errorf("TransformPoint() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRotateY90(t *testing.T) {
	m := RotateY(float32(math.Pi / 2))
	got := m.TransformPoint(Vec3{1, 0, 0})
	// (1,0,0) rotated 90 degrees around Y becomes (0,0,-1).
	if abs(got.X) > 0.001 || abs(got.Y) > 0.001 || abs(got.Z+1) > 0.001 {
		t.Errorf("RotateY 90: got %v, want (0, 0, -1)", got)
	}
}

func TestComposeMatchesQuatRotation(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{0, 1, 0}, float32(math.Pi/2))
	m := Compose(Vec3{0, 0, 0}, q, Vec3{1, 1, 1})
	r := RotateY(float32(math.Pi / 2))
	for i := range m {
		if abs(m[i]-r[i]) > 0.0001 {
			t.Fatalf("element %d: compose %v, rotate %v", i, m[i], r[i])
		}
	}
}

func TestInverse(t *testing.T) {
	m := Translate(1, 2, 3).Mul(RotateY(0.7)).Mul(Scale(2, 3, 4))
	inv, ok := m.Inverse()
	if !ok {
		t.Fatal("expected invertible matrix")
	}
	prod := m.Mul(inv)
	id := Identity()
	for i := range prod {
		if abs(prod[i]-id[i]) > 0.0001 {
			t.Errorf("M * M^-1 element %d = %f, want %f", i, prod[i], id[i])
		}
	}
}

func TestInverseSingular(t *testing.T) {
	if _, ok := Scale(1, 0, 1).Inverse(); ok {
		t.Error("expected singular matrix to report !ok")
	}
}

func TestPerspective(t *testing.T) {
	m := Perspective(float32(math.Pi/4), 1, 0.1, 100)
	if m[15] != 0 {
		t.Errorf("Perspective [15] should be 0, got %f", m[15])
	}
	if m[11] != -1 {
		t.Errorf("Perspective [11] should be -1, got %f", m[11])
	}
}

func TestLookAtMovesEyeToOrigin(t *testing.T) {
	eye := Vec3{0, 1, 5}
	m := LookAt(eye, Vec3{}, Vec3{0, 1, 0})
	got := m.TransformPoint(eye)
	if got.Length() > 0.0001 {
		t.Errorf("eye in view space = %v, want origin", got)
	}
}

func TestQuatToMat4Identity(t *testing.T) {
	if m := QuatIdentity().ToMat4(); m != Identity() {
		t.Errorf("identity quat produced %v", m)
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
