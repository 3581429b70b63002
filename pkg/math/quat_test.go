package math

import (
	"math"
	"testing"
)

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("Identity quaternion should be (0,0,0,1), got (%v,%v,%v,%v)", q.X, q.Y, q.Z, q.W)
	}
}

func TestQuatNormalize(t *testing.T) {
	q := Quat{X: 1, Y: 2, Z: 3, W: 4}
	n := q.Normalize()

	length := float32(math.Sqrt(float64(n.X*n.X + n.Y*n.Y + n.Z*n.Z + n.W*n.W)))
	if math.Abs(float64(length-1.0)) > 0.0001 {
		t.Errorf("Normalized quaternion length should be 1, got %v", length)
	}
}

func TestQuatToMat4(t *testing.T) {
	// Identity quaternion should produce identity matrix
	q := QuatIdentity()
	m := q.ToMat4()

	identity := Identity()
	for i := 0; i < 16; i++ {
		if math.Abs(float64(m[i]-identity[i])) > 0.0001 {
			t.Errorf("Identity quat should produce identity matrix, element %d: got %v, want %v", i, m[i], identity[i])
		}
	}
}

func TestQuatFromMat4_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		axis  Vec3
		angle float64
	}{
		{"identity", Vec3{0, 1, 0}, 0},
		{"y 90", Vec3{0, 1, 0}, math.Pi / 2},
		{"x 180", Vec3{1, 0, 0}, math.Pi},
		{"z -45", Vec3{0, 0, 1}, -math.Pi / 4},
		{"oblique 170", Vec3{1, 1, 1}.Normalize(), 170 * math.Pi / 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := QuatFromAxisAngle(tt.axis, float32(tt.angle))
			got := QuatFromMat4(q.ToMat4())
			if !got.SameRotation(q, 1e-4) {
				t.Errorf("QuatFromMat4(ToMat4(%v)) = %v", q, got)
			}
		})
	}
}

func TestQuatFromAxisAngle(t *testing.T) {
	// 90 degrees around Y axis
	q := QuatFromAxisAngle(Vec3{X: 0, Y: 1, Z: 0}, float32(math.Pi/2))

	// Should have Y component and W = cos(45deg)
	expectedW := float32(math.Cos(math.Pi / 4))
	expectedY := float32(math.Sin(math.Pi / 4))

	if math.Abs(float64(q.W-expectedW)) > 0.001 {
		t.Errorf("QuatFromAxisAngle W: expected %v, got %v", expectedW, q.W)
	}
	if math.Abs(float64(q.Y-expectedY)) > 0.001 {
		t.Errorf("QuatFromAxisAngle Y: expected %v, got %v", expectedY, q.Y)
	}
}

func TestQuatMirror(t *testing.T) {
	q := Quat{X: 0.1, Y: 0.2, Z: 0.3, W: 0.9}

	got := q.Mirror(AxisX)
	want := Quat{X: -0.1, Y: 0.2, Z: 0.3, W: -0.9}
	if got != want {
		t.Errorf("Mirror(AxisX) = %v, want %v", got, want)
	}
	if q.Mirror(AxisZ).Mirror(AxisZ) != q {
		t.Error("Mirror should be self-inverse")
	}

	// Mirroring a rotation about X leaves it unchanged as a rotation.
	rx := QuatFromAxisAngle(Vec3{1, 0, 0}, 0.7)
	if !rx.Mirror(AxisX).SameRotation(rx, 1e-6) {
		t.Errorf("rotation about the mirror axis should be preserved, got %v", rx.Mirror(AxisX))
	}
}

func TestVec3Mirror(t *testing.T) {
	v := Vec3{1, 2, 3}
	if got := v.Mirror(AxisX); got != (Vec3{-1, 2, 3}) {
		t.Errorf("Mirror(AxisX) = %v", got)
	}
	if got := v.Mirror(AxisY); got != (Vec3{1, -2, 3}) {
		t.Errorf("Mirror(AxisY) = %v", got)
	}
	if got := MirrorScale(AxisZ); got != (Vec3{1, 1, -1}) {
		t.Errorf("MirrorScale(AxisZ) = %v", got)
	}
}
