package math

import (
	"testing"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3MulComponents(t *testing.T) {
	got := Vec3{1, 2, 3}.MulComponents(Vec3{-1, 1, 2})
	want := Vec3{-1, 2, 6}
	if got != want {
		t.Errorf("Vec3.MulComponents() = %v, want %v", got, want)
	}
}

func TestVec3Normalize(t *testing.T) {
	n := Vec3{3, 4, 0}.Normalize()
	l := n.Length()
	if l < 0.999 || l > 1.001 {
		t.Errorf("Vec3.Normalize().Length() = %v, want ~1", l)
	}
	if (Vec3{}).Normalize() != (Vec3{}) {
		t.Error("zero vector should normalize to zero")
	}
}

func TestVec3ArrayRoundTrip(t *testing.T) {
	v := Vec3{1, 2, 3}
	if Vec3From(v.Array()) != v {
		t.Errorf("Vec3From(Array()) = %v, want %v", Vec3From(v.Array()), v)
	}
}
