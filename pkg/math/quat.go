package math

import "math"

// Quat represents a quaternion for 3D rotations.
// Components are stored as X, Y, Z, W where W is the scalar part.
type Quat struct {
	X, Y, Z, W float32
}

// Axis selects a coordinate axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// QuatIdentity returns an identity quaternion (no rotation).
func QuatIdentity() Quat {
	return Quat{X: 0, Y: 0, Z: 0, W: 1}
}

// QuatFromAxisAngle creates a quaternion from axis-angle rotation.
// axis should be normalized, angle is in radians.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	halfAngle := angle / 2
	s := float32(math.Sin(float64(halfAngle)))
	return Quat{
		X: axis.X * s,
		Y: axis.Y * s,
		Z: axis.Z * s,
		W: float32(math.Cos(float64(halfAngle))),
	}
}

// QuatFromMat4 extracts the rotation of the upper 3x3 block of m.
// The block must be orthonormal (scale removed).
func QuatFromMat4(m Mat4) Quat {
	// r(row, col) = m[col*4+row]
	r00, r01, r02 := m[0], m[4], m[8]
	r10, r11, r12 := m[1], m[5], m[9]
	r20, r21, r22 := m[2], m[6], m[10]

	trace := r00 + r11 + r22
	var q Quat
	switch {
	case trace > 0:
		s := 0.5 / sqrtf(trace+1)
		q = Quat{W: 0.25 / s, X: (r21 - r12) * s, Y: (r02 - r20) * s, Z: (r10 - r01) * s}
	case r00 > r11 && r00 > r22:
		s := 2 * sqrtf(1+r00-r11-r22)
		q = Quat{W: (r21 - r12) / s, X: 0.25 * s, Y: (r01 + r10) / s, Z: (r02 + r20) / s}
	case r11 > r22:
		s := 2 * sqrtf(1+r11-r00-r22)
		q = Quat{W: (r02 - r20) / s, X: (r01 + r10) / s, Y: 0.25 * s, Z: (r12 + r21) / s}
	default:
		s := 2 * sqrtf(1+r22-r00-r11)
		q = Quat{W: (r10 - r01) / s, X: (r02 + r20) / s, Y: (r12 + r21) / s, Z: 0.25 * s}
	}
	return q.Normalize()
}

// Normalize returns a normalized quaternion.
func (q Quat) Normalize() Quat {
	length := sqrtf(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if length < 0.0001 {
		return QuatIdentity()
	}
	invLen := 1.0 / length
	return Quat{
		X: q.X * invLen,
		Y: q.Y * invLen,
		Z: q.Z * invLen,
		W: q.W * invLen,
	}
}

// Dot returns the dot product of two quaternions.
func (q Quat) Dot(other Quat) float32 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

// SameRotation reports whether q and other describe the same rotation
// within eps (q and -q are the same rotation).
func (q Quat) SameRotation(other Quat, eps float32) bool {
	d := q.Normalize().Dot(other.Normalize())
	if d < 0 {
		d = -d
	}
	return 1-d <= eps
}

// Mirror converts the rotation to the opposite handedness by reflecting
// across the plane orthogonal to axis: the axis component and W are negated.
func (q Quat) Mirror(axis Axis) Quat {
	switch axis {
	case AxisY:
		return Quat{X: q.X, Y: -q.Y, Z: q.Z, W: -q.W}
	case AxisZ:
		return Quat{X: q.X, Y: q.Y, Z: -q.Z, W: -q.W}
	default:
		return Quat{X: -q.X, Y: q.Y, Z: q.Z, W: -q.W}
	}
}

// ToMat4 converts the quaternion to a 4x4 rotation matrix.
func (q Quat) ToMat4() Mat4 {
	// Normalize first
	q = q.Normalize()

	xx := q.X * q.X
	xy := q.X * q.Y
	xz := q.X * q.Z
	xw := q.X * q.W
	yy := q.Y * q.Y
	yz := q.Y * q.Z
	yw := q.Y * q.W
	zz := q.Z * q.Z
	zw := q.Z * q.W

	return Mat4{
		1 - 2*(yy+zz), 2 * (xy + zw), 2 * (xz - yw), 0,
		2 * (xy - zw), 1 - 2*(xx+zz), 2 * (yz + xw), 0,
		2 * (xz + yw), 2 * (yz - xw), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}
}

// Mul multiplies two quaternions (combines rotations).
func (q Quat) Mul(other Quat) Quat {
	return Quat{
		X: q.W*other.X + q.X*other.W + q.Y*other.Z - q.Z*other.Y,
		Y: q.W*other.Y - q.X*other.Z + q.Y*other.W + q.Z*other.X,
		Z: q.W*other.Z + q.X*other.Y - q.Y*other.X + q.Z*other.W,
		W: q.W*other.W - q.X*other.X - q.Y*other.Y - q.Z*other.Z,
	}
}

// Mirror negates the axis component of v.
func (v Vec3) Mirror(axis Axis) Vec3 {
	switch axis {
	case AxisY:
		return Vec3{v.X, -v.Y, v.Z}
	case AxisZ:
		return Vec3{v.X, v.Y, -v.Z}
	default:
		return Vec3{-v.X, v.Y, v.Z}
	}
}

// MirrorScale returns the component-wise scale that mirrors across axis.
func MirrorScale(axis Axis) Vec3 {
	return Vec3One.Mirror(axis)
}

func sqrtf(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}
