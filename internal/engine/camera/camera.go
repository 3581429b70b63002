// Package camera provides the viewer's orbit camera.
package camera

import (
	gomath "math"

	"github.com/Faultbox/glbloader/pkg/math"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center math.Vec3

	// Spherical coordinates
	Distance float32
	Pitch    float32 // radians
	Yaw      float32 // radians

	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	DragSensitivity float32
	ZoomSensitivity float32

	// FovY is the vertical field of view in radians.
	FovY float32
}

// NewOrbitCamera creates an orbit camera looking at the origin.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        5,
		Pitch:           0.3,
		MinDistance:     0.01,
		MaxDistance:     10000,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		FovY:            gomath.Pi / 4,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	cp := gomath.Cos(float64(c.Pitch))
	offset := math.Vec3{
		X: float32(cp * gomath.Sin(float64(c.Yaw))),
		Y: float32(gomath.Sin(float64(c.Pitch))),
		Z: float32(cp * gomath.Cos(float64(c.Yaw))),
	}
	return c.Center.Add(offset.Scale(c.Distance))
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Vec3{Y: 1})
}

// ProjectionMatrix returns a perspective projection with near and far
// planes scaled to the orbit distance.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) math.Mat4 {
	near := max(c.Distance*0.01, 0.001)
	return math.Perspective(c.FovY, aspect, near, c.Distance*100)
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch = min(max(c.Pitch+deltaY*c.DragSensitivity, c.MinPitch), c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = min(max(c.Distance, c.MinDistance), c.MaxDistance)
}

// Fit centers the camera on a sphere and backs off until it fills the
// vertical field of view.
func (c *OrbitCamera) Fit(center math.Vec3, radius float32) {
	c.Center = center
	if radius <= 0 {
		radius = 1
	}
	c.Distance = radius / float32(gomath.Sin(float64(c.FovY)/2))
	c.Distance = min(max(c.Distance, c.MinDistance), c.MaxDistance)
}
