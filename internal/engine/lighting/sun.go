// Package lighting provides lighting utilities for the viewer.
package lighting

import "math"

// SunDirection converts azimuth and elevation angles in degrees to a
// normalized vector pointing towards the sun. Azimuth rotates around Y
// starting at +Z; elevation is measured up from the horizon.
func SunDirection(azimuth, elevation float32) [3]float32 {
	az := float64(azimuth) * math.Pi / 180.0
	el := float64(elevation) * math.Pi / 180.0

	return [3]float32{
		float32(math.Cos(el) * math.Sin(az)),
		float32(math.Sin(el)),
		float32(math.Cos(el) * math.Cos(az)),
	}
}

// LightDirection returns the direction light travels, away from the sun.
func LightDirection(azimuth, elevation float32) [3]float32 {
	d := SunDirection(azimuth, elevation)
	return [3]float32{-d[0], -d[1], -d[2]}
}
