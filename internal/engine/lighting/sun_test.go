package lighting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSunDirection(t *testing.T) {
	tests := []struct {
		name      string
		azimuth   float32
		elevation float32
		want      [3]float32
	}{
		{"horizon front", 0, 0, [3]float32{0, 0, 1}},
		{"horizon right", 90, 0, [3]float32{1, 0, 0}},
		{"zenith", 0, 90, [3]float32{0, 1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SunDirection(tt.azimuth, tt.elevation)
			for i := range got {
				assert.InDelta(t, tt.want[i], got[i], 1e-6)
			}
		})
	}

	l := LightDirection(0, 90)
	assert.InDelta(t, -1, l[1], 1e-6)
}
