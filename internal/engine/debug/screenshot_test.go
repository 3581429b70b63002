package debug

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureFromPixels_FlipsRows(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	sc := NewScreenshotCapture(dir, "frame")
	sc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC) }

	// Bottom row red, top row blue.
	pixels := []byte{255, 0, 0, 255, 0, 0, 255, 255}
	name, err := sc.CaptureFromPixels(pixels, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "frame_2024-05-01_12-30-00.000.png"), name)

	f, err := os.Open(name)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	assert.Equal(t, color.RGBA{0, 0, 255, 255}, color.RGBAModel.Convert(img.At(0, 0)))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, color.RGBAModel.Convert(img.At(0, 1)))
}

func TestCaptureFromPixels_SizeMismatch(t *testing.T) {
	sc := NewScreenshotCapture(t.TempDir(), "frame")
	_, err := sc.CaptureFromPixels(make([]byte, 7), 1, 2)
	assert.Error(t, err)
}
