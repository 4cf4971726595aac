package capture

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommandFrameSource(t *testing.T) {
	src, err := NewCommandFrameSource("ffmpeg -f v4l2 -i {device} -frames:v 1 -f image2 -", "/dev/video0")
	require.NoError(t, err)
	assert.Equal(t, "ffmpeg", src.Name)
	assert.Equal(t, []string{"-f", "v4l2", "-i", "{device}", "-frames:v", "1", "-f", "image2", "-"}, src.Args)
	assert.Equal(t, "/dev/video0", src.Device)
}

func TestNewCommandFrameSourceEmpty(t *testing.T) {
	for _, cmd := range []string{"", "   "} {
		_, err := NewCommandFrameSource(cmd, "/dev/video0")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "capture.command")
	}
}

func TestCheckMissingCommand(t *testing.T) {
	src := &CommandFrameSource{Name: "definitely-not-a-real-grabber-9c1f", Device: ""}
	err := src.Check()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not installed")
}

func TestCheckMissingDevice(t *testing.T) {
	// "sh" exists everywhere the console runs; only the device is absent.
	src := &CommandFrameSource{Name: "sh", Device: "/dev/video-does-not-exist"}
	err := src.Check()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestUnavailableSource(t *testing.T) {
	cause := errors.New("no capture command configured; set capture.command")
	src := UnavailableSource{Err: cause}

	assert.ErrorIs(t, src.Check(), cause)
	_, err := src.Grab(context.Background())
	assert.ErrorIs(t, err, cause)
}
