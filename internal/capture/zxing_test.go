package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFrames serves the same frame on every grab.
type stubFrames struct {
	img      image.Image
	checkErr error
	grabErr  error
}

func (s stubFrames) Check() error { return s.checkErr }

func (s stubFrames) Grab(context.Context) (image.Image, error) {
	if s.grabErr != nil {
		return nil, s.grabErr
	}
	return s.img, nil
}

// qrImage encodes text into a rendered QR code.
func qrImage(t *testing.T, text string) image.Image {
	t.Helper()
	writer := qrcode.NewQRCodeWriter()
	matrix, err := writer.Encode(text, gozxing.BarcodeFormat_QR_CODE, 128, 128, nil)
	require.NoError(t, err)

	img := image.NewGray(image.Rect(0, 0, matrix.GetWidth(), matrix.GetHeight()))
	for y := 0; y < matrix.GetHeight(); y++ {
		for x := 0; x < matrix.GetWidth(); x++ {
			if matrix.Get(x, y) {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func TestZXingDecodesQRFrame(t *testing.T) {
	frames := stubFrames{img: qrImage(t, "badge-42")}
	d := NewZXingDecoder(frames, 5*time.Millisecond)

	decoded := make(chan string, 1)
	h, err := d.Start("scanner", func(text string) {
		select {
		case decoded <- text:
		default:
		}
	}, func(error) {})
	require.NoError(t, err)
	defer d.Clear(h) //nolint:errcheck

	select {
	case text := <-decoded:
		assert.Equal(t, "badge-42", text)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for decode")
	}

	require.NoError(t, d.Stop(h))
	require.NoError(t, d.Clear(h))
}

func TestZXingReportsUnreadableFrames(t *testing.T) {
	blank := image.NewGray(image.Rect(0, 0, 64, 64))
	frames := stubFrames{img: blank}
	d := NewZXingDecoder(frames, 5*time.Millisecond)

	errs := make(chan error, 1)
	h, err := d.Start("scanner", func(string) {
		t.Error("blank frame should not decode")
	}, func(e error) {
		select {
		case errs <- e:
		default:
		}
	})
	require.NoError(t, err)
	defer d.Clear(h) //nolint:errcheck

	select {
	case <-errs:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for decode error")
	}
}

func TestZXingStartFailsWhenSourceCheckFails(t *testing.T) {
	frames := stubFrames{checkErr: errors.New("camera device /dev/video9 not found")}
	d := NewZXingDecoder(frames, 0)

	_, err := d.Start("scanner", func(string) {}, func(error) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestZXingClearWaitsForLoopExit(t *testing.T) {
	frames := stubFrames{img: image.NewGray(image.Rect(0, 0, 8, 8))}
	d := NewZXingDecoder(frames, 5*time.Millisecond)

	h, err := d.Start("scanner", func(string) {}, func(error) {})
	require.NoError(t, err)

	require.NoError(t, d.Clear(h))
	zh := h.(*zxingHandle)
	select {
	case <-zh.done:
	default:
		t.Error("Clear returned before the decode loop exited")
	}
}

func TestZXingStopClearTolerateForeignHandles(t *testing.T) {
	d := NewZXingDecoder(stubFrames{}, 0)
	assert.NoError(t, d.Stop(nil))
	assert.NoError(t, d.Clear(nil))
	assert.NoError(t, d.Stop("not a handle"))
	assert.NoError(t, d.Clear("not a handle"))
}
