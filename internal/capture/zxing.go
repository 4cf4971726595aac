package capture

import (
	"context"
	"log/slog"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// frameInterval paces the decode loop, roughly matching the 10 fps the
// capture surface is tuned for.
const frameInterval = 100 * time.Millisecond

// ZXingDecoder reads QR codes from camera frames with gozxing. One Start
// spawns one decode loop; Stop cancels it and Clear waits for the loop to
// release the frame source.
type ZXingDecoder struct {
	frames   FrameSource
	interval time.Duration
}

// NewZXingDecoder wraps a frame source. A zero interval uses the default
// pacing.
func NewZXingDecoder(frames FrameSource, interval time.Duration) *ZXingDecoder {
	if interval <= 0 {
		interval = frameInterval
	}
	return &ZXingDecoder{frames: frames, interval: interval}
}

type zxingHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (d *ZXingDecoder) Start(surfaceID string, onDecode func(string), onDecodeError func(error)) (Handle, error) {
	if err := d.frames.Check(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &zxingHandle{cancel: cancel, done: make(chan struct{})}

	reader := qrcode.NewQRCodeReader()
	go func() {
		defer close(h.done)
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			img, err := d.frames.Grab(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Debug("frame grab failed", "surface", surfaceID, "error", err)
				onDecodeError(err)
				continue
			}

			bmp, err := gozxing.NewBinaryBitmapFromImage(img)
			if err != nil {
				onDecodeError(err)
				continue
			}
			result, err := reader.Decode(bmp, nil)
			if err != nil {
				// No code visible this frame; keep looping.
				onDecodeError(err)
				continue
			}
			onDecode(result.GetText())
		}
	}()

	return h, nil
}

func (d *ZXingDecoder) Stop(h Handle) error {
	zh, ok := h.(*zxingHandle)
	if !ok || zh == nil {
		return nil
	}
	zh.cancel()
	return nil
}

func (d *ZXingDecoder) Clear(h Handle) error {
	zh, ok := h.(*zxingHandle)
	if !ok || zh == nil {
		return nil
	}
	zh.cancel()
	select {
	case <-zh.done:
	case <-time.After(2 * time.Second):
	}
	return nil
}
