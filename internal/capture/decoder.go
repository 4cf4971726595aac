// Package capture owns the badge-scanning session: a small state machine
// over an injected frame-decoding capability. The concrete decoder grabs
// camera frames through an external command and reads QR codes out of them;
// tests substitute a fake.
package capture

// Handle identifies one running capture started by a Decoder.
type Handle interface{}

// Decoder is the capability surface the session drives. Start attaches the
// decoder to a capture surface and begins delivering decoded payloads to
// onDecode; frames with no readable code go to onDecodeError and are not
// fatal. Stop halts frame delivery; Clear releases the underlying device.
type Decoder interface {
	Start(surfaceID string, onDecode func(text string), onDecodeError func(err error)) (Handle, error)
	Stop(h Handle) error
	Clear(h Handle) error
}
