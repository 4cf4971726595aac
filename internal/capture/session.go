package capture

import (
	"errors"
	"sync"
)

// State is the capture session's current phase.
type State int

const (
	Idle State = iota
	Starting
	Active
	Submitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Active:
		return "active"
	case Submitting:
		return "submitting"
	}
	return "unknown"
}

// ErrNoCredential aborts a start when no session token is available; the
// caller falls back to the guard's redirect behavior.
var ErrNoCredential = errors.New("authentication required before scanning")

// EventKind distinguishes session events.
type EventKind int

const (
	// EventDecoded carries a successfully decoded badge payload.
	EventDecoded EventKind = iota
	// EventNotice carries a transient status message (at most one
	// identical notice per session).
	EventNotice
)

// Event is delivered on the session's event channel.
type Event struct {
	Kind    EventKind
	Payload string
	Notice  string
}

// Session drives one scanning lifecycle: idle -> starting -> active ->
// submitting -> idle. All transitions happen here; the decoder only
// delivers frames.
type Session struct {
	decoder   Decoder
	surfaceID string
	token     func() string

	mu       sync.Mutex
	state    State
	handle   Handle
	inflight bool
	noticed  bool
	// done is open for the duration of one run and closed on teardown so
	// blocked event readers can exit instead of leaking.
	done chan struct{}

	events chan Event
}

// closedRun is handed out by Done when no run is in progress.
var closedRun = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// NewSession builds a session over the injected decoder. token reports the
// current credential; an empty value blocks Start.
func NewSession(decoder Decoder, surfaceID string, token func() string) *Session {
	if token == nil {
		token = func() string { return "" }
	}
	return &Session{
		decoder:   decoder,
		surfaceID: surfaceID,
		token:     token,
		events:    make(chan Event, 8),
	}
}

// Events is the stream of decoded payloads and transient notices. Events are
// dropped, not queued, if nothing is listening.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Done reports the end of the current run: the returned channel closes on
// teardown, and is already closed while the session is idle. Readers blocked
// on Events select on it to avoid outliving the run.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return closedRun
	}
	return s.done
}

// State returns the current phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start transitions idle -> starting -> active. It fails without touching
// the camera when no credential is available, and surfaces decoder start
// errors (missing device, denied permission) descriptively.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return errors.New("capture session already running")
	}
	if s.token() == "" {
		s.mu.Unlock()
		return ErrNoCredential
	}
	s.state = Starting
	s.inflight = false
	s.noticed = false
	s.done = make(chan struct{})
	s.mu.Unlock()

	handle, err := s.decoder.Start(s.surfaceID, s.onDecode, s.onDecodeError)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = Idle
		if s.done != nil {
			close(s.done)
			s.done = nil
		}
		return err
	}
	// Teardown raced the start; release the handle we just got.
	if s.state != Starting {
		s.decoder.Stop(handle)  //nolint:errcheck
		s.decoder.Clear(handle) //nolint:errcheck
		return errors.New("capture session torn down during start")
	}
	s.handle = handle
	s.state = Active
	return nil
}

// Restart tears the session down completely and starts again.
func (s *Session) Restart() error {
	s.Teardown()
	return s.Start()
}

// Settle returns the session to idle after a submission finished, releasing
// the camera unconditionally whether the submission succeeded or not.
func (s *Session) Settle() {
	s.Teardown()
}

// Teardown stops and clears the capture regardless of state. Safe to call
// repeatedly; the hosting page calls it on unmount so a camera stream can
// never leak.
func (s *Session) Teardown() {
	s.mu.Lock()
	handle := s.handle
	s.handle = nil
	s.state = Idle
	s.inflight = false
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	s.mu.Unlock()

	if handle != nil {
		s.decoder.Stop(handle)  //nolint:errcheck
		s.decoder.Clear(handle) //nolint:errcheck
	}
}

// onDecode fires on a successful read. A single in-flight flag guards
// against a second decode arriving while one submission is pending.
func (s *Session) onDecode(text string) {
	s.mu.Lock()
	if s.state != Active || s.inflight {
		s.mu.Unlock()
		return
	}
	s.inflight = true
	s.state = Submitting
	s.mu.Unlock()

	s.emit(Event{Kind: EventDecoded, Payload: text})
}

// onDecodeError fires for frames with no readable code. Not fatal: the loop
// keeps running, and only the first notice per session is surfaced.
func (s *Session) onDecodeError(error) {
	s.mu.Lock()
	if s.noticed || s.state != Active {
		s.mu.Unlock()
		return
	}
	s.noticed = true
	s.mu.Unlock()

	s.emit(Event{Kind: EventNotice, Notice: "Unable to read QR, retrying..."})
}

func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}
