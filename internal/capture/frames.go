package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"strings"
)

// FrameSource produces one camera frame per call.
type FrameSource interface {
	// Check verifies the source is usable before a session starts.
	Check() error
	// Grab captures a single frame.
	Grab(ctx context.Context) (image.Image, error)
}

// CommandFrameSource shells out to a frame-grab command (ffmpeg-style) that
// writes one encoded image to stdout per invocation. The placeholder
// {device} in the arguments is replaced with the configured camera device.
type CommandFrameSource struct {
	Name   string
	Args   []string
	Device string
}

// NewCommandFrameSource splits a configured command line into the source.
// Returns an error when the command is empty — the terminal analog of a
// browser without camera support.
func NewCommandFrameSource(command, device string) (*CommandFrameSource, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New("no capture command configured; set capture.command")
	}
	return &CommandFrameSource{Name: fields[0], Args: fields[1:], Device: device}, nil
}

// UnavailableSource stands in when no capture command is configured. Every
// session start fails with the configuration error instead of touching the
// host.
type UnavailableSource struct{ Err error }

func (u UnavailableSource) Check() error { return u.Err }

func (u UnavailableSource) Grab(context.Context) (image.Image, error) { return nil, u.Err }

// Check maps the host environment's failure modes onto descriptive errors:
// command not installed, device node absent, device not readable.
func (c *CommandFrameSource) Check() error {
	if _, err := exec.LookPath(c.Name); err != nil {
		return fmt.Errorf("capture command %q is not installed: %w", c.Name, err)
	}
	if c.Device != "" {
		if _, err := os.Stat(c.Device); errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("camera device %s not found", c.Device)
		}
		f, err := os.Open(c.Device)
		if err != nil {
			if os.IsPermission(err) {
				return fmt.Errorf("camera access denied for %s: %w", c.Device, err)
			}
			return fmt.Errorf("camera device %s unavailable: %w", c.Device, err)
		}
		f.Close() //nolint:errcheck
	}
	return nil
}

func (c *CommandFrameSource) Grab(ctx context.Context) (image.Image, error) {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = strings.ReplaceAll(a, "{device}", c.Device)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("frame grab failed: %s", msg)
		}
		return nil, fmt.Errorf("frame grab failed: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(stdout.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("decode frame image: %w", err)
	}
	return img, nil
}
