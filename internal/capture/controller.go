// Package capture turns a microphone session into one finalized audio payload.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sourcegraph/conc"

	"speech-illustrator/internal/domain"
)

var (
	// ErrAlreadyRecording is returned by Start while a capture is active.
	ErrAlreadyRecording = errors.New("recording already in progress")
	// ErrNotRecording is returned by Stop when nothing is being captured.
	ErrNotRecording = errors.New("not recording")
)

// DeviceError reports that the input device could not be acquired.
type DeviceError struct {
	Err error
}

// Error formats the device failure for the run log.
func (e *DeviceError) Error() string {
	if e == nil || e.Err == nil {
		return "input device unavailable"
	}
	return e.Err.Error()
}

// Unwrap exposes the underlying device error.
func (e *DeviceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Stream is one open device session.
type Stream interface {
	// Stop ends delivery of chunks.
	Stop() error
	// Close releases the device handle.
	Close() error
	// Assemble concatenates delivered chunks into a single payload.
	Assemble(chunks [][]byte) (domain.AudioPayload, error)
}

// Device opens a stream that delivers encoded chunks to sink in order.
type Device interface {
	Open(ctx context.Context, sink func(chunk []byte)) (Stream, error)
}

// FinalizeFunc receives the assembled payload once per capture.
type FinalizeFunc func(payload domain.AudioPayload, err error)

// recording accumulates the chunks of one capture until its stream stops.
type recording struct {
	mu       sync.Mutex
	stream   Stream
	chunks   [][]byte
	stopped  bool
	finalize FinalizeFunc
}

func (r *recording) append(chunk []byte) {
	if len(chunk) == 0 {
		return
	}

	buf := make([]byte, len(chunk))
	copy(buf, chunk)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.stopped {
		r.chunks = append(r.chunks, buf)
	}
}

func (r *recording) drain() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	chunks := r.chunks
	r.chunks = nil
	return chunks
}

// Controller holds the idle/active capture state machine.
type Controller struct {
	device Device

	mu     sync.Mutex
	active *recording

	wg conc.WaitGroup
}

// NewController creates an idle controller on top of device.
func NewController(device Device) *Controller {
	return &Controller{device: device}
}

// Start acquires the device and begins accumulating chunks.
func (c *Controller) Start(ctx context.Context, finalize FinalizeFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		return ErrAlreadyRecording
	}
	if c.device == nil {
		return &DeviceError{Err: errors.New("no input device configured")}
	}

	rec := &recording{finalize: finalize}
	stream, err := c.device.Open(ctx, rec.append)
	if err != nil {
		var deviceErr *DeviceError
		if errors.As(err, &deviceErr) {
			return deviceErr
		}
		return &DeviceError{Err: err}
	}

	rec.stream = stream
	c.active = rec
	return nil
}

// Stop flips the controller to idle and finalizes asynchronously.
func (c *Controller) Stop() error {
	c.mu.Lock()
	rec := c.active
	c.active = nil
	c.mu.Unlock()

	if rec == nil {
		return ErrNotRecording
	}

	c.wg.Go(func() {
		payload, err := finish(rec)
		if rec.finalize != nil {
			rec.finalize(payload, err)
		}
	})
	return nil
}

func finish(rec *recording) (payload domain.AudioPayload, err error) {
	defer func() {
		if closeErr := rec.stream.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("release input device: %w", closeErr)
		}
	}()

	if err := rec.stream.Stop(); err != nil {
		rec.drain()
		return domain.AudioPayload{}, fmt.Errorf("stop input stream: %w", err)
	}

	payload, err = rec.stream.Assemble(rec.drain())
	if err != nil {
		return domain.AudioPayload{}, fmt.Errorf("assemble recording: %w", err)
	}
	return payload, nil
}

// IsRecording reports whether a capture is active.
func (c *Controller) IsRecording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// Wait blocks until pending finalizations have completed.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close stops an active capture and waits for finalization.
func (c *Controller) Close() {
	_ = c.Stop()
	c.wg.Wait()
}
