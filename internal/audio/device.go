// Package audio captures microphone input through PortAudio.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"speech-illustrator/internal/audio/wav"
	"speech-illustrator/internal/capture"
	"speech-illustrator/internal/domain"
)

const (
	// SampleRate matches what the translation endpoint handles well.
	SampleRate = 16000
	// Channels is mono input.
	Channels = 1
	// FramesPerBuffer is the PortAudio read size.
	FramesPerBuffer = 1024

	// FileName is the multipart name of natively captured recordings.
	FileName = "audio.wav"
	// ContentType is the container type of natively captured recordings.
	ContentType = "audio/wav"
)

// Device is a PortAudio-backed microphone.
type Device struct {
	mu          sync.Mutex
	initialized bool
}

// NewDevice initializes PortAudio.
func NewDevice() (*Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	return &Device{initialized: true}, nil
}

// DefaultInputName returns the name of the default input device.
func (d *Device) DefaultInputName() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return "", errors.New("portaudio is not initialized")
	}
	info, err := portaudio.DefaultInputDevice()
	if err != nil {
		return "", err
	}
	if info == nil {
		return "", errors.New("no default input device")
	}
	return info.Name, nil
}

// Open starts a default input stream and delivers pcm chunks to sink.
func (d *Device) Open(ctx context.Context, sink func(chunk []byte)) (capture.Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return nil, &capture.DeviceError{Err: errors.New("portaudio is not initialized")}
	}

	buffer := make([]float32, FramesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(Channels, 0, SampleRate, FramesPerBuffer, buffer)
	if err != nil {
		return nil, &capture.DeviceError{Err: err}
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, &capture.DeviceError{Err: err}
	}

	s := &inputStream{
		stream: stream,
		buffer: buffer,
		sink:   sink,
		done:   make(chan struct{}),
		quit:   make(chan struct{}),
	}
	go s.readLoop(ctx)
	return s, nil
}

// Close terminates PortAudio.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return nil
	}
	d.initialized = false
	return portaudio.Terminate()
}

type inputStream struct {
	stream *portaudio.Stream
	buffer []float32
	sink   func([]byte)

	stopOnce sync.Once
	quit     chan struct{}
	done     chan struct{}
}

func (s *inputStream) readLoop(ctx context.Context) {
	defer close(s.done)

	for {
		select {
		case <-s.quit:
			return
		case <-ctx.Done():
			return
		default:
		}

		available, err := s.stream.AvailableToRead()
		if err != nil || available == 0 {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if err := s.stream.Read(); err != nil {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		s.sink(wav.FloatToPCM16(s.buffer))
	}
}

// Stop ends the read loop and the PortAudio stream.
func (s *inputStream) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.quit)
		select {
		case <-s.done:
		case <-time.After(200 * time.Millisecond):
		}
		err = s.stream.Stop()
	})
	return err
}

// Close releases the PortAudio stream.
func (s *inputStream) Close() error {
	return s.stream.Close()
}

// Assemble wraps the collected pcm chunks in a WAV container.
func (s *inputStream) Assemble(chunks [][]byte) (domain.AudioPayload, error) {
	data, err := wav.Encode(wav.Format{SampleRate: SampleRate, Channels: Channels}, bytes.Join(chunks, nil))
	if err != nil {
		return domain.AudioPayload{}, err
	}
	return domain.AudioPayload{
		Data:        data,
		FileName:    FileName,
		ContentType: ContentType,
	}, nil
}
