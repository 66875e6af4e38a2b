package miniaudio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

var (
	errDeviceNotInitialized = errors.New("device not initialized")
	errCaptureInUse         = errors.New("capture device already in use")
)

// microphone is the exclusive capture device. Only one listener receives
// audio at a time.
type microphone struct {
	mu       sync.Mutex
	device   *malgo.Device
	listener func(audio []byte)
}

func (m *microphone) open(audioContext *malgo.AllocatedContext) error {
	device, err := malgo.InitDevice(audioContext.Context, deviceConfig(malgo.Capture), malgo.DeviceCallbacks{
		Data: m.captured,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.device = device
	return nil
}

func (m *microphone) captured(_, input []byte, frameCount uint32) {
	size := int(frameCount) * bytesPerFrame
	if size == 0 || len(input) < size {
		return
	}

	m.mu.Lock()
	listener := m.listener
	m.mu.Unlock()
	if listener == nil {
		return
	}
	// input is reused by the device once the callback returns.
	listener(append([]byte(nil), input[:size]...))
}

func (m *microphone) start(listener func(audio []byte)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.device == nil:
		return errDeviceNotInitialized
	case m.device.IsStarted():
		return errCaptureInUse
	}

	m.listener = listener
	if err := m.device.Start(); err != nil {
		m.listener = nil
		return fmt.Errorf("failed to start capture device: %w", err)
	}
	return nil
}

func (m *microphone) stop() error {
	m.mu.Lock()
	m.listener = nil
	device := m.device
	m.mu.Unlock()

	if device == nil {
		return errDeviceNotInitialized
	}
	if !device.IsStarted() {
		return nil
	}
	// Stop waits for a running data callback, which takes mu.
	if err := device.Stop(); err != nil {
		return fmt.Errorf("failed to stop capture device: %w", err)
	}
	return nil
}

func (m *microphone) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.device != nil {
		m.device.Uninit()
		m.device = nil
	}
	m.listener = nil
}
