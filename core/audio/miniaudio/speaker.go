package miniaudio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

// speaker plays queued audio. Pausing stops the device without dropping
// what is queued.
type speaker struct {
	mu     sync.Mutex
	device *malgo.Device

	queue playbackQueue
}

func (s *speaker) open(audioContext *malgo.AllocatedContext) error {
	device, err := malgo.InitDevice(audioContext.Context, deviceConfig(malgo.Playback), malgo.DeviceCallbacks{
		Data: s.render,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.device = device
	return nil
}

func (s *speaker) render(output, _ []byte, frameCount uint32) {
	size := min(int(frameCount)*bytesPerFrame, len(output))
	reached := s.queue.drain(output[:size])
	if len(reached) == 0 {
		return
	}

	go func() {
		for _, mark := range reached {
			mark.callback(mark.name)
		}
	}()
}

func (s *speaker) resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.device == nil {
		return errDeviceNotInitialized
	}
	if s.device.IsStarted() {
		return nil
	}
	if err := s.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}
	return nil
}

func (s *speaker) pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.device == nil {
		return errDeviceNotInitialized
	}
	if !s.device.IsStarted() {
		return nil
	}
	if err := s.device.Stop(); err != nil {
		return fmt.Errorf("failed to pause playback device: %w", err)
	}
	return nil
}

func (s *speaker) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.device != nil {
		s.device.Uninit()
		s.device = nil
	}
	s.queue.reset()
}

type playbackMark struct {
	name     string
	offset   int
	callback func(string)
}

// playbackQueue holds audio waiting to be played and the marks placed
// between it. A mark's offset counts the queued bytes in front of it.
type playbackQueue struct {
	mu      sync.Mutex
	pending []byte
	marks   []playbackMark
}

func (q *playbackQueue) push(audio []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, audio...)
}

func (q *playbackQueue) mark(name string, callback func(string)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.marks = append(q.marks, playbackMark{name: name, offset: len(q.pending), callback: callback})
}

func (q *playbackQueue) reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = nil
	q.marks = nil
}

// drain fills out with queued audio, padding with silence, and returns the
// marks reached by the end of out.
func (q *playbackQueue) drain(out []byte) []playbackMark {
	q.mu.Lock()
	n := copy(out, q.pending)
	q.pending = q.pending[n:]

	reached := 0
	for i := range q.marks {
		if q.marks[i].offset <= len(out) {
			reached++
			continue
		}
		q.marks[i].offset -= len(out)
	}
	var marks []playbackMark
	if reached > 0 {
		marks = append(marks, q.marks[:reached]...)
		q.marks = q.marks[reached:]
	}
	q.mu.Unlock()

	clear(out[n:])
	return marks
}
