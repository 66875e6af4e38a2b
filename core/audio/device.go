package audio

import "context"

// Capture is an exclusive microphone handle. StartCapture delivers raw audio
// chunks to onAudio until StopCapture is called.
type Capture interface {
	EncodingInfo() EncodingInfo
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
}

// Output is an audio playback device.
type Output interface {
	EncodingInfo() EncodingInfo
	SendAudio(audio []byte) error
	// ClearBuffer drops audio that was sent but not played yet. Pending marks
	// are dropped without being called.
	ClearBuffer()
	// Mark calls callback once all audio sent before the mark has been played.
	Mark(mark string, callback func(string)) error
}

// PausableOutput is implemented by outputs that can hold playback without
// losing buffered audio.
type PausableOutput interface {
	Output
	PausePlayback() error
	ResumePlayback() error
}

// CaptureDeviceCounter is implemented by backends that can report how many
// capture devices the platform exposes.
type CaptureDeviceCounter interface {
	CaptureDeviceCount() (int, error)
}
