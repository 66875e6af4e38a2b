package voice

import "errors"

var (
	// ErrPermissionDenied is returned by [InputSession.Start] when the
	// capability gate did not authorize speech input.
	ErrPermissionDenied = errors.New("speech input not authorized")
	// ErrRecognitionRequestFailed means the recognition stream could not be
	// opened.
	ErrRecognitionRequestFailed = errors.New("failed to open recognition stream")
	// ErrAudioEngineFailed means audio capture could not be started.
	ErrAudioEngineFailed = errors.New("failed to start audio capture")
	// ErrRecognitionFailed means the recognizer failed mid-recording.
	ErrRecognitionFailed = errors.New("speech recognition failed")
	// ErrRecognizerUnavailable means the recognizer became unavailable
	// mid-recording.
	ErrRecognizerUnavailable = errors.New("speech recognizer unavailable")
	// ErrRecordingAbandoned is returned by [InputSession.Start] when the
	// recording was stopped or replaced before authorization resolved.
	ErrRecordingAbandoned = errors.New("recording abandoned before it started")
)

// Describe returns a message for err suitable for showing to the user.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermissionDenied):
		return "Voice input is unavailable. Check the microphone and speech recognition permissions."
	case errors.Is(err, ErrRecognitionRequestFailed):
		return "Could not create the speech recognition request."
	case errors.Is(err, ErrAudioEngineFailed):
		return "The audio engine failed to start."
	case errors.Is(err, ErrRecognitionFailed):
		return "Speech recognition failed."
	case errors.Is(err, ErrRecognizerUnavailable):
		return "Speech recognition is currently unavailable."
	default:
		return err.Error()
	}
}
