package events

const (
	// KindInputStateChanged identifies speech input session state snapshots.
	KindInputStateChanged Kind = "voice.input_state_changed"
	// KindTranscriptUpdated identifies transcript updates of the active recording.
	KindTranscriptUpdated Kind = "voice.transcript_updated"
	// KindInputFailed identifies recordings torn down because of an error.
	KindInputFailed Kind = "voice.input_failed"
	// KindSpeakingChanged identifies speech output start/stop.
	KindSpeakingChanged Kind = "voice.speaking_changed"
)

// InputStateChanged carries the speech input state. Reason is only set for
// failed states.
type InputStateChanged struct {
	Base
	State  string
	Reason string
}

// NewInputStateChanged creates an input state changed event.
func NewInputStateChanged(state, reason string) InputStateChanged {
	return InputStateChanged{Base: NewBase(KindInputStateChanged), State: state, Reason: reason}
}

// TranscriptUpdated carries the latest transcript of a recording. Later
// updates of the same recording supersede earlier ones.
type TranscriptUpdated struct {
	Base
	RecordingID string
	Transcript  string
	IsFinal     bool
}

// NewTranscriptUpdated creates a transcript updated event.
func NewTranscriptUpdated(recordingID, transcript string, isFinal bool) TranscriptUpdated {
	return TranscriptUpdated{
		Base:        NewBase(KindTranscriptUpdated),
		RecordingID: recordingID,
		Transcript:  transcript,
		IsFinal:     isFinal,
	}
}

// InputFailed reports a recording that was torn down because of Err.
type InputFailed struct {
	Base
	RecordingID string
	Err         error
}

// NewInputFailed creates an input failed event.
func NewInputFailed(recordingID string, err error) InputFailed {
	return InputFailed{Base: NewBase(KindInputFailed), RecordingID: recordingID, Err: err}
}

// SpeakingChanged reports whether an utterance is currently active.
type SpeakingChanged struct {
	Base
	Speaking bool
	Text     string
}

// NewSpeakingChanged creates a speaking changed event.
func NewSpeakingChanged(speaking bool, text string) SpeakingChanged {
	return SpeakingChanged{Base: NewBase(KindSpeakingChanged), Speaking: speaking, Text: text}
}

// KindCapabilityChanged identifies changes of the voice input authorization.
const KindCapabilityChanged Kind = "voice.capability_changed"

// CapabilityChanged carries the resolved voice input authorization.
type CapabilityChanged struct {
	Base
	Authorized bool
	Reason     string
}

// NewCapabilityChanged creates a capability changed event.
func NewCapabilityChanged(authorized bool, reason string) CapabilityChanged {
	return CapabilityChanged{Base: NewBase(KindCapabilityChanged), Authorized: authorized, Reason: reason}
}
