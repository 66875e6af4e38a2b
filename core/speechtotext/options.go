package speechtotext

import "github.com/koscakluka/ema-persona/core/audio"

const DefaultLocale = "en-US"

// TranscriptUpdate is one transcript snapshot of a recognition stream. A
// later update supersedes every earlier one of the same stream.
type TranscriptUpdate struct {
	Text    string
	IsFinal bool
}

type TranscriptionOptions struct {
	// Locale selects the spoken language, e.g. "en-US".
	Locale string

	// InterimTranscriptionCallback receives the mutable transcript of the
	// utterance in progress.
	InterimTranscriptionCallback func(transcript string)
	// TranscriptionCallback receives the final transcript of an utterance.
	TranscriptionCallback func(transcript string)
	// ErrorCallback is called once when the stream fails on its own, e.g.
	// the connection is lost. It is not called for streams ended with
	// StopStream.
	ErrorCallback func(err error)

	SpeechStartedCallback func()
	SpeechEndedCallback   func()

	EncodingInfo audio.EncodingInfo
}

type TranscriptionOption func(*TranscriptionOptions)

func WithLocale(locale string) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		if locale != "" {
			o.Locale = locale
		}
	}
}

func WithTranscriptionCallback(callback func(transcript string)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.TranscriptionCallback = callback
	}
}

func WithInterimTranscriptionCallback(callback func(transcript string)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.InterimTranscriptionCallback = callback
	}
}

func WithErrorCallback(callback func(err error)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.ErrorCallback = callback
	}
}

func WithSpeechStartedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.SpeechStartedCallback = callback
	}
}

func WithSpeechEndedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.SpeechEndedCallback = callback
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.EncodingInfo = encodingInfo
	}
}

// NewTranscriptionOptions applies opts over the defaults.
func NewTranscriptionOptions(opts ...TranscriptionOption) TranscriptionOptions {
	options := TranscriptionOptions{
		Locale:       DefaultLocale,
		EncodingInfo: audio.GetDefaultEncodingInfo(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
