package texttospeech

import (
	"context"

	"github.com/koscakluka/ema-persona/core/audio"
)

const (
	DefaultLocale = "en-US"
	DefaultRate   = 0.5
	DefaultPitch  = 1.0
	DefaultVolume = 0.8
)

type SpeechOptions struct {
	Locale string
	// Rate is the speaking rate in [0, 1] where 0.5 is the natural rate.
	//
	// Not supported by all TTS clients
	Rate float64
	// Pitch multiplier, 1.0 is the natural pitch.
	//
	// Not supported by all TTS clients
	Pitch float64
	// Volume in [0, 1].
	Volume float64

	// StartedCallback is called when the first audio of the utterance is
	// handed to the output.
	StartedCallback func()
	// Exactly one of FinishedCallback, CancelledCallback and ErrorCallback is
	// called for every utterance.
	FinishedCallback  func()
	CancelledCallback func()
	ErrorCallback     func(error)

	EncodingInfo audio.EncodingInfo
}

type SpeechOption func(*SpeechOptions)

func WithLocale(locale string) SpeechOption {
	return func(o *SpeechOptions) {
		if locale != "" {
			o.Locale = locale
		}
	}
}

func WithRate(rate float64) SpeechOption {
	return func(o *SpeechOptions) { o.Rate = clamp(rate, 0, 1) }
}

func WithPitch(pitch float64) SpeechOption {
	return func(o *SpeechOptions) { o.Pitch = clamp(pitch, 0.5, 2) }
}

func WithVolume(volume float64) SpeechOption {
	return func(o *SpeechOptions) { o.Volume = clamp(volume, 0, 1) }
}

func WithStartedCallback(callback func()) SpeechOption {
	return func(o *SpeechOptions) { o.StartedCallback = callback }
}

func WithFinishedCallback(callback func()) SpeechOption {
	return func(o *SpeechOptions) { o.FinishedCallback = callback }
}

func WithCancelledCallback(callback func()) SpeechOption {
	return func(o *SpeechOptions) { o.CancelledCallback = callback }
}

func WithErrorCallback(callback func(error)) SpeechOption {
	return func(o *SpeechOptions) { o.ErrorCallback = callback }
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) SpeechOption {
	return func(o *SpeechOptions) {
		if encodingInfo.IsZero() {
			return
		}
		o.EncodingInfo = encodingInfo
	}
}

// NewSpeechOptions applies opts over the defaults. Unset callbacks are
// replaced with no-ops.
func NewSpeechOptions(opts ...SpeechOption) SpeechOptions {
	options := SpeechOptions{
		Locale:            DefaultLocale,
		Rate:              DefaultRate,
		Pitch:             DefaultPitch,
		Volume:            DefaultVolume,
		StartedCallback:   func() {},
		FinishedCallback:  func() {},
		CancelledCallback: func() {},
		ErrorCallback:     func(error) {},
		EncodingInfo:      audio.GetDefaultEncodingInfo(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	if options.StartedCallback == nil {
		options.StartedCallback = func() {}
	}
	if options.FinishedCallback == nil {
		options.FinishedCallback = func() {}
	}
	if options.CancelledCallback == nil {
		options.CancelledCallback = func() {}
	}
	if options.ErrorCallback == nil {
		options.ErrorCallback = func(error) {}
	}
	return options
}

// Synthesizer turns text into audible speech.
type Synthesizer interface {
	// Synthesize starts speaking text and returns a handle to the
	// utterance. The returned error only covers failures to start; later
	// failures are reported through the ErrorCallback.
	Synthesize(ctx context.Context, text string, opts ...SpeechOption) (Utterance, error)
}

// Utterance is a single piece of speech being produced.
type Utterance interface {
	Pause() error
	Resume() error
	// Cancel stops the utterance immediately. Repeated calls are ignored.
	Cancel() error
}

func clamp(value, low, high float64) float64 {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
