package orchestration

import (
	"github.com/koscakluka/ema-persona/core/audio"
	"github.com/koscakluka/ema-persona/core/capability"
	"github.com/koscakluka/ema-persona/core/conversation"
	"github.com/koscakluka/ema-persona/core/events"
	"github.com/koscakluka/ema-persona/core/texttospeech"
	"github.com/koscakluka/ema-persona/core/voice"
)

type OrchestratorOption func(*Orchestrator)

// SpeechToText is a streaming recognizer, see [voice.Recognizer].
type SpeechToText = voice.Recognizer

func WithSpeechToTextClient(client SpeechToText) OrchestratorOption {
	return func(o *Orchestrator) { o.recognizer = client }
}

// TextToSpeech is a synthesizer, see [texttospeech.Synthesizer].
type TextToSpeech = texttospeech.Synthesizer

func WithTextToSpeechClient(client TextToSpeech) OrchestratorOption {
	return func(o *Orchestrator) { o.synthesizer = client }
}

// AudioInput is an exclusive microphone handle. When it also implements
// [audio.CaptureDeviceCounter] it is used to decide whether capture is
// available.
type AudioInput = audio.Capture

func WithAudioInput(client AudioInput) OrchestratorOption {
	return func(o *Orchestrator) { o.capture = client }
}

// WithCapabilityRequesters replaces the requesters used to authorize voice
// input. Nil requesters keep the defaults.
func WithCapabilityRequesters(capture, recognition capability.Requester) OrchestratorOption {
	return func(o *Orchestrator) {
		if capture != nil {
			o.captureRequester = capture
		}
		if recognition != nil {
			o.recognitionRequester = recognition
		}
	}
}

// WithLocale sets the locale used for recognition and narration.
func WithLocale(locale string) OrchestratorOption {
	return func(o *Orchestrator) {
		if locale != "" {
			o.locale = locale
		}
	}
}

func WithQuestionBank(bank conversation.QuestionBank) OrchestratorOption {
	return func(o *Orchestrator) { o.bank = bank }
}

func WithScorer(scorer conversation.Scorer) OrchestratorOption {
	return func(o *Orchestrator) { o.scorer = scorer }
}

// WithConversationOptions passes options through to the conversation
// controller.
func WithConversationOptions(opts ...conversation.Option) OrchestratorOption {
	return func(o *Orchestrator) { o.conversationOptions = append(o.conversationOptions, opts...) }
}

// WithOutputOptions passes options through to the speech output queue.
func WithOutputOptions(opts ...voice.OutputOption) OrchestratorOption {
	return func(o *Orchestrator) { o.outputOptions = append(o.outputOptions, opts...) }
}

// WithInputOptions passes options through to the speech input session.
func WithInputOptions(opts ...voice.InputOption) OrchestratorOption {
	return func(o *Orchestrator) { o.inputOptions = append(o.inputOptions, opts...) }
}

// WithVoiceOutput sets whether bot messages are narrated. Enabled by
// default.
func WithVoiceOutput(enabled bool) OrchestratorOption {
	return func(o *Orchestrator) { o.voiceOutput.Store(enabled) }
}

// WithEventHandler receives every event published by the orchestrator's
// components.
func WithEventHandler(handler events.Handler) OrchestratorOption {
	return func(o *Orchestrator) {
		if handler != nil {
			o.eventHandlers = append(o.eventHandlers, handler)
		}
	}
}

type callbacks struct {
	onMessage           func(message conversation.Message)
	onStateChanged      func(state conversation.State)
	onComposingChanged  func(composing bool)
	onInputStateChanged func(state voice.SessionState)
	onTranscript        func(transcript string, isFinal bool)
	onInputFailed       func(err error)
	onSpeakingChanged   func(speaking bool)
	onCapabilityChanged func(state capability.State)
}

// WithMessageCallback registers a callback for every message appended to the
// conversation log, in log order.
func WithMessageCallback(callback func(message conversation.Message)) OrchestratorOption {
	return func(o *Orchestrator) { o.callbacks.onMessage = callback }
}

// WithStateCallback registers a callback for conversation state changes.
func WithStateCallback(callback func(state conversation.State)) OrchestratorOption {
	return func(o *Orchestrator) { o.callbacks.onStateChanged = callback }
}

// WithComposingCallback registers a callback invoked when the bot starts or
// stops composing its next message.
func WithComposingCallback(callback func(composing bool)) OrchestratorOption {
	return func(o *Orchestrator) { o.callbacks.onComposingChanged = callback }
}

// WithInputStateCallback registers a callback for speech input state
// changes.
func WithInputStateCallback(callback func(state voice.SessionState)) OrchestratorOption {
	return func(o *Orchestrator) { o.callbacks.onInputStateChanged = callback }
}

// WithTranscriptCallback registers a callback for transcript updates of the
// active recording. Each update supersedes the previous one.
func WithTranscriptCallback(callback func(transcript string, isFinal bool)) OrchestratorOption {
	return func(o *Orchestrator) { o.callbacks.onTranscript = callback }
}

// WithInputFailedCallback registers a callback for recordings that ended
// with an error.
func WithInputFailedCallback(callback func(err error)) OrchestratorOption {
	return func(o *Orchestrator) { o.callbacks.onInputFailed = callback }
}

// WithSpeakingCallback registers a callback invoked when narration starts or
// ends.
func WithSpeakingCallback(callback func(speaking bool)) OrchestratorOption {
	return func(o *Orchestrator) { o.callbacks.onSpeakingChanged = callback }
}

// WithCapabilityCallback registers a callback for changes of the voice
// input authorization.
func WithCapabilityCallback(callback func(state capability.State)) OrchestratorOption {
	return func(o *Orchestrator) { o.callbacks.onCapabilityChanged = callback }
}
