package orchestration

import (
	"github.com/koscakluka/ema-persona/core/capability"
	"github.com/koscakluka/ema-persona/core/conversation"
	"github.com/koscakluka/ema-persona/core/events"
	"github.com/koscakluka/ema-persona/core/voice"
)

type messageLookup func(id string) (conversation.Message, bool)

// newCallbackEventEmitter translates channel events into the registered
// callbacks.
func newCallbackEventEmitter(callbacks callbacks, lookup messageLookup) events.Handler {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.MessageAppended:
			if callbacks.onMessage != nil {
				callbacks.onMessage(messageFromEvent(typedEvent, lookup))
			}
		case events.StateChanged:
			if callbacks.onStateChanged != nil {
				callbacks.onStateChanged(conversation.State{
					Phase: conversation.Phase(typedEvent.State),
					Step:  typedEvent.Step,
				})
			}
		case events.ComposingChanged:
			if callbacks.onComposingChanged != nil {
				callbacks.onComposingChanged(typedEvent.Composing)
			}
		case events.InputStateChanged:
			if callbacks.onInputStateChanged != nil {
				callbacks.onInputStateChanged(voice.SessionState{
					Status: voice.SessionStatus(typedEvent.State),
					Reason: typedEvent.Reason,
				})
			}
		case events.TranscriptUpdated:
			if callbacks.onTranscript != nil {
				callbacks.onTranscript(typedEvent.Transcript, typedEvent.IsFinal)
			}
		case events.InputFailed:
			if callbacks.onInputFailed != nil {
				callbacks.onInputFailed(typedEvent.Err)
			}
		case events.SpeakingChanged:
			if callbacks.onSpeakingChanged != nil {
				callbacks.onSpeakingChanged(typedEvent.Speaking)
			}
		case events.CapabilityChanged:
			if callbacks.onCapabilityChanged != nil {
				callbacks.onCapabilityChanged(capability.State{
					Authorized: typedEvent.Authorized,
					Reason:     typedEvent.Reason,
				})
			}
		}
	}
}

// messageFromEvent prefers the logged message, which carries every field.
// The log may have been reset since the event was published.
func messageFromEvent(event events.MessageAppended, lookup messageLookup) conversation.Message {
	if lookup != nil {
		if message, ok := lookup(event.MessageID); ok {
			return message
		}
	}
	return conversation.Message{
		ID:        event.MessageID,
		Content:   event.Content,
		Origin:    conversation.Origin(event.Origin),
		Kind:      conversation.MessageKind(event.MessageKind),
		CreatedAt: event.Timestamp(),
	}
}
