// Package events defines the typed event contract and the [Channel] that
// carries events between the conversation layer and the voice subsystems.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - speech.*
//   - conversation.*
//   - voice.*
//
// Semantics used across the package:
//
//   - Requested: a fire-and-forget ask for another component to act.
//   - Changed: a point-in-time snapshot of state owned by the publisher.
//   - Appended: an immutable record was added to an append-only sequence.
//   - Updated: mutable snapshot that can be superseded by a later one.
//   - Failed: a recoverable failure that already has been handled by the
//     publisher.
//
// speech events
//
//   - SpeechRequested (speech.requested): the publisher wants the text
//     narrated. Nothing is returned to the publisher.
//
// conversation events
//
//   - MessageAppended (conversation.message_appended): a message was added to
//     the conversation log.
//   - StateChanged (conversation.state_changed): the conversation moved to a
//     new state or step.
//   - ComposingChanged (conversation.composing_changed): the bot started or
//     stopped composing its next message.
//
// voice events
//
//   - InputStateChanged (voice.input_state_changed): speech input session
//     state snapshot, including the failure reason for failed states.
//   - TranscriptUpdated (voice.transcript_updated): latest transcript of the
//     active recording.
//   - InputFailed (voice.input_failed): the active recording was torn down
//     because of an error.
//   - SpeakingChanged (voice.speaking_changed): speech output started or
//     stopped an utterance.
//   - CapabilityChanged (voice.capability_changed): voice input authorization
//     was resolved to a different state.
package events
