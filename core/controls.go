package orchestration

import (
	"context"
	"fmt"
	"strings"

	"github.com/koscakluka/ema-persona/core/voice"
	"go.opentelemetry.io/otel/codes"
)

// StartRecording stops narration and starts a new recording, replacing the
// current one. The transcript is reset.
func (o *Orchestrator) StartRecording(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "orchestrator start recording")
	defer span.End()

	o.output.Stop()

	recording, err := o.input.Start(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to start recording")
		return err
	}

	o.mu.Lock()
	o.recording = recording
	o.transcript = ""
	o.mu.Unlock()

	go o.follow(recording)
	return nil
}

// StopRecording ends the current recording and returns its transcript. It
// is safe to call without an active recording, in which case the last
// transcript is returned.
func (o *Orchestrator) StopRecording() (string, error) {
	o.mu.Lock()
	recording := o.recording
	o.mu.Unlock()

	err := o.input.Stop()
	if err != nil {
		logger.Warn("recording did not stop cleanly", "error", err)
	}
	if recording == nil {
		return o.Transcript(), err
	}

	<-recording.Done()
	transcript := recording.Transcript()

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.recording == recording {
		o.recording = nil
	}
	o.transcript = transcript
	return transcript, err
}

// StopRecordingAndSubmit stops the current recording and submits its
// transcript as the reply. Blank transcripts are not submitted.
func (o *Orchestrator) StopRecordingAndSubmit() (bool, error) {
	transcript, err := o.StopRecording()
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(transcript) == "" {
		return false, nil
	}

	accepted := o.conversation.SubmitReply(transcript)
	if accepted {
		o.ClearTranscript()
	}
	return accepted, nil
}

// Recording reports whether a recording is starting or in progress.
func (o *Orchestrator) Recording() bool {
	switch o.input.State().Status {
	case voice.StatusRequesting, voice.StatusRecording:
		return true
	default:
		return false
	}
}

// Background stops recording because the application lost the foreground.
func (o *Orchestrator) Background() {
	if err := o.input.Interrupt("background"); err != nil {
		logger.Warn("recording did not stop cleanly after losing foreground", "error", err)
	}
}

// SpeakMessage narrates a logged message, interrupting current narration.
// It works even when voice output is disabled.
func (o *Orchestrator) SpeakMessage(ctx context.Context, id string) error {
	message, ok := o.conversation.Message(id)
	if !ok {
		return fmt.Errorf("failed to speak message %q: %w", id, ErrMessageNotFound)
	}
	return o.output.Speak(ctx, message.Content, o.locale)
}

// SpeakText narrates text that is not part of the conversation, such as a
// test phrase. Like SpeakMessage it ignores the voice output setting.
func (o *Orchestrator) SpeakText(ctx context.Context, text string) error {
	return o.output.Speak(ctx, text, o.locale)
}

func (o *Orchestrator) StopSpeaking() { o.output.Stop() }

func (o *Orchestrator) PauseOrResumeSpeaking() error { return o.output.PauseOrResume() }

func (o *Orchestrator) Speaking() bool { return o.output.Speaking() }

// SetVoiceOutput enables or disables narration of bot messages. Disabling
// it stops the current narration.
func (o *Orchestrator) SetVoiceOutput(enabled bool) {
	o.voiceOutput.Store(enabled)
	o.conversation.SetAutoSpeak(enabled)
	if !enabled {
		o.output.Stop()
	}
}

func (o *Orchestrator) VoiceOutputEnabled() bool { return o.voiceOutput.Load() }
