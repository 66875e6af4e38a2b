package voice

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-persona/core/audio"
	"github.com/koscakluka/ema-persona/core/capability"
	"github.com/koscakluka/ema-persona/core/events"
	"github.com/koscakluka/ema-persona/core/speechtotext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Recognizer is a streaming speech recognizer. Callbacks passed to
// Transcribe must not be invoked before Transcribe returns.
type Recognizer interface {
	Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error
	SendAudio(audio []byte) error
	StopStream() error
}

// Authorizer decides whether speech input may be used.
type Authorizer interface {
	Authorize(ctx context.Context) capability.State
}

// InputSession owns the microphone and the recognizer. It runs at most one
// recording at a time; every transition happens while holding the session
// mutex, and callbacks of a recording that is no longer active are dropped.
type InputSession struct {
	recognizer Recognizer
	capture    audio.Capture
	gate       Authorizer

	locale       string
	updateBuffer int
	channel      *events.Channel

	mu          sync.Mutex
	state       SessionState
	current     *Recording
	authorizing bool
}

type InputOption func(*InputSession)

func WithInputLocale(locale string) InputOption {
	return func(s *InputSession) {
		if locale != "" {
			s.locale = locale
		}
	}
}

// WithInputEvents publishes session state and transcript changes on channel.
func WithInputEvents(channel *events.Channel) InputOption {
	return func(s *InputSession) { s.channel = channel }
}

// WithUpdateBuffer sets how many transcript updates a recording keeps for a
// slow reader.
func WithUpdateBuffer(size int) InputOption {
	return func(s *InputSession) { s.updateBuffer = size }
}

func NewInputSession(recognizer Recognizer, capture audio.Capture, gate Authorizer, opts ...InputOption) *InputSession {
	s := &InputSession{
		recognizer:   recognizer,
		capture:      capture,
		gate:         gate,
		locale:       speechtotext.DefaultLocale,
		updateBuffer: defaultUpdateBuffer,
		state:        idleState,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InputSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start begins a new recording. An active recording is stopped and torn
// down first. Any resource acquired before a failure is released again.
//
// The session is StatusRequesting while authorization is pending; the
// session mutex is not held meanwhile, so Stop and Interrupt can abandon the
// attempt, in which case Start returns [ErrRecordingAbandoned].
func (s *InputSession) Start(ctx context.Context) (*Recording, error) {
	ctx, span := tracer.Start(ctx, "start recording")
	defer span.End()

	recording, err := s.request(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "speech input not configured")
		return nil, err
	}
	span.SetAttributes(attribute.String("recording.id", recording.ID()))

	authorized := capability.State{Authorized: true}
	if s.gate != nil {
		authorized = s.gate.Authorize(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != recording {
		span.AddEvent("recording abandoned while authorizing")
		return nil, ErrRecordingAbandoned
	}
	s.authorizing = false

	if !authorized.Authorized {
		err := fmt.Errorf("%w: %s", ErrPermissionDenied, authorized.Reason)
		s.current = nil
		s.setStateLocked(idleState)
		recording.end(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "permission denied")
		return nil, err
	}

	if err := s.recognizer.Transcribe(ctx,
		speechtotext.WithLocale(s.locale),
		speechtotext.WithEncodingInfo(s.capture.EncodingInfo()),
		speechtotext.WithInterimTranscriptionCallback(func(transcript string) {
			s.onTranscript(recording, transcript, false)
		}),
		speechtotext.WithTranscriptionCallback(func(transcript string) {
			s.onTranscript(recording, transcript, true)
		}),
		speechtotext.WithErrorCallback(func(err error) {
			s.fail(recording, fmt.Errorf("%w: %w", ErrRecognitionFailed, err))
		}),
	); err != nil {
		err = fmt.Errorf("%w: %w", ErrRecognitionRequestFailed, err)
		s.abortStartLocked(recording, err, false)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open recognition stream")
		return nil, err
	}

	if err := s.capture.StartCapture(context.WithoutCancel(ctx), func(pcm []byte) {
		s.onAudio(recording, pcm)
	}); err != nil {
		err = fmt.Errorf("%w: %w", ErrAudioEngineFailed, err)
		s.abortStartLocked(recording, err, true)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to start capture")
		return nil, err
	}

	s.setStateLocked(SessionState{Status: StatusRecording})
	return recording, nil
}

// request replaces the active recording with a new one awaiting
// authorization.
func (s *InputSession) request(ctx context.Context) (*Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		if err := s.teardownLocked(nil, ""); err != nil {
			logger.WarnContext(ctx, "previous recording did not stop cleanly", "error", err)
		}
	}

	if s.recognizer == nil || s.capture == nil {
		return nil, fmt.Errorf("%w: speech input is not configured", ErrRecognizerUnavailable)
	}

	recording := newRecording(uuid.NewString(), s.updateBuffer, s.stopRecording)
	s.current = recording
	s.authorizing = true
	s.setStateLocked(SessionState{Status: StatusRequesting})
	return recording, nil
}

// Stop ends the active recording, if any. It is always safe to call.
func (s *InputSession) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.teardownLocked(nil, "")
}

// Interrupt stops the active recording because of an external event such as
// losing foreground focus.
func (s *InputSession) Interrupt(reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		logger.Info("recording interrupted", "reason", reason)
	}
	return s.teardownLocked(nil, reason)
}

// RecognizerAvailabilityChanged fails the active recording with
// [ErrRecognizerUnavailable] when the recognizer becomes unavailable.
func (s *InputSession) RecognizerAvailabilityChanged(available bool) {
	if available {
		return
	}

	s.mu.Lock()
	recording := s.current
	s.mu.Unlock()
	if recording != nil {
		s.fail(recording, ErrRecognizerUnavailable)
	}
}

func (s *InputSession) stopRecording(recording *Recording) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != recording {
		return
	}
	if err := s.teardownLocked(nil, ""); err != nil {
		logger.Warn("cancelled recording did not stop cleanly", "recording", recording.ID(), "error", err)
	}
}

func (s *InputSession) fail(recording *Recording, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != recording {
		return
	}
	logger.Error("recording failed", "recording", recording.ID(), "error", cause)
	if err := s.teardownLocked(cause, ""); err != nil {
		logger.Warn("failed recording did not stop cleanly", "recording", recording.ID(), "error", err)
	}
}

// teardownLocked is the single cleanup path for an active recording. With a
// nil cause the session passes through StatusStopping, otherwise through
// StatusFailed; it always ends in StatusIdle.
func (s *InputSession) teardownLocked(cause error, reason string) error {
	recording := s.current
	if recording == nil {
		return nil
	}
	s.current = nil
	recording.active.Store(false)
	acquired := !s.authorizing
	s.authorizing = false

	if cause == nil {
		s.setStateLocked(SessionState{Status: StatusStopping, Reason: reason})
	}

	var errs []error
	if acquired {
		if err := s.capture.StopCapture(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop capture: %w", err))
		}
		if err := s.recognizer.StopStream(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop recognition stream: %w", err))
		}
	}

	if cause != nil {
		s.setStateLocked(SessionState{Status: StatusFailed, Reason: failureReason(cause)})
		s.channel.Publish(events.NewInputFailed(recording.ID(), cause))
	}
	s.setStateLocked(idleState)
	recording.end(cause)

	return errors.Join(errs...)
}

// abortStartLocked releases what a failed Start acquired.
func (s *InputSession) abortStartLocked(recording *Recording, cause error, streamOpened bool) {
	s.current = nil
	recording.active.Store(false)

	if streamOpened {
		if err := s.recognizer.StopStream(); err != nil {
			logger.Warn("failed to stop recognition stream after failed start", "error", err)
		}
	}

	s.setStateLocked(SessionState{Status: StatusFailed, Reason: failureReason(cause)})
	s.channel.Publish(events.NewInputFailed(recording.ID(), cause))
	s.setStateLocked(idleState)
	recording.end(cause)
}

func (s *InputSession) onAudio(recording *Recording, pcm []byte) {
	if !recording.active.Load() {
		return
	}
	if err := s.recognizer.SendAudio(pcm); err != nil {
		logger.Debug("failed to send audio to recognizer", "error", err)
	}
}

func (s *InputSession) onTranscript(recording *Recording, transcript string, isFinal bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != recording {
		return
	}

	if recording.deliver(speechtotext.TranscriptUpdate{Text: transcript, IsFinal: isFinal}) {
		s.channel.Publish(events.NewTranscriptUpdated(recording.ID(), transcript, isFinal))
	}
}

func (s *InputSession) setStateLocked(state SessionState) {
	if s.state == state {
		return
	}
	s.state = state
	s.channel.Publish(events.NewInputStateChanged(string(state.Status), state.Reason))
}

func failureReason(err error) string {
	for _, sentinel := range []error{
		ErrPermissionDenied,
		ErrRecognitionRequestFailed,
		ErrAudioEngineFailed,
		ErrRecognitionFailed,
		ErrRecognizerUnavailable,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
