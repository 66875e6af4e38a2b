package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/koscakluka/ema-persona/core/audio"
	"github.com/koscakluka/ema-persona/core/capability"
	"github.com/koscakluka/ema-persona/core/conversation"
	"github.com/koscakluka/ema-persona/core/events"
	"github.com/koscakluka/ema-persona/core/persona"
	"github.com/koscakluka/ema-persona/core/speechtotext"
	"github.com/koscakluka/ema-persona/core/voice"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var ErrMessageNotFound = errors.New("message not found")

// Orchestrator wires the conversation controller to speech input and
// output. Components talk to each other only through the event channel the
// orchestrator owns; the orchestrator itself only relays user requests.
type Orchestrator struct {
	channel      *events.Channel
	conversation *conversation.Controller
	input        *voice.InputSession
	output       *voice.OutputQueue
	gate         *capability.Gate

	recognizer           SpeechToText
	synthesizer          TextToSpeech
	capture              AudioInput
	captureRequester     capability.Requester
	recognitionRequester capability.Requester

	locale              string
	bank                conversation.QuestionBank
	scorer              conversation.Scorer
	conversationOptions []conversation.Option
	outputOptions       []voice.OutputOption
	inputOptions        []voice.InputOption
	eventHandlers       []events.Handler
	callbacks           callbacks

	voiceOutput atomic.Bool
	closed      atomic.Bool

	mu          sync.Mutex
	baseContext context.Context
	recording   *voice.Recording
	transcript  string
	started     bool

	closeOnce sync.Once
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		channel:     events.NewChannel(),
		locale:      speechtotext.DefaultLocale,
		bank:        persona.Questions,
		baseContext: context.Background(),
	}
	o.voiceOutput.Store(true)

	for _, opt := range opts {
		opt(o)
	}

	if o.scorer == nil {
		o.scorer = persona.NewRandomScorer()
	}
	if o.captureRequester == nil {
		o.captureRequester = defaultCaptureRequester(o.capture)
	}
	if o.recognitionRequester == nil {
		o.recognitionRequester = capability.Denied
		if o.recognizer != nil {
			o.recognitionRequester = capability.Granted
		}
	}

	o.gate = capability.NewGate(o.captureRequester, o.recognitionRequester,
		capability.WithChangeCallback(func(state capability.State) {
			o.channel.Publish(events.NewCapabilityChanged(state.Authorized, state.Reason))
		}))

	o.conversation = conversation.NewController(o.bank, o.scorer,
		append([]conversation.Option{
			conversation.WithEvents(o.channel),
			conversation.WithWelcome(persona.Welcome),
			conversation.WithAutoSpeak(o.voiceOutput.Load()),
		}, o.conversationOptions...)...)

	o.input = voice.NewInputSession(o.recognizer, o.capture, o.gate,
		append([]voice.InputOption{
			voice.WithInputLocale(o.locale),
			voice.WithInputEvents(o.channel),
		}, o.inputOptions...)...)

	o.output = voice.NewOutputQueue(o.synthesizer,
		append([]voice.OutputOption{voice.WithOutputEvents(o.channel)}, o.outputOptions...)...)

	o.channel.Subscribe(events.KindSpeechRequested, o.speakRequested)
	o.channel.SubscribeAll(newCallbackEventEmitter(o.callbacks, o.conversation.Message))
	for _, handler := range o.eventHandlers {
		o.channel.SubscribeAll(handler)
	}

	return o
}

func defaultCaptureRequester(capture AudioInput) capability.Requester {
	if capture == nil {
		return capability.Denied
	}
	if counter, ok := capture.(audio.CaptureDeviceCounter); ok {
		return capability.CaptureDevices(counter)
	}
	return capability.Granted
}

// Start begins the conversation with the welcome message and resolves the
// voice input authorization in the background.
//
// ctx is used as the base context for speech output and recordings. When
// it is cancelled the orchestrator is closed.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	o.baseContext = ctx
	first := !o.started
	o.started = true
	o.mu.Unlock()

	if first {
		go o.gate.Authorize(ctx)
		go func() {
			<-ctx.Done()
			o.Close()
		}()
	}

	o.conversation.Start()
}

// Restart stops narration and starts the conversation over.
func (o *Orchestrator) Restart() {
	o.output.Stop()
	o.ClearTranscript()
	o.conversation.Restart()
}

// SubmitReply hands a typed reply to the conversation. It reports whether
// the reply was accepted.
func (o *Orchestrator) SubmitReply(text string) bool {
	return o.conversation.SubmitReply(text)
}

func (o *Orchestrator) Events() *events.Channel { return o.channel }

func (o *Orchestrator) Conversation() *conversation.Controller { return o.conversation }

// Transcript returns the transcript of the last recording.
func (o *Orchestrator) Transcript() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.transcript
}

func (o *Orchestrator) ClearTranscript() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transcript = ""
}

// RefreshCapabilities re-derives the voice input authorization. A recording
// in progress fails when voice input is no longer authorized.
func (o *Orchestrator) RefreshCapabilities(ctx context.Context) capability.State {
	state := o.gate.Refresh(ctx)
	if !state.Authorized {
		o.input.RecognizerAvailabilityChanged(false)
	}
	return state
}

type Snapshot struct {
	Conversation       conversation.Snapshot
	Input              voice.SessionState
	Speaking           bool
	VoiceOutput        bool
	Transcript         string
	Capability         capability.State
	CapabilityResolved bool
}

// Snapshot returns a point-in-time view of every component.
func (o *Orchestrator) Snapshot() Snapshot {
	capabilityState, resolved := o.gate.Current()
	return Snapshot{
		Conversation:       o.conversation.Snapshot(),
		Input:              o.input.State(),
		Speaking:           o.output.Speaking(),
		VoiceOutput:        o.voiceOutput.Load(),
		Transcript:         o.Transcript(),
		Capability:         capabilityState,
		CapabilityResolved: resolved,
	}
}

// Close stops every component. Speech requests still queued on the event
// channel are dropped.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		ctx := o.context()
		o.closed.Store(true)

		var errs []error
		if err := o.input.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop speech input: %w", err))
		}
		o.conversation.Close()

		if closer, ok := o.recognizer.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close speech-to-text client: %w", err))
			}
		}

		o.channel.Close()
		o.output.Stop()

		if err := errors.Join(errs...); err != nil {
			span := trace.SpanFromContext(ctx)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.WarnContext(ctx, "orchestrator did not close cleanly", "error", err)
		}
	})
}

func (o *Orchestrator) context() context.Context {
	o.mu.Lock()
	defer o.mu.Unlock()
	return context.WithoutCancel(o.baseContext)
}

func (o *Orchestrator) speakRequested(event events.Event) {
	request, ok := event.(events.SpeechRequested)
	if !ok || !o.voiceOutput.Load() || o.closed.Load() {
		return
	}

	ctx, span := tracer.Start(o.context(), "narrate message",
		trace.WithAttributes(attribute.String("message.id", request.MessageID)))
	defer span.End()

	if err := o.output.Speak(ctx, request.Text, o.locale); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to narrate message")
		logger.ErrorContext(ctx, "failed to narrate message", "message", request.MessageID, "error", err)
	}
}

// follow keeps the transcript of recording until it ends or another
// recording replaces it.
func (o *Orchestrator) follow(recording *voice.Recording) {
	for update := range recording.Updates() {
		o.mu.Lock()
		if o.recording == recording {
			o.transcript = update.Text
		}
		o.mu.Unlock()
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.recording == recording {
		o.recording = nil
	}
}
