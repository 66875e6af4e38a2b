// Command personachat runs the guided personality conversation in the
// terminal. Replies can be typed or, with a Deepgram API key, spoken; bot
// messages are narrated when voice output is enabled.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	orchestration "github.com/koscakluka/ema-persona/core"
	"github.com/koscakluka/ema-persona/core/audio"
	"github.com/koscakluka/ema-persona/core/audio/miniaudio"
	"github.com/koscakluka/ema-persona/core/audio/portaudio"
	"github.com/koscakluka/ema-persona/core/capability"
	"github.com/koscakluka/ema-persona/core/conversation"
	"github.com/koscakluka/ema-persona/core/persona"
	stt "github.com/koscakluka/ema-persona/core/speechtotext/deepgram"
	tts "github.com/koscakluka/ema-persona/core/texttospeech/deepgram"
	"github.com/koscakluka/ema-persona/core/voice"
	"github.com/koscakluka/ema-persona/internal/config"
)

const portaudioBufferSize = 1024

type audioDevice interface {
	audio.Capture
	audio.Output
	audio.CaptureDeviceCounter
	Close()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.BindFlags(flag.CommandLine)
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.VoiceTest {
		return runVoiceTest(ctx, cfg)
	}

	var program *tea.Program
	send := func(msg tea.Msg) {
		if program != nil {
			program.Send(msg)
		}
	}

	opts := []orchestration.OrchestratorOption{
		orchestration.WithLocale(cfg.Locale),
		orchestration.WithQuestionBank(persona.Questions),
		orchestration.WithScorer(persona.NewRandomScorer()),
		orchestration.WithVoiceOutput(cfg.AutoSpeak),
		orchestration.WithConversationOptions(conversation.WithThinkingDelay(cfg.PreDelay, cfg.ComposeDelay)),
		orchestration.WithMessageCallback(func(message conversation.Message) { send(messageMsg(message)) }),
		orchestration.WithComposingCallback(func(composing bool) { send(composingMsg(composing)) }),
		orchestration.WithStateCallback(func(state conversation.State) { send(stateMsg(state)) }),
		orchestration.WithInputStateCallback(func(state voice.SessionState) { send(inputStateMsg(state)) }),
		orchestration.WithTranscriptCallback(func(transcript string, isFinal bool) {
			send(transcriptMsg{text: transcript, final: isFinal})
		}),
		orchestration.WithInputFailedCallback(func(err error) { send(errMsg{err: err}) }),
		orchestration.WithSpeakingCallback(func(speaking bool) { send(speakingMsg(speaking)) }),
		orchestration.WithCapabilityCallback(func(state capability.State) { send(capabilityMsg(state)) }),
	}

	device, voiceOpts, err := voiceOptions(cfg)
	if err != nil {
		logger.Warn("voice features disabled", "error", err)
	}
	if device != nil {
		defer device.Close()
	}
	opts = append(opts, voiceOpts...)

	orchestrator := orchestration.NewOrchestrator(opts...)
	defer orchestrator.Close()

	program = tea.NewProgram(newModel(ctx, orchestrator, cfg, device != nil),
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run program: %w", err)
	}
	return nil
}

func runVoiceTest(ctx context.Context, cfg config.Config) error {
	device, voiceOpts, err := voiceOptions(cfg)
	if err != nil {
		return fmt.Errorf("voice is not available: %w", err)
	}
	defer device.Close()

	orchestrator := orchestration.NewOrchestrator(append(voiceOpts,
		orchestration.WithLocale(cfg.Locale),
		orchestration.WithVoiceOutput(false),
	)...)
	defer orchestrator.Close()

	return voiceTest{orchestrator: orchestrator, out: os.Stdout, listen: cfg.ListenFor}.run(ctx)
}

// voiceOptions wires the audio device and the Deepgram clients. Without an
// API key the program runs text only.
func voiceOptions(cfg config.Config) (audioDevice, []orchestration.OrchestratorOption, error) {
	if !cfg.VoiceEnabled() {
		return nil, nil, errors.New("DEEPGRAM_API_KEY is not set")
	}

	device, err := openAudioDevice(cfg.AudioBackend)
	if err != nil {
		return nil, nil, err
	}

	recognizer, err := stt.NewTranscriptionClient(cfg.DeepgramAPIKey)
	if err != nil {
		device.Close()
		return nil, nil, fmt.Errorf("failed to create transcription client: %w", err)
	}

	speechOpts := []tts.ClientOption{}
	if cfg.Voice != "" {
		voice, ok := tts.ParseVoice(cfg.Voice)
		if !ok {
			logger.Warn("unknown voice, picking one for the locale", "voice", cfg.Voice)
		} else {
			speechOpts = append(speechOpts, tts.WithVoice(voice))
		}
	}
	synthesizer, err := tts.NewSpeechClient(cfg.DeepgramAPIKey, device, speechOpts...)
	if err != nil {
		device.Close()
		return nil, nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	return device, []orchestration.OrchestratorOption{
		orchestration.WithAudioInput(device),
		orchestration.WithSpeechToTextClient(recognizer),
		orchestration.WithTextToSpeechClient(synthesizer),
		orchestration.WithCapabilityRequesters(
			capability.CaptureDevices(device),
			capability.Credential(cfg.DeepgramAPIKey),
		),
	}, nil
}

func openAudioDevice(backend string) (audioDevice, error) {
	switch backend {
	case config.BackendPortaudio:
		return portaudio.NewClient(portaudioBufferSize)
	default:
		return miniaudio.NewClient()
	}
}
