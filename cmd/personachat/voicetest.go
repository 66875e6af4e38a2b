package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	orchestration "github.com/koscakluka/ema-persona/core"
)

const (
	voiceTestPhrase = "This is a voice test. If you can hear this, narration works."

	narrationTimeout = 30 * time.Second
	speakingPoll     = 50 * time.Millisecond
)

var errVoiceTestDenied = errors.New("voice input is not authorized")

// voiceTest checks voice input and output end to end: the capability
// grant, one recording and one narrated phrase.
type voiceTest struct {
	orchestrator *orchestration.Orchestrator
	out          io.Writer
	listen       time.Duration
}

func (v voiceTest) run(ctx context.Context) error {
	fmt.Fprintln(v.out, "1/3 checking voice input permissions")
	state := v.orchestrator.RefreshCapabilities(ctx)
	if !state.Authorized {
		fmt.Fprintf(v.out, "    denied: %s\n", state.Reason)
		return fmt.Errorf("%w: %s", errVoiceTestDenied, state.Reason)
	}
	fmt.Fprintln(v.out, "    granted")

	fmt.Fprintf(v.out, "2/3 recording for %s, say something\n", v.listen)
	if err := v.orchestrator.StartRecording(ctx); err != nil {
		return fmt.Errorf("failed to start recording: %w", err)
	}
	select {
	case <-ctx.Done():
	case <-time.After(v.listen):
	}
	transcript, err := v.orchestrator.StopRecording()
	if err != nil {
		return fmt.Errorf("failed to stop recording: %w", err)
	}
	if transcript == "" {
		fmt.Fprintln(v.out, "    heard nothing")
	} else {
		fmt.Fprintf(v.out, "    heard: %q\n", transcript)
	}

	fmt.Fprintln(v.out, "3/3 speaking a test phrase")
	if err := v.orchestrator.SpeakText(ctx, voiceTestPhrase); err != nil {
		return fmt.Errorf("failed to speak test phrase: %w", err)
	}
	if err := v.waitForNarration(ctx); err != nil {
		return err
	}

	fmt.Fprintln(v.out, "voice test passed")
	return nil
}

func (v voiceTest) waitForNarration(ctx context.Context) error {
	ticker := time.NewTicker(speakingPoll)
	defer ticker.Stop()
	timeout := time.After(narrationTimeout)

	for v.orchestrator.Speaking() {
		select {
		case <-ctx.Done():
			v.orchestrator.StopSpeaking()
			return ctx.Err()
		case <-timeout:
			v.orchestrator.StopSpeaking()
			return errors.New("narration did not finish in time")
		case <-ticker.C:
		}
	}
	return nil
}
