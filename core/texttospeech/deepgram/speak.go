package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-persona/core/audio"
	"github.com/koscakluka/ema-persona/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// chunkDurationMs is how much audio is handed to the output at once.
const chunkDurationMs = 100

// Synthesize requests speech for text and streams it to the output as it
// arrives. The utterance finishes once the output confirms it has played
// the last chunk.
func (c *SpeechClient) Synthesize(ctx context.Context, text string, opts ...texttospeech.SpeechOption) (texttospeech.Utterance, error) {
	options := texttospeech.NewSpeechOptions(append(
		[]texttospeech.SpeechOption{texttospeech.WithEncodingInfo(c.output.EncodingInfo())},
		opts...)...)

	voice := c.voice
	if voice == "" {
		var supported bool
		if voice, supported = voiceForLocale(options.Locale); !supported {
			logger.Warn("no deepgram voice for locale, using default voice",
				"locale", options.Locale, "voice", string(voice))
		}
	}

	// The utterance outlives the caller's context; only Cancel ends it early.
	ctx, span := tracer.Start(context.WithoutCancel(ctx), "synthesize speech")
	span.SetAttributes(
		attribute.String("speech.voice", string(voice)),
		attribute.String("speech.locale", options.Locale),
		attribute.Int("speech.text_length", len(text)),
	)

	req, err := c.newRequest(ctx, text, voice, options.EncodingInfo)
	if err != nil {
		err = fmt.Errorf("failed to create speak request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create speak request")
		span.End()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	u := &utterance{
		id:      uuid.NewString(),
		options: options,
		output:  c.output,
		cancel:  cancel,
		span:    span,
	}

	go u.run(ctx, c.httpClient, req.WithContext(ctx))

	return u, nil
}

type speakRequestBody struct {
	Text string `json:"text"`
}

func (c *SpeechClient) newRequest(ctx context.Context, text string, voice deepgramVoice, encoding audio.EncodingInfo) (*http.Request, error) {
	speakURL, err := url.Parse(c.speakURL)
	if err != nil {
		return nil, fmt.Errorf("invalid speak url: %w", err)
	}

	queryParams := speakURL.Query()
	queryParams.Set("model", string(voice))
	queryParams.Set("encoding", encoding.Format.Name())
	queryParams.Set("sample_rate", strconv.Itoa(encoding.SampleRate))
	queryParams.Set("container", "none")
	speakURL.RawQuery = queryParams.Encode()

	body, err := json.Marshal(speakRequestBody{Text: text})
	if err != nil {
		return nil, fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, speakURL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.apiKey)
	return req, nil
}

type utterance struct {
	id      string
	options texttospeech.SpeechOptions
	output  audio.Output
	cancel  context.CancelFunc
	span    trace.Span

	// outputMu orders audio writes against clearing the output buffer.
	outputMu sync.Mutex

	mu       sync.Mutex
	paused   bool
	resumeCh chan struct{}

	started atomic.Bool
	ended   atomic.Bool
}

func (u *utterance) run(ctx context.Context, client *http.Client, req *http.Request) {
	resp, err := client.Do(req)
	if err != nil {
		u.fail(ctx, fmt.Errorf("error sending request: %w", err))
		return
	}
	defer resp.Body.Close()

	u.span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		if errorBody, err := io.ReadAll(resp.Body); err == nil {
			u.span.SetAttributes(attribute.String("response.error", string(errorBody)))
		}
		u.fail(ctx, fmt.Errorf("non-OK HTTP status: %s", resp.Status))
		return
	}

	encoding := u.options.EncodingInfo
	chunk := make([]byte, max(encoding.BytesPerSecond()*chunkDurationMs/1000, 1))
	for {
		n, readErr := io.ReadFull(resp.Body, chunk)
		if n > 0 {
			if err := u.waitWhilePaused(ctx); err != nil {
				return
			}
			u.markStarted()

			pcm := audio.ScaleVolume(append([]byte(nil), chunk[:n]...), encoding.Format, u.options.Volume)
			if err := u.sendAudio(ctx, pcm); err != nil {
				u.fail(ctx, fmt.Errorf("failed to send audio to output: %w", err))
				return
			}
		}

		if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF) {
			break
		} else if readErr != nil {
			u.fail(ctx, fmt.Errorf("failed to read speech audio: %w", readErr))
			return
		}
	}

	if ctx.Err() != nil {
		return
	}
	u.markStarted()
	if err := u.output.Mark(u.id, func(string) { u.finish() }); err != nil {
		u.fail(ctx, fmt.Errorf("failed to mark end of speech: %w", err))
	}
}

func (u *utterance) sendAudio(ctx context.Context, pcm []byte) error {
	u.outputMu.Lock()
	defer u.outputMu.Unlock()
	if ctx.Err() != nil {
		return nil
	}
	return u.output.SendAudio(pcm)
}

func (u *utterance) clearOutput() {
	u.outputMu.Lock()
	defer u.outputMu.Unlock()
	u.output.ClearBuffer()
}

func (u *utterance) markStarted() {
	if u.ended.Load() {
		return
	}
	if u.started.CompareAndSwap(false, true) {
		u.span.AddEvent("playback started")
		u.options.StartedCallback()
	}
}

func (u *utterance) waitWhilePaused(ctx context.Context) error {
	u.mu.Lock()
	resumeCh := u.resumeCh
	paused := u.paused
	u.mu.Unlock()

	if !paused {
		return ctx.Err()
	}

	select {
	case <-resumeCh:
		return ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (u *utterance) finish() {
	if !u.ended.CompareAndSwap(false, true) {
		return
	}
	u.cancel()
	u.span.End()
	u.options.FinishedCallback()
}

func (u *utterance) fail(ctx context.Context, err error) {
	if ctx.Err() != nil {
		// Cancelled, the failure is only a consequence of it.
		return
	}
	if !u.ended.CompareAndSwap(false, true) {
		return
	}
	u.cancel()
	u.clearOutput()
	u.resumePlayback()

	logger.Error("speech synthesis failed", "error", err)
	u.span.RecordError(err)
	u.span.SetStatus(codes.Error, "speech synthesis failed")
	u.span.End()
	u.options.ErrorCallback(err)
}

func (u *utterance) Pause() error {
	if u.ended.Load() {
		return nil
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.paused {
		return nil
	}
	u.paused = true
	u.resumeCh = make(chan struct{})

	if output, ok := u.output.(audio.PausableOutput); ok {
		if err := output.PausePlayback(); err != nil {
			return fmt.Errorf("failed to pause playback: %w", err)
		}
	}
	return nil
}

func (u *utterance) Resume() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.resumeLocked()
}

func (u *utterance) resumeLocked() error {
	if !u.paused {
		return nil
	}
	u.paused = false
	close(u.resumeCh)

	if output, ok := u.output.(audio.PausableOutput); ok {
		if err := output.ResumePlayback(); err != nil {
			return fmt.Errorf("failed to resume playback: %w", err)
		}
	}
	return nil
}

func (u *utterance) Cancel() error {
	if !u.ended.CompareAndSwap(false, true) {
		return nil
	}
	u.cancel()
	u.clearOutput()
	u.resumePlayback()

	u.span.AddEvent("cancelled")
	u.span.End()
	u.options.CancelledCallback()
	return nil
}

// resumePlayback leaves a paused output playing for whatever comes next.
func (u *utterance) resumePlayback() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.resumeLocked(); err != nil {
		logger.Warn("failed to resume playback after utterance ended", "error", err)
	}
}
