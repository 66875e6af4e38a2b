package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-persona/core/speechtotext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	keepAliveInterval = 5 * time.Second
	closeGracePeriod  = 3 * time.Second
)

// Transcribe opens a new live transcription stream. Transcripts are
// cumulative for the whole stream: every interim callback receives
// everything recognized so far and the final callback, delivered once the
// stream is stopped, receives the complete transcript.
func (c *TranscriptionClient) Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error {
	ctx, span := tracer.Start(ctx, "open transcription stream")
	defer span.End()

	options := speechtotext.NewTranscriptionOptions(opts...)
	span.SetAttributes(attribute.String("transcription.locale", options.Locale))

	encoding, err := convertEncoding(options.EncodingInfo)
	if err != nil {
		err = fmt.Errorf("invalid encoding: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid encoding")
		return err
	}

	conn, err := c.connect(ctx, encoding, options)
	if err != nil {
		err = fmt.Errorf("failed to open websocket: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open websocket")
		return err
	}

	next := newStream(conn, options)

	c.mu.Lock()
	previous := c.stream
	c.stream = next
	c.mu.Unlock()

	if previous != nil {
		previous.discard()
	}

	go next.readMessages()
	go next.keepAlive()

	return nil
}

// SendAudio forwards captured audio to the open stream.
func (c *TranscriptionClient) SendAudio(audio []byte) error {
	current := c.currentStream()
	if current == nil {
		return fmt.Errorf("no open transcription stream")
	}
	return current.sendAudio(audio)
}

// StopStream asks Deepgram to finish the open stream. Results for audio
// already sent are still delivered, followed by the final transcript.
func (c *TranscriptionClient) StopStream() error {
	current := c.currentStream()
	if current == nil {
		return nil
	}
	return current.stop()
}

func (c *TranscriptionClient) connect(ctx context.Context, encoding encodingInfo, options speechtotext.TranscriptionOptions) (*websocket.Conn, error) {
	listenURL, err := url.Parse(c.listenURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listen url: %w", err)
	}

	queryParams := listenURL.Query()
	queryParams.Set("encoding", encoding.Format)
	queryParams.Set("sample_rate", strconv.Itoa(encoding.SampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", c.model)
	queryParams.Set("language", options.Locale)
	queryParams.Set("smart_format", "true")
	queryParams.Set("interim_results", "true")
	queryParams.Set("endpointing", "300")
	if options.SpeechStartedCallback != nil || options.SpeechEndedCallback != nil {
		queryParams.Set("utterance_end_ms", "1000")
		queryParams.Set("vad_events", "true")
	}
	listenURL.RawQuery = queryParams.Encode()

	conn, _, err := c.dialer.DialContext(ctx, listenURL.String(),
		http.Header{"Authorization": {"Token " + c.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

type stream struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	options speechtotext.TranscriptionOptions

	mu          sync.Mutex
	final       []string
	interim     string
	stopped     bool
	discarded   bool
	lastAudioTs time.Time

	done chan struct{}
}

func newStream(conn *websocket.Conn, options speechtotext.TranscriptionOptions) *stream {
	return &stream{
		conn:        conn,
		options:     options,
		lastAudioTs: time.Now(),
		done:        make(chan struct{}),
	}
}

func (s *stream) sendAudio(audio []byte) error {
	s.mu.Lock()
	if s.stopped || s.discarded {
		s.mu.Unlock()
		return fmt.Errorf("transcription stream closed")
	}
	s.lastAudioTs = time.Now()
	s.mu.Unlock()

	if err := s.write(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("failed to write to deepgram client: %w", err)
	}
	return nil
}

func (s *stream) stop() error {
	s.mu.Lock()
	if s.stopped || s.discarded {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	// The reader exits once Deepgram closes the connection; the deadline
	// bounds how long a silent server can hold it open.
	_ = s.conn.SetReadDeadline(time.Now().Add(closeGracePeriod))

	if err := s.writeJSON(controlMessage{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		return fmt.Errorf("failed to close deepgram stream: %w", err)
	}
	return nil
}

// discard closes the connection without delivering anything else.
func (s *stream) discard() {
	s.mu.Lock()
	if s.discarded {
		s.mu.Unlock()
		return
	}
	s.discarded = true
	s.mu.Unlock()

	_ = s.conn.Close()
}

type controlMessage struct {
	Type string `json:"type"`
}

func (s *stream) keepAlive() {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			idle := time.Since(s.lastAudioTs) >= keepAliveInterval
			closed := s.stopped || s.discarded
			s.mu.Unlock()

			if closed {
				return
			}
			if idle {
				if err := s.writeJSON(controlMessage{Type: "KeepAlive"}); err != nil {
					logger.Warn("failed to send deepgram keep alive", "error", err)
				}
			}
		}
	}
}

func (s *stream) readMessages() {
	defer close(s.done)
	defer s.conn.Close()

	for {
		msgType, msg, err := s.conn.ReadMessage()
		if err != nil {
			s.finish(err)
			return
		}
		if msgType == websocket.TextMessage {
			s.processMessage(msg)
		}
	}
}

func (s *stream) finish(readErr error) {
	s.mu.Lock()
	stopped, discarded := s.stopped, s.discarded
	transcript := s.transcriptLocked()
	s.mu.Unlock()

	switch {
	case discarded:
		return
	case stopped:
		if s.options.TranscriptionCallback != nil {
			s.options.TranscriptionCallback(transcript)
		}
	default:
		if websocket.IsCloseError(readErr, websocket.CloseNormalClosure) {
			readErr = errors.New("deepgram closed the stream")
		}
		logger.Error("deepgram transcription stream failed", "error", readErr)
		if s.options.ErrorCallback != nil {
			s.options.ErrorCallback(readErr)
		}
	}
}

func (s *stream) processMessage(msg []byte) {
	var parsedMsg struct {
		Type        string `json:"type"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		logger.Warn("failed to unmarshal deepgram message", "error", err)
		return
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			logger.Warn("failed to unmarshal deepgram results", "error", err)
			return
		}
		if len(msgResp.Channel.Alternatives) == 0 {
			return
		}
		s.update(strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript), msgResp.IsFinal)

	case api.TypeSpeechStartedResponse:
		if s.options.SpeechStartedCallback != nil && s.active() {
			s.options.SpeechStartedCallback()
		}

	case api.TypeUtteranceEndResponse:
		if s.options.SpeechEndedCallback != nil && s.active() {
			s.options.SpeechEndedCallback()
		}

	case "Error":
		logger.Error("deepgram reported an error", "description", parsedMsg.Description)
	}
}

func (s *stream) update(segment string, isFinal bool) {
	s.mu.Lock()
	if s.discarded {
		s.mu.Unlock()
		return
	}
	if isFinal {
		if segment != "" {
			s.final = append(s.final, segment)
		}
		s.interim = ""
	} else {
		s.interim = segment
	}
	transcript := s.transcriptLocked()
	s.mu.Unlock()

	if s.options.InterimTranscriptionCallback != nil && (segment != "" || isFinal) {
		s.options.InterimTranscriptionCallback(transcript)
	}
}

func (s *stream) transcriptLocked() string {
	parts := append([]string(nil), s.final...)
	if s.interim != "" {
		parts = append(parts, s.interim)
	}
	return strings.Join(parts, " ")
}

func (s *stream) active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.discarded
}

func (s *stream) write(messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(messageType, data)
}

func (s *stream) writeJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}
