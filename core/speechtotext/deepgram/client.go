package deepgram

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

const (
	defaultListenURL = "wss://api.deepgram.com/v1/listen"
	defaultModel     = "nova-3"
)

var ErrMissingAPIKey = errors.New("deepgram api key not set")

// TranscriptionClient streams audio to the Deepgram live transcription API.
// At most one stream is open at a time; starting a new one discards the
// previous stream without invoking any of its callbacks.
type TranscriptionClient struct {
	apiKey    string
	listenURL string
	model     string
	dialer    *websocket.Dialer

	mu     sync.Mutex
	stream *stream
}

type ClientOption func(*TranscriptionClient)

// WithListenURL overrides the websocket endpoint, e.g. for a proxy.
func WithListenURL(listenURL string) ClientOption {
	return func(c *TranscriptionClient) {
		if listenURL != "" {
			c.listenURL = listenURL
		}
	}
}

func WithModel(model string) ClientOption {
	return func(c *TranscriptionClient) {
		if model != "" {
			c.model = model
		}
	}
}

func NewTranscriptionClient(apiKey string, opts ...ClientOption) (*TranscriptionClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	client := &TranscriptionClient{
		apiKey:    apiKey,
		listenURL: defaultListenURL,
		model:     defaultModel,
		dialer:    websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close discards the current stream, if any.
func (c *TranscriptionClient) Close() error {
	c.mu.Lock()
	current := c.stream
	c.stream = nil
	c.mu.Unlock()

	if current != nil {
		current.discard()
	}
	return nil
}

func (c *TranscriptionClient) currentStream() *stream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream
}
