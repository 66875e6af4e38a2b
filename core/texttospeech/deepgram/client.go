package deepgram

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/koscakluka/ema-persona/core/audio"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultSpeakURL = "https://api.deepgram.com/v1/speak"

var ErrMissingAPIKey = errors.New("deepgram api key not set")

// SpeechClient speaks text through the Deepgram speak API and plays the
// resulting audio on an audio output.
type SpeechClient struct {
	apiKey   string
	speakURL string
	voice    deepgramVoice

	output     audio.Output
	httpClient *http.Client
}

type ClientOption func(*SpeechClient)

// WithVoice pins the voice used for every locale.
func WithVoice(voice deepgramVoice) ClientOption {
	return func(c *SpeechClient) { c.voice = voice }
}

// WithSpeakURL overrides the speak endpoint, e.g. for a proxy.
func WithSpeakURL(speakURL string) ClientOption {
	return func(c *SpeechClient) {
		if speakURL != "" {
			c.speakURL = speakURL
		}
	}
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *SpeechClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func NewSpeechClient(apiKey string, output audio.Output, opts ...ClientOption) (*SpeechClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if output == nil {
		return nil, fmt.Errorf("audio output is required")
	}

	client := &SpeechClient{
		apiKey:   apiKey,
		speakURL: defaultSpeakURL,
		output:   output,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}
	for _, opt := range opts {
		opt(client)
	}

	if client.voice != "" && !slices.Contains(GetAvailableVoices(), client.voice) {
		return nil, fmt.Errorf("invalid voice %q", client.voice)
	}

	return client, nil
}

func (c *SpeechClient) SetVoice(voice deepgramVoice) error {
	if !slices.Contains(GetAvailableVoices(), voice) {
		return fmt.Errorf("invalid voice %q", voice)
	}
	c.voice = voice
	return nil
}
