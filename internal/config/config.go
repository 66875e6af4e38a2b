// Package config loads the process configuration of personachat from the
// environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/koscakluka/ema-persona/core/conversation"
	"github.com/koscakluka/ema-persona/core/speechtotext"
)

const (
	BackendMiniaudio = "miniaudio"
	BackendPortaudio = "portaudio"
)

var ErrUnknownBackend = errors.New("unknown audio backend")

type Config struct {
	DeepgramAPIKey string
	Locale         string
	// Voice is a Deepgram voice name. Empty picks one for Locale.
	Voice        string
	AudioBackend string
	AutoSpeak    bool
	PreDelay     time.Duration
	ComposeDelay time.Duration

	// VoiceTest runs the voice self-test instead of the conversation,
	// recording for ListenFor.
	VoiceTest bool
	ListenFor time.Duration
}

const DefaultListenFor = 5 * time.Second

func Default() Config {
	return Config{
		Locale:       speechtotext.DefaultLocale,
		AudioBackend: BackendMiniaudio,
		AutoSpeak:    true,
		PreDelay:     conversation.DefaultPreDelay,
		ComposeDelay: conversation.DefaultComposeDelay,
		ListenFor:    DefaultListenFor,
	}
}

// Load reads files (".env" when none are given) into the environment and
// builds the configuration from it. Missing files are not an error.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds the configuration from lookup, starting from [Default].
func FromEnv(lookup func(key string) (string, bool)) (Config, error) {
	cfg := Default()

	if value, ok := lookup("DEEPGRAM_API_KEY"); ok {
		cfg.DeepgramAPIKey = value
	}
	if value, ok := lookup("PERSONACHAT_LOCALE"); ok && value != "" {
		cfg.Locale = value
	}
	if value, ok := lookup("PERSONACHAT_VOICE"); ok {
		cfg.Voice = value
	}
	if value, ok := lookup("PERSONACHAT_AUDIO_BACKEND"); ok && value != "" {
		cfg.AudioBackend = value
	}

	var errs []error
	if value, ok := lookup("PERSONACHAT_AUTO_SPEAK"); ok && value != "" {
		autoSpeak, err := strconv.ParseBool(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to parse PERSONACHAT_AUTO_SPEAK: %w", err))
		} else {
			cfg.AutoSpeak = autoSpeak
		}
	}
	if value, ok := lookup("PERSONACHAT_PRE_DELAY"); ok && value != "" {
		delay, err := time.ParseDuration(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to parse PERSONACHAT_PRE_DELAY: %w", err))
		} else {
			cfg.PreDelay = delay
		}
	}
	if value, ok := lookup("PERSONACHAT_COMPOSE_DELAY"); ok && value != "" {
		delay, err := time.ParseDuration(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to parse PERSONACHAT_COMPOSE_DELAY: %w", err))
		} else {
			cfg.ComposeDelay = delay
		}
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

// BindFlags lets command line flags override the loaded values.
func (c *Config) BindFlags(flags *flag.FlagSet) {
	flags.StringVar(&c.Locale, "locale", c.Locale, "locale used for recognition and narration")
	flags.StringVar(&c.Voice, "voice", c.Voice, "Deepgram voice, empty picks one for the locale")
	flags.StringVar(&c.AudioBackend, "audio", c.AudioBackend, "audio backend (miniaudio or portaudio)")
	flags.BoolVar(&c.AutoSpeak, "speak", c.AutoSpeak, "narrate bot messages")
	flags.DurationVar(&c.PreDelay, "pre-delay", c.PreDelay, "delay before the bot starts composing")
	flags.DurationVar(&c.ComposeDelay, "compose-delay", c.ComposeDelay, "time the bot spends composing")
	flags.BoolVar(&c.VoiceTest, "voice-test", c.VoiceTest, "check permissions, recognition and narration, then exit")
	flags.DurationVar(&c.ListenFor, "listen", c.ListenFor, "how long the voice test records")
}

func (c Config) Validate() error {
	switch c.AudioBackend {
	case BackendMiniaudio, BackendPortaudio:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.AudioBackend)
	}
	if c.PreDelay < 0 || c.ComposeDelay < 0 {
		return errors.New("thinking delays must not be negative")
	}
	if c.VoiceTest && c.ListenFor <= 0 {
		return errors.New("voice test listen time must be positive")
	}
	return nil
}

// VoiceEnabled reports whether the Deepgram services can be used.
func (c Config) VoiceEnabled() bool { return c.DeepgramAPIKey != "" }
