package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func lookupFrom(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(nil))
	if err != nil {
		t.Fatalf("expected defaults to be valid, got %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected %+v, got %+v", Default(), cfg)
	}
	if cfg.VoiceEnabled() {
		t.Fatalf("expected voice to be disabled without an API key")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(map[string]string{
		"DEEPGRAM_API_KEY":          "key",
		"PERSONACHAT_LOCALE":        "es-ES",
		"PERSONACHAT_VOICE":         "aura-2-celeste-es",
		"PERSONACHAT_AUDIO_BACKEND": "portaudio",
		"PERSONACHAT_AUTO_SPEAK":    "false",
		"PERSONACHAT_PRE_DELAY":     "10ms",
		"PERSONACHAT_COMPOSE_DELAY": "0s",
	}))
	if err != nil {
		t.Fatalf("expected valid configuration, got %v", err)
	}

	expected := Config{
		DeepgramAPIKey: "key",
		Locale:         "es-ES",
		Voice:          "aura-2-celeste-es",
		AudioBackend:   BackendPortaudio,
		AutoSpeak:      false,
		PreDelay:       10 * time.Millisecond,
		ComposeDelay:   0,
	}
	if cfg != expected {
		t.Fatalf("expected %+v, got %+v", expected, cfg)
	}
}

func TestFromEnvRejectsInvalidValues(t *testing.T) {
	testCases := []struct {
		name   string
		values map[string]string
	}{
		{name: "auto speak", values: map[string]string{"PERSONACHAT_AUTO_SPEAK": "sometimes"}},
		{name: "pre delay", values: map[string]string{"PERSONACHAT_PRE_DELAY": "soon"}},
		{name: "negative delay", values: map[string]string{"PERSONACHAT_COMPOSE_DELAY": "-1s"}},
		{name: "backend", values: map[string]string{"PERSONACHAT_AUDIO_BACKEND": "alsa"}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if _, err := FromEnv(lookupFrom(testCase.values)); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}

	_, err := FromEnv(lookupFrom(map[string]string{"PERSONACHAT_AUDIO_BACKEND": "alsa"}))
	if !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("expected unknown backend error, got %v", err)
	}
}

func TestLoadReadsDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("PERSONACHAT_VOICE=aura-2-apollo-en\n"), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Setenv("PERSONACHAT_VOICE", "")
	os.Unsetenv("PERSONACHAT_VOICE")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected env file to load, got %v", err)
	}
	if cfg.Voice != "aura-2-apollo-en" {
		t.Fatalf("expected voice from env file, got %q", cfg.Voice)
	}
}

func TestLoadIgnoresMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected missing env file to be ignored, got %v", err)
	}
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	cfg := Default()
	flags := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.BindFlags(flags)

	if err := flags.Parse([]string{"-locale", "zh-CN", "-speak=false", "-compose-delay", "1s"}); err != nil {
		t.Fatalf("expected flags to parse, got %v", err)
	}
	if cfg.Locale != "zh-CN" || cfg.AutoSpeak || cfg.ComposeDelay != time.Second {
		t.Fatalf("expected flags to override defaults, got %+v", cfg)
	}
}

func TestVoiceTestFlags(t *testing.T) {
	cfg := Default()
	flags := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.BindFlags(flags)

	if err := flags.Parse([]string{"-voice-test", "-listen", "2s"}); err != nil {
		t.Fatalf("expected flags to parse, got %v", err)
	}
	if !cfg.VoiceTest || cfg.ListenFor != 2*time.Second {
		t.Fatalf("expected voice test for 2s, got %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cfg.ListenFor = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected voice test without listen time to be rejected")
	}
}
