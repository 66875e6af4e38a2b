package events

import (
	"errors"
	"testing"
)

func TestConstructorsEmitExpectedKinds(t *testing.T) {
	testCases := []struct {
		name     string
		event    Event
		expected Kind
	}{
		{name: "speech requested", event: NewSpeechRequested("id", "hello"), expected: KindSpeechRequested},
		{name: "message appended", event: NewMessageAppended(0, "id", "bot", "welcome", "hi"), expected: KindMessageAppended},
		{name: "state changed", event: NewStateChanged("exploring", 1), expected: KindStateChanged},
		{name: "composing changed", event: NewComposingChanged(true), expected: KindComposingChanged},
		{name: "input state changed", event: NewInputStateChanged("recording", ""), expected: KindInputStateChanged},
		{name: "transcript updated", event: NewTranscriptUpdated("rec", "text", false), expected: KindTranscriptUpdated},
		{name: "input failed", event: NewInputFailed("rec", errors.New("boom")), expected: KindInputFailed},
		{name: "speaking changed", event: NewSpeakingChanged(true, "text"), expected: KindSpeakingChanged},
		{name: "capability changed", event: NewCapabilityChanged(false, "denied"), expected: KindCapabilityChanged},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.event.Kind(); got != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, got)
			}
			if testCase.event.Timestamp().IsZero() {
				t.Fatalf("expected timestamp to be set")
			}
		})
	}
}

func TestKindNamespace(t *testing.T) {
	testCases := []struct {
		kind     Kind
		expected string
	}{
		{kind: KindSpeechRequested, expected: "speech"},
		{kind: KindMessageAppended, expected: "conversation"},
		{kind: KindSpeakingChanged, expected: "voice"},
		{kind: Kind("plain"), expected: "plain"},
	}

	for _, testCase := range testCases {
		if got := testCase.kind.Namespace(); got != testCase.expected {
			t.Fatalf("expected namespace %q for %q, got %q", testCase.expected, testCase.kind, got)
		}
	}
}
