package events

const (
	// KindSpeechRequested identifies requests to narrate text.
	KindSpeechRequested Kind = "speech.requested"
)

// SpeechRequested asks whichever speech output is listening to narrate Text.
type SpeechRequested struct {
	Base
	// MessageID is the id of the message the text belongs to, if any.
	MessageID string
	Text      string
}

// NewSpeechRequested creates a speech requested event.
func NewSpeechRequested(messageID, text string) SpeechRequested {
	return SpeechRequested{Base: NewBase(KindSpeechRequested), MessageID: messageID, Text: text}
}
