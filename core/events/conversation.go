package events

const (
	// KindMessageAppended identifies additions to the conversation log.
	KindMessageAppended Kind = "conversation.message_appended"
	// KindStateChanged identifies conversation state transitions.
	KindStateChanged Kind = "conversation.state_changed"
	// KindComposingChanged identifies changes of the composing indicator.
	KindComposingChanged Kind = "conversation.composing_changed"
)

// MessageAppended carries a copy of an appended message.
type MessageAppended struct {
	Base
	MessageID   string
	Origin      string
	MessageKind string
	Content     string
	// Index is the position of the message in the log.
	Index int
}

// NewMessageAppended creates a message appended event.
func NewMessageAppended(index int, id, origin, kind, content string) MessageAppended {
	return MessageAppended{
		Base:        NewBase(KindMessageAppended),
		MessageID:   id,
		Origin:      origin,
		MessageKind: kind,
		Content:     content,
		Index:       index,
	}
}

// StateChanged carries the conversation state after a transition.
type StateChanged struct {
	Base
	State string
	Step  int
}

// NewStateChanged creates a state changed event.
func NewStateChanged(state string, step int) StateChanged {
	return StateChanged{Base: NewBase(KindStateChanged), State: state, Step: step}
}

// ComposingChanged reports whether the next bot message is being composed.
type ComposingChanged struct {
	Base
	Composing bool
}

// NewComposingChanged creates a composing changed event.
func NewComposingChanged(composing bool) ComposingChanged {
	return ComposingChanged{Base: NewBase(KindComposingChanged), Composing: composing}
}
