package conversation

import "time"

type Origin string

const (
	OriginUser Origin = "user"
	OriginBot  Origin = "bot"
)

type MessageKind string

const (
	MessageWelcome    MessageKind = "welcome"
	MessageQuestion   MessageKind = "question"
	MessageResponse   MessageKind = "response"
	MessageCompletion MessageKind = "completion"
)

// Message is one entry of the conversation log. Messages are never changed
// once appended.
type Message struct {
	ID      string
	Content string
	Origin  Origin
	Kind    MessageKind
	// QuestionID is the question a question message asks or a response
	// message answers.
	QuestionID string
	CreatedAt  time.Time
}
