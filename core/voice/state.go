package voice

type SessionStatus string

const (
	StatusIdle       SessionStatus = "idle"
	StatusRequesting SessionStatus = "requesting"
	StatusRecording  SessionStatus = "recording"
	StatusStopping   SessionStatus = "stopping"
	StatusFailed     SessionStatus = "failed"
)

// SessionState is the state of an [InputSession]. Reason is only set for
// StatusFailed and for interruptions while StatusStopping.
type SessionState struct {
	Status SessionStatus
	Reason string
}

func (s SessionState) IsIdle() bool { return s.Status == StatusIdle }

func (s SessionState) String() string {
	if s.Reason == "" {
		return string(s.Status)
	}
	return string(s.Status) + "(" + s.Reason + ")"
}

var idleState = SessionState{Status: StatusIdle}
