package conversation

import "strconv"

type Phase string

const (
	PhaseWelcome     Phase = "welcome"
	PhaseExploring   Phase = "exploring"
	PhaseIntegration Phase = "integration"
	PhaseCompletion  Phase = "completion"
)

// State is the position of the conversation. Step is the index of the
// question asked last and only increases; Completion is terminal.
type State struct {
	Phase Phase
	Step  int
}

func (s State) IsTerminal() bool { return s.Phase == PhaseCompletion }

func (s State) String() string {
	if s.Phase == PhaseExploring {
		return string(s.Phase) + "(" + strconv.Itoa(s.Step) + ")"
	}
	return string(s.Phase)
}
