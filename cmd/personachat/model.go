package main

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jinzhu/copier"
	orchestration "github.com/koscakluka/ema-persona/core"
	"github.com/koscakluka/ema-persona/core/capability"
	"github.com/koscakluka/ema-persona/core/conversation"
	"github.com/koscakluka/ema-persona/core/voice"
	"github.com/koscakluka/ema-persona/internal/config"
)

type (
	messageMsg    conversation.Message
	composingMsg  bool
	stateMsg      conversation.State
	inputStateMsg voice.SessionState
	speakingMsg   bool
	capabilityMsg capability.State
	transcriptMsg struct {
		text  string
		final bool
	}
	recordingStoppedMsg struct {
		transcript string
		err        error
	}
	errMsg struct{ err error }
)

// messageRow is the view's copy of a logged message.
type messageRow struct {
	ID        string
	Content   string
	Origin    conversation.Origin
	Kind      conversation.MessageKind
	CreatedAt time.Time
}

func newMessageRow(message conversation.Message) messageRow {
	row := messageRow{}
	if err := copier.Copy(&row, &message); err != nil {
		logger.Warn("failed to copy message", "id", message.ID, "error", err)
		row = messageRow{ID: message.ID, Content: message.Content, Origin: message.Origin, Kind: message.Kind}
	}
	return row
}

type model struct {
	ctx          context.Context
	orchestrator *orchestration.Orchestrator
	locale       string
	voice        bool

	input    textinput.Model
	viewport viewport.Model
	styles   styles

	rows        []messageRow
	state       conversation.State
	composing   bool
	inputState  voice.SessionState
	speaking    bool
	voiceOutput bool
	alert       string

	width  int
	height int
}

func newModel(ctx context.Context, orchestrator *orchestration.Orchestrator, cfg config.Config, voiceAvailable bool) model {
	input := textinput.New()
	input.Placeholder = "Type your reply"
	input.Prompt = "> "
	input.Focus()

	return model{
		ctx:          ctx,
		orchestrator: orchestrator,
		locale:       cfg.Locale,
		voice:        voiceAvailable,
		input:        input,
		viewport:     viewport.New(80, 20),
		styles:       newStyles(),
		state:        conversation.State{Phase: conversation.PhaseWelcome},
		voiceOutput:  orchestrator.VoiceOutputEnabled(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.start())
}

func (m model) start() tea.Cmd {
	return func() tea.Msg {
		m.orchestrator.Start(m.ctx)
		return nil
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case tea.BlurMsg:
		m.orchestrator.Background()

	case tea.FocusMsg:
		cmds = append(cmds, m.refreshCapabilities())

	case tea.KeyMsg:
		cmd, handled := m.handleKey(msg)
		if handled {
			return m, cmd
		}

	case messageMsg:
		message := conversation.Message(msg)
		if message.Kind == conversation.MessageWelcome {
			m.rows = nil
		}
		m.rows = append(m.rows, newMessageRow(message))
		m.refreshViewport()

	case composingMsg:
		m.composing = bool(msg)
		m.refreshViewport()

	case stateMsg:
		m.state = conversation.State(msg)

	case inputStateMsg:
		m.inputState = voice.SessionState(msg)

	case speakingMsg:
		m.speaking = bool(msg)

	case capabilityMsg:
		if state := capability.State(msg); !state.Authorized && state.Reason != "" && m.voice {
			m.alert = voice.Describe(voice.ErrPermissionDenied) + " (" + state.Reason + ")"
		}

	case transcriptMsg:
		m.input.SetValue(msg.text)
		m.input.CursorEnd()

	case recordingStoppedMsg:
		if msg.err != nil {
			m.alert = voice.Describe(msg.err)
		}
		m.input.SetValue(msg.transcript)
		m.input.CursorEnd()

	case errMsg:
		m.alert = voice.Describe(msg.err)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return tea.Quit, true

	case "enter":
		m.alert = ""
		if m.orchestrator.SubmitReply(m.input.Value()) {
			m.input.Reset()
			m.orchestrator.ClearTranscript()
		} else if m.state.IsTerminal() {
			m.alert = "The conversation is complete. Press ctrl+n to start over."
		}
		return nil, true

	case "ctrl+r":
		m.alert = ""
		if m.recording() {
			return m.stopRecording(), true
		}
		return m.startRecording(), true

	case "ctrl+s":
		m.orchestrator.StopSpeaking()
		return nil, true

	case "ctrl+p":
		if err := m.orchestrator.PauseOrResumeSpeaking(); err != nil {
			m.alert = err.Error()
		}
		return nil, true

	case "ctrl+o":
		m.voiceOutput = !m.voiceOutput
		m.orchestrator.SetVoiceOutput(m.voiceOutput)
		return nil, true

	case "ctrl+l":
		if m.speaking {
			m.orchestrator.StopSpeaking()
			return nil, true
		}
		return m.speakLast(), true

	case "ctrl+n":
		m.alert = ""
		m.input.Reset()
		m.orchestrator.Restart()
		return nil, true
	}

	return nil, false
}

func (m model) recording() bool {
	switch m.inputState.Status {
	case voice.StatusRequesting, voice.StatusRecording:
		return true
	default:
		return false
	}
}

func (m model) startRecording() tea.Cmd {
	return func() tea.Msg {
		if err := m.orchestrator.StartRecording(m.ctx); err != nil && !errors.Is(err, voice.ErrRecordingAbandoned) {
			return errMsg{err: err}
		}
		return nil
	}
}

func (m model) stopRecording() tea.Cmd {
	return func() tea.Msg {
		transcript, err := m.orchestrator.StopRecording()
		return recordingStoppedMsg{transcript: transcript, err: err}
	}
}

// speakLast narrates the latest bot message.
func (m model) speakLast() tea.Cmd {
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].Origin != conversation.OriginBot {
			continue
		}
		id := m.rows[i].ID
		return func() tea.Msg {
			if err := m.orchestrator.SpeakMessage(m.ctx, id); err != nil {
				return errMsg{err: err}
			}
			return nil
		}
	}
	return nil
}

func (m model) refreshCapabilities() tea.Cmd {
	return func() tea.Msg {
		m.orchestrator.RefreshCapabilities(m.ctx)
		return nil
	}
}

func (m *model) resize() {
	headerHeight := lipgloss.Height(m.header())
	footerHeight := 4
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-headerHeight-footerHeight, 1)
	m.input.Width = max(m.width-4, 10)
	m.refreshViewport()
}

func (m *model) refreshViewport() {
	m.viewport.SetContent(m.renderRows())
	m.viewport.GotoBottom()
}
