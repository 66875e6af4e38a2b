package main

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	orchestration "github.com/koscakluka/ema-persona/core"
	"github.com/koscakluka/ema-persona/core/conversation"
	"github.com/koscakluka/ema-persona/core/voice"
	"github.com/koscakluka/ema-persona/internal/config"
)

func newTestModel(t *testing.T) model {
	t.Helper()

	orchestrator := orchestration.NewOrchestrator(
		orchestration.WithConversationOptions(conversation.WithThinkingDelay(time.Hour, 0)),
	)
	t.Cleanup(orchestrator.Close)

	m := newModel(context.Background(), orchestrator, config.Default(), false)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(model)
}

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	updated, _ := m.Update(msg)
	return updated.(model)
}

func TestWelcomeMessageResetsRows(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, messageMsg(conversation.Message{ID: "1", Content: "hello", Origin: conversation.OriginBot, Kind: conversation.MessageWelcome}))
	m = update(t, m, messageMsg(conversation.Message{ID: "2", Content: "first question", Origin: conversation.OriginBot, Kind: conversation.MessageQuestion}))
	if len(m.rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(m.rows))
	}
	if m.rows[1].ID != "2" || m.rows[1].Kind != conversation.MessageQuestion {
		t.Fatalf("expected copied question row, got %+v", m.rows[1])
	}

	m = update(t, m, messageMsg(conversation.Message{ID: "3", Content: "hello again", Origin: conversation.OriginBot, Kind: conversation.MessageWelcome}))
	if len(m.rows) != 1 || m.rows[0].ID != "3" {
		t.Fatalf("expected restart to reset rows, got %+v", m.rows)
	}
}

func TestViewShowsMessagesAndComposing(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, messageMsg(conversation.Message{ID: "1", Content: "what do friends call you?", Origin: conversation.OriginBot, Kind: conversation.MessageQuestion}))
	m = update(t, m, composingMsg(true))
	m = update(t, m, stateMsg(conversation.State{Phase: conversation.PhaseExploring, Step: 1}))

	view := m.View()
	for _, expected := range []string{"what do friends call you?", "typing…", "question 1", "voice unavailable"} {
		if !strings.Contains(view, expected) {
			t.Fatalf("expected view to contain %q, got:\n%s", expected, view)
		}
	}
}

func TestTranscriptFillsInput(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, transcriptMsg{text: "I like to plan"})
	if m.input.Value() != "I like to plan" {
		t.Fatalf("expected transcript in input, got %q", m.input.Value())
	}
}

func TestVoiceErrorsAreDescribed(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, errMsg{err: voice.ErrAudioEngineFailed})
	if m.alert != voice.Describe(voice.ErrAudioEngineFailed) {
		t.Fatalf("expected described error, got %q", m.alert)
	}
}

func TestEnterSubmitsReply(t *testing.T) {
	m := newTestModel(t)
	m.orchestrator.Start(context.Background())

	m.input.SetValue("my reply")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.input.Value() != "" {
		t.Fatalf("expected input to be cleared, got %q", m.input.Value())
	}
	replies := m.orchestrator.Conversation().Replies()
	if len(replies) != 1 || replies[0] != "my reply" {
		t.Fatalf("expected reply to be submitted, got %v", replies)
	}
}
