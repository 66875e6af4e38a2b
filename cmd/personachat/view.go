package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/koscakluka/ema-persona/core/conversation"
	"github.com/koscakluka/ema-persona/core/voice"
	"github.com/muesli/reflow/wordwrap"
)

type styles struct {
	header    lipgloss.Style
	bot       lipgloss.Style
	user      lipgloss.Style
	composing lipgloss.Style
	status    lipgloss.Style
	alert     lipgloss.Style
	help      lipgloss.Style
}

func newStyles() styles {
	return styles{
		header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1),
		bot:       lipgloss.NewStyle().Foreground(lipgloss.Color("252")).PaddingLeft(1),
		user:      lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Align(lipgloss.Right),
		composing: lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true).PaddingLeft(1),
		status:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		alert:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		help:      lipgloss.NewStyle().Foreground(lipgloss.Color("239")),
	}
}

func (m model) View() string {
	sections := []string{
		m.header(),
		m.viewport.View(),
		m.input.View(),
		m.statusLine(),
	}
	if m.alert != "" {
		sections = append(sections, m.styles.alert.Render(m.alert))
	} else {
		sections = append(sections, m.styles.help.Render(m.helpLine()))
	}
	return strings.Join(sections, "\n")
}

func (m model) header() string {
	return m.styles.header.Render("Personality chat · " + phaseTitle(m.state))
}

func (m model) renderRows() string {
	width := max(m.viewport.Width-4, 20)

	var b strings.Builder
	for _, row := range m.rows {
		content := wordwrap.String(row.Content, width*3/4)
		switch row.Origin {
		case conversation.OriginUser:
			if content == "" {
				content = "(empty reply)"
			}
			b.WriteString(m.styles.user.Width(width).Render(content))
		default:
			b.WriteString(m.styles.bot.Render(content))
		}
		b.WriteString("\n\n")
	}
	if m.composing {
		b.WriteString(m.styles.composing.Render("typing…"))
	}
	return b.String()
}

func (m model) statusLine() string {
	parts := []string{m.locale}

	if !m.voice {
		parts = append(parts, "voice unavailable")
	} else {
		switch m.inputState.Status {
		case voice.StatusIdle:
			parts = append(parts, "mic off")
		default:
			parts = append(parts, "mic "+string(m.inputState.Status))
		}
	}

	switch {
	case !m.voiceOutput:
		parts = append(parts, "narration muted")
	case m.speaking:
		parts = append(parts, "speaking")
	}

	return m.styles.status.Render(strings.Join(parts, " · "))
}

func (m model) helpLine() string {
	return "enter send · ctrl+r record · ctrl+l replay · ctrl+s stop · ctrl+p pause · ctrl+o narration · ctrl+n restart · esc quit"
}

func phaseTitle(state conversation.State) string {
	switch state.Phase {
	case conversation.PhaseExploring:
		return fmt.Sprintf("question %d", state.Step)
	case conversation.PhaseIntegration:
		return "analysing"
	case conversation.PhaseCompletion:
		return "complete"
	default:
		return "welcome"
	}
}
