// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verifywise/playground/internal/transcript"
	"github.com/verifywise/playground/internal/ui/components"
	"github.com/verifywise/playground/internal/ui/styles"
	"github.com/verifywise/playground/internal/util"
)

// View renders the full frame: header, conversation, input, status bar.
func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var sb strings.Builder
	sb.WriteString(m.headerView())
	sb.WriteString("\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	sb.WriteString(styles.InputBorder.Width(m.width - 2).Render(m.input.View()))
	sb.WriteString("\n")
	sb.WriteString(m.statusView())
	return sb.String()
}

func (m *Model) headerView() string {
	opts := m.svc.Options()
	title := util.TruncateWidth(m.svc.Transcript().GetTitle(), m.width/2)
	model := opts.Provider + "/" + opts.Model
	gap := m.width - util.StringWidth(title) - len(model) - 2
	if gap < 1 {
		gap = 1
	}
	return styles.StatusBar.Width(m.width).Render(
		title + strings.Repeat(" ", gap) + styles.Hint.Render(model))
}

func (m *Model) statusView() string {
	switch {
	case m.svc.Busy():
		return styles.StatusBar.Width(m.width).Render(
			m.spin.View() + styles.StatusBusy.Render(" streaming") +
				styles.Hint.Render("  esc to cancel"))
	case m.status != "":
		return styles.StatusBar.Width(m.width).Render(m.status)
	default:
		hint := "enter to send | alt+enter newline | /help"
		if len(m.pending) > 0 {
			hint = fmt.Sprintf("%d attachment(s) pending | %s", len(m.pending), hint)
		}
		return styles.StatusBar.Width(m.width).Render(styles.Hint.Render(hint))
	}
}

// refresh rebuilds the viewport content from the transcript and scrolls to
// the bottom.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m *Model) renderTranscript() string {
	turns := m.svc.Transcript().Turns()
	if len(turns) == 0 {
		return styles.Hint.Render("\n  Start the conversation by typing a message below.\n")
	}

	var sb strings.Builder
	for _, t := range turns {
		sb.WriteString(m.renderTurn(t))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *Model) renderTurn(t *transcript.Turn) string {
	var label string
	switch t.Role {
	case transcript.RoleUser:
		label = styles.UserLabel.Render(t.Role.DisplayName())
	case transcript.RoleAssistant:
		label = styles.AssistantLabel.Render(t.Role.DisplayName())
	default:
		label = styles.SystemLabel.Render(t.Role.DisplayName())
	}
	ts := styles.Timestamp.Render(t.Timestamp.Format("15:04:05"))

	content := t.DisplayContent()
	if t.IsStreaming {
		// Raw text with a cursor while streaming; markdown rendering of an
		// unterminated document produces unstable output.
		content += "▌"
	} else if t.Role == transcript.RoleAssistant && m.renderer != nil {
		if rendered, err := m.renderer.Render(content); err == nil {
			content = strings.TrimRight(rendered, "\n")
		}
	} else if t.Role == transcript.RoleAssistant {
		content = components.ParseCodeBlocks(content, m.width-4)
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top, label, " ", ts)

	var atts string
	for _, a := range t.Attachments {
		atts += styles.Hint.Render(fmt.Sprintf("  [attachment: %s]", a.Name)) + "\n"
	}

	return header + "\n" + atts + content + "\n"
}
