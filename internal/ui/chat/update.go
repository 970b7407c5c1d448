// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/verifywise/playground/internal/transcript"
)

// Update is the Bubble Tea message loop.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if m.svc.Busy() {
				// First Ctrl+C aborts the stream, a second one quits.
				m.svc.Cancel()
				return m, m.transientStatus("cancelled, partial response kept")
			}
			return m, tea.Quit

		case "esc":
			if m.svc.Busy() {
				m.svc.Cancel()
				return m, m.transientStatus("cancelled, partial response kept")
			}

		case "enter":
			return m, m.submit()

		case "alt+enter":
			m.input.InsertString("\n")
			return m, nil

		case "pgup", "pgdown", "ctrl+u", "ctrl+d":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case transcriptEventMsg:
		cmds = append(cmds, m.waitEvent())
		switch transcript.Event(msg).Kind {
		case transcript.EventDelta:
			m.buf.Write(transcript.Event(msg).Delta)
			cmds = append(cmds, m.flushTick())
		default:
			// Begin/Set/End/Append change turn structure: repaint now.
			m.buf.Reset()
			m.refresh()
		}
		return m, tea.Batch(cmds...)

	case flushTickMsg:
		if _, ok := m.buf.Flush(); ok {
			m.refresh()
		}
		if m.svc.Busy() {
			return m, m.flushTick()
		}
		if _, ok := m.buf.ForceFlush(); ok {
			m.refresh()
		}
		return m, nil

	case sendDoneMsg:
		m.buf.Reset()
		m.refresh()
		if msg.err != nil {
			// The message is already in the transcript; log for diagnosis.
			m.log.Debug().Err(msg.err).Msg("send settled with error")
		}
		if m.store != nil && m.cfg.Storage.Autosave {
			if err := m.store.Save(m.svc.Transcript()); err != nil {
				m.log.Warn().Err(err).Msg("autosave failed")
			}
		}
		return m, nil

	case statusExpiredMsg:
		m.status = ""
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// submit sends the input content, routing slash commands.
func (m *Model) submit() tea.Cmd {
	prompt := strings.TrimSpace(m.input.Value())
	if prompt == "" {
		return nil
	}

	if strings.HasPrefix(prompt, "/") {
		m.input.Reset()
		return m.handleCommand(prompt)
	}

	if m.svc.Busy() {
		return m.transientStatus("a response is already streaming")
	}

	m.input.Reset()
	atts := m.pending
	m.pending = nil
	return m.sendCmd(prompt, atts)
}

// resize recomputes the layout and rebuilds the markdown renderer for the
// new wrap width.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	inputHeight := m.input.Height() + 2 // border
	headerHeight := 1
	statusHeight := 1
	viewportHeight := height - inputHeight - headerHeight - statusHeight
	if viewportHeight < 1 {
		viewportHeight = 1
	}

	if !m.ready {
		m.viewport = newViewport(width, viewportHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = viewportHeight
	}
	m.input.SetWidth(width - 2)

	// No renderer on color-blind terminals: glamour's ANSI output would show
	// up as garbage, and the plain code-block path degrades gracefully.
	if m.cfg.UI.Markdown && !m.theme.Monochrome() {
		wrap := width - 4
		if wrap < 20 {
			wrap = 20
		}
		if r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		); err == nil {
			m.renderer = r
		}
	}
}
