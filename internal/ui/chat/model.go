// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/verifywise/playground/internal/attachment"
	"github.com/verifywise/playground/internal/config"
	"github.com/verifywise/playground/internal/playground"
	"github.com/verifywise/playground/internal/storage"
	"github.com/verifywise/playground/internal/transcript"
	"github.com/verifywise/playground/internal/ui/styles"
)

// =============================================================================
// MESSAGES
// =============================================================================

// transcriptEventMsg carries one transcript mutation into the Update loop.
type transcriptEventMsg transcript.Event

// sendDoneMsg signals that a Send call settled. The error, if any, has
// already been surfaced into the transcript.
type sendDoneMsg struct{ err error }

// flushTickMsg paces streaming repaints.
type flushTickMsg time.Time

// statusExpiredMsg clears a transient status line.
type statusExpiredMsg struct{}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the playground chat view.
//
// IMPORTANT: the streaming service mutates the transcript from its own
// goroutine; this model only ever reads transcript state inside Update,
// triggered by events forwarded through the events channel.
type Model struct {
	svc   *playground.Service
	store *storage.Store
	cfg   *config.Config
	log   zerolog.Logger

	viewport viewport.Model
	input    textarea.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	buf    *StreamingBuffer
	events chan transcript.Event

	// pending attachments picked up by the next send
	pending []*attachment.Payload

	width  int
	height int
	ready  bool
	status string
	theme  styles.Theme
}

// New creates the chat model. store may be nil when persistence is disabled.
func New(svc *playground.Service, store *storage.Store, cfg *config.Config, log zerolog.Logger) *Model {
	input := textarea.New()
	input.Placeholder = "Type a message, /help for commands"
	input.CharLimit = 0
	input.SetHeight(3)
	input.ShowLineNumbers = false
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(styles.Purple)

	m := &Model{
		svc:    svc,
		store:  store,
		cfg:    cfg,
		log:    log,
		input:  input,
		spin:   spin,
		buf:    NewStreamingBuffer(cfg.UI.BatchSize, cfg.UI.FlushFPS),
		events: make(chan transcript.Event, 256),
		theme:  styles.DetectTheme(),
	}

	// The subscriber runs on the streaming goroutine: never block it. A full
	// channel drops the event; the next repaint reads transcript state fresh
	// anyway.
	svc.Transcript().Subscribe(func(ev transcript.Event) {
		select {
		case m.events <- ev:
		default:
		}
	})

	return m
}

// Init starts the event pump and cursor blink.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitEvent(), textarea.Blink, m.spin.Tick)
}

// waitEvent blocks until the next transcript mutation.
func (m *Model) waitEvent() tea.Cmd {
	return func() tea.Msg {
		return transcriptEventMsg(<-m.events)
	}
}

// sendCmd issues the send; it runs on a Bubble Tea command goroutine.
func (m *Model) sendCmd(prompt string, attachments []*attachment.Payload) tea.Cmd {
	return func() tea.Msg {
		return sendDoneMsg{err: m.svc.Send(context.Background(), prompt, attachments)}
	}
}

// flushTick schedules the next streaming repaint check.
func (m *Model) flushTick() tea.Cmd {
	interval := time.Second / time.Duration(m.cfg.UI.FlushFPS)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return flushTickMsg(t)
	})
}

func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.MouseWheelEnabled = true
	return vp
}

// transientStatus shows a status line that clears itself.
func (m *Model) transientStatus(s string) tea.Cmd {
	m.status = s
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return statusExpiredMsg{}
	})
}
