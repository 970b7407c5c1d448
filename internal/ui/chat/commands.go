// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verifywise/playground/internal/attachment"
	"github.com/verifywise/playground/internal/export"
)

// handleCommand dispatches a slash command typed at the prompt.
func (m *Model) handleCommand(input string) tea.Cmd {
	parts := strings.Fields(input)
	cmd, args := parts[0], parts[1:]

	switch cmd {
	case "/help":
		return m.transientStatus("/model <provider> <model> | /attach <path> | /save | /export | /clear | /quit")

	case "/quit", "/exit":
		return tea.Quit

	case "/clear":
		if m.svc.Busy() {
			return m.transientStatus("cannot clear while a response is streaming")
		}
		m.svc.Transcript().Clear()
		m.pending = nil
		m.refresh()
		return m.transientStatus("conversation cleared")

	case "/model":
		if len(args) != 2 {
			return m.transientStatus("usage: /model <provider> <model>")
		}
		m.svc.SetModel(args[0], args[1])
		return m.transientStatus("switched to " + args[0] + "/" + args[1])

	case "/attach":
		if len(args) != 1 {
			return m.transientStatus("usage: /attach <path>")
		}
		p, err := attachment.EncodeFile(args[0])
		if err != nil {
			return m.transientStatus("attach failed: " + err.Error())
		}
		m.pending = append(m.pending, p)
		return m.transientStatus(fmt.Sprintf("attached %s (%s)", p.Name, p.MimeType))

	case "/save":
		if m.store == nil {
			return m.transientStatus("persistence is disabled")
		}
		if err := m.store.Save(m.svc.Transcript()); err != nil {
			return m.transientStatus("save failed: " + err.Error())
		}
		return m.transientStatus("conversation saved")

	case "/export":
		path, err := export.ToFile(m.svc.Transcript(), nil)
		if err != nil {
			return m.transientStatus("export failed: " + err.Error())
		}
		return m.transientStatus("exported to " + path)

	default:
		return m.transientStatus("unknown command " + cmd + ", try /help")
	}
}
