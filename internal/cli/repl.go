// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// repl.go - interactive chat loop for terminals without the full TUI.
//
// USABILITY: liner provides readline-like editing and history navigation.
//
// Interactive commands:
//   /help               Show available commands
//   /clear              Clear conversation history
//   /model <p> <m>      Switch provider and model
//   /attach <path>      Attach a file to the next message
//   /save               Persist the conversation
//   /list               List saved conversations
//   /export             Export the conversation to Markdown
//   /quit               Exit
//   Ctrl+C              Cancel current generation (or exit when idle)
//   Ctrl+D              Exit
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
	"github.com/rs/zerolog"

	"github.com/verifywise/playground/internal/attachment"
	"github.com/verifywise/playground/internal/config"
	"github.com/verifywise/playground/internal/export"
	"github.com/verifywise/playground/internal/playground"
	"github.com/verifywise/playground/internal/session"
	"github.com/verifywise/playground/internal/storage"
	"github.com/verifywise/playground/internal/transcript"
	"github.com/verifywise/playground/internal/ui/styles"
)

var (
	promptStyle    = lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(styles.Purple).Bold(true)
	infoStyle      = lipgloss.NewStyle().Foreground(styles.TextSecondary)
	successStyle   = lipgloss.NewStyle().Foreground(styles.Emerald)
	warningStyle   = lipgloss.NewStyle().Foreground(styles.Amber)
	errorStyle     = styles.ErrorText.Bold(true)
)

// =============================================================================
// REPL
// =============================================================================

// Repl is the line-oriented chat front end. Deltas are printed as they
// arrive; there is no repaint loop.
type Repl struct {
	svc   *playground.Service
	store *storage.Store
	cfg   *config.Config
	log   zerolog.Logger

	line        *liner.State
	historyFile string

	// attachments queued for the next message
	pending []*attachment.Payload
}

// NewRepl creates the REPL and loads input history.
func NewRepl(svc *playground.Service, store *storage.Store, cfg *config.Config, log zerolog.Logger) *Repl {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	r := &Repl{
		svc:         svc,
		store:       store,
		cfg:         cfg,
		log:         log,
		line:        line,
		historyFile: filepath.Join(config.Dir(), "repl_history"),
	}
	r.loadHistory()

	// Live output: the subscriber runs on the streaming goroutine and writes
	// straight to stdout. The REPL blocks in Send while this happens, so
	// nothing else is printing.
	svc.Transcript().Subscribe(func(ev transcript.Event) {
		switch ev.Kind {
		case transcript.EventBegin:
			fmt.Print(assistantStyle.Render("Assistant: "))
		case transcript.EventDelta:
			fmt.Print(ev.Delta)
		case transcript.EventSet:
			if t := svc.Transcript().Last(); t != nil {
				fmt.Print(t.DisplayContent())
			}
		case transcript.EventEnd:
			fmt.Println()
		}
	})

	return r
}

// Close saves history and restores the terminal.
func (r *Repl) Close() {
	r.saveHistory()
	r.line.Close()
}

// Run drives the read-send-print loop until exit.
func (r *Repl) Run(ctx context.Context) error {
	fmt.Println(infoStyle.Render("VerifyWise playground. /help for commands, Ctrl+D to exit."))

	// First Ctrl+C during generation aborts the stream; liner turns Ctrl+C
	// at the prompt into ErrPromptAborted.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			if r.svc.Busy() {
				r.svc.Cancel()
				fmt.Fprintln(os.Stderr, "\n"+warningStyle.Render("[cancelled, partial response kept]"))
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		input, err := r.readInput(promptStyle.Render("you> "))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				fmt.Println()
				continue
			}
			// Ctrl+D or closed stdin.
			fmt.Println()
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := r.handleCommand(input); quit {
				return nil
			}
			continue
		}
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			return nil
		}

		r.send(ctx, input)
	}
}

// send issues one exchange and waits for it to settle.
func (r *Repl) send(ctx context.Context, prompt string) {
	atts := r.pending
	r.pending = nil

	err := r.svc.Send(ctx, prompt, atts)
	switch {
	case err == nil:
		// Output already printed by the subscriber.
	case errors.Is(err, session.ErrBusy):
		fmt.Fprintln(os.Stderr, errorStyle.Render("[error]")+" a response is already streaming")
	default:
		// The explanation is in the transcript and was printed via EventSet.
		r.log.Debug().Err(err).Msg("send settled with error")
	}

	if r.store != nil && r.cfg.Storage.Autosave {
		if err := r.store.Save(r.svc.Transcript()); err != nil {
			r.log.Warn().Err(err).Msg("autosave failed")
		}
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleCommand executes a slash command; returns true to exit the loop.
func (r *Repl) handleCommand(input string) bool {
	parts := strings.Fields(input)
	cmd, args := parts[0], parts[1:]

	switch cmd {
	case "/quit", "/q", "/exit":
		return true

	case "/help", "/h":
		fmt.Println(infoStyle.Render(
			"/model <provider> <model>  switch model\n" +
				"/attach <path>             attach a file to the next message\n" +
				"/save                      persist the conversation\n" +
				"/list                      list saved conversations\n" +
				"/export                    export to Markdown\n" +
				"/clear                     clear history\n" +
				"/quit                      exit"))

	case "/clear", "/c":
		if r.svc.Busy() {
			fmt.Println(warningStyle.Render("cannot clear while a response is streaming"))
			break
		}
		r.svc.Transcript().Clear()
		r.pending = nil
		fmt.Println(infoStyle.Render("conversation cleared"))

	case "/model":
		if len(args) != 2 {
			opts := r.svc.Options()
			fmt.Println(infoStyle.Render("current model: " + opts.Provider + "/" + opts.Model))
			break
		}
		r.svc.SetModel(args[0], args[1])
		fmt.Println(infoStyle.Render("switched to " + args[0] + "/" + args[1]))

	case "/attach":
		if len(args) != 1 {
			fmt.Println(warningStyle.Render("usage: /attach <path>"))
			break
		}
		p, err := attachment.EncodeFile(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render("[error]")+" "+err.Error())
			break
		}
		r.pending = append(r.pending, p)
		fmt.Println(successStyle.Render(fmt.Sprintf("attached %s (%s)", p.Name, p.MimeType)))

	case "/save":
		if r.store == nil {
			fmt.Println(warningStyle.Render("persistence is disabled"))
			break
		}
		if err := r.store.Save(r.svc.Transcript()); err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render("[error]")+" save failed: "+err.Error())
			break
		}
		fmt.Println(successStyle.Render("conversation saved"))

	case "/list":
		if r.store == nil {
			fmt.Println(warningStyle.Render("persistence is disabled"))
			break
		}
		metas, err := r.store.List()
		if err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render("[error]")+" "+err.Error())
			break
		}
		if len(metas) == 0 {
			fmt.Println(infoStyle.Render("no saved conversations"))
			break
		}
		for _, meta := range metas {
			fmt.Printf("%s  %s  (%d turns, %s)\n",
				meta.ID[:8], meta.Title, meta.TurnCount,
				meta.UpdatedAt.Format("2006-01-02 15:04"))
		}

	case "/export":
		path, err := export.ToFile(r.svc.Transcript(), nil)
		if err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render("[error]")+" export failed: "+err.Error())
			break
		}
		fmt.Println(successStyle.Render("exported to " + path))

	default:
		fmt.Println(warningStyle.Render("unknown command " + cmd + ", try /help"))
	}
	return false
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

func (r *Repl) readInput(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

func (r *Repl) loadHistory() {
	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
}

func (r *Repl) saveHistory() {
	if err := os.MkdirAll(filepath.Dir(r.historyFile), 0755); err != nil {
		return
	}
	f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	r.line.WriteHistory(f)
}
