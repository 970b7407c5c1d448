// VerifyWise playground - a terminal client for the playground chat backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verifywise/playground/internal/cli"
	"github.com/verifywise/playground/internal/config"
	"github.com/verifywise/playground/internal/logging"
	"github.com/verifywise/playground/internal/playground"
	"github.com/verifywise/playground/internal/provider"
	"github.com/verifywise/playground/internal/storage"
	"github.com/verifywise/playground/internal/transcript"
	"github.com/verifywise/playground/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		flagPlain    = flag.Bool("plain", false, "use the line-oriented REPL instead of the TUI")
		flagProvider = flag.String("provider", "", "override the configured provider")
		flagModel    = flag.String("model", "", "override the configured model")
		flagConfig   = flag.String("config", "", "path to config file")
		flagVersion  = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *flagVersion {
		fmt.Printf("verifywise-playground %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if err := run(*flagPlain, *flagProvider, *flagModel, *flagConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(plain bool, providerOverride, modelOverride, configPath string) error {
	// Configuration
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if providerOverride != "" {
		cfg.DefaultProvider = providerOverride
	}
	if modelOverride != "" {
		cfg.DefaultModel = modelOverride
	}

	// Logging goes to a file; the terminal belongs to the chat view.
	log, logCloser, err := logging.New(config.Dir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
	defer logCloser.Close()

	// Backend client
	client := provider.NewClient(&provider.ClientConfig{
		BaseURL: cfg.Backend.BaseURL,
		Token:   cfg.Token(),
	})

	// Transcript persistence (optional)
	var store *storage.Store
	if cfg.Storage.DatabasePath != "" {
		store, err = storage.Open(cfg.Storage.DatabasePath)
		if err != nil {
			log.Warn().Err(err).Msg("persistence disabled")
			fmt.Fprintf(os.Stderr, "Warning: persistence disabled: %v\n", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	// Conversation service
	tr := transcript.NewWithModel(cfg.DefaultProvider, cfg.DefaultModel)
	svc := playground.NewService(client, tr, playground.Options{
		Provider:    cfg.DefaultProvider,
		Model:       cfg.DefaultModel,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}, log)

	// Pick up model changes from config edits while running.
	watchPath := configPath
	if watchPath == "" {
		watchPath = config.Path()
	}
	if w, err := config.NewWatcher(watchPath, func(fresh *config.Config) {
		svc.SetModel(fresh.DefaultProvider, fresh.DefaultModel)
		log.Info().
			Str("provider", fresh.DefaultProvider).
			Str("model", fresh.DefaultModel).
			Msg("config reloaded")
	}); err == nil {
		if err := w.Watch(); err == nil {
			defer w.Close()
		}
	}

	log.Info().
		Str("version", Version).
		Str("backend", cfg.Backend.BaseURL).
		Str("model", cfg.DefaultProvider+"/"+cfg.DefaultModel).
		Msg("playground starting")

	if plain || !cli.IsInteractive() {
		repl := cli.NewRepl(svc, store, cfg, log)
		defer repl.Close()
		return repl.Run(context.Background())
	}

	p := tea.NewProgram(
		chat.New(svc, store, cfg, log),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}
