// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling for the playground TUI.
// All colors use Lip Gloss AdaptiveColor for automatic light/dark detection.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// PALETTE
// =============================================================================

// Cyan - user highlights, commands
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// Purple - assistant messages
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Amber - system messages, warnings
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// Rose - errors
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Emerald - success, connected state
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Surface and text
var (
	SurfaceDim    = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}
	Overlay       = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}
	TextPrimary   = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}
	TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}
	TextMuted     = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}
)

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// UserLabel styles the "You" heading above a user turn.
	UserLabel = lipgloss.NewStyle().Foreground(Cyan).Bold(true)

	// AssistantLabel styles the "Assistant" heading.
	AssistantLabel = lipgloss.NewStyle().Foreground(Purple).Bold(true)

	// SystemLabel styles the "System" heading.
	SystemLabel = lipgloss.NewStyle().Foreground(Amber).Bold(true)

	// Timestamp styles per-turn timestamps.
	Timestamp = lipgloss.NewStyle().Foreground(TextMuted)

	// ErrorText styles surfaced error messages.
	ErrorText = lipgloss.NewStyle().Foreground(Rose)

	// StatusBar styles the bottom status line.
	StatusBar = lipgloss.NewStyle().
			Foreground(TextSecondary).
			Background(SurfaceDim).
			Padding(0, 1)

	// StatusBusy marks an in-flight response in the status bar.
	StatusBusy = lipgloss.NewStyle().Foreground(Amber).Bold(true)

	// InputBorder frames the prompt input.
	InputBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Overlay)

	// Hint styles inline help text.
	Hint = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)
)

// =============================================================================
// TERMINAL DETECTION
// =============================================================================

// Theme describes the detected terminal capabilities.
type Theme struct {
	ColorProfile termenv.Profile
	DarkMode     bool
}

// DetectTheme probes the terminal once at startup.
func DetectTheme() Theme {
	return Theme{
		ColorProfile: termenv.ColorProfile(),
		DarkMode:     termenv.HasDarkBackground(),
	}
}

// Monochrome reports whether the terminal supports no color at all.
func (t Theme) Monochrome() bool {
	return t.ColorProfile == termenv.Ascii
}
