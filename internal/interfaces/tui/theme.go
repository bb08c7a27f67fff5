package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/revault/revault-gui/internal/core/domain"
)

// Theme defines the color palette of the vault viewer. Colors are ANSI
// 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Vault status groups.
	StatusPending  lipgloss.Color // Moving between two stable states.
	StatusSecured  lipgloss.Color
	StatusRevoked  lipgloss.Color // Canceled or emergency vaulted.
	StatusUnsecure lipgloss.Color // Plain deposit.

	Warning lipgloss.Color
	Success lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	StatusPending:  lipgloss.Color("220"), // amber
	StatusSecured:  lipgloss.Color("114"), // green
	StatusRevoked:  lipgloss.Color("141"), // light purple
	StatusUnsecure: lipgloss.Color("208"), // orange

	Warning: lipgloss.Color("196"),
	Success: lipgloss.Color("114"),

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),
}

// StatusColor returns the color of a vault status.
func (theme Theme) StatusColor(status domain.VaultStatus) lipgloss.Color {
	switch status {
	case domain.VaultStatusUnconfirmed, domain.VaultStatusFunded:
		return theme.StatusUnsecure
	case domain.VaultStatusSecured, domain.VaultStatusActive:
		return theme.StatusSecured
	case domain.VaultStatusCanceled, domain.VaultStatusEmergencyVaulted,
		domain.VaultStatusUnvaultEmergencyVaulted:
		return theme.StatusRevoked
	case domain.VaultStatusSpent:
		return theme.FaintText
	default:
		return theme.StatusPending
	}
}
