package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorDanger    = lipgloss.Color("196") // Red
	colorWarn      = lipgloss.Color("214") // Orange
)

// Header style for the top banner.
var Header = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(colorDanger).
	Bold(true).
	Padding(0, 1)

// HelpStyle for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// FocusedCard outlines the item under the keyboard cursor.
var FocusedCard = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorHighlight).
	Padding(0, 1)

// NormalCard outlines unfocused items.
var NormalCard = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorMuted).
	Padding(0, 1)

// ApproveBadge marks approve decisions.
var ApproveBadge = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("0")).
	Background(colorSuccess).
	Padding(0, 1)

// RemoveBadge marks remove decisions.
var RemoveBadge = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorDanger).
	Padding(0, 1)

// SkipBadge marks skip decisions.
var SkipBadge = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("0")).
	Background(colorWarn).
	Padding(0, 1)

// OverrideTag marks a manual human override.
var OverrideTag = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// ResolvedTag marks items the platform acknowledged.
var ResolvedTag = lipgloss.NewStyle().
	Foreground(colorSuccess)

// ResolvedErrTag marks items whose platform call failed.
var ResolvedErrTag = lipgloss.NewStyle().
	Foreground(colorDanger)

// ReportLine styles prior-report metadata.
var ReportLine = lipgloss.NewStyle().
	Foreground(colorWarn)

// MetaLine styles author/score/age lines.
var MetaLine = lipgloss.NewStyle().
	Foreground(colorSecondary)

// LogInfo styles info log lines.
var LogInfo = lipgloss.NewStyle().Foreground(colorSecondary)

// LogSuccess styles success log lines.
var LogSuccess = lipgloss.NewStyle().Foreground(colorSuccess)

// LogError styles error log lines.
var LogError = lipgloss.NewStyle().Foreground(colorDanger)

// CountsBar styles the pending-action summary.
var CountsBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("237")).
	Padding(0, 1)

// ChatUser styles the moderator's chat lines.
var ChatUser = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true)

// ChatAnalyst styles the analyst's chat lines.
var ChatAnalyst = lipgloss.NewStyle().Foreground(colorPrimary)
