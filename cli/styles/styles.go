// Package styles provides consistent styling for the caseflow CLI.
// It defines colors and reusable style components, plus helpers that map
// case and track statuses to their display colors.
package styles

import (
	"github.com/caseflow/caseflow"
	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	// Primary colors
	Primary      = lipgloss.Color("#0E7490") // Deep cyan
	PrimaryLight = lipgloss.Color("#22D3EE") // Light cyan
	Secondary    = lipgloss.Color("#7C3AED") // Purple

	// Status colors
	Success = lipgloss.Color("#10B981") // Emerald green
	Warning = lipgloss.Color("#F59E0B") // Amber
	Error   = lipgloss.Color("#EF4444") // Red
	Info    = lipgloss.Color("#3B82F6") // Blue

	// Neutral colors
	Text      = lipgloss.Color("#F9FAFB") // Almost white
	TextMuted = lipgloss.Color("#9CA3AF") // Gray
	TextDim   = lipgloss.Color("#6B7280") // Darker gray
	Surface   = lipgloss.Color("#1F2937") // Slightly lighter than background
	Border    = lipgloss.Color("#374151") // Border gray
)

// Text styles
var (
	// Bold text
	Bold = lipgloss.NewStyle().
		Bold(true)

	// Title style for headers
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	// Subtitle for secondary headers
	Subtitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryLight)

	// Normal text
	Normal = lipgloss.NewStyle().
		Foreground(Text)

	// Muted text for less important info
	Muted = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Dim text for very subtle info
	Dim = lipgloss.NewStyle().
		Foreground(TextDim)

	// Highlight for important text
	Highlight = lipgloss.NewStyle().
			Bold(true).
			Foreground(Secondary)

	// Code style for inline identifiers
	Code = lipgloss.NewStyle().
		Foreground(Warning).
		Background(Surface).
		Padding(0, 1)
)

// Status styles
var (
	// SuccessStyle for success messages
	SuccessStyle = lipgloss.NewStyle().
			Foreground(Success)

	// SuccessBold for emphasized success
	SuccessBold = lipgloss.NewStyle().
			Bold(true).
			Foreground(Success)

	// WarningStyle for warning messages
	WarningStyle = lipgloss.NewStyle().
			Foreground(Warning)

	// ErrorStyle for error messages
	ErrorStyle = lipgloss.NewStyle().
			Foreground(Error)

	// ErrorBold for emphasized errors
	ErrorBold = lipgloss.NewStyle().
			Bold(true).
			Foreground(Error)

	// InfoStyle for informational messages
	InfoStyle = lipgloss.NewStyle().
			Foreground(Info)
)

// Icons
const (
	IconSuccess = "✓"
	IconError   = "✗"
	IconWarning = "⚠"
	IconInfo    = "ℹ"
	IconArrow   = "→"
	IconDot     = "•"
	IconPending = "◌"
	IconLock    = "🔒"
	IconCase    = "🗂"
)

// newRoundedBox creates a box style with rounded border and specified border color.
func newRoundedBox(borderColor lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(1, 2)
}

// Box styles for containers
var (
	Box          = newRoundedBox(Border)  // Box with a subtle border
	BoxHighlight = newRoundedBox(Primary) // BoxHighlight with primary color border
	BoxSuccess   = newRoundedBox(Success) // BoxSuccess with success color border
	BoxError     = newRoundedBox(Error)   // BoxError with error color border
)

// Component styles
var (
	// ListItem for list items
	ListItem = lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(Text)

	// ListItemSelected for selected list items
	ListItemSelected = lipgloss.NewStyle().
				Foreground(Primary).
				Bold(true).
				PaddingLeft(2)

	// Indent for indented text
	Indent = lipgloss.NewStyle().
		PaddingLeft(2)
)

// trackStatusColors maps each track status to its display color.
var trackStatusColors = map[caseflow.TrackStatus]lipgloss.Color{
	caseflow.StatusNotApplicable:     TextDim,
	caseflow.StatusDraft:             TextMuted,
	caseflow.StatusSent:              Info,
	caseflow.StatusApproved:          Success,
	caseflow.StatusPartiallyApproved: Warning,
	caseflow.StatusRejectedDisagree:  Error,
	caseflow.StatusRejectedLate:      Error,
	caseflow.StatusUnderNegotiation:  Secondary,
	caseflow.StatusWithdrawn:         TextDim,
}

// TrackStatus renders a track status in its display color.
func TrackStatus(s caseflow.TrackStatus) string {
	color, ok := trackStatusColors[s]
	if !ok {
		color = Text
	}
	return lipgloss.NewStyle().Foreground(color).Render(string(s))
}

// overallStatusColors maps each overall status to its display color.
var overallStatusColors = map[caseflow.OverallStatus]lipgloss.Color{
	caseflow.OverallOpen:             TextMuted,
	caseflow.OverallAwaitingResponse: Info,
	caseflow.OverallUnderNegotiation: Secondary,
	caseflow.OverallAgreed:           Success,
	caseflow.OverallWithdrawn:        TextDim,
	caseflow.OverallClosed:           Success,
}

// OverallStatus renders an overall case status in its display color.
func OverallStatus(s caseflow.OverallStatus) string {
	color, ok := overallStatusColors[s]
	if !ok {
		color = Text
	}
	return lipgloss.NewStyle().Bold(true).Foreground(color).Render(string(s))
}

// FormatSuccess formats a success message with icon
func FormatSuccess(msg string) string {
	return SuccessStyle.Render(IconSuccess) + " " + Normal.Render(msg)
}

// FormatError formats an error message with icon
func FormatError(msg string) string {
	return ErrorStyle.Render(IconError) + " " + Normal.Render(msg)
}

// FormatWarning formats a warning message with icon
func FormatWarning(msg string) string {
	return WarningStyle.Render(IconWarning) + " " + Normal.Render(msg)
}

// FormatInfo formats an info message with icon
func FormatInfo(msg string) string {
	return InfoStyle.Render(IconInfo) + " " + Normal.Render(msg)
}

// FormatKeyValue formats a key-value pair
func FormatKeyValue(key, value string) string {
	keyStyle := lipgloss.NewStyle().
		Foreground(TextMuted).
		Width(20)
	return keyStyle.Render(key+":") + " " + Highlight.Render(value)
}

// DisableColors disables all colors for terminals that don't support them
func DisableColors() {
	Primary = lipgloss.Color("")
	PrimaryLight = lipgloss.Color("")
	Secondary = lipgloss.Color("")
	Success = lipgloss.Color("")
	Warning = lipgloss.Color("")
	Error = lipgloss.Color("")
	Info = lipgloss.Color("")
	Text = lipgloss.Color("")
	TextMuted = lipgloss.Color("")
	TextDim = lipgloss.Color("")
	Surface = lipgloss.Color("")
	Border = lipgloss.Color("")
}
