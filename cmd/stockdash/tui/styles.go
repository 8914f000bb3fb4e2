package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme names stored under the app-theme cache key.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

type palette struct {
	primary lipgloss.Color
	success lipgloss.Color
	warning lipgloss.Color
	danger  lipgloss.Color
	info    lipgloss.Color
	muted   lipgloss.Color
	text    lipgloss.Color
	border  lipgloss.Color
	button  lipgloss.Color
}

var palettes = map[string]palette{
	ThemeDark: {
		primary: lipgloss.Color("#7C3AED"),
		success: lipgloss.Color("#10B981"),
		warning: lipgloss.Color("#F59E0B"),
		danger:  lipgloss.Color("#EF4444"),
		info:    lipgloss.Color("#3B82F6"),
		muted:   lipgloss.Color("#6B7280"),
		text:    lipgloss.Color("#F3F4F6"),
		border:  lipgloss.Color("#4B5563"),
		button:  lipgloss.Color("#1F2937"),
	},
	ThemeLight: {
		primary: lipgloss.Color("#6D28D9"),
		success: lipgloss.Color("#047857"),
		warning: lipgloss.Color("#B45309"),
		danger:  lipgloss.Color("#B91C1C"),
		info:    lipgloss.Color("#1D4ED8"),
		muted:   lipgloss.Color("#6B7280"),
		text:    lipgloss.Color("#111827"),
		border:  lipgloss.Color("#D1D5DB"),
		button:  lipgloss.Color("#E5E7EB"),
	},
}

// styles is the rendered look of one theme.
type styles struct {
	title        lipgloss.Style
	subtitle     lipgloss.Style
	success      lipgloss.Style
	warning      lipgloss.Style
	danger       lipgloss.Style
	info         lipgloss.Style
	muted        lipgloss.Style
	box          lipgloss.Style
	activeTab    lipgloss.Style
	inactiveTab  lipgloss.Style
	activeButton lipgloss.Style
	button       lipgloss.Style
	help         lipgloss.Style
	helpKey      lipgloss.Style
	currentPage  lipgloss.Style
	errorLine    lipgloss.Style
}

// newStyles builds the styles of theme. Unknown themes get the dark one.
func newStyles(theme string) styles {
	p, ok := palettes[theme]
	if !ok {
		p = palettes[ThemeDark]
	}

	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.primary),
		subtitle: lipgloss.NewStyle().
			Foreground(p.muted).
			Italic(true),
		success: lipgloss.NewStyle().
			Foreground(p.success).
			Bold(true),
		warning: lipgloss.NewStyle().
			Foreground(p.warning).
			Bold(true),
		danger: lipgloss.NewStyle().
			Foreground(p.danger).
			Bold(true),
		info: lipgloss.NewStyle().
			Foreground(p.info),
		muted: lipgloss.NewStyle().
			Foreground(p.muted),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Padding(1, 2),
		activeTab: lipgloss.NewStyle().
			Foreground(p.primary).
			Bold(true).
			Underline(true).
			Padding(0, 2),
		inactiveTab: lipgloss.NewStyle().
			Foreground(p.muted).
			Padding(0, 2),
		activeButton: lipgloss.NewStyle().
			Foreground(p.text).
			Background(p.primary).
			Padding(0, 3).
			Bold(true),
		button: lipgloss.NewStyle().
			Foreground(p.muted).
			Background(p.button).
			Padding(0, 3),
		help: lipgloss.NewStyle().
			Foreground(p.muted).
			MarginTop(1),
		helpKey: lipgloss.NewStyle().
			Foreground(p.primary),
		currentPage: lipgloss.NewStyle().
			Foreground(p.primary).
			Bold(true).
			Underline(true),
		errorLine: lipgloss.NewStyle().
			Foreground(p.danger).
			Bold(true),
	}
}

// key formats a help key
func (s styles) key(key, description string) string {
	return s.helpKey.Render(key) + " " + s.muted.Render(description)
}

// stockStatus colors a stock status label.
func (s styles) stockStatus(status string) string {
	switch status {
	case "Low Stock":
		return s.warning.Render("▲ " + status)
	case "Out of Stock":
		return s.danger.Render("✗ " + status)
	default:
		return s.success.Render("● " + status)
	}
}
