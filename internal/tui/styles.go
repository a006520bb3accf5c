package tui

import "github.com/charmbracelet/lipgloss"

// Theme is the colour scheme for one of the two display modes.
type Theme struct {
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Error      lipgloss.Color
	IsDark     bool
}

func LightTheme() Theme {
	return Theme{
		Foreground: lipgloss.Color("#1f2937"),
		Primary:    lipgloss.Color("#2563eb"),
		Accent:     lipgloss.Color("#059669"),
		Muted:      lipgloss.Color("#6b7280"),
		Border:     lipgloss.Color("#d1d5db"),
		Error:      lipgloss.Color("#dc2626"),
	}
}

func DarkTheme() Theme {
	return Theme{
		Foreground: lipgloss.Color("#f3f4f6"),
		Primary:    lipgloss.Color("#60a5fa"),
		Accent:     lipgloss.Color("#34d399"),
		Muted:      lipgloss.Color("#9ca3af"),
		Border:     lipgloss.Color("#374151"),
		Error:      lipgloss.Color("#f87171"),
		IsDark:     true,
	}
}

func ThemeFor(dark bool) Theme {
	if dark {
		return DarkTheme()
	}
	return LightTheme()
}

// GlamourStyle names the glamour standard style matching the theme.
func (t Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}

type Styles struct {
	Theme Theme

	Header        lipgloss.Style
	Panel         lipgloss.Style
	FocusedPanel  lipgloss.Style
	ThreadItem    lipgloss.Style
	ThreadCurrent lipgloss.Style
	ThreadMeta    lipgloss.Style
	UserLabel     lipgloss.Style
	AILabel       lipgloss.Style
	Muted         lipgloss.Style
	Error         lipgloss.Style
	Input         lipgloss.Style
}

func NewStyles(t Theme) Styles {
	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1)

	return Styles{
		Theme:         t,
		Header:        lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Panel:         panel,
		FocusedPanel:  panel.BorderForeground(t.Primary),
		ThreadItem:    lipgloss.NewStyle().Foreground(t.Foreground),
		ThreadCurrent: lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		ThreadMeta:    lipgloss.NewStyle().Foreground(t.Muted),
		UserLabel:     lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		AILabel:       lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Muted:         lipgloss.NewStyle().Foreground(t.Muted),
		Error:         lipgloss.NewStyle().Foreground(t.Error),
		Input:         panel,
	}
}
