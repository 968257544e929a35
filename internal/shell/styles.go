package shell

import "github.com/charmbracelet/lipgloss"

type styles struct {
	app      lipgloss.Style
	header   lipgloss.Style
	viewport lipgloss.Style
	footer   lipgloss.Style
	inactive lipgloss.Style
	error    lipgloss.Style
	success  lipgloss.Style
	prompt   lipgloss.Style
	command  lipgloss.Style
}

// ThemeName selects a color palette.
type ThemeName string

const (
	ThemeCyan    ThemeName = "cyan"
	ThemeMatrix  ThemeName = "matrix"
	ThemeAmber   ThemeName = "amber"
	ThemeDracula ThemeName = "dracula"
)

type palette struct {
	primary   lipgloss.Color
	secondary lipgloss.Color
	success   lipgloss.Color
	warning   lipgloss.Color
	error     lipgloss.Color
	inactive  lipgloss.Color
}

var palettes = map[ThemeName]palette{
	ThemeCyan: {
		primary:   lipgloss.Color("51"),
		secondary: lipgloss.Color("33"),
		success:   lipgloss.Color("46"),
		warning:   lipgloss.Color("226"),
		error:     lipgloss.Color("196"),
		inactive:  lipgloss.Color("240"),
	},
	ThemeMatrix: {
		primary:   lipgloss.Color("82"),
		secondary: lipgloss.Color("46"),
		success:   lipgloss.Color("82"),
		warning:   lipgloss.Color("190"),
		error:     lipgloss.Color("196"),
		inactive:  lipgloss.Color("240"),
	},
	ThemeAmber: {
		primary:   lipgloss.Color("220"),
		secondary: lipgloss.Color("214"),
		success:   lipgloss.Color("220"),
		warning:   lipgloss.Color("208"),
		error:     lipgloss.Color("196"),
		inactive:  lipgloss.Color("240"),
	},
	ThemeDracula: {
		primary:   lipgloss.Color("141"),
		secondary: lipgloss.Color("117"),
		success:   lipgloss.Color("84"),
		warning:   lipgloss.Color("212"),
		error:     lipgloss.Color("203"),
		inactive:  lipgloss.Color("240"),
	},
}

// Themes lists the available themes.
func Themes() []ThemeName {
	return []ThemeName{ThemeCyan, ThemeMatrix, ThemeAmber, ThemeDracula}
}

func newStyles(theme ThemeName) styles {
	p, ok := palettes[theme]
	if !ok {
		p = palettes[ThemeCyan]
	}
	return styles{
		app: lipgloss.NewStyle().Margin(0, 1),
		header: lipgloss.NewStyle().
			Foreground(p.primary).
			Bold(true).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(p.primary).
			Padding(0, 2),
		viewport: lipgloss.NewStyle().PaddingLeft(1),
		footer: lipgloss.NewStyle().
			MarginTop(1).
			BorderTop(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(p.primary).
			PaddingTop(1),
		inactive: lipgloss.NewStyle().Foreground(p.inactive),
		error:    lipgloss.NewStyle().Foreground(p.error).Bold(true),
		success:  lipgloss.NewStyle().Foreground(p.success).Bold(true),
		prompt:   lipgloss.NewStyle().Foreground(p.warning).Bold(true),
		command:  lipgloss.NewStyle().Foreground(p.secondary).Italic(true),
	}
}
