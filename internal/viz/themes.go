package viz

import "github.com/charmbracelet/lipgloss"

// Theme colours the table view.
type Theme struct {
	Name    string
	Table   lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Warning lipgloss.Color
}

var (
	ThemeFelt = Theme{
		Name:    "felt",
		Table:   lipgloss.Color("#3ddc84"),
		Accent:  lipgloss.Color("#ffd700"),
		Text:    lipgloss.Color("#f0fff0"),
		Muted:   lipgloss.Color("#4a7a5a"),
		Warning: lipgloss.Color("#ff8800"),
	}

	ThemeMidnight = Theme{
		Name:    "midnight",
		Table:   lipgloss.Color("#00ccff"),
		Accent:  lipgloss.Color("#ff00ff"),
		Text:    lipgloss.Color("#e0f0ff"),
		Muted:   lipgloss.Color("#4488aa"),
		Warning: lipgloss.Color("#ffcc00"),
	}

	ThemeChalk = Theme{
		Name:    "chalk",
		Table:   lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#0088ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888888"),
		Warning: lipgloss.Color("#ffaa00"),
	}

	Themes = []Theme{
		ThemeFelt,
		ThemeMidnight,
		ThemeChalk,
	}
)

// GetTheme returns a theme by name, or the felt theme.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeFelt
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

func nextTheme(t Theme) Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}
