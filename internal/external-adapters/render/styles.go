package render

import "github.com/charmbracelet/lipgloss"

var (
	accentColor  = lipgloss.Color("#7C3AED")
	matchedColor = lipgloss.Color("#EF4444")
	cleanColor   = lipgloss.Color("#10B981")
	unknownColor = lipgloss.Color("#F59E0B")
	mutedColor   = lipgloss.Color("#6B7280")
)

// palette holds the styles of one renderer; the zero-color variant is used for --no-color
type palette struct {
	title   lipgloss.Style
	section lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	muted   lipgloss.Style
	matched lipgloss.Style
	clean   lipgloss.Style
	unknown lipgloss.Style
}

func newPalette(noColor bool) palette {
	if noColor {
		plain := lipgloss.NewStyle()
		return palette{
			title:   plain,
			section: plain,
			label:   plain.Width(14),
			value:   plain,
			muted:   plain,
			matched: plain,
			clean:   plain,
			unknown: plain,
		}
	}

	return palette{
		title:   lipgloss.NewStyle().Bold(true).Foreground(accentColor),
		section: lipgloss.NewStyle().Bold(true).Underline(true),
		label:   lipgloss.NewStyle().Foreground(mutedColor).Width(14),
		value:   lipgloss.NewStyle(),
		muted:   lipgloss.NewStyle().Foreground(mutedColor),
		matched: lipgloss.NewStyle().Bold(true).Foreground(matchedColor),
		clean:   lipgloss.NewStyle().Foreground(cleanColor),
		unknown: lipgloss.NewStyle().Foreground(unknownColor),
	}
}

// verdict picks the style for a packer verdict status
func (p palette) verdict(status string) lipgloss.Style {
	switch status {
	case "matched":
		return p.matched
	case "not_matched":
		return p.clean
	default:
		return p.unknown
	}
}
