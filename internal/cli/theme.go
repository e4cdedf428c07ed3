package cli

import "github.com/charmbracelet/lipgloss"

// Palette used by every view.
var Theme = struct {
	Primary       lipgloss.Color
	PrimaryStrong lipgloss.Color
	PrimaryDark   lipgloss.Color
	Text          lipgloss.Color
	TextMuted     lipgloss.Color
	TextSubtle    lipgloss.Color
	BgSelected    lipgloss.Color
	Success       lipgloss.Color
	Warning       lipgloss.Color
	Error         lipgloss.Color
}{
	Primary:       lipgloss.Color("#38BDF8"),
	PrimaryStrong: lipgloss.Color("#7DD3FC"),
	PrimaryDark:   lipgloss.Color("#0284C7"),
	Text:          lipgloss.Color("#E5E7EB"),
	TextMuted:     lipgloss.Color("#9CA3AF"),
	TextSubtle:    lipgloss.Color("#6B7280"),
	BgSelected:    lipgloss.Color("#1F2937"),
	Success:       lipgloss.Color("#22C55E"),
	Warning:       lipgloss.Color("#F59E0B"),
	Error:         lipgloss.Color("#EF4444"),
}

var (
	titleStyle        = lipgloss.NewStyle().Foreground(Theme.Primary).Bold(true)
	helpStyle         = lipgloss.NewStyle().Foreground(Theme.TextSubtle)
	itemStyle         = lipgloss.NewStyle().Foreground(Theme.Text)
	selectedItemStyle = lipgloss.NewStyle().Foreground(Theme.PrimaryStrong).Background(Theme.BgSelected).Bold(true)
	mutedStyle        = lipgloss.NewStyle().Foreground(Theme.TextMuted)
	successStyle      = lipgloss.NewStyle().Foreground(Theme.Success)
	errorStyle        = lipgloss.NewStyle().Foreground(Theme.Error)
)
