package styles

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/coreterra/internal/models"
)

// Theme is a color scheme for the TUI and CLI output
type Theme struct {
	Name string

	Background    lipgloss.Color
	Foreground    lipgloss.Color
	ForegroundDim lipgloss.Color

	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Gold    lipgloss.Color
	XP      lipgloss.Color

	Border      lipgloss.Color
	BorderFocus lipgloss.Color
	Selection   lipgloss.Color
}

// TokyoNight is the default theme
var TokyoNight = Theme{
	Name: "Tokyo Night",

	Background:    lipgloss.Color("#1a1b26"),
	Foreground:    lipgloss.Color("#c0caf5"),
	ForegroundDim: lipgloss.Color("#565f89"),

	Primary:   lipgloss.Color("#7aa2f7"),
	Secondary: lipgloss.Color("#bb9af7"),
	Accent:    lipgloss.Color("#7dcfff"),

	Success: lipgloss.Color("#9ece6a"),
	Warning: lipgloss.Color("#e0af68"),
	Error:   lipgloss.Color("#f7768e"),
	Gold:    lipgloss.Color("#ffc777"),
	XP:      lipgloss.Color("#bb9af7"),

	Border:      lipgloss.Color("#3b4261"),
	BorderFocus: lipgloss.Color("#7aa2f7"),
	Selection:   lipgloss.Color("#33467c"),
}

// Current holds the active theme
var Current = TokyoNight

const (
	IconInbox    = "📥"
	IconCapture  = "✏️"
	IconClarify  = "🔍"
	IconOrganize = "🗂️"
	IconEngage   = "⚔️"
	IconReview   = "📜"
	IconCalendar = "📅"
	IconProfile  = "🧙"
	IconShop     = "🛒"
	IconTrophy   = "🏆"
	IconTeam     = "👥"
	IconBell     = "🔔"
	IconXP       = "✨"
	IconGold     = "🪙"
	IconDone     = "✅"
	IconError    = "🧨"
	IconLevelUp  = "⭐"
)

// MaxWidth is the widest the content column gets
const MaxWidth = 80

// ContentWidth returns min(terminalWidth, MaxWidth)
func ContentWidth(terminalWidth int) int {
	if terminalWidth > MaxWidth {
		return MaxWidth
	}
	return terminalWidth
}

// CenterView centers content horizontally when the terminal is wider than MaxWidth
func CenterView(content string, terminalWidth, terminalHeight int) string {
	if terminalWidth <= MaxWidth {
		return content
	}
	return lipgloss.Place(terminalWidth, terminalHeight,
		lipgloss.Center, lipgloss.Top,
		content,
	)
}

// Styles holds the pre-computed styles for the UI
type Styles struct {
	TitleBar   lipgloss.Style
	Title      lipgloss.Style
	TitleMuted lipgloss.Style

	ListItem     lipgloss.Style
	ListSelected lipgloss.Style

	Panel lipgloss.Style

	Button        lipgloss.Style
	ButtonFocused lipgloss.Style
	ButtonPrimary lipgloss.Style

	Tag lipgloss.Style

	TaskTitle    lipgloss.Style
	TaskPriority lipgloss.Style
	TaskDone     lipgloss.Style

	Input        lipgloss.Style
	InputFocused lipgloss.Style

	Help     lipgloss.Style
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style

	StatusBar lipgloss.Style
	Flash     lipgloss.Style
	Error     lipgloss.Style

	XP   lipgloss.Style
	Gold lipgloss.Style
}

// NewStyles builds styles from the current theme
func NewStyles() *Styles {
	t := Current

	return &Styles{
		TitleBar: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 1).
			Bold(true),

		Title: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		TitleMuted: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		ListItem: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 2),

		ListSelected: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.Selection).
			Padding(0, 2).
			Bold(true),

		Panel: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border),

		Button: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 2),

		ButtonFocused: lipgloss.NewStyle().
			Foreground(t.Primary).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 2).
			Bold(true),

		ButtonPrimary: lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.Primary).
			Padding(0, 2).
			Bold(true),

		Tag: lipgloss.NewStyle().
			Foreground(t.Accent).
			Padding(0, 1).
			MarginRight(1),

		TaskTitle: lipgloss.NewStyle().
			Foreground(t.Foreground),

		TaskPriority: lipgloss.NewStyle().
			Foreground(t.Warning).
			Bold(true),

		TaskDone: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Strikethrough(true),

		Input: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),

		InputFocused: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 1),

		Help: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(1, 2),

		HelpKey: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		HelpDesc: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		StatusBar: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(0, 1),

		Flash: lipgloss.NewStyle().
			Foreground(t.Success).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(t.Error).
			Bold(true),

		XP: lipgloss.NewStyle().
			Foreground(t.XP).
			Bold(true),

		Gold: lipgloss.NewStyle().
			Foreground(t.Gold).
			Bold(true),
	}
}

// CLI output styles
var (
	Heading = lipgloss.NewStyle().Bold(true).Foreground(Current.Secondary)
	Key     = lipgloss.NewStyle().Bold(true).Foreground(Current.Primary)
	Muted   = lipgloss.NewStyle().Foreground(Current.ForegroundDim)
	Good    = lipgloss.NewStyle().Bold(true).Foreground(Current.Success)
	Warn    = lipgloss.NewStyle().Bold(true).Foreground(Current.Warning)
	Bad     = lipgloss.NewStyle().Bold(true).Foreground(Current.Error)
	Gold    = lipgloss.NewStyle().Bold(true).Foreground(Current.Gold)
)

// Header renders an icon and a title
func Header(icon, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Heading.Render(icon + title)
}

// LabelValue renders "label: value"
func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// StatusText colors a task status
func StatusText(s models.TaskStatus) string {
	switch s {
	case models.StatusCompleted:
		return Good.Render(string(s))
	case models.StatusInbox:
		return Warn.Render(string(s))
	case models.StatusTrash:
		return Bad.Render(string(s))
	case models.StatusOrganized, models.StatusClarified:
		return Key.Render(string(s))
	default:
		return Muted.Render(string(s))
	}
}

// Bar renders a width-cell progress bar for pct (0-100)
func Bar(pct, width int) string {
	pct = min(max(pct, 0), 100)
	if width <= 0 {
		return ""
	}
	filled := pct * width / 100
	return lipgloss.NewStyle().Foreground(Current.XP).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(Current.Border).Render(strings.Repeat("░", width-filled))
}
