package views

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/coreterra/internal/api"
	"github.com/tgienger/coreterra/internal/db"
	"github.com/tgienger/coreterra/internal/nav"
	"github.com/tgienger/coreterra/internal/session"
	"github.com/tgienger/coreterra/internal/state"
	"github.com/tgienger/coreterra/internal/ui/styles"
)

// Deps is what every screen may talk to
type Deps struct {
	Ctx     context.Context
	Client  *api.Client
	Session *session.Session
	Store   *state.Store
	DB      *db.DB
}

// Navigate asks the app to switch screens. TaskID selects a task on screens
// that show one.
type Navigate struct {
	Route  nav.Route
	TaskID int64
}

// Flash is a one-line status message shown under the active screen
type Flash struct {
	Text string
	Err  bool
}

// Snapshot carries a fresh copy of the cached state to the active screen
type Snapshot struct {
	state.Snapshot
}

// LoggedIn is sent once a login succeeds
type LoggedIn struct{}

func navigate(route nav.Route) tea.Cmd {
	return func() tea.Msg { return Navigate{Route: route} }
}

func navigateTask(route nav.Route, id int64) tea.Cmd {
	return func() tea.Msg { return Navigate{Route: route, TaskID: id} }
}

func flash(format string, args ...any) tea.Cmd {
	text := fmt.Sprintf(format, args...)
	return func() tea.Msg { return Flash{Text: text} }
}

func flashErr(err error) tea.Cmd {
	return func() tea.Msg { return Flash{Text: describe(err), Err: true} }
}

// describe turns an error into something a user can read
func describe(err error) string {
	var apiErr *api.Error
	switch {
	case errors.Is(err, state.ErrNotEnoughGold):
		return "Not enough gold"
	case errors.Is(err, state.ErrNotFound):
		return "That item no longer exists"
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	case api.IsFatal(err):
		return "Cannot reach the server"
	}
	return err.Error()
}

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// scroll keeps cursor inside a window of visible rows starting at offset
func scroll(cursor, offset, visible int) int {
	visible = max(visible, 1)
	if cursor < offset {
		return cursor
	}
	if cursor >= offset+visible {
		return cursor - visible + 1
	}
	return offset
}

type helpEntry struct {
	key  string
	desc string
}

func renderHelp(s *styles.Styles, width int, entries []helpEntry) string {
	contentWidth := styles.ContentWidth(width)
	if contentWidth > 0 && contentWidth < 50 {
		return s.Help.Render(s.HelpKey.Render("?") + " help")
	}
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = s.HelpKey.Render(e.key) + " " + e.desc
	}
	return s.Help.Render(strings.Join(parts, " • "))
}

func renderHelpPopup(s *styles.Styles, width, height int, entries []helpEntry) string {
	contentWidth := styles.ContentWidth(width)

	lines := []string{s.Title.Render("Keyboard Shortcuts"), ""}
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%-8s %s", s.HelpKey.Render(e.key), e.desc))
	}
	lines = append(lines, "", s.TitleMuted.Render("Press any key to close"))

	centered := lipgloss.Place(contentWidth, height,
		lipgloss.Center, lipgloss.Center,
		s.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)),
	)
	return styles.CenterView(centered, width, height)
}

func renderConfirm(s *styles.Styles, width, height int, title, detail string) string {
	contentWidth := styles.ContentWidth(width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render(title),
		"",
		s.TitleMuted.Render(detail),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, width, height)
}

// page lays out a titled screen body with its help line
func page(s *styles.Styles, width, height int, icon, title, body, help string) string {
	header := s.TitleBar.Render(styles.Header(icon, title))
	content := lipgloss.JoinVertical(lipgloss.Left, header, "", body, help)
	return styles.CenterView(content, width, height)
}

// truncate shortens s to at most n cells
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
