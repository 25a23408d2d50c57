package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/coreterra/internal/nav"
	"github.com/tgienger/coreterra/internal/ui/keys"
	"github.com/tgienger/coreterra/internal/ui/styles"
)

// CaptureView is the quick-capture prompt. It stays open so several
// thoughts can be written down in a row.
type CaptureView struct {
	deps     Deps
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int
	input    textinput.Model
	priority bool
	captured int
}

func NewCaptureView(deps Deps) *CaptureView {
	in := textinput.New()
	in.Placeholder = "What's on your mind?"
	in.CharLimit = 500
	in.Focus()

	return &CaptureView{
		deps:   deps,
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
		input:  in,
	}
}

func (v *CaptureView) Init() tea.Cmd { return textinput.Blink }

func (v *CaptureView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case tea.KeyMsg:
		switch {
		case msg.String() == "ctrl+c":
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			return v, navigate(nav.RouteHome)
		case msg.String() == "ctrl+p":
			v.priority = !v.priority
			return v, nil
		case key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Save):
			title := strings.TrimSpace(v.input.Value())
			if title == "" {
				return v, nil
			}
			priority := v.priority
			v.input.Reset()
			v.priority = false
			v.captured++
			return v, captureTask(v.deps, title, priority)
		}
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *CaptureView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	flag := s.TitleMuted.Render("[ ] priority")
	if v.priority {
		flag = s.TaskPriority.Render("[x] priority")
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(styles.IconCapture+" Quick capture"),
		s.TitleMuted.Render("Everything goes to the inbox. Sort it out later."),
		"",
		s.InputFocused.Width(clamp(contentWidth-6, 20, 60)).Render(v.input.View()),
		flag,
		"",
		s.TitleMuted.Render("Enter: capture • Ctrl+P: priority • Esc: home"),
	)
	if v.captured > 0 {
		body = lipgloss.JoinVertical(lipgloss.Left, body, "", s.Flash.Render(pluralCaptured(v.captured)))
	}

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		body,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func pluralCaptured(n int) string {
	if n == 1 {
		return "1 item captured this session"
	}
	return fmt.Sprintf("%d items captured this session", n)
}
