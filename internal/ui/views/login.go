package views

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/coreterra/internal/session"
	"github.com/tgienger/coreterra/internal/ui/keys"
	"github.com/tgienger/coreterra/internal/ui/styles"
)

type loginResultMsg struct {
	err error
}

// LoginView asks for credentials
type LoginView struct {
	deps     Deps
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int
	username textinput.Model
	password textinput.Model
	spinner  spinner.Model
	focusIdx int // 0=username, 1=password, 2=submit
	busy     bool
	err      string
}

func NewLoginView(deps Deps) *LoginView {
	username := textinput.New()
	username.Placeholder = "Username"
	username.CharLimit = 100
	username.Focus()

	password := textinput.New()
	password.Placeholder = "Password"
	password.CharLimit = 200
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &LoginView{
		deps:     deps,
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		username: username,
		password: password,
		spinner:  sp,
	}
}

func (v *LoginView) Init() tea.Cmd {
	return textinput.Blink
}

func (v *LoginView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case spinner.TickMsg:
		if !v.busy {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case loginResultMsg:
		v.busy = false
		if msg.err != nil {
			v.err = loginMessage(msg.err)
			v.password.Reset()
			v.focusIdx = 1
			v.updateFocus()
			return v, nil
		}
		v.err = ""
		v.password.Reset()
		return v, func() tea.Msg { return LoggedIn{} }

	case tea.KeyMsg:
		if v.busy {
			return v, nil
		}
		switch {
		case msg.String() == "ctrl+c":
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			return v, tea.Quit
		case msg.String() == "shift+tab" || msg.String() == "up":
			v.focusIdx = (v.focusIdx + 2) % 3
			v.updateFocus()
			return v, nil
		case key.Matches(msg, v.keys.Tab) || msg.String() == "down":
			v.focusIdx = (v.focusIdx + 1) % 3
			v.updateFocus()
			return v, nil
		case key.Matches(msg, v.keys.Enter):
			if v.focusIdx < 2 && v.password.Value() == "" {
				v.focusIdx++
				v.updateFocus()
				return v, nil
			}
			return v, v.submit()
		}
	}

	var cmd tea.Cmd
	switch v.focusIdx {
	case 0:
		v.username, cmd = v.username.Update(msg)
	case 1:
		v.password, cmd = v.password.Update(msg)
	}
	return v, cmd
}

func (v *LoginView) submit() tea.Cmd {
	user := strings.TrimSpace(v.username.Value())
	pass := v.password.Value()
	if user == "" || pass == "" {
		v.err = "Enter a username and password"
		return nil
	}
	v.busy = true
	v.err = ""
	ctx, sess := v.deps.Ctx, v.deps.Session
	return tea.Batch(v.spinner.Tick, func() tea.Msg {
		return loginResultMsg{err: sess.Login(ctx, user, pass)}
	})
}

func loginMessage(err error) string {
	var authErr *session.AuthError
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	return describe(err)
}

func (v *LoginView) updateFocus() {
	v.username.Blur()
	v.password.Blur()
	switch v.focusIdx {
	case 0:
		v.username.Focus()
	case 1:
		v.password.Focus()
	}
}

func (v *LoginView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	userStyle, passStyle, btnStyle := s.Input, s.Input, s.Button
	switch v.focusIdx {
	case 0:
		userStyle = s.InputFocused
	case 1:
		passStyle = s.InputFocused
	case 2:
		btnStyle = s.ButtonFocused
	}

	inputWidth := clamp(contentWidth-6, 20, 40)
	button := btnStyle.Render(" Sign in ")
	if v.busy {
		button = s.TitleMuted.Render(v.spinner.View() + " signing in...")
	}

	lines := []string{
		s.Title.Render(styles.IconXP + " Coreterra"),
		s.TitleMuted.Render("Get things done, level up"),
		"",
		"Username:",
		userStyle.Width(inputWidth).Render(v.username.View()),
		"",
		"Password:",
		passStyle.Width(inputWidth).Render(v.password.View()),
		"",
		button,
	}
	if v.err != "" {
		lines = append(lines, "", s.Error.Render(v.err))
	}
	lines = append(lines, "", s.TitleMuted.Render("Tab: next • Enter: sign in • Esc: quit"))

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, lines...),
	)
	return styles.CenterView(centered, v.width, v.height)
}
