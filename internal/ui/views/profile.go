package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/coreterra/internal/derive"
	"github.com/tgienger/coreterra/internal/models"
	"github.com/tgienger/coreterra/internal/nav"
	"github.com/tgienger/coreterra/internal/state"
	"github.com/tgienger/coreterra/internal/ui/keys"
	"github.com/tgienger/coreterra/internal/ui/styles"
)

// ProfileView shows the player's level, stats and inventory
type ProfileView struct {
	deps   Deps
	styles *styles.Styles
	keys   keys.KeyMap
	width  int
	height int

	snap    state.Snapshot
	editing bool
	name    textinput.Model
}

func NewProfileView(deps Deps) *ProfileView {
	name := textinput.New()
	name.Placeholder = "Display name"
	name.CharLimit = 100

	return &ProfileView{
		deps:   deps,
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
		snap:   deps.Store.Snapshot(),
		name:   name,
	}
}

func (v *ProfileView) Init() tea.Cmd { return nil }

func (v *ProfileView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case Snapshot:
		v.snap = msg.Snapshot
		return v, nil

	case tea.KeyMsg:
		if v.editing {
			return v.updateEditing(msg)
		}
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			return v, navigate(nav.RouteHome)
		case key.Matches(msg, v.keys.Edit):
			if v.snap.User != nil {
				v.editing = true
				v.name.SetValue(v.snap.User.Name)
				v.name.Focus()
				return v, textinput.Blink
			}
		case msg.String() == "s":
			return v, navigate(nav.RouteShop)
		case msg.String() == "a":
			return v, navigate(nav.RouteAchievements)
		case msg.String() == "t":
			return v, navigate(nav.RouteTeam)
		case msg.String() == "L":
			return v, v.logout()
		}
	}
	return v, nil
}

func (v *ProfileView) logout() tea.Cmd {
	sess := v.deps.Session
	return func() tea.Msg {
		sess.Logout()
		return Navigate{Route: nav.RouteLogin}
	}
}

func (v *ProfileView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		v.name.Blur()
		return v, nil
	case key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Save):
		v.editing = false
		v.name.Blur()
		name := strings.TrimSpace(v.name.Value())
		if name == "" {
			return v, nil
		}
		ctx, store := v.deps.Ctx, v.deps.Store
		return v, func() tea.Msg {
			if _, err := store.UpdateProfile(ctx, models.UserPatch{Name: &name}); err != nil {
				return Flash{Text: describe(err), Err: true}
			}
			return Flash{Text: "Profile saved"}
		}
	}
	var cmd tea.Cmd
	v.name, cmd = v.name.Update(msg)
	return v, cmd
}

func (v *ProfileView) View() string {
	s := v.styles
	help := renderHelp(s, v.width, []helpEntry{
		{"e", "rename"},
		{"s", "shop"},
		{"a", "achievements"},
		{"t", "team"},
		{"L", "log out"},
		{"esc", "home"},
	})

	u := v.snap.User
	if u == nil {
		return page(s, v.width, v.height, styles.IconProfile, "Profile", s.TitleMuted.Render("Loading..."), help)
	}

	name := s.Title.Render(u.Name)
	if v.editing {
		name = s.InputFocused.Width(clamp(styles.ContentWidth(v.width)-6, 20, 40)).Render(v.name.View())
	}
	barWidth := clamp(styles.ContentWidth(v.width)-30, 10, 40)

	stat := func(label string, val int) string {
		return fmt.Sprintf("%-10s %s %2d", label, styles.Bar(val*5, 20), val)
	}
	inventory := s.TitleMuted.Render("empty")
	if len(u.Inventory) > 0 {
		inventory = strings.Join(u.Inventory, ", ")
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		name,
		s.TitleMuted.Render(u.Role),
		"",
		styles.LabelValue("Level", u.Level),
		fmt.Sprintf("%s %s %d/%d", s.XP.Render("XP"), styles.Bar(derive.Percent(u.CurrentXP, u.MaxXP), barWidth), u.CurrentXP, u.MaxXP),
		s.Gold.Render(fmt.Sprintf("%s %d gold", styles.IconGold, u.Gold)),
		styles.LabelValue("Streak", fmt.Sprintf("%d days", u.Streak)),
		"",
		s.Panel.Render(lipgloss.JoinVertical(lipgloss.Left,
			stat("Focus", u.Stats.Focus),
			stat("Execution", u.Stats.Execution),
			stat("Planning", u.Stats.Planning),
			stat("Teamwork", u.Stats.Teamwork),
			stat("Expertise", u.Stats.Expertise),
		)),
		"",
		styles.LabelValue("Inventory", inventory),
	)
	return page(s, v.width, v.height, styles.IconProfile, "Profile", body, help)
}
