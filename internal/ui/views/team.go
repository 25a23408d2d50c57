package views

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/coreterra/internal/models"
	"github.com/tgienger/coreterra/internal/nav"
	"github.com/tgienger/coreterra/internal/state"
	"github.com/tgienger/coreterra/internal/ui/keys"
	"github.com/tgienger/coreterra/internal/ui/styles"
)

type teamLoadedMsg struct {
	members []models.TeamMember
}

// TeamView shows each member's capacity and the tasks assigned to them
type TeamView struct {
	deps    Deps
	styles  *styles.Styles
	keys    keys.KeyMap
	width   int
	height  int
	snap    state.Snapshot
	members []models.TeamMember
	cursor  int
}

func NewTeamView(deps Deps) *TeamView {
	return &TeamView{
		deps:   deps,
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
		snap:   deps.Store.Snapshot(),
	}
}

func (v *TeamView) Init() tea.Cmd {
	ctx, client := v.deps.Ctx, v.deps.Client
	return func() tea.Msg {
		members, err := client.Teams().Members(ctx)
		if err != nil {
			return Flash{Text: describe(err), Err: true}
		}
		return teamLoadedMsg{members: members}
	}
}

func (v *TeamView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
	case Snapshot:
		v.snap = msg.Snapshot
	case teamLoadedMsg:
		v.members = msg.members
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			return v, navigate(nav.RouteHome)
		case key.Matches(msg, v.keys.Up):
			v.cursor = max(v.cursor-1, 0)
		case key.Matches(msg, v.keys.Down):
			v.cursor = clamp(v.cursor+1, 0, max(len(v.members)-1, 0))
		case msg.String() == "o":
			return v, navigate(nav.RouteOrganize)
		}
	}
	return v, nil
}

func (v *TeamView) assigned(id int64) []models.Task {
	var out []models.Task
	for _, t := range v.snap.Tasks {
		if t.AssigneeID != nil && *t.AssigneeID == id && !t.Status.Terminal() {
			out = append(out, t)
		}
	}
	return out
}

func (v *TeamView) View() string {
	s := v.styles
	width := max(styles.ContentWidth(v.width)-4, 20)

	var rows []string
	for i, m := range v.members {
		status := s.Flash.Render(m.Status)
		if m.Capacity >= 80 {
			status = s.Error.Render(m.Status)
		}
		style := s.ListItem.Width(width)
		if i == v.cursor {
			style = s.ListSelected.Width(width)
		}
		rows = append(rows, style.Render(fmt.Sprintf("%-16s %-10s %s", m.Name, m.Role, status)))
		rows = append(rows, "   "+styles.Bar(m.Capacity, 20)+fmt.Sprintf(" %d%%", m.Capacity))
		if i == v.cursor {
			for _, t := range v.assigned(m.ID) {
				rows = append(rows, "   • "+truncate(t.Title, width-6))
			}
		}
	}
	if len(rows) == 0 {
		rows = append(rows, s.TitleMuted.Render("No team members"))
	}

	help := renderHelp(s, v.width, []helpEntry{
		{"↑/↓", "member"},
		{"o", "organize"},
		{"esc", "home"},
	})
	return page(s, v.width, v.height, styles.IconTeam, "Team", lipgloss.JoinVertical(lipgloss.Left, rows...), help)
}
