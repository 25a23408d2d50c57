package views

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/coreterra/internal/derive"
	"github.com/tgienger/coreterra/internal/models"
	"github.com/tgienger/coreterra/internal/nav"
	"github.com/tgienger/coreterra/internal/state"
	"github.com/tgienger/coreterra/internal/ui/keys"
	"github.com/tgienger/coreterra/internal/ui/styles"
)

type destination struct {
	route nav.Route
	icon  string
	title string
	desc  string
}

func (d destination) Title() string       { return d.icon + " " + d.title }
func (d destination) Description() string { return d.desc }
func (d destination) FilterValue() string { return d.title }

type destinationDelegate struct {
	styles *styles.Styles
	width  int
}

func (d destinationDelegate) Height() int                               { return 2 }
func (d destinationDelegate) Spacing() int                              { return 1 }
func (d destinationDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d destinationDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	dest, ok := item.(destination)
	if !ok {
		return
	}

	width := max(d.width-4, 20)
	titleStyle := d.styles.ListItem.Width(width)
	descStyle := d.styles.ListItem.Foreground(styles.Current.ForegroundDim).Width(width)
	if index == m.Index() {
		titleStyle = d.styles.ListSelected.Width(width)
		descStyle = d.styles.ListSelected.Foreground(styles.Current.ForegroundDim).Width(width)
	}

	fmt.Fprintf(w, "%s\n%s", titleStyle.Render(dest.Title()), descStyle.Render(dest.Description()))
}

// HomeView is the dashboard: player summary plus every destination
type HomeView struct {
	deps     Deps
	list     list.Model
	delegate *destinationDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	snap     state.Snapshot
	width    int
	height   int

	showHelpPopup bool
}

func NewHomeView(deps Deps) *HomeView {
	s := styles.NewStyles()
	delegate := &destinationDelegate{styles: s, width: styles.MaxWidth}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Where to?"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	v := &HomeView{
		deps:     deps,
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
	}
	v.setSnapshot(deps.Store.Snapshot())
	return v
}

func (v *HomeView) Init() tea.Cmd { return nil }

func (v *HomeView) setSnapshot(snap state.Snapshot) {
	v.snap = snap
	count := func(statuses ...models.TaskStatus) int {
		n := 0
		for _, t := range snap.Tasks {
			for _, s := range statuses {
				if t.Status == s {
					n++
				}
			}
		}
		return n
	}

	inbox := count(models.StatusInbox)
	active := count(models.StatusOrganized, models.StatusClarified, models.StatusScheduled)
	clarified := count(models.StatusClarified)
	done := count(models.StatusCompleted)

	items := []list.Item{
		destination{nav.RouteInbox, styles.IconInbox, "Inbox", fmt.Sprintf("%d to process", inbox)},
		destination{nav.RouteCapture, styles.IconCapture, "Capture", "Write it down before you forget"},
		destination{nav.RouteClarify, styles.IconClarify, "Clarify", fmt.Sprintf("%d ready for next steps", clarified)},
		destination{nav.RouteOrganize, styles.IconOrganize, "Organize", "Assign projects, contexts and people"},
		destination{nav.RouteEngage, styles.IconEngage, "Engage", fmt.Sprintf("%d active quests", active)},
		destination{nav.RouteReview, styles.IconReview, "Review", fmt.Sprintf("%d completed", done)},
		destination{nav.RouteProjects, styles.IconOrganize, "Projects", fmt.Sprintf("%d projects", len(snap.Projects))},
		destination{nav.RouteCalendar, styles.IconCalendar, "Calendar", "Deadlines and appointments"},
		destination{nav.RouteProfile, styles.IconProfile, "Profile", "Stats and inventory"},
		destination{nav.RouteShop, styles.IconShop, "Shop", "Spend your gold"},
		destination{nav.RouteAchievements, styles.IconTrophy, "Achievements", "Badges earned so far"},
		destination{nav.RouteTeam, styles.IconTeam, "Team", "Who is doing what"},
		destination{nav.RouteNotifications, styles.IconBell, "Notifications", "Rewards and purchases"},
	}
	v.list.SetItems(items)
}

func (v *HomeView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-10)
		return v, nil

	case Snapshot:
		v.setSnapshot(msg.Snapshot)
		return v, nil

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		if v.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Help):
			v.showHelpPopup = true
			return v, nil
		case key.Matches(msg, v.keys.Refresh):
			return v, v.refresh()
		case key.Matches(msg, v.keys.Enter):
			if d, ok := v.list.SelectedItem().(destination); ok {
				return v, navigate(d.route)
			}
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *HomeView) refresh() tea.Cmd {
	ctx, store := v.deps.Ctx, v.deps.Store
	return func() tea.Msg {
		if err := store.Load(ctx); err != nil {
			return Flash{Text: describe(err), Err: true}
		}
		return Flash{Text: "Refreshed"}
	}
}

func (v *HomeView) helpEntries() []helpEntry {
	return []helpEntry{
		{"↵", "open"},
		{"/", "filter"},
		{"r", "refresh"},
		{"q", "quit"},
	}
}

func (v *HomeView) View() string {
	if v.showHelpPopup {
		return renderHelpPopup(v.styles, v.width, v.height, v.helpEntries())
	}
	if v.snap.Loading && v.snap.User == nil {
		return v.styles.TitleMuted.Render("Loading...")
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		v.renderPlayer(),
		"",
		v.list.View(),
		renderHelp(v.styles, v.width, v.helpEntries()),
	)
	return styles.CenterView(content, v.width, v.height)
}

func (v *HomeView) renderPlayer() string {
	s := v.styles
	u := v.snap.User
	if u == nil {
		return s.TitleMuted.Render("No player loaded")
	}
	barWidth := clamp(styles.ContentWidth(v.width)-30, 10, 40)
	return s.Panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(fmt.Sprintf("%s  Level %d", u.Name, u.Level)),
		fmt.Sprintf("%s %s %d/%d", s.XP.Render("XP"), styles.Bar(derive.Percent(u.CurrentXP, u.MaxXP), barWidth), u.CurrentXP, u.MaxXP),
		fmt.Sprintf("%s %d   %s %d days", s.Gold.Render(styles.IconGold+" Gold"), u.Gold, s.TaskPriority.Render("Streak"), u.Streak),
	))
}
