package views

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/coreterra/internal/models"
	"github.com/tgienger/coreterra/internal/nav"
	"github.com/tgienger/coreterra/internal/ui/keys"
	"github.com/tgienger/coreterra/internal/ui/styles"
)

type achievementsLoadedMsg struct {
	items []models.Achievement
}

// AchievementsView lists badges; the server decides which are unlocked
type AchievementsView struct {
	deps   Deps
	styles *styles.Styles
	keys   keys.KeyMap
	width  int
	height int
	items  []models.Achievement
	loaded bool
}

func NewAchievementsView(deps Deps) *AchievementsView {
	return &AchievementsView{deps: deps, styles: styles.NewStyles(), keys: keys.DefaultKeyMap()}
}

func (v *AchievementsView) Init() tea.Cmd {
	ctx, client := v.deps.Ctx, v.deps.Client
	return func() tea.Msg {
		items, err := client.Gamification().Achievements(ctx)
		if err != nil {
			return Flash{Text: describe(err), Err: true}
		}
		return achievementsLoadedMsg{items: items}
	}
}

func (v *AchievementsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
	case achievementsLoadedMsg:
		v.items = msg.items
		v.loaded = true
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			return v, navigate(nav.RouteProfile)
		}
	}
	return v, nil
}

func (v *AchievementsView) View() string {
	s := v.styles
	unlocked := 0
	var rows []string
	for _, a := range v.items {
		mark, title := "🔒", s.TitleMuted.Render(a.Title)
		if a.Unlocked {
			unlocked++
			mark, title = styles.IconTrophy, s.Gold.Render(a.Title)
		}
		rows = append(rows, fmt.Sprintf("%s %s", mark, title), "   "+s.TitleMuted.Render(a.Desc))
	}
	if !v.loaded {
		rows = append(rows, s.TitleMuted.Render("Loading..."))
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{styles.LabelValue("Unlocked", fmt.Sprintf("%d/%d", unlocked, len(v.items))), ""}, rows...)...,
	)
	help := renderHelp(s, v.width, []helpEntry{{"esc", "profile"}, {"q", "quit"}})
	return page(s, v.width, v.height, styles.IconTrophy, "Achievements", body, help)
}
