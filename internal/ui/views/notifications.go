package views

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/coreterra/internal/models"
	"github.com/tgienger/coreterra/internal/nav"
	"github.com/tgienger/coreterra/internal/ui/keys"
	"github.com/tgienger/coreterra/internal/ui/styles"
)

const notificationLimit = 50

type notificationsLoadedMsg struct {
	items []models.Notification
}

// NotificationsView is the local log of rewards, level-ups and purchases
type NotificationsView struct {
	deps     Deps
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int
	items    []models.Notification
	scrollY  int
	clearing bool
}

func NewNotificationsView(deps Deps) *NotificationsView {
	return &NotificationsView{deps: deps, styles: styles.NewStyles(), keys: keys.DefaultKeyMap()}
}

func (v *NotificationsView) Init() tea.Cmd {
	return v.load
}

// load reads the log and marks everything read; the list still shows
// which entries were new when it was opened
func (v *NotificationsView) load() tea.Msg {
	items, err := v.deps.DB.ListNotifications(notificationLimit)
	if err != nil {
		return Flash{Text: describe(err), Err: true}
	}
	if err := v.deps.DB.MarkNotificationsRead(); err != nil {
		return Flash{Text: describe(err), Err: true}
	}
	return notificationsLoadedMsg{items: items}
}

func (v *NotificationsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height

	case notificationsLoadedMsg:
		v.items = msg.items

	case tea.KeyMsg:
		if v.clearing {
			v.clearing = false
			if msg.String() == "y" || msg.String() == "Y" {
				if err := v.deps.DB.ClearNotifications(); err != nil {
					return v, flashErr(err)
				}
				v.items = nil
			}
			return v, nil
		}
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			return v, navigate(nav.RouteHome)
		case key.Matches(msg, v.keys.Up):
			v.scrollY = max(v.scrollY-1, 0)
		case key.Matches(msg, v.keys.Down):
			v.scrollY = clamp(v.scrollY+1, 0, max(len(v.items)-1, 0))
		case key.Matches(msg, v.keys.Refresh):
			return v, v.load
		case key.Matches(msg, v.keys.Delete):
			if len(v.items) > 0 {
				v.clearing = true
			}
		}
	}
	return v, nil
}

func icon(k models.NotificationKind) string {
	switch k {
	case models.NotifyReward:
		return styles.IconXP
	case models.NotifyLevelUp:
		return styles.IconLevelUp
	case models.NotifyPurchase:
		return styles.IconShop
	case models.NotifyError:
		return styles.IconError
	}
	return styles.IconBell
}

func (v *NotificationsView) View() string {
	s := v.styles
	if v.clearing {
		return renderConfirm(s, v.width, v.height, "Clear notifications?", "The whole log will be deleted")
	}

	var rows []string
	width := max(styles.ContentWidth(v.width)-4, 20)
	for _, n := range v.items[min(v.scrollY, len(v.items)):] {
		when := s.TitleMuted.Render(n.CreatedAt.Local().Format("Jan 2 15:04"))
		text := truncate(n.Message, width-16)
		if !n.Read {
			text = s.Flash.Render(text)
		}
		rows = append(rows, icon(n.Kind)+" "+when+"  "+text)
	}
	if len(rows) == 0 {
		rows = append(rows, s.TitleMuted.Render("Nothing yet. Complete a quest!"))
	}

	help := renderHelp(s, v.width, []helpEntry{
		{"r", "reload"},
		{"d", "clear"},
		{"esc", "home"},
	})
	return page(s, v.width, v.height, styles.IconBell, "Notifications", lipgloss.JoinVertical(lipgloss.Left, rows...), help)
}
