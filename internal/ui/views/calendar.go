package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/coreterra/internal/derive"
	"github.com/tgienger/coreterra/internal/models"
	"github.com/tgienger/coreterra/internal/nav"
	"github.com/tgienger/coreterra/internal/ui/keys"
	"github.com/tgienger/coreterra/internal/ui/styles"
)

type eventsLoadedMsg struct {
	events []models.CalendarEvent
}

// CalendarView shows a month grid with the backend's events
type CalendarView struct {
	deps   Deps
	styles *styles.Styles
	keys   keys.KeyMap
	width  int
	height int

	year   int
	month0 int
	today  time.Time
	events []models.CalendarEvent
}

func NewCalendarView(deps Deps, now time.Time) *CalendarView {
	return &CalendarView{
		deps:   deps,
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
		year:   now.Year(),
		month0: int(now.Month()) - 1,
		today:  now,
	}
}

func (v *CalendarView) Init() tea.Cmd {
	ctx, client := v.deps.Ctx, v.deps.Client
	return func() tea.Msg {
		events, err := client.Calendar().Events(ctx)
		if err != nil {
			return Flash{Text: describe(err), Err: true}
		}
		return eventsLoadedMsg{events: events}
	}
}

func (v *CalendarView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height

	case eventsLoadedMsg:
		v.events = msg.events

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			return v, navigate(nav.RouteHome)
		case key.Matches(msg, v.keys.Left):
			v.shift(-1)
		case key.Matches(msg, v.keys.Right):
			v.shift(1)
		case msg.String() == "t":
			v.year, v.month0 = v.today.Year(), int(v.today.Month())-1
		}
	}
	return v, nil
}

func (v *CalendarView) shift(months int) {
	m := v.month0 + months
	v.year += m / 12
	v.month0 = m % 12
	if v.month0 < 0 {
		v.month0 += 12
		v.year--
	}
}

func (v *CalendarView) isToday(c derive.CalendarCell) bool {
	return c.CurrentMonth && c.Day == v.today.Day() &&
		v.year == v.today.Year() && v.month0 == int(v.today.Month())-1
}

func (v *CalendarView) View() string {
	s := v.styles
	cellWidth := clamp((styles.ContentWidth(v.width)-4)/7, 4, 10)
	cell := lipgloss.NewStyle().Width(cellWidth).Align(lipgloss.Right).PaddingRight(1)

	var head []string
	for _, d := range []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"} {
		head = append(head, cell.Foreground(styles.Current.ForegroundDim).Render(d[:min(len(d), cellWidth-1)]))
	}
	rows := []string{strings.Join(head, "")}

	grid := derive.CalendarGrid(v.year, v.month0)
	for week := 0; week < len(grid)/7; week++ {
		var row []string
		for _, c := range grid[week*7 : week*7+7] {
			label := fmt.Sprintf("%2d", c.Day)
			style := cell
			switch {
			case !c.CurrentMonth:
				style = style.Foreground(styles.Current.Border)
			case v.isToday(c):
				style = style.Foreground(styles.Current.Primary).Bold(true).Underline(true)
			}
			if c.CurrentMonth && len(derive.EventsOn(v.events, c.Day)) > 0 {
				label = "•" + label
				style = style.Foreground(styles.Current.Gold)
			}
			row = append(row, style.Render(label))
		}
		rows = append(rows, strings.Join(row, ""))
	}

	var agenda []string
	for day := 1; day <= derive.DaysInMonth(v.year, v.month0); day++ {
		for _, e := range derive.EventsOn(v.events, day) {
			line := fmt.Sprintf("%2d", day) + "  " + e.Title
			if e.Time != "" {
				line += " " + s.TitleMuted.Render(e.Time)
			}
			if e.Type == "deadline" {
				line = s.Error.Render(line)
			}
			agenda = append(agenda, line)
		}
	}
	if len(agenda) == 0 {
		agenda = append(agenda, s.TitleMuted.Render("No events"))
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(derive.MonthTitle(v.year, v.month0)),
		"",
		lipgloss.JoinVertical(lipgloss.Left, rows...),
		"",
		lipgloss.JoinVertical(lipgloss.Left, agenda...),
	)
	help := renderHelp(s, v.width, []helpEntry{
		{"←/→", "month"},
		{"t", "today"},
		{"esc", "home"},
	})
	return page(s, v.width, v.height, styles.IconCalendar, "Calendar", body, help)
}
