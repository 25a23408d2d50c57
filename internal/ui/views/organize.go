package views

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/coreterra/internal/dnd"
	"github.com/tgienger/coreterra/internal/models"
	"github.com/tgienger/coreterra/internal/nav"
	"github.com/tgienger/coreterra/internal/state"
	"github.com/tgienger/coreterra/internal/ui/keys"
	"github.com/tgienger/coreterra/internal/ui/styles"
)

type dropZone struct {
	target dnd.Target
	label  string
	group  string
}

type lookupsLoadedMsg struct {
	contexts   []models.Context
	categories []models.ScheduledCategory
	team       []models.TeamMember
}

// OrganizeView is the drag/drop board. A task is picked up on the left
// and dropped on a project, context, time slot or team member on the right.
type OrganizeView struct {
	deps   Deps
	styles *styles.Styles
	keys   keys.KeyMap
	width  int
	height int

	snap    state.Snapshot
	tasks   []models.Task
	lookups lookupsLoadedMsg
	zones   []dropZone

	onZones    bool
	taskCursor int
	zoneCursor int
	taskScroll int
	zoneScroll int

	// encoded payload of the task being carried, nil when nothing is held
	carrying []byte

	showHelpPopup bool
}

func NewOrganizeView(deps Deps) *OrganizeView {
	v := &OrganizeView{
		deps:   deps,
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
	}
	v.setSnapshot(deps.Store.Snapshot())
	return v
}

func (v *OrganizeView) Init() tea.Cmd {
	ctx, client := v.deps.Ctx, v.deps.Client
	return func() tea.Msg {
		var out lookupsLoadedMsg
		var err error
		if out.contexts, err = client.Contexts().List(ctx); err != nil {
			return Flash{Text: describe(err), Err: true}
		}
		if out.categories, err = client.Contexts().ScheduledCategories(ctx); err != nil {
			return Flash{Text: describe(err), Err: true}
		}
		if out.team, err = client.Teams().Members(ctx); err != nil {
			return Flash{Text: describe(err), Err: true}
		}
		return out
	}
}

// organizable reports whether t belongs on the board
func organizable(t models.Task) bool {
	switch t.Status {
	case models.StatusClarified, models.StatusOrganized, models.StatusScheduled, models.StatusWaiting:
		return true
	}
	return false
}

func (v *OrganizeView) setSnapshot(snap state.Snapshot) {
	v.snap = snap
	v.tasks = v.tasks[:0]
	for _, t := range snap.Tasks {
		if organizable(t) {
			v.tasks = append(v.tasks, t)
		}
	}
	v.taskCursor = clamp(v.taskCursor, 0, max(len(v.tasks)-1, 0))
	v.buildZones()
}

func (v *OrganizeView) buildZones() {
	v.zones = v.zones[:0]
	for _, p := range v.snap.Projects {
		v.zones = append(v.zones, dropZone{dnd.Target{Kind: dnd.TargetProject, Ref: p.ID}, p.Title, "Projects"})
	}
	for _, c := range v.lookups.contexts {
		v.zones = append(v.zones, dropZone{dnd.Target{Kind: dnd.TargetContext, Ref: c.ID}, c.Name, "Contexts"})
	}
	for _, c := range v.lookups.categories {
		v.zones = append(v.zones, dropZone{dnd.Target{Kind: dnd.TargetSchedule, Ref: c.ID}, c.Label, "Schedule"})
	}
	for _, m := range v.lookups.team {
		label := fmt.Sprintf("%s (%d tasks)", m.Name, v.assignedTo(m.ID))
		v.zones = append(v.zones, dropZone{dnd.Target{Kind: dnd.TargetMember, Ref: strconv.FormatInt(m.ID, 10)}, label, "Team"})
	}
	v.zones = append(v.zones, dropZone{dnd.Target{Kind: dnd.TargetUnassign}, "Unassign", "Team"})
	v.zoneCursor = clamp(v.zoneCursor, 0, len(v.zones)-1)
}

func (v *OrganizeView) assignedTo(memberID int64) int {
	n := 0
	for _, t := range v.snap.Tasks {
		if t.AssigneeID != nil && *t.AssigneeID == memberID && !t.Status.Terminal() {
			n++
		}
	}
	return n
}

type droppedMsg struct {
	task *models.Task
	zone string
	err  error
}

func (v *OrganizeView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case Snapshot:
		v.setSnapshot(msg.Snapshot)
		return v, nil

	case lookupsLoadedMsg:
		v.lookups = msg
		v.buildZones()
		return v, nil

	case droppedMsg:
		if msg.err != nil {
			return v, flashErr(msg.err)
		}
		return v, flash("Moved %q to %s", msg.task.Title, msg.zone)

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Help):
			v.showHelpPopup = true
		case key.Matches(msg, v.keys.Back):
			if v.carrying != nil {
				v.carrying = nil
				v.onZones = false
				return v, nil
			}
			return v, navigate(nav.RouteHome)
		case key.Matches(msg, v.keys.Tab), key.Matches(msg, v.keys.Left), key.Matches(msg, v.keys.Right):
			v.onZones = !v.onZones
		case key.Matches(msg, v.keys.Up):
			v.moveCursor(-1)
		case key.Matches(msg, v.keys.Down):
			v.moveCursor(1)
		case msg.String() == "p":
			return v, navigate(nav.RouteProjects)
		case key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Toggle):
			if v.onZones {
				return v, v.drop()
			}
			return v, v.pickUp()
		}
	}
	return v, nil
}

func (v *OrganizeView) visibleRows() int {
	return max(v.height-10, 3)
}

func (v *OrganizeView) moveCursor(d int) {
	if v.onZones {
		v.zoneCursor = clamp(v.zoneCursor+d, 0, max(len(v.zones)-1, 0))
		v.zoneScroll = scroll(v.zoneCursor, v.zoneScroll, v.visibleRows())
		return
	}
	v.taskCursor = clamp(v.taskCursor+d, 0, max(len(v.tasks)-1, 0))
	v.taskScroll = scroll(v.taskCursor, v.taskScroll, v.visibleRows()/2)
}

func (v *OrganizeView) pickUp() tea.Cmd {
	if v.taskCursor >= len(v.tasks) {
		return nil
	}
	data, err := dnd.TaskPayload(v.tasks[v.taskCursor].ID, "organize").Encode()
	if err != nil {
		return flashErr(err)
	}
	v.carrying = data
	v.onZones = true
	return nil
}

func (v *OrganizeView) drop() tea.Cmd {
	if v.carrying == nil {
		return flash("Pick a task up first")
	}
	if v.zoneCursor >= len(v.zones) {
		return nil
	}
	zone := v.zones[v.zoneCursor]
	data := v.carrying
	v.carrying = nil
	v.onZones = false

	ctx, store := v.deps.Ctx, v.deps.Store
	return func() tea.Msg {
		payload, err := dnd.Decode(data)
		if err != nil {
			return droppedMsg{err: err}
		}
		target, err := dnd.ParseTarget(zone.target.String())
		if err != nil {
			return droppedMsg{err: err}
		}
		t, err := store.Drop(ctx, payload, target)
		return droppedMsg{task: t, zone: zone.label, err: err}
	}
}

func (v *OrganizeView) carried() (models.Task, bool) {
	if v.carrying == nil {
		return models.Task{}, false
	}
	p, err := dnd.Decode(v.carrying)
	if err != nil {
		return models.Task{}, false
	}
	return v.snap.Task(p.ID)
}

func (v *OrganizeView) View() string {
	s := v.styles
	entries := []helpEntry{
		{"↵", "pick up / drop"},
		{"tab", "switch side"},
		{"p", "projects"},
		{"esc", "cancel / home"},
		{"q", "quit"},
	}
	if v.showHelpPopup {
		return renderHelpPopup(s, v.width, v.height, entries)
	}

	colWidth := max(styles.ContentWidth(v.width)/2-3, 16)
	board := lipgloss.JoinHorizontal(lipgloss.Top,
		v.renderTasks(colWidth),
		"  ",
		v.renderZones(colWidth),
	)
	status := s.TitleMuted.Render("Select a task and press enter to pick it up")
	if t, ok := v.carried(); ok {
		status = s.TaskPriority.Render("Carrying: " + t.Title)
	}
	body := lipgloss.JoinVertical(lipgloss.Left, status, "", board)
	return page(s, v.width, v.height, styles.IconOrganize, "Organize", body, renderHelp(s, v.width, entries))
}

func (v *OrganizeView) renderTasks(width int) string {
	s := v.styles
	lines := []string{s.Title.Render("Tasks")}
	if len(v.tasks) == 0 {
		lines = append(lines, s.TitleMuted.Render("Nothing to organize"))
	}
	end := min(v.taskScroll+v.visibleRows()/2, len(v.tasks))
	for i := v.taskScroll; i < end; i++ {
		t := v.tasks[i]
		style := s.ListItem.Width(width)
		if i == v.taskCursor && !v.onZones {
			style = s.ListSelected.Width(width)
		}
		where := string(t.Status)
		if t.ProjectID != nil {
			if p, ok := v.deps.Store.Project(*t.ProjectID); ok {
				where = p.Title
			}
		}
		lines = append(lines,
			style.Render(truncate(t.Title, width-4)),
			style.Render(s.TitleMuted.Render(truncate(where, width-4))),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (v *OrganizeView) renderZones(width int) string {
	s := v.styles
	lines := []string{s.Title.Render("Drop on")}
	group := ""
	end := min(v.zoneScroll+v.visibleRows(), len(v.zones))
	for i := v.zoneScroll; i < end; i++ {
		z := v.zones[i]
		if z.group != group {
			group = z.group
			lines = append(lines, s.HelpDesc.Render(group))
		}
		style := s.ListItem.Width(width)
		if i == v.zoneCursor && v.onZones {
			style = s.ListSelected.Width(width)
		}
		lines = append(lines, style.Render(truncate(z.label, width-4)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
