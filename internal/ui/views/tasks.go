package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/coreterra/internal/models"
	"github.com/tgienger/coreterra/internal/nav"
	"github.com/tgienger/coreterra/internal/state"
	"github.com/tgienger/coreterra/internal/ui/keys"
	"github.com/tgienger/coreterra/internal/ui/styles"
	"github.com/tgienger/coreterra/internal/workflow"
)

// ListMode picks which tasks a TaskListView shows and what it can do with them
type ListMode int

const (
	ModeInbox ListMode = iota
	ModeEngage
	ModeReview
)

func (m ListMode) statuses() []models.TaskStatus {
	switch m {
	case ModeEngage:
		return []models.TaskStatus{models.StatusClarified, models.StatusOrganized, models.StatusScheduled}
	case ModeReview:
		return []models.TaskStatus{models.StatusCompleted, models.StatusWaiting}
	}
	return []models.TaskStatus{models.StatusInbox}
}

type reportLoadedMsg struct {
	report *models.Report
}

// TaskListView lists the tasks of one workflow stage
type TaskListView struct {
	deps   Deps
	mode   ListMode
	all    []models.Task
	tasks  []models.Task
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	cursor      int
	scrollY     int
	searching   bool
	searchInput textinput.Model

	// inline capture form (inbox only)
	creating    bool
	newTitle    textinput.Model
	newPriority bool
	newFocusIdx int // 0=title, 1=priority, 2=save

	confirmingDelete bool
	deleteTargetID   int64
	deleteTargetName string

	report *models.Report

	showHelpPopup bool
}

func NewTaskListView(deps Deps, mode ListMode) *TaskListView {
	search := textinput.New()
	search.Placeholder = "Search..."
	search.CharLimit = 100

	title := textinput.New()
	title.Placeholder = "What's on your mind?"
	title.CharLimit = 500

	v := &TaskListView{
		deps:        deps,
		mode:        mode,
		styles:      styles.NewStyles(),
		keys:        keys.DefaultKeyMap(),
		searchInput: search,
		newTitle:    title,
	}
	v.setSnapshot(deps.Store.Snapshot())
	return v
}

func (v *TaskListView) Init() tea.Cmd {
	if v.mode != ModeReview {
		return nil
	}
	ctx, client := v.deps.Ctx, v.deps.Client
	return func() tea.Msg {
		r, err := client.Reports().Daily(ctx)
		if err != nil {
			return Flash{Text: describe(err), Err: true}
		}
		return reportLoadedMsg{report: r}
	}
}

func (v *TaskListView) setSnapshot(snap state.Snapshot) {
	v.all = v.all[:0]
	for _, t := range snap.Tasks {
		for _, s := range v.mode.statuses() {
			if t.Status == s {
				v.all = append(v.all, t)
				break
			}
		}
	}
	v.applyFilter()
}

func (v *TaskListView) applyFilter() {
	q := strings.ToLower(strings.TrimSpace(v.searchInput.Value()))
	v.tasks = v.tasks[:0]
	for _, t := range v.all {
		if q == "" || strings.Contains(strings.ToLower(t.Title), q) {
			v.tasks = append(v.tasks, t)
		}
	}
	if v.cursor >= len(v.tasks) {
		v.cursor = max(0, len(v.tasks)-1)
	}
	v.ensureVisible()
}

func (v *TaskListView) selected() (models.Task, bool) {
	if v.cursor < 0 || v.cursor >= len(v.tasks) {
		return models.Task{}, false
	}
	return v.tasks[v.cursor], true
}

func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ensureVisible()
		return v, nil

	case Snapshot:
		v.setSnapshot(msg.Snapshot)
		return v, nil

	case reportLoadedMsg:
		v.report = msg.report
		return v, nil

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}
		if v.creating {
			return v.updateCreating(msg)
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.searching {
		switch {
		case key.Matches(msg, v.keys.Back), key.Matches(msg, v.keys.Enter):
			v.searchInput.Blur()
			v.searching = false
			return v, nil
		}
		var cmd tea.Cmd
		v.searchInput, cmd = v.searchInput.Update(msg)
		v.applyFilter()
		return v, cmd
	}

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit
	case key.Matches(msg, v.keys.Back):
		return v, navigate(nav.RouteHome)
	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil
	case key.Matches(msg, v.keys.Search):
		v.searching = true
		v.searchInput.Focus()
		return v, textinput.Blink
	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil
	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.tasks)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil
	case key.Matches(msg, v.keys.Refresh):
		ctx, store := v.deps.Ctx, v.deps.Store
		return v, func() tea.Msg {
			if err := store.RefreshTasks(ctx); err != nil {
				return Flash{Text: describe(err), Err: true}
			}
			return nil
		}
	case key.Matches(msg, v.keys.New) && v.mode == ModeInbox:
		v.startCreate()
		return v, textinput.Blink
	case key.Matches(msg, v.keys.Delete):
		if t, ok := v.selected(); ok {
			v.confirmingDelete = true
			v.deleteTargetID = t.ID
			v.deleteTargetName = t.Title
		}
		return v, nil
	}

	t, ok := v.selected()
	if !ok {
		return v, nil
	}
	switch v.mode {
	case ModeInbox:
		return v, v.updateInbox(msg, t)
	case ModeEngage:
		switch {
		case key.Matches(msg, v.keys.Enter):
			return v, navigateTask(nav.RouteTaskDetails, t.ID)
		case key.Matches(msg, v.keys.Complete):
			return v, completeTask(v.deps, t.ID)
		}
	case ModeReview:
		switch {
		case key.Matches(msg, v.keys.Enter):
			return v, navigateTask(nav.RouteTaskDetails, t.ID)
		case msg.String() == "o" && t.Status == models.StatusWaiting:
			return v, v.move(t, models.TaskPatch{Status: models.Ptr(models.StatusOrganized)}, "Back on the board")
		}
	}
	return v, nil
}

// processChoice is one way out of the inbox other than clarifying
type processChoice struct {
	key   string
	help  string
	patch models.TaskPatch
	done  string
}

var processChoices = map[models.TaskStatus]processChoice{
	models.StatusOrganized: {"o", "do it", models.TaskPatch{
		Status:   models.Ptr(models.StatusOrganized),
		Priority: models.Ptr(true),
	}, "Moved to your active list"},
	models.StatusWaiting:   {"w", "delegate", models.TaskPatch{Status: models.Ptr(models.StatusWaiting)}, "Delegated"},
	models.StatusScheduled: {"s", "schedule", models.TaskPatch{Status: models.Ptr(models.StatusScheduled)}, "Scheduled"},
}

// inboxChoices returns the process choices the workflow allows from status
func inboxChoices(status models.TaskStatus) []processChoice {
	var out []processChoice
	for _, next := range workflow.Next(status) {
		if c, ok := processChoices[next]; ok {
			out = append(out, c)
		}
	}
	return out
}

// updateInbox processes an inbox item: do it now, delegate, schedule or clarify
func (v *TaskListView) updateInbox(msg tea.KeyMsg, t models.Task) tea.Cmd {
	if key.Matches(msg, v.keys.Enter) && workflow.CanTransition(t.Status, models.StatusClarified) {
		return navigateTask(nav.RouteClarify, t.ID)
	}
	for _, c := range inboxChoices(t.Status) {
		if msg.String() == c.key {
			return v.move(t, c.patch, c.done)
		}
	}
	return nil
}

func (v *TaskListView) move(t models.Task, patch models.TaskPatch, done string) tea.Cmd {
	ctx, store := v.deps.Ctx, v.deps.Store
	return func() tea.Msg {
		if _, err := store.UpdateTask(ctx, t.ID, patch); err != nil {
			return Flash{Text: describe(err), Err: true}
		}
		return Flash{Text: fmt.Sprintf("%s: %s", done, t.Title)}
	}
}

// completeTask completes id and flashes the confirmed reward
func completeTask(deps Deps, id int64) tea.Cmd {
	return func() tea.Msg {
		fb, err := deps.Store.CompleteTask(deps.Ctx, id)
		if err != nil {
			return Flash{Text: describe(err), Err: true}
		}
		return Flash{Text: styles.IconDone + " Quest complete! " + fb.Message()}
	}
}

func (v *TaskListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		ctx, store, id, name := v.deps.Ctx, v.deps.Store, v.deleteTargetID, v.deleteTargetName
		return v, func() tea.Msg {
			if err := store.DeleteTask(ctx, id); err != nil {
				return Flash{Text: describe(err), Err: true}
			}
			return Flash{Text: fmt.Sprintf("Deleted %q", name)}
		}
	case "n", "N", "esc":
		v.confirmingDelete = false
	}
	return v, nil
}

func (v *TaskListView) startCreate() {
	v.creating = true
	v.newFocusIdx = 0
	v.newPriority = false
	v.newTitle.Reset()
	v.newTitle.Focus()
}

func (v *TaskListView) updateCreating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.creating = false
		return v, nil
	case key.Matches(msg, v.keys.Save):
		return v, v.saveNew()
	case msg.String() == "shift+tab":
		v.newFocusIdx = (v.newFocusIdx + 2) % 3
		v.updateCreateFocus()
		return v, nil
	case key.Matches(msg, v.keys.Tab):
		v.newFocusIdx = (v.newFocusIdx + 1) % 3
		v.updateCreateFocus()
		return v, nil
	case key.Matches(msg, v.keys.Enter):
		if v.newFocusIdx == 1 {
			v.newPriority = !v.newPriority
			return v, nil
		}
		return v, v.saveNew()
	case v.newFocusIdx == 1 && msg.String() == " ":
		v.newPriority = !v.newPriority
		return v, nil
	}

	if v.newFocusIdx != 0 {
		return v, nil
	}
	var cmd tea.Cmd
	v.newTitle, cmd = v.newTitle.Update(msg)
	return v, cmd
}

func (v *TaskListView) updateCreateFocus() {
	v.newTitle.Blur()
	if v.newFocusIdx == 0 {
		v.newTitle.Focus()
	}
}

func (v *TaskListView) saveNew() tea.Cmd {
	title := strings.TrimSpace(v.newTitle.Value())
	v.creating = false
	if title == "" {
		return nil
	}
	return captureTask(v.deps, title, v.newPriority)
}

// captureTask puts a new item in the inbox
func captureTask(deps Deps, title string, priority bool) tea.Cmd {
	return func() tea.Msg {
		draft := models.TaskDraft{Title: title, Status: models.StatusInbox, Priority: priority}
		if _, err := deps.Store.CreateTask(deps.Ctx, draft); err != nil {
			return Flash{Text: describe(err), Err: true}
		}
		return Flash{Text: fmt.Sprintf("Captured %q", title)}
	}
}

func (v *TaskListView) visibleItems() int {
	return max((v.height-12)/2, 1)
}

func (v *TaskListView) ensureVisible() {
	v.scrollY = scroll(v.cursor, v.scrollY, v.visibleItems())
}

func (v *TaskListView) title() (string, string) {
	switch v.mode {
	case ModeEngage:
		return styles.IconEngage, "Engage"
	case ModeReview:
		return styles.IconReview, "Review"
	}
	return styles.IconInbox, "Inbox"
}

func (v *TaskListView) helpEntries() []helpEntry {
	entries := []helpEntry{{"↑/↓", "move"}}
	switch v.mode {
	case ModeInbox:
		entries = append(entries, helpEntry{"↵", "clarify"})
		for _, c := range inboxChoices(models.StatusInbox) {
			entries = append(entries, helpEntry{c.key, c.help})
		}
		entries = append(entries, helpEntry{"n", "capture"})
	case ModeEngage:
		entries = append(entries,
			helpEntry{"↵", "open"},
			helpEntry{"c", "complete"},
		)
	case ModeReview:
		entries = append(entries,
			helpEntry{"↵", "open"},
			helpEntry{"o", "resume waiting"},
		)
	}
	return append(entries,
		helpEntry{"d", "del"},
		helpEntry{"/", "search"},
		helpEntry{"esc", "home"},
		helpEntry{"q", "quit"},
	)
}

func (v *TaskListView) View() string {
	s := v.styles
	if v.showHelpPopup {
		return renderHelpPopup(s, v.width, v.height, v.helpEntries())
	}
	if v.confirmingDelete {
		return renderConfirm(s, v.width, v.height, "Delete Task?", fmt.Sprintf("%q will be gone for good", v.deleteTargetName))
	}
	if v.creating {
		return v.renderCreateForm()
	}

	var b strings.Builder
	if v.searching || v.searchInput.Value() != "" {
		style := s.Input
		if v.searching {
			style = s.InputFocused
		}
		b.WriteString(style.Width(clamp(styles.ContentWidth(v.width)-6, 20, 50)).Render(v.searchInput.View()))
		b.WriteString("\n")
	}
	if v.mode == ModeReview {
		b.WriteString(v.renderReport())
		b.WriteString("\n")
	}
	b.WriteString(v.renderTaskList())

	icon, title := v.title()
	return page(s, v.width, v.height, icon, fmt.Sprintf("%s (%d)", title, len(v.all)), b.String(), renderHelp(s, v.width, v.helpEntries()))
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles
	if len(v.tasks) == 0 {
		switch {
		case len(v.all) > 0:
			return s.TitleMuted.Render("Nothing matches your search.")
		case v.mode == ModeInbox:
			return s.TitleMuted.Render("Inbox zero. Press 'n' to capture something.")
		}
		return s.TitleMuted.Render("Nothing here yet.")
	}

	end := min(v.scrollY+v.visibleItems(), len(v.tasks))
	var items []string
	for i := v.scrollY; i < end; i++ {
		items = append(items, v.renderTaskItem(v.tasks[i], i == v.cursor))
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *TaskListView) renderTaskItem(t models.Task, selected bool) string {
	s := v.styles
	width := max(styles.ContentWidth(v.width)-4, 20)

	title := t.Title
	if t.Priority {
		title = "! " + title
	}
	var meta []string
	if v.mode != ModeInbox {
		meta = append(meta, styles.StatusText(t.Status))
	}
	if t.Difficulty != "" {
		meta = append(meta, string(t.Difficulty))
	}
	if t.EstimatedTime != "" {
		meta = append(meta, string(t.EstimatedTime))
	}
	if t.XPReward > 0 {
		meta = append(meta, s.XP.Render(fmt.Sprintf("%d XP", t.XPReward)))
	}
	if len(t.Subtasks) > 0 {
		meta = append(meta, fmt.Sprintf("%d%%", t.ProgressValue()))
	}
	if len(meta) == 0 {
		meta = append(meta, s.TitleMuted.Render(t.Created().Format("Jan 2 15:04")))
	}

	titleStyle, metaStyle := s.ListItem.Width(width), s.ListItem.Width(width)
	if selected {
		titleStyle, metaStyle = s.ListSelected.Width(width), s.ListSelected.Width(width)
	}
	if t.Status == models.StatusCompleted {
		title = s.TaskDone.Render(title)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(truncate(title, width)),
		metaStyle.Render(strings.Join(meta, "  ")),
	)
}

func (v *TaskListView) renderReport() string {
	s := v.styles
	if v.report == nil {
		return s.TitleMuted.Render("No daily report yet")
	}
	parts := []string{s.Title.Render("Daily report " + v.report.Date)}
	for _, k := range []string{"completed", "xp"} {
		if val, ok := v.report.Metrics[k]; ok {
			parts = append(parts, styles.LabelValue(k, val))
		}
	}
	return s.Panel.Render(strings.Join(parts, "  "))
}

func (v *TaskListView) renderCreateForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	titleStyle, prioStyle, btnStyle := s.Input, s.Button, s.Button
	switch v.newFocusIdx {
	case 0:
		titleStyle = s.InputFocused
	case 1:
		prioStyle = s.ButtonFocused
	case 2:
		btnStyle = s.ButtonFocused
	}
	check := "[ ]"
	if v.newPriority {
		check = "[x]"
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Capture"),
		"",
		"Title:",
		titleStyle.Width(clamp(contentWidth-6, 20, 50)).Render(v.newTitle.View()),
		"",
		prioStyle.Render(check+" Priority"),
		"",
		btnStyle.Render(" Add to inbox "),
		"",
		s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}
