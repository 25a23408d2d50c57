package views

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/coreterra/internal/derive"
	"github.com/tgienger/coreterra/internal/models"
	"github.com/tgienger/coreterra/internal/nav"
	"github.com/tgienger/coreterra/internal/state"
	"github.com/tgienger/coreterra/internal/ui/keys"
	"github.com/tgienger/coreterra/internal/ui/styles"
)

// levelsUp reports whether completing t would take u to the next level
func levelsUp(u *models.User, t models.Task) bool {
	if u == nil || t.Status == models.StatusCompleted {
		return false
	}
	_, up := derive.LevelUp(*u, derive.CompletionXP(t))
	return up
}

// TaskDetailView is the quest screen: subtasks, progress and completion
type TaskDetailView struct {
	deps   Deps
	styles *styles.Styles
	keys   keys.KeyMap
	width  int
	height int

	snap   state.Snapshot
	taskID int64
	cursor int
	busy   bool
}

func NewTaskDetailView(deps Deps, taskID int64) *TaskDetailView {
	v := &TaskDetailView{
		deps:   deps,
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
		snap:   deps.Store.Snapshot(),
		taskID: taskID,
	}
	if _, ok := v.snap.Task(taskID); !ok {
		v.taskID = v.firstActionable()
	}
	return v
}

func (v *TaskDetailView) firstActionable() int64 {
	for _, t := range v.snap.Tasks {
		if t.Status == models.StatusOrganized || t.Status == models.StatusClarified {
			return t.ID
		}
	}
	return 0
}

func (v *TaskDetailView) Init() tea.Cmd { return nil }

type subtaskToggledMsg struct {
	fb  state.Feedback
	err error
}

func (v *TaskDetailView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case Snapshot:
		v.snap = msg.Snapshot
		return v, nil

	case subtaskToggledMsg:
		v.busy = false
		if msg.err != nil {
			return v, flashErr(msg.err)
		}
		if msg.fb.AllDone {
			return v, flash("%s All steps done. Press c to claim the reward", styles.IconXP)
		}
		if text := msg.fb.Message(); text != "" {
			return v, flash("%s", text)
		}
		return v, nil

	case Flash:
		v.busy = false
		return v, nil

	case tea.KeyMsg:
		if v.busy {
			return v, nil
		}
		t, ok := v.snap.Task(v.taskID)
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			return v, navigate(nav.RouteEngage)
		case !ok:
			return v, nil
		case key.Matches(msg, v.keys.Up):
			v.cursor = max(v.cursor-1, 0)
		case key.Matches(msg, v.keys.Down):
			v.cursor = clamp(v.cursor+1, 0, max(len(t.Subtasks)-1, 0))
		case key.Matches(msg, v.keys.Toggle), key.Matches(msg, v.keys.Enter):
			if v.cursor < len(t.Subtasks) && !t.Status.Terminal() {
				v.busy = true
				return v, v.toggle(t.ID, t.Subtasks[v.cursor].ID)
			}
		case key.Matches(msg, v.keys.Complete):
			if !t.Status.Terminal() {
				v.busy = true
				return v, completeTask(v.deps, t.ID)
			}
		case key.Matches(msg, v.keys.Edit):
			return v, navigateTask(nav.RouteClarify, t.ID)
		}
	}
	return v, nil
}

func (v *TaskDetailView) toggle(taskID, subtaskID int64) tea.Cmd {
	ctx, store := v.deps.Ctx, v.deps.Store
	return func() tea.Msg {
		fb, err := store.ToggleSubtask(ctx, taskID, subtaskID)
		return subtaskToggledMsg{fb: fb, err: err}
	}
}

func (v *TaskDetailView) View() string {
	s := v.styles
	help := renderHelp(s, v.width, []helpEntry{
		{"space", "toggle step"},
		{"c", "complete"},
		{"e", "clarify"},
		{"esc", "engage"},
	})

	t, ok := v.snap.Task(v.taskID)
	if !ok {
		return page(s, v.width, v.height, styles.IconEngage, "Quest",
			s.TitleMuted.Render("No active quest. Clarify something from the inbox."), help)
	}

	barWidth := clamp(styles.ContentWidth(v.width)-20, 10, 40)
	gold := 0
	if t.GoldReward != nil {
		gold = *t.GoldReward
	}

	lines := []string{
		s.Title.Render(t.Title),
		fmt.Sprintf("%s  %s  %s", styles.StatusText(t.Status), string(t.Difficulty), string(t.EstimatedTime)),
	}
	if t.ProjectID != nil {
		if p, ok := v.deps.Store.Project(*t.ProjectID); ok {
			lines = append(lines, s.TitleMuted.Render("Project: "+p.Title))
		}
	}
	lines = append(lines,
		"",
		fmt.Sprintf("Progress %s %d%%", styles.Bar(t.ProgressValue(), barWidth), t.ProgressValue()),
		fmt.Sprintf("Reward   %s  %s", s.XP.Render(fmt.Sprintf("%d XP", t.XPReward)), s.Gold.Render(fmt.Sprintf("%d G", gold))),
	)
	if levelsUp(v.snap.User, t) {
		lines = append(lines, s.Gold.Render(styles.IconLevelUp+" Completing this quest levels you up"))
	}
	lines = append(lines, "")
	if t.Description != "" {
		lines = append(lines, t.Description, "")
	}

	if len(t.Subtasks) == 0 {
		lines = append(lines, s.TitleMuted.Render("No steps. Press c when it's done."))
	}
	width := max(styles.ContentWidth(v.width)-4, 20)
	for i, st := range t.Subtasks {
		check, text := "[ ]", st.Text
		if st.Done {
			check, text = "[x]", s.TaskDone.Render(st.Text)
		}
		style := s.ListItem.Width(width)
		if i == v.cursor {
			style = s.ListSelected.Width(width)
		}
		lines = append(lines, style.Render(check+" "+text))
	}

	return page(s, v.width, v.height, styles.IconEngage, "Quest", lipgloss.JoinVertical(lipgloss.Left, lines...), help)
}
