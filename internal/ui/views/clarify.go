package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/coreterra/internal/derive"
	"github.com/tgienger/coreterra/internal/models"
	"github.com/tgienger/coreterra/internal/nav"
	"github.com/tgienger/coreterra/internal/state"
	"github.com/tgienger/coreterra/internal/ui/keys"
	"github.com/tgienger/coreterra/internal/ui/styles"
)

const (
	clarifySubtasks = iota
	clarifyDifficulty
	clarifyDuration
	clarifyProject
	clarifySave
	clarifyFields
)

// ClarifyView turns an inbox item into an actionable task: next steps,
// difficulty, time estimate and project
type ClarifyView struct {
	deps   Deps
	styles *styles.Styles
	keys   keys.KeyMap
	width  int
	height int

	snap   state.Snapshot
	taskID int64

	subtasks   textarea.Model
	difficulty int
	duration   int
	project    int // 0 = none, otherwise index+1 into snap.Projects
	focusIdx   int
	saving     bool
}

func NewClarifyView(deps Deps, taskID int64) *ClarifyView {
	ta := textarea.New()
	ta.Placeholder = "One next step per line"
	ta.CharLimit = 2000
	ta.SetHeight(5)
	ta.ShowLineNumbers = false
	ta.Focus()

	v := &ClarifyView{
		deps:       deps,
		styles:     styles.NewStyles(),
		keys:       keys.DefaultKeyMap(),
		subtasks:   ta,
		difficulty: 1,
		duration:   1,
	}
	v.snap = deps.Store.Snapshot()
	v.pick(taskID)
	return v
}

// pick selects id, or the oldest inbox item when id is zero or unknown
func (v *ClarifyView) pick(id int64) {
	if t, ok := v.snap.Task(id); ok && !t.Status.Terminal() {
		v.load(t)
		return
	}
	for i := len(v.snap.Tasks) - 1; i >= 0; i-- {
		if v.snap.Tasks[i].Status == models.StatusInbox {
			v.load(v.snap.Tasks[i])
			return
		}
	}
	v.taskID = 0
}

func (v *ClarifyView) load(t models.Task) {
	v.taskID = t.ID
	lines := make([]string, 0, len(t.Subtasks))
	for _, st := range t.Subtasks {
		lines = append(lines, st.Text)
	}
	v.subtasks.SetValue(strings.Join(lines, "\n"))
	for i, d := range models.Difficulties {
		if d == t.Difficulty {
			v.difficulty = i
		}
	}
	for i, d := range models.Durations {
		if d == t.EstimatedTime {
			v.duration = i
		}
	}
	v.project = 0
	if t.ProjectID != nil {
		for i, p := range v.snap.Projects {
			if p.ID == *t.ProjectID {
				v.project = i + 1
			}
		}
	}
}

func (v *ClarifyView) Init() tea.Cmd { return textarea.Blink }

func (v *ClarifyView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.subtasks.SetWidth(clamp(styles.ContentWidth(v.width)-10, 20, 60))
		return v, nil

	case Snapshot:
		v.snap = msg.Snapshot
		if _, ok := v.snap.Task(v.taskID); !ok {
			v.pick(0)
		}
		return v, nil

	case clarifiedMsg:
		v.saving = false
		if msg.err != nil {
			return v, flashErr(msg.err)
		}
		return v, tea.Batch(flash("Clarified %q for %d XP", msg.task.Title, msg.task.XPReward), navigate(nav.RouteOrganize))

	case tea.KeyMsg:
		if v.saving {
			return v, nil
		}
		switch {
		case msg.String() == "ctrl+c":
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			return v, navigate(nav.RouteInbox)
		case key.Matches(msg, v.keys.Save):
			return v, v.save()
		case msg.String() == "shift+tab":
			v.focusIdx = (v.focusIdx + clarifyFields - 1) % clarifyFields
			v.updateFocus()
			return v, nil
		case key.Matches(msg, v.keys.Tab):
			v.focusIdx = (v.focusIdx + 1) % clarifyFields
			v.updateFocus()
			return v, nil
		}

		if v.focusIdx == clarifySubtasks {
			var cmd tea.Cmd
			v.subtasks, cmd = v.subtasks.Update(msg)
			return v, cmd
		}

		step := 0
		switch {
		case key.Matches(msg, v.keys.Left):
			step = -1
		case key.Matches(msg, v.keys.Right):
			step = 1
		case key.Matches(msg, v.keys.Enter):
			if v.focusIdx == clarifySave {
				return v, v.save()
			}
			v.focusIdx++
			v.updateFocus()
			return v, nil
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		}
		switch v.focusIdx {
		case clarifyDifficulty:
			v.difficulty = cycle(v.difficulty, step, len(models.Difficulties))
		case clarifyDuration:
			v.duration = cycle(v.duration, step, len(models.Durations))
		case clarifyProject:
			v.project = cycle(v.project, step, len(v.snap.Projects)+1)
		}
	}
	return v, nil
}

func cycle(i, step, n int) int {
	if n <= 0 {
		return 0
	}
	return ((i+step)%n + n) % n
}

func (v *ClarifyView) updateFocus() {
	v.subtasks.Blur()
	if v.focusIdx == clarifySubtasks {
		v.subtasks.Focus()
	}
}

type clarifiedMsg struct {
	task *models.Task
	err  error
}

func (v *ClarifyView) clarification() state.Clarification {
	c := state.Clarification{
		Subtasks:      strings.Split(v.subtasks.Value(), "\n"),
		Difficulty:    models.Difficulties[v.difficulty],
		EstimatedTime: models.Durations[v.duration],
	}
	if v.project > 0 && v.project <= len(v.snap.Projects) {
		c.ProjectID = v.snap.Projects[v.project-1].ID
	}
	return c
}

func (v *ClarifyView) save() tea.Cmd {
	if v.taskID == 0 {
		return nil
	}
	v.saving = true
	ctx, store, id, c := v.deps.Ctx, v.deps.Store, v.taskID, v.clarification()
	return func() tea.Msg {
		t, err := store.Clarify(ctx, id, c)
		return clarifiedMsg{task: t, err: err}
	}
}

func (v *ClarifyView) View() string {
	s := v.styles
	help := renderHelp(s, v.width, []helpEntry{
		{"tab", "next"},
		{"←/→", "change"},
		{"ctrl+s", "save"},
		{"esc", "inbox"},
	})

	t, ok := v.snap.Task(v.taskID)
	if !ok {
		return page(s, v.width, v.height, styles.IconClarify, "Clarify",
			s.TitleMuted.Render("Nothing to clarify. Your inbox is empty."), help)
	}

	c := v.clarification()
	reward := derive.EstimateReward(c.EstimatedTime, c.Difficulty)

	selector := func(idx int, label, value string) string {
		style := s.Button
		if v.focusIdx == idx {
			style = s.ButtonFocused
		}
		return style.Render(fmt.Sprintf("%s: ‹ %s ›", label, value))
	}
	project := "none"
	if c.ProjectID != "" {
		if p, ok := v.deps.Store.Project(c.ProjectID); ok {
			project = p.Title
		}
	}
	areaStyle := s.Input
	if v.focusIdx == clarifySubtasks {
		areaStyle = s.InputFocused
	}
	saveStyle := s.Button
	if v.focusIdx == clarifySave {
		saveStyle = s.ButtonPrimary
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(t.Title),
		"",
		"Next steps:",
		areaStyle.Render(v.subtasks.View()),
		lipgloss.JoinHorizontal(lipgloss.Top,
			selector(clarifyDifficulty, "Difficulty", string(c.Difficulty)),
			selector(clarifyDuration, "Time", string(c.EstimatedTime)),
		),
		selector(clarifyProject, "Project", project),
		"",
		fmt.Sprintf("Reward: %s  %s",
			s.XP.Render(fmt.Sprintf("%s %d XP", styles.IconXP, reward.XP)),
			s.Gold.Render(fmt.Sprintf("%s %d G", styles.IconGold, reward.Gold))),
		"",
		saveStyle.Render(" Clarify "),
	)
	if v.saving {
		body = lipgloss.JoinVertical(lipgloss.Left, body, s.TitleMuted.Render("Saving..."))
	}
	return page(s, v.width, v.height, styles.IconClarify, "Clarify", body, help)
}
