package state

import (
	"context"
	"fmt"
	"strings"

	"github.com/tgienger/coreterra/internal/api"
	"github.com/tgienger/coreterra/internal/derive"
	"github.com/tgienger/coreterra/internal/dnd"
	"github.com/tgienger/coreterra/internal/models"
	"github.com/tgienger/coreterra/internal/workflow"
)

// Feedback describes a confirmed reward for the UI to celebrate
type Feedback struct {
	XP        int
	Gold      int
	LeveledUp bool
	Level     int
	// AllDone is set by ToggleSubtask when every subtask is now checked
	AllDone bool
}

// Message is the short celebratory text, e.g. "+10 XP"
func (f Feedback) Message() string {
	switch {
	case f.LeveledUp:
		return fmt.Sprintf("Level up! You reached level %d", f.Level)
	case f.XP > 0 && f.Gold > 0:
		return fmt.Sprintf("+%d XP  +%d G", f.XP, f.Gold)
	case f.XP > 0:
		return fmt.Sprintf("+%d XP", f.XP)
	}
	return ""
}

// Clarification is what the clarify screen decides about a task
type Clarification struct {
	Subtasks      []string
	Difficulty    models.Difficulty
	EstimatedTime models.Duration
	ProjectID     string
}

// CreateTask sends draft to the backend and puts the server's task at the
// front of the list
func (s *Store) CreateTask(ctx context.Context, draft models.TaskDraft) (*models.Task, error) {
	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Status == "" {
		draft.Status = models.StatusInbox
	}
	if err := s.validate.Struct(draft); err != nil {
		return nil, fmt.Errorf("invalid task: %w", err)
	}

	t, err := s.client.Tasks().Create(ctx, draft)
	if err != nil {
		return nil, s.fail("create task", err)
	}

	s.mu.Lock()
	s.tasks = append([]models.Task{t.Clone()}, s.tasks...)
	s.mu.Unlock()
	s.publish()
	return t, nil
}

// UpdateTask sends patch and replaces the cached task with the server's
// full answer. A status change the workflow forbids fails before any request.
func (s *Store) UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error) {
	if patch.Status != nil {
		if cur, ok := s.Task(id); ok {
			if err := workflow.Check(cur.Status, *patch.Status); err != nil {
				return nil, err
			}
		}
	}

	t, err := s.client.Tasks().Update(ctx, id, patch)
	if err != nil {
		if api.IsNotFound(err) {
			s.dropTask(id)
		}
		return nil, s.fail("update task", err)
	}
	s.putTask(*t)
	return t, nil
}

// DeleteTask removes the task once the backend confirms
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	if err := s.client.Tasks().Delete(ctx, id); err != nil {
		if api.IsNotFound(err) {
			s.dropTask(id)
		}
		return s.fail("delete task", err)
	}
	s.dropTask(id)
	return nil
}

// dropTask removes id from the cache, e.g. once the backend says it is gone
func (s *Store) dropTask(id int64) {
	s.mu.Lock()
	i := s.taskIndex(id)
	if i >= 0 {
		s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	}
	s.mu.Unlock()
	if i >= 0 {
		s.publish()
	}
}

// CompleteTask has the backend pay out the task's reward, saves the
// completed status and reloads the user so gold and XP are server values
func (s *Store) CompleteTask(ctx context.Context, id int64) (Feedback, error) {
	cur, ok := s.Task(id)
	if !ok {
		return Feedback{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	if cur.Status == models.StatusCompleted {
		return Feedback{}, fmt.Errorf("task %d is already completed", id)
	}
	if err := workflow.Check(cur.Status, models.StatusCompleted); err != nil {
		return Feedback{}, err
	}
	before, hadUser := s.User()

	done, err := s.client.Tasks().Complete(ctx, id)
	if err != nil {
		return Feedback{}, s.fail("complete task", err)
	}
	s.putTask(*done)

	if _, err := s.UpdateTask(ctx, id, models.TaskPatch{Status: models.Ptr(models.StatusCompleted)}); err != nil {
		return Feedback{}, err
	}
	if err := s.RefreshUser(ctx); err != nil {
		return Feedback{}, err
	}

	after, _ := s.User()
	fb := rewardFeedback(done.XPReward, before, after, hadUser)
	s.notify(models.Notification{
		TaskID:  models.Ptr(id),
		Kind:    models.NotifyReward,
		Message: fmt.Sprintf("Completed %q: %s", done.Title, fb.Message()),
	})
	if fb.LeveledUp {
		s.notify(models.Notification{Kind: models.NotifyLevelUp, Message: fb.Message()})
	}
	return fb, nil
}

func rewardFeedback(xpReward int, before, after models.User, hadUser bool) Feedback {
	xp := derive.CompletionXP(models.Task{XPReward: xpReward})
	fb := Feedback{XP: xp, Gold: derive.GoldFor(xp), Level: after.Level}
	if hadUser {
		fb.LeveledUp = after.Level > before.Level
		if gained := after.Gold - before.Gold; gained > 0 {
			fb.Gold = gained
		}
	}
	return fb
}

// ToggleSubtask flips one subtask and saves the recomputed progress. The
// returned feedback is only non-empty once the backend has confirmed a
// subtask becoming done.
func (s *Store) ToggleSubtask(ctx context.Context, taskID, subtaskID int64) (Feedback, error) {
	cur, ok := s.Task(taskID)
	if !ok {
		return Feedback{}, fmt.Errorf("task %d: %w", taskID, ErrNotFound)
	}

	subtasks := append([]models.Subtask(nil), cur.Subtasks...)
	found, nowDone := false, false
	for i := range subtasks {
		if subtasks[i].ID == subtaskID {
			subtasks[i].Done = !subtasks[i].Done
			nowDone = subtasks[i].Done
			found = true
			break
		}
	}
	if !found {
		return Feedback{}, fmt.Errorf("subtask %d of task %d: %w", subtaskID, taskID, ErrNotFound)
	}

	progress := derive.Progress(subtasks)
	t, err := s.UpdateTask(ctx, taskID, models.TaskPatch{Subtasks: subtasks, Progress: &progress})
	if err != nil {
		return Feedback{}, err
	}

	var fb Feedback
	if nowDone {
		fb.XP = derive.SubtaskXP
	}
	fb.AllDone = len(t.Subtasks) > 0 && derive.Progress(t.Subtasks) == 100
	return fb, nil
}

// Clarify records the clarify decisions and moves the task to clarified.
// The reward comes from the duration and difficulty.
func (s *Store) Clarify(ctx context.Context, id int64, c Clarification) (*models.Task, error) {
	var subtasks []models.Subtask
	for _, text := range c.Subtasks {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		subtasks = append(subtasks, models.Subtask{ID: int64(len(subtasks) + 1), Text: text})
	}
	if subtasks == nil {
		subtasks = []models.Subtask{}
	}

	reward := derive.EstimateReward(c.EstimatedTime, c.Difficulty)
	progress := derive.Progress(subtasks)
	patch := models.TaskPatch{
		Status:        models.Ptr(models.StatusClarified),
		Difficulty:    models.Ptr(c.Difficulty),
		EstimatedTime: models.Ptr(c.EstimatedTime),
		XPReward:      models.Ptr(reward.XP),
		GoldReward:    models.Ptr(reward.Gold),
		Subtasks:      subtasks,
		Progress:      &progress,
	}
	if c.ProjectID != "" {
		patch.ProjectID = models.Ptr(c.ProjectID)
	}
	return s.UpdateTask(ctx, id, patch)
}

// Drop applies a validated drag/drop assignment
func (s *Store) Drop(ctx context.Context, payload dnd.Payload, target dnd.Target) (*models.Task, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	patch, err := target.Patch()
	if err != nil {
		return nil, err
	}
	return s.UpdateTask(ctx, payload.ID, patch)
}

// putTask replaces the cached copy of t, or puts it first when it is new
func (s *Store) putTask(t models.Task) {
	s.mu.Lock()
	if i := s.taskIndex(t.ID); i >= 0 {
		s.tasks[i] = t.Clone()
	} else {
		s.tasks = append([]models.Task{t.Clone()}, s.tasks...)
	}
	s.mu.Unlock()
	s.publish()
}

