package models

import "encoding/json"

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}

// TaskDraft is the body of a create request
type TaskDraft struct {
	Title       string     `json:"title" validate:"required,max=500"`
	Status      TaskStatus `json:"status,omitempty" validate:"omitempty,oneof=inbox clarified organized scheduled waiting completed trash"`
	Priority    bool       `json:"priority"`
	Description string     `json:"description,omitempty"`
}

// TaskPatch is a partial task update. Nil fields are left untouched by the
// server. ClearAssignee sends an explicit null assignee.
type TaskPatch struct {
	Title         *string
	Status        *TaskStatus
	Priority      *bool
	ProjectID     *string
	ContextID     *string
	Difficulty    *Difficulty
	EstimatedTime *Duration
	XPReward      *int
	GoldReward    *int
	Subtasks      []Subtask
	Progress      *int
	AssigneeID    *int64
	ClearAssignee bool
	Description   *string
	DueDate       *string
}

// Empty reports whether the patch changes nothing
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Status == nil && p.Priority == nil &&
		p.ProjectID == nil && p.ContextID == nil && p.Difficulty == nil &&
		p.EstimatedTime == nil && p.XPReward == nil && p.GoldReward == nil &&
		p.Subtasks == nil && p.Progress == nil && p.AssigneeID == nil &&
		!p.ClearAssignee && p.Description == nil && p.DueDate == nil
}

func (p TaskPatch) MarshalJSON() ([]byte, error) {
	m := map[string]any{}
	set := func(key string, ok bool, v any) {
		if ok {
			m[key] = v
		}
	}
	set("title", p.Title != nil, p.Title)
	set("status", p.Status != nil, p.Status)
	set("priority", p.Priority != nil, p.Priority)
	set("projectId", p.ProjectID != nil, p.ProjectID)
	set("contextId", p.ContextID != nil, p.ContextID)
	set("difficulty", p.Difficulty != nil, p.Difficulty)
	set("estimatedTime", p.EstimatedTime != nil, p.EstimatedTime)
	set("xpReward", p.XPReward != nil, p.XPReward)
	set("goldReward", p.GoldReward != nil, p.GoldReward)
	set("subtasks", p.Subtasks != nil, p.Subtasks)
	set("progress", p.Progress != nil, p.Progress)
	set("assigneeId", p.AssigneeID != nil, p.AssigneeID)
	if p.ClearAssignee {
		m["assigneeId"] = nil
	}
	set("description", p.Description != nil, p.Description)
	set("dueDate", p.DueDate != nil, p.DueDate)
	return json.Marshal(m)
}

// ProjectDraft is the body of a project create request
type ProjectDraft struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description,omitempty"`
}

// ProjectPatch is a partial project update
type ProjectPatch struct {
	Title          *string `json:"title,omitempty"`
	Description    *string `json:"description,omitempty"`
	Progress       *int    `json:"progress,omitempty"`
	TotalTasks     *int    `json:"totalTasks,omitempty"`
	CompletedTasks *int    `json:"completedTasks,omitempty"`
}

// UserPatch is a partial profile update
type UserPatch struct {
	Name      *string    `json:"name,omitempty"`
	Level     *int       `json:"level,omitempty"`
	CurrentXP *int       `json:"currentXP,omitempty"`
	MaxXP     *int       `json:"maxXP,omitempty"`
	Gold      *int       `json:"gold,omitempty"`
	Streak    *int       `json:"streak,omitempty"`
	Inventory []string   `json:"inventory,omitempty"`
	Stats     *UserStats `json:"stats,omitempty"`
}
