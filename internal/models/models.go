package models

import "time"

// TaskStatus is the GTD state of a task
type TaskStatus string

const (
	StatusInbox     TaskStatus = "inbox"
	StatusClarified TaskStatus = "clarified"
	StatusOrganized TaskStatus = "organized"
	StatusScheduled TaskStatus = "scheduled"
	StatusWaiting   TaskStatus = "waiting"
	StatusCompleted TaskStatus = "completed"
	StatusTrash     TaskStatus = "trash"
)

// Statuses lists every status in workflow order
var Statuses = []TaskStatus{
	StatusInbox,
	StatusClarified,
	StatusOrganized,
	StatusScheduled,
	StatusWaiting,
	StatusCompleted,
	StatusTrash,
}

// Valid reports whether s is a known status
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusInbox, StatusClarified, StatusOrganized, StatusScheduled,
		StatusWaiting, StatusCompleted, StatusTrash:
		return true
	}
	return false
}

// Terminal reports whether no further work happens on a task in this status
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusTrash
}

// Difficulty scales the reward for a task
type Difficulty string

const (
	DifficultyEasy Difficulty = "Easy"
	DifficultyMed  Difficulty = "Med"
	DifficultyHard Difficulty = "Hard"
)

var Difficulties = []Difficulty{DifficultyEasy, DifficultyMed, DifficultyHard}

// Duration is an estimated-time bucket
type Duration string

const (
	Duration15m Duration = "15m"
	Duration30m Duration = "30m"
	Duration1h  Duration = "1h"
	Duration2h  Duration = "2h+"
)

var Durations = []Duration{Duration15m, Duration30m, Duration1h, Duration2h}

// UserStats holds the six proficiency scores (0-20)
type UserStats struct {
	Focus     int `json:"focus"`
	Execution int `json:"execution"`
	Planning  int `json:"planning"`
	Teamwork  int `json:"teamwork"`
	Expertise int `json:"expertise"`
	Streak    int `json:"streak"`
}

// User is the signed-in player
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	Role      string    `json:"role"`
	Level     int       `json:"level"`
	CurrentXP int       `json:"currentXP"`
	MaxXP     int       `json:"maxXP"`
	Gold      int       `json:"gold"`
	Streak    int       `json:"streak"`
	Inventory []string  `json:"inventory"`
	Stats     UserStats `json:"stats"`
}

// Clone returns a copy that shares no slices with u
func (u User) Clone() User {
	u.Inventory = append([]string(nil), u.Inventory...)
	return u
}

// Owns reports whether itemID is in the inventory
func (u User) Owns(itemID string) bool {
	for _, id := range u.Inventory {
		if id == itemID {
			return true
		}
	}
	return false
}

// Subtask is a checklist entry owned by a task
type Subtask struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// Task is the central unit of work
type Task struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Status        TaskStatus `json:"status"`
	CreatedAt     string     `json:"createdAt,omitempty"`
	Priority      bool       `json:"priority"`
	ProjectID     *string    `json:"projectId,omitempty"`
	ContextID     *string    `json:"contextId,omitempty"`
	Difficulty    Difficulty `json:"difficulty,omitempty"`
	EstimatedTime Duration   `json:"estimatedTime,omitempty"`
	XPReward      int        `json:"xpReward"`
	GoldReward    *int       `json:"goldReward,omitempty"`
	Subtasks      []Subtask  `json:"subtasks,omitempty"`
	Progress      *int       `json:"progress,omitempty"`
	AssigneeID    *int64     `json:"assigneeId,omitempty"`
	Description   string     `json:"description,omitempty"`
	DueDate       string     `json:"dueDate,omitempty"`
}

// Clone returns a deep copy of t
func (t Task) Clone() Task {
	t.Subtasks = append([]Subtask(nil), t.Subtasks...)
	t.ProjectID = clonePtr(t.ProjectID)
	t.ContextID = clonePtr(t.ContextID)
	t.GoldReward = clonePtr(t.GoldReward)
	t.Progress = clonePtr(t.Progress)
	t.AssigneeID = clonePtr(t.AssigneeID)
	return t
}

// Created parses CreatedAt; the zero time is returned when it is missing or malformed
func (t Task) Created() time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999"} {
		if ts, err := time.Parse(layout, t.CreatedAt); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// ProgressValue returns the stored progress or 0
func (t Task) ProgressValue() int {
	if t.Progress == nil {
		return 0
	}
	return *t.Progress
}

// Project groups tasks
type Project struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	Progress       int            `json:"progress"`
	TotalTasks     int            `json:"totalTasks"`
	CompletedTasks int            `json:"completedTasks"`
	Timeline       map[string]any `json:"timeline,omitempty"`
}

// ShopItem is something the user can buy with gold
type ShopItem struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Cost   int            `json:"cost"`
	Type   string         `json:"type"` // consumable or cosmetic
	Effect map[string]any `json:"effect,omitempty"`
}

// Achievement is a badge; Unlocked is decided by the server
type Achievement struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Desc     string `json:"desc"`
	Icon     string `json:"icon"`
	Color    string `json:"color"`
	Bg       string `json:"bg"`
	Border   string `json:"border"`
	Unlocked bool   `json:"unlocked"`
}

// CalendarEvent is a dated item shown on the calendar; Date is the day of month
type CalendarEvent struct {
	ID    int64  `json:"id"`
	Date  int    `json:"date"`
	Title string `json:"title"`
	Type  string `json:"type"`
	Time  string `json:"time,omitempty"`
}

// Context is a situational tag such as "@Home"
type Context struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon,omitempty"`
	Count int    `json:"count,omitempty"`
}

// ScheduledCategory is a time slot tasks can be scheduled into
type ScheduledCategory struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// TeamMember is someone tasks can be assigned to
type TeamMember struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Status   string `json:"status"`
	Capacity int    `json:"capacity"`
	Avatar   string `json:"avatar,omitempty"`
}

// Report is a productivity summary; Metrics is backend-defined
type Report struct {
	ID      int64          `json:"id"`
	Type    string         `json:"type"`
	Date    string         `json:"date,omitempty"`
	Metrics map[string]any `json:"metrics,omitempty"`
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// NotificationKind classifies a local notification
type NotificationKind string

const (
	NotifyReward   NotificationKind = "reward"
	NotifyLevelUp  NotificationKind = "level_up"
	NotifyPurchase NotificationKind = "purchase"
	NotifyError    NotificationKind = "error"
)

// Notification is a locally stored event shown on the notifications screen
type Notification struct {
	ID        int64            `db:"id" json:"id"`
	TaskID    *int64           `db:"task_id" json:"taskId,omitempty"`
	Kind      NotificationKind `db:"kind" json:"kind"`
	Message   string           `db:"message" json:"message"`
	Read      bool             `db:"read" json:"read"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
}
