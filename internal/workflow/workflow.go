package workflow

import (
	"fmt"

	"github.com/tgienger/coreterra/internal/models"
)

// transitions lists, for each status, the statuses a task may move to.
// Re-saving the current status is always allowed.
var transitions = map[models.TaskStatus][]models.TaskStatus{
	models.StatusInbox: {
		models.StatusClarified, models.StatusOrganized, models.StatusScheduled,
		models.StatusWaiting, models.StatusTrash,
	},
	models.StatusClarified: {
		models.StatusOrganized, models.StatusScheduled, models.StatusWaiting,
		models.StatusCompleted, models.StatusInbox, models.StatusTrash,
	},
	models.StatusOrganized: {
		models.StatusScheduled, models.StatusWaiting, models.StatusCompleted,
		models.StatusClarified, models.StatusTrash,
	},
	models.StatusScheduled: {
		models.StatusOrganized, models.StatusWaiting, models.StatusCompleted,
		models.StatusTrash,
	},
	models.StatusWaiting: {
		models.StatusOrganized, models.StatusScheduled, models.StatusCompleted,
		models.StatusTrash,
	},
	models.StatusCompleted: {models.StatusTrash},
	models.StatusTrash:     {models.StatusInbox},
}

// TransitionError reports a status change the workflow does not allow
type TransitionError struct {
	From models.TaskStatus
	To   models.TaskStatus
}

func (e *TransitionError) Error() string {
	if !e.To.Valid() {
		return fmt.Sprintf("unknown status %q", e.To)
	}
	return fmt.Sprintf("cannot move a task from %s to %s", e.From, e.To)
}

// CanTransition reports whether a task in from may move to to
func CanTransition(from, to models.TaskStatus) bool {
	if !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Check returns a *TransitionError when the move is not allowed
func Check(from, to models.TaskStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return &TransitionError{From: from, To: to}
}

// Next returns the statuses reachable from from, in workflow order
func Next(from models.TaskStatus) []models.TaskStatus {
	allowed := transitions[from]
	out := make([]models.TaskStatus, 0, len(allowed))
	for _, s := range models.Statuses {
		for _, a := range allowed {
			if a == s {
				out = append(out, s)
			}
		}
	}
	return out
}

// Actionable reports whether a task in s shows up on the engage list
func Actionable(s models.TaskStatus) bool {
	switch s {
	case models.StatusClarified, models.StatusOrganized, models.StatusScheduled:
		return true
	}
	return false
}
