package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskPatchSendsOnlySetFields(t *testing.T) {
	raw, err := json.Marshal(TaskPatch{
		Status:   Ptr(StatusOrganized),
		Priority: Ptr(false),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"organized","priority":false}`, string(raw))

	raw, err = json.Marshal(TaskPatch{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(raw))
}

func TestTaskPatchClearAssignee(t *testing.T) {
	raw, err := json.Marshal(TaskPatch{ClearAssignee: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"assigneeId":null}`, string(raw))

	// clearing wins over a value set in the same patch
	raw, err = json.Marshal(TaskPatch{AssigneeID: Ptr(int64(3)), ClearAssignee: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"assigneeId":null}`, string(raw))
}

func TestTaskPatchSubtasks(t *testing.T) {
	raw, err := json.Marshal(TaskPatch{Subtasks: []Subtask{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"subtasks":[]}`, string(raw))
}

func TestTaskPatchEmpty(t *testing.T) {
	assert.True(t, TaskPatch{}.Empty())
	assert.False(t, TaskPatch{ClearAssignee: true}.Empty())
	assert.False(t, TaskPatch{Subtasks: []Subtask{}}.Empty())
	assert.False(t, TaskPatch{Title: Ptr("x")}.Empty())
}

func TestStatusValid(t *testing.T) {
	for _, s := range Statuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, TaskStatus("someday").Valid())
	assert.False(t, TaskStatus("").Valid())

	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusTrash.Terminal())
	assert.False(t, StatusWaiting.Terminal())
}

func TestTaskClone(t *testing.T) {
	orig := Task{
		ID:         1,
		Subtasks:   []Subtask{{ID: 1, Text: "a"}},
		ProjectID:  Ptr("p1"),
		AssigneeID: Ptr(int64(2)),
	}
	c := orig.Clone()
	c.Subtasks[0].Done = true
	*c.ProjectID = "p2"
	*c.AssigneeID = 9

	assert.False(t, orig.Subtasks[0].Done)
	assert.Equal(t, "p1", *orig.ProjectID)
	assert.EqualValues(t, 2, *orig.AssigneeID)
}

func TestTaskCreated(t *testing.T) {
	assert.Equal(t, time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC),
		Task{CreatedAt: "2026-10-12T09:00:00"}.Created())
	assert.Equal(t, time.Date(2026, 10, 12, 9, 0, 0, 500000000, time.UTC),
		Task{CreatedAt: "2026-10-12T09:00:00.500000"}.Created())
	assert.True(t, Task{CreatedAt: "yesterday"}.Created().IsZero())
}

func TestUserOwnsAndClone(t *testing.T) {
	u := User{Inventory: []string{"hat"}}
	assert.True(t, u.Owns("hat"))
	assert.False(t, u.Owns("cape"))

	c := u.Clone()
	c.Inventory[0] = "cape"
	assert.Equal(t, "hat", u.Inventory[0])
}
