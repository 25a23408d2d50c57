package state

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tgienger/coreterra/internal/api"
	"github.com/tgienger/coreterra/internal/dnd"
	"github.com/tgienger/coreterra/internal/mockapi"
	"github.com/tgienger/coreterra/internal/models"
	"github.com/tgienger/coreterra/internal/workflow"
)

type notes struct {
	mu   sync.Mutex
	list []models.Notification
}

func (n *notes) AddNotification(note models.Notification) (*models.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.list = append(n.list, note)
	return &note, nil
}

func (n *notes) kinds() []models.NotificationKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []models.NotificationKind
	for _, note := range n.list {
		out = append(out, note.Kind)
	}
	return out
}

type fixture struct {
	backend *mockapi.Server
	store   *Store
	notes   *notes
}

func setup(t *testing.T) *fixture {
	t.Helper()
	backend, err := mockapi.New(mockapi.DefaultSeed(), mockapi.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	token, err := backend.IssueToken(mockapi.DefaultUsername, time.Hour)
	require.NoError(t, err)
	client, err := api.New(srv.URL, api.NewMemoryTokens(token))
	require.NoError(t, err)

	n := &notes{}
	return &fixture{backend: backend, store: New(client, WithNotifier(n)), notes: n}
}

func loaded(t *testing.T) *fixture {
	t.Helper()
	f := setup(t)
	require.NoError(t, f.store.Load(context.Background()))
	return f
}

func TestLoad(t *testing.T) {
	f := setup(t)
	assert.True(t, f.store.Loading())

	require.NoError(t, f.store.Load(context.Background()))
	snap := f.store.Snapshot()
	assert.False(t, snap.Loading)
	assert.Len(t, snap.Tasks, 6)
	assert.Len(t, snap.Projects, 2)
	require.NotNil(t, snap.User)
	assert.Equal(t, 150, snap.User.Gold)
}

func TestLoadWithOneFailingCollection(t *testing.T) {
	f := setup(t)
	f.backend.Fail(http.MethodGet, "/api/projects", http.StatusInternalServerError)

	err := f.store.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, api.KindServer, api.KindOf(err))

	snap := f.store.Snapshot()
	assert.False(t, snap.Loading)
	assert.Len(t, snap.Tasks, 6)
	assert.Empty(t, snap.Projects)
	assert.NotNil(t, snap.User)
}

func TestRefreshFailureKeepsStaleData(t *testing.T) {
	f := loaded(t)
	before := f.store.Snapshot()

	f.backend.Fail(http.MethodGet, "/api/tasks", http.StatusInternalServerError)
	f.backend.Fail(http.MethodGet, "/api/users/me", http.StatusBadGateway)

	assert.Error(t, f.store.RefreshTasks(context.Background()))
	assert.Error(t, f.store.RefreshUser(context.Background()))
	assert.Equal(t, before, f.store.Snapshot())

	select {
	case err := <-f.store.Fatal():
		t.Fatalf("server errors are not fatal: %v", err)
	default:
	}
}

func TestTransportFailureGoesToFatalChannel(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := api.New(url, nil)
	require.NoError(t, err)
	s := New(client)

	err = s.RefreshTasks(context.Background())
	require.Error(t, err)

	select {
	case fatal := <-s.Fatal():
		assert.True(t, api.IsFatal(fatal))
	default:
		t.Fatal("expected a fatal error")
	}
}

func TestCreateTaskPrepends(t *testing.T) {
	f := loaded(t)

	created, err := f.store.CreateTask(context.Background(), models.TaskDraft{Title: "  Buy milk  "})
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", created.Title)
	assert.Equal(t, models.StatusInbox, created.Status)

	snap := f.store.Snapshot()
	require.Len(t, snap.Tasks, 7)
	assert.Equal(t, created.ID, snap.Tasks[0].ID)
}

func TestCreateTaskValidation(t *testing.T) {
	f := loaded(t)
	_, err := f.store.CreateTask(context.Background(), models.TaskDraft{Title: "   "})
	require.Error(t, err)
	assert.Zero(t, f.backend.Calls(http.MethodPost, "/api/tasks"))
	assert.Len(t, f.store.Snapshot().Tasks, 6)
}

func TestCreateTaskFailurePropagates(t *testing.T) {
	f := loaded(t)
	f.backend.Fail(http.MethodPost, "/api/tasks", http.StatusUnprocessableEntity)

	_, err := f.store.CreateTask(context.Background(), models.TaskDraft{Title: "x"})
	assert.True(t, api.IsRejected(err))
	assert.Len(t, f.store.Snapshot().Tasks, 6)
}

func TestUpdateTaskIsWriteThrough(t *testing.T) {
	f := loaded(t)
	f.backend.OnTaskWrite(func(task *models.Task) {
		if task.Status == models.StatusCompleted {
			task.XPReward = 999
		}
	})

	updated, err := f.store.UpdateTask(context.Background(), 4, models.TaskPatch{
		Status: models.Ptr(models.StatusCompleted),
	})
	require.NoError(t, err)
	assert.Equal(t, 999, updated.XPReward)

	cached, ok := f.store.Task(4)
	require.True(t, ok)
	assert.Equal(t, models.StatusCompleted, cached.Status)
	assert.Equal(t, 999, cached.XPReward, "cache holds the server's representation")
	assert.Equal(t, "Update onboarding docs", cached.Title)
}

func TestUpdateTaskFailureLeavesState(t *testing.T) {
	f := loaded(t)
	before, _ := f.store.Task(2)
	f.backend.Fail(http.MethodPut, "/api/tasks/:id", http.StatusInternalServerError)

	_, err := f.store.UpdateTask(context.Background(), 2, models.TaskPatch{Title: models.Ptr("renamed")})
	require.Error(t, err)

	after, _ := f.store.Task(2)
	assert.Equal(t, before, after)
}

func TestUpdateTaskNotFoundDropsTask(t *testing.T) {
	f := loaded(t)
	f.backend.Fail(http.MethodPut, "/api/tasks/:id", http.StatusNotFound)

	_, err := f.store.UpdateTask(context.Background(), 2, models.TaskPatch{Title: models.Ptr("renamed")})
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))

	_, ok := f.store.Task(2)
	assert.False(t, ok, "a task the backend no longer has leaves the cache")
	assert.Len(t, f.store.Snapshot().Tasks, 5)
}

func TestUpdateTaskRejectsForbiddenTransition(t *testing.T) {
	f := loaded(t)

	_, err := f.store.UpdateTask(context.Background(), 1, models.TaskPatch{
		Status: models.Ptr(models.StatusCompleted),
	})
	var te *workflow.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, models.StatusInbox, te.From)
	assert.Zero(t, f.backend.Calls(http.MethodPut, "/api/tasks/:id"))
}

func TestDeleteTask(t *testing.T) {
	f := loaded(t)

	f.backend.Fail(http.MethodDelete, "/api/tasks/:id", http.StatusInternalServerError)
	require.Error(t, f.store.DeleteTask(context.Background(), 2))
	_, ok := f.store.Task(2)
	assert.True(t, ok, "task stays after a failed delete")

	f.backend.Clear()
	require.NoError(t, f.store.DeleteTask(context.Background(), 2))
	_, ok = f.store.Task(2)
	assert.False(t, ok)
}

func TestCompleteTask(t *testing.T) {
	f := loaded(t)

	fb, err := f.store.CompleteTask(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 20, fb.XP)
	assert.Equal(t, 10, fb.Gold)
	assert.False(t, fb.LeveledUp)
	assert.Equal(t, "+20 XP  +10 G", fb.Message())

	task, _ := f.store.Task(4)
	assert.Equal(t, models.StatusCompleted, task.Status)

	u, _ := f.store.User()
	assert.Equal(t, 340, u.CurrentXP)
	assert.Equal(t, 160, u.Gold)
	assert.Equal(t, []models.NotificationKind{models.NotifyReward}, f.notes.kinds())

	_, err = f.store.CompleteTask(context.Background(), 4)
	assert.Error(t, err, "completing twice is refused")
}

func TestCompleteTaskLevelUp(t *testing.T) {
	f := loaded(t)

	fb, err := f.store.CompleteTask(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, fb.LeveledUp)
	assert.Equal(t, 6, fb.Level)

	u, _ := f.store.User()
	assert.Equal(t, 6, u.Level)
	assert.Equal(t, 0, u.CurrentXP)
	assert.Equal(t, 600, u.MaxXP)
	assert.Contains(t, f.notes.kinds(), models.NotifyLevelUp)
}

func TestCompleteTaskFromInboxIsRefused(t *testing.T) {
	f := loaded(t)
	_, err := f.store.CompleteTask(context.Background(), 1)
	var te *workflow.TransitionError
	assert.ErrorAs(t, err, &te)
	assert.Zero(t, f.backend.Calls(http.MethodPost, "/api/tasks/:id/complete"))

	_, err = f.store.CompleteTask(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestToggleSubtask(t *testing.T) {
	f := loaded(t)
	ctx := context.Background()

	fb, err := f.store.ToggleSubtask(ctx, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, 10, fb.XP)
	assert.False(t, fb.AllDone)

	task, _ := f.store.Task(3)
	assert.Equal(t, 75, task.ProgressValue())
	server, _ := f.backend.Task(3)
	assert.Equal(t, 75, server.ProgressValue())

	fb, err = f.store.ToggleSubtask(ctx, 3, 3)
	require.NoError(t, err)
	assert.Zero(t, fb.XP, "unchecking earns nothing")
	task, _ = f.store.Task(3)
	assert.Equal(t, 50, task.ProgressValue())

	_, err = f.store.ToggleSubtask(ctx, 3, 3)
	require.NoError(t, err)
	fb, err = f.store.ToggleSubtask(ctx, 3, 4)
	require.NoError(t, err)
	assert.True(t, fb.AllDone)

	_, err = f.store.ToggleSubtask(ctx, 3, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestToggleSubtaskFeedbackWaitsForServer(t *testing.T) {
	f := loaded(t)
	f.backend.Fail(http.MethodPut, "/api/tasks/:id", http.StatusInternalServerError)

	fb, err := f.store.ToggleSubtask(context.Background(), 3, 3)
	require.Error(t, err)
	assert.Equal(t, Feedback{}, fb)

	task, _ := f.store.Task(3)
	assert.Equal(t, 50, task.ProgressValue())
	assert.False(t, task.Subtasks[2].Done)
}

func TestClarify(t *testing.T) {
	f := loaded(t)

	task, err := f.store.Clarify(context.Background(), 1, Clarification{
		Subtasks:      []string{"Draft reply", "", "  Send  "},
		Difficulty:    models.DifficultyHard,
		EstimatedTime: models.Duration1h,
		ProjectID:     "p1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusClarified, task.Status)
	assert.Equal(t, 200, task.XPReward)
	require.NotNil(t, task.GoldReward)
	assert.Equal(t, 100, *task.GoldReward)
	require.Len(t, task.Subtasks, 2)
	assert.Equal(t, "Send", task.Subtasks[1].Text)
	require.NotNil(t, task.ProjectID)
	assert.Equal(t, "p1", *task.ProjectID)
}

func TestDrop(t *testing.T) {
	f := loaded(t)
	ctx := context.Background()

	target, err := dnd.ParseTarget("project-p2")
	require.NoError(t, err)
	task, err := f.store.Drop(ctx, dnd.TaskPayload(1, "inbox"), target)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOrganized, task.Status)
	require.NotNil(t, task.ProjectID)
	assert.Equal(t, "p2", *task.ProjectID)

	member, err := dnd.ParseTarget("member-2")
	require.NoError(t, err)
	task, err = f.store.Drop(ctx, dnd.TaskPayload(1, "organize"), member)
	require.NoError(t, err)
	require.NotNil(t, task.AssigneeID)

	unassign, err := dnd.ParseTarget("unassign")
	require.NoError(t, err)
	task, err = f.store.Drop(ctx, dnd.TaskPayload(1, "team"), unassign)
	require.NoError(t, err)
	assert.Nil(t, task.AssigneeID)

	_, err = f.store.Drop(ctx, dnd.Payload{Kind: "note", ID: 1, Source: "x"}, target)
	var pe *dnd.PayloadError
	assert.ErrorAs(t, err, &pe)
}

func TestProjects(t *testing.T) {
	f := loaded(t)
	ctx := context.Background()

	p, err := f.store.CreateProject(ctx, models.ProjectDraft{Title: "Garden"})
	require.NoError(t, err)
	assert.Equal(t, "p3", p.ID)

	_, err = f.store.UpdateProject(ctx, p.ID, models.ProjectPatch{Progress: models.Ptr(30)})
	require.NoError(t, err)
	cached, ok := f.store.Project(p.ID)
	require.True(t, ok)
	assert.Equal(t, 30, cached.Progress)
	assert.Equal(t, "Garden", cached.Title)

	require.NoError(t, f.store.DeleteProject(ctx, p.ID))
	_, ok = f.store.Project(p.ID)
	assert.False(t, ok)
}

func TestUpdateProfile(t *testing.T) {
	f := loaded(t)
	u, err := f.store.UpdateProfile(context.Background(), models.UserPatch{Name: models.Ptr("Alex R.")})
	require.NoError(t, err)
	assert.Equal(t, "Alex R.", u.Name)
	cached, _ := f.store.User()
	assert.Equal(t, "Alex R.", cached.Name)
	assert.Equal(t, 5, cached.Level)
}

func TestBuyItem(t *testing.T) {
	f := loaded(t)
	ctx := context.Background()
	potion := models.ShopItem{ID: "potion-focus", Name: "Focus Potion", Cost: 50}

	_, err := f.store.BuyItem(ctx, potion)
	require.NoError(t, err)
	u, _ := f.store.User()
	assert.Equal(t, 100, u.Gold)
	assert.Equal(t, []string{"potion-focus"}, u.Inventory)
	assert.Equal(t, []models.NotificationKind{models.NotifyPurchase}, f.notes.kinds())
}

func TestBuyItemWithoutEnoughGold(t *testing.T) {
	f := setup(t)
	f.backend.SetGold(1, 10)
	require.NoError(t, f.store.Load(context.Background()))

	_, err := f.store.BuyItem(context.Background(), models.ShopItem{ID: "potion-focus", Name: "Focus Potion", Cost: 50})
	assert.ErrorIs(t, err, ErrNotEnoughGold)
	assert.Zero(t, f.backend.Calls(http.MethodPost, "/api/gamification/shop/:id/buy"))
}

func TestBuyItemRejectedByServer(t *testing.T) {
	f := loaded(t)
	// the cache still believes the user has 150 gold
	f.backend.SetGold(1, 0)

	_, err := f.store.BuyItem(context.Background(), models.ShopItem{ID: "potion-focus", Cost: 50})
	assert.True(t, api.IsRejected(err))
	assert.False(t, errors.Is(err, ErrNotEnoughGold))
}

func TestSubscribers(t *testing.T) {
	f := setup(t)

	var order []string
	var last Snapshot
	cancelA := f.store.Subscribe(func(s Snapshot) {
		order = append(order, "a")
		last = s
	})
	defer cancelA()
	cancelB := f.store.Subscribe(func(Snapshot) { order = append(order, "b") })

	require.NoError(t, f.store.RefreshTasks(context.Background()))
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Len(t, last.Tasks, 6)

	cancelB()
	order = nil
	_, err := f.store.CreateTask(context.Background(), models.TaskDraft{Title: "new"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, order)
	assert.Len(t, last.Tasks, 7)

	last.Tasks[0].Title = "mutated"
	task, _ := f.store.Task(last.Tasks[0].ID)
	assert.Equal(t, "new", task.Title, "snapshots are copies")
}

func TestTasksByStatus(t *testing.T) {
	f := loaded(t)
	inbox := f.store.TasksByStatus(models.StatusInbox)
	assert.Len(t, inbox, 2)
	actionable := f.store.TasksByStatus(models.StatusClarified, models.StatusOrganized, models.StatusScheduled)
	assert.Len(t, actionable, 2)
}

func TestSnapshotVersions(t *testing.T) {
	f := loaded(t)

	var mu sync.Mutex
	var delivered []Snapshot
	cancel := f.store.Subscribe(func(s Snapshot) {
		mu.Lock()
		delivered = append(delivered, s)
		mu.Unlock()
	})
	defer cancel()

	start := f.store.Snapshot().Version
	var wg sync.WaitGroup
	for id := int64(1); id <= 6; id++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := f.store.UpdateTask(context.Background(), id, models.TaskPatch{Title: models.Ptr(fmt.Sprintf("renamed %d", id))})
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	final := f.store.Snapshot()
	require.Len(t, delivered, 6)
	assert.Equal(t, start+6, final.Version)

	seen := map[uint64]bool{}
	var newest Snapshot
	for _, s := range delivered {
		assert.False(t, seen[s.Version], "versions are unique")
		seen[s.Version] = true
		if s.Version > newest.Version {
			newest = s
		}
	}
	assert.Equal(t, final, newest, "the highest version is the current state")
}
