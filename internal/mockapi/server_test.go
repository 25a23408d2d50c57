package mockapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tgienger/coreterra/internal/models"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(DefaultSeed(), WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	return s
}

func bearer(t *testing.T, s *Server) string {
	t.Helper()
	token, err := s.IssueToken(DefaultUsername, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(t *testing.T, s *Server, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "DEMO", "password": DefaultPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "bearer", body["token_type"])
	assert.EqualValues(t, 1, body["user_id"])

	rec = do(t, s, http.MethodGet, "/api/auth/me", "Bearer "+body["access_token"].(string), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]any](t, rec)
	assert.Equal(t, DefaultUsername, me["username"])
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": DefaultUsername, "password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "Incorrect username or password", decode[map[string]string](t, rec)["detail"])
}

func TestRoutesRequireValidToken(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/tasks", "Bearer not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other, err := New(DefaultSeed(), WithBcryptCost(bcrypt.MinCost), WithSecret("different"))
	require.NoError(t, err)
	rec = do(t, s, http.MethodGet, "/api/tasks", bearer(t, other), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExpiredToken(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	s, err := New(DefaultSeed(), WithBcryptCost(bcrypt.MinCost), WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	token, err := s.IssueToken(DefaultUsername, time.Minute)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	rec := do(t, s, http.MethodGet, "/api/tasks", "Bearer "+token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListTasksFiltersByStatus(t *testing.T) {
	s := newTestServer(t)
	auth := bearer(t, s)

	rec := do(t, s, http.MethodGet, "/api/tasks?status=inbox", auth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tasks := decode[[]models.Task](t, rec)
	require.Len(t, tasks, 2)
	for _, task := range tasks {
		assert.Equal(t, models.StatusInbox, task.Status)
	}

	rec = do(t, s, http.MethodGet, "/api/tasks?status=someday", auth, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateTaskAssignsNextID(t *testing.T) {
	s := newTestServer(t)
	auth := bearer(t, s)

	rec := do(t, s, http.MethodPost, "/api/tasks", auth, models.TaskDraft{Title: "Buy milk"})
	require.Equal(t, http.StatusCreated, rec.Code)
	task := decode[models.Task](t, rec)
	assert.EqualValues(t, 7, task.ID)
	assert.Equal(t, models.StatusInbox, task.Status)
	assert.NotEmpty(t, task.CreatedAt)

	rec = do(t, s, http.MethodPost, "/api/tasks", auth, models.TaskDraft{Title: "   "})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUpdateTaskMergesPatch(t *testing.T) {
	s := newTestServer(t)
	auth := bearer(t, s)

	rec := do(t, s, http.MethodPut, "/api/tasks/1", auth, models.TaskPatch{
		Status:     models.Ptr(models.StatusWaiting),
		AssigneeID: models.Ptr(int64(2)),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	task := decode[models.Task](t, rec)
	assert.Equal(t, "Reply to design review thread", task.Title)
	assert.Equal(t, models.StatusWaiting, task.Status)
	require.NotNil(t, task.AssigneeID)
	assert.EqualValues(t, 2, *task.AssigneeID)

	rec = do(t, s, http.MethodPut, "/api/tasks/1", auth, models.TaskPatch{ClearAssignee: true})
	require.Equal(t, http.StatusOK, rec.Code)
	stored, ok := s.Task(1)
	require.True(t, ok)
	assert.Nil(t, stored.AssigneeID)
	assert.Equal(t, models.StatusWaiting, stored.Status)

	rec = do(t, s, http.MethodPut, "/api/tasks/1", auth, map[string]string{"status": "someday"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, s, http.MethodPut, "/api/tasks/404", auth, models.TaskPatch{Title: models.Ptr("x")})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompletePaysRewardAndLevelsUp(t *testing.T) {
	s := newTestServer(t)
	auth := bearer(t, s)

	rec := do(t, s, http.MethodPost, "/api/tasks/3/complete", auth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusCompleted, decode[models.Task](t, rec).Status)

	u, ok := s.User(1)
	require.True(t, ok)
	assert.Equal(t, 6, u.Level)
	assert.Equal(t, 0, u.CurrentXP)
	assert.Equal(t, 600, u.MaxXP)
	assert.Equal(t, 250, u.Gold)
}

func TestCompleteWithoutRewardUsesDefault(t *testing.T) {
	s := newTestServer(t)
	auth := bearer(t, s)

	rec := do(t, s, http.MethodPost, "/api/tasks/1/complete", auth, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	u, _ := s.User(1)
	assert.Equal(t, 5, u.Level)
	assert.Equal(t, 320+DefaultCompleteXP, u.CurrentXP)
	assert.Equal(t, 150+DefaultCompleteXP/2, u.Gold)
}

func TestBuy(t *testing.T) {
	s := newTestServer(t)
	auth := bearer(t, s)

	rec := do(t, s, http.MethodPost, "/api/gamification/shop/potion-focus/buy", auth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Purchased Focus Potion", decode[map[string]any](t, rec)["message"])

	u, _ := s.User(1)
	assert.Equal(t, 100, u.Gold)
	assert.Equal(t, []string{"potion-focus"}, u.Inventory)

	rec = do(t, s, http.MethodPost, "/api/gamification/shop/streak-freeze/buy", auth, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Not enough gold", decode[map[string]string](t, rec)["detail"])

	rec = do(t, s, http.MethodPost, "/api/gamification/shop/unicorn/buy", auth, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFaultsAndCalls(t *testing.T) {
	s := newTestServer(t)
	auth := bearer(t, s)

	s.Fail(http.MethodGet, "/api/tasks/:id", http.StatusServiceUnavailable)
	rec := do(t, s, http.MethodGet, "/api/tasks/1", auth, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/tasks", auth, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	s.Clear()
	rec = do(t, s, http.MethodGet, "/api/tasks/1", auth, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 2, s.Calls(http.MethodGet, "/api/tasks/:id"))
	assert.Equal(t, 1, s.Calls(http.MethodGet, "/api/tasks"))
}

func TestOnTaskWrite(t *testing.T) {
	s := newTestServer(t)
	auth := bearer(t, s)
	s.OnTaskWrite(func(task *models.Task) {
		task.XPReward = 99
	})

	rec := do(t, s, http.MethodPost, "/api/tasks", auth, models.TaskDraft{Title: "Hooked"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 99, decode[models.Task](t, rec).XPReward)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodGet, "/health", "", nil)

	rec := do(t, s, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `coreterra_mock_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestParseSeed(t *testing.T) {
	raw := []byte(`
accounts:
  - username: sam
    password: hunter2
    user:
      id: 7
      name: Sam
      level: 2
      currentXP: 40
      maxXP: 100
      gold: 10
tasks:
  - id: 1
    title: Water plants
    status: inbox
    xpReward: 20
shop:
  - id: hat
    name: Hat
    cost: 5
`)
	seed, err := ParseSeed(raw)
	require.NoError(t, err)
	require.Len(t, seed.Accounts, 1)
	assert.Equal(t, "sam", seed.Accounts[0].Username)
	assert.EqualValues(t, 7, seed.Accounts[0].User.ID)
	assert.Equal(t, 40, seed.Accounts[0].User.CurrentXP)
	require.Len(t, seed.Tasks, 1)
	assert.Equal(t, 20, seed.Tasks[0].XPReward)
	assert.Equal(t, models.StatusInbox, seed.Tasks[0].Status)
	assert.Equal(t, 5, seed.Shop[0].Cost)

	s, err := New(seed, WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	rec := do(t, s, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "sam", "password": "hunter2"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestParseSeedRejectsGarbage(t *testing.T) {
	_, err := ParseSeed([]byte("tasks: [unclosed"))
	assert.Error(t, err)

	_, err = ParseSeed([]byte("tasks: {title: 3}"))
	assert.Error(t, err)
}
