package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tgienger/coreterra/internal/api"
	"github.com/tgienger/coreterra/internal/db"
	"github.com/tgienger/coreterra/internal/mockapi"
	"github.com/tgienger/coreterra/internal/models"
	"github.com/tgienger/coreterra/internal/nav"
	"github.com/tgienger/coreterra/internal/session"
	"github.com/tgienger/coreterra/internal/state"
	"github.com/tgienger/coreterra/internal/ui/views"
)

// harness runs an App the way tea.Program would: every command runs in its
// own goroutine and its message is fed back into Update.
type harness struct {
	t       *testing.T
	app     *App
	backend *mockapi.Server
	db      *db.DB
	store   *state.Store
	pending []chan tea.Msg
}

func newHarness(t *testing.T, signedIn bool) *harness {
	t.Helper()
	backend, err := mockapi.New(mockapi.DefaultSeed(), mockapi.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	database, err := db.Open(filepath.Join(t.TempDir(), "coreterra.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	if signedIn {
		token, err := backend.IssueToken(mockapi.DefaultUsername, time.Hour)
		require.NoError(t, err)
		require.NoError(t, database.SetToken(token))
	}

	client, err := api.New(srv.URL, database)
	require.NoError(t, err)
	sess := session.New(client)
	store := state.New(client, state.WithNotifier(database))

	app := NewApp(context.Background(), client, sess, store, database,
		WithClock(func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC) }))
	t.Cleanup(app.Close)

	h := &harness{t: t, app: app, backend: backend, db: database, store: store}
	h.deliver(tea.WindowSizeMsg{Width: 100, Height: 40})
	return h
}

func (h *harness) start(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	h.pending = append(h.pending, ch)
}

// next waits up to quiet for any pending command to produce a message
func (h *harness) next(quiet time.Duration) (tea.Msg, bool) {
	deadline := time.Now().Add(quiet)
	for time.Now().Before(deadline) {
		for i, ch := range h.pending {
			select {
			case msg := <-ch:
				h.pending = append(h.pending[:i], h.pending[i+1:]...)
				return msg, true
			default:
			}
		}
		time.Sleep(time.Millisecond)
	}
	return nil, false
}

func (h *harness) deliver(msg tea.Msg) {
	switch m := msg.(type) {
	case nil:
		return
	case tea.BatchMsg:
		for _, c := range m {
			h.start(c)
		}
		return
	}
	_, cmd := h.app.Update(msg)
	h.start(cmd)
}

// settle processes messages until nothing arrives for a while
func (h *harness) settle() {
	for i := 0; i < 1000; i++ {
		msg, ok := h.next(150 * time.Millisecond)
		if !ok {
			return
		}
		h.deliver(msg)
	}
	h.t.Fatal("app never settled")
}

func (h *harness) boot() {
	h.start(h.app.Init())
	h.settle()
}

func (h *harness) send(msg tea.Msg) {
	h.deliver(msg)
	h.settle()
}

func (h *harness) typeText(s string) {
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (h *harness) press(k tea.KeyType) {
	h.send(tea.KeyMsg{Type: k})
}

func (h *harness) key(r rune) {
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

func TestStartsOnLoginWithoutToken(t *testing.T) {
	h := newHarness(t, false)
	h.boot()

	assert.Equal(t, nav.RouteLogin, h.app.Route())
	assert.Contains(t, h.app.View(), "Sign in")
}

func TestLoginOpensHomeAndLoadsState(t *testing.T) {
	h := newHarness(t, false)
	h.boot()

	h.typeText(mockapi.DefaultUsername)
	h.press(tea.KeyTab)
	h.typeText(mockapi.DefaultPassword)
	h.press(tea.KeyEnter)

	assert.Equal(t, nav.RouteHome, h.app.Route())
	snap := h.store.Snapshot()
	assert.Len(t, snap.Tasks, 6)
	require.NotNil(t, snap.User)
	assert.Equal(t, "Alex Rivera", snap.User.Name)

	token, err := h.db.Token()
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestWrongPasswordStaysOnLogin(t *testing.T) {
	h := newHarness(t, false)
	h.boot()

	h.typeText(mockapi.DefaultUsername)
	h.press(tea.KeyTab)
	h.typeText("nope")
	h.press(tea.KeyEnter)

	assert.Equal(t, nav.RouteLogin, h.app.Route())
	assert.Contains(t, h.app.View(), "Incorrect username or password")
}

func TestRestoresLastRoute(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.db.SetLastRoute(nav.RouteInbox))
	h.boot()

	assert.Equal(t, nav.RouteInbox, h.app.Route())
	assert.Contains(t, h.app.View(), "Reply to design review thread")
}

func TestGuardKeepsSignedOutUsersOnLogin(t *testing.T) {
	h := newHarness(t, false)
	h.boot()

	h.send(views.Navigate{Route: nav.RouteShop})
	assert.Equal(t, nav.RouteLogin, h.app.Route())

	h.app.Navigate(nav.RouteProfile)
	h.settle()
	assert.Equal(t, nav.RouteLogin, h.app.Route())
}

func TestNavigationIsPersisted(t *testing.T) {
	h := newHarness(t, true)
	h.boot()
	require.Equal(t, nav.RouteHome, h.app.Route())

	h.send(views.Navigate{Route: nav.RouteCalendar})
	assert.Equal(t, nav.RouteCalendar, h.app.Route())
	assert.Equal(t, nav.RouteCalendar, h.db.LastRoute())
	assert.Contains(t, h.app.View(), "October 2026")
}

func TestUnauthorizedResponseReturnsToLogin(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.db.SetLastRoute(nav.RouteInbox))
	h.boot()
	require.Equal(t, nav.RouteInbox, h.app.Route())

	h.backend.Fail(http.MethodGet, "/api/tasks", http.StatusUnauthorized)
	h.key('r')

	assert.Equal(t, nav.RouteLogin, h.app.Route())
	token, err := h.db.Token()
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.False(t, h.app.deps.Session.IsAuthenticated())
}

func TestCaptureFromInbox(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.db.SetLastRoute(nav.RouteInbox))
	h.boot()

	h.key('n')
	h.typeText("Buy milk")
	h.press(tea.KeyCtrlS)

	inbox := h.store.TasksByStatus(models.StatusInbox)
	require.NotEmpty(t, inbox)
	assert.Equal(t, "Buy milk", inbox[0].Title)
	assert.Contains(t, h.app.View(), "Buy milk")
}

func TestProcessInboxItemAsDelegated(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.db.SetLastRoute(nav.RouteInbox))
	h.boot()

	h.key('w')

	task, ok := h.backend.Task(1)
	require.True(t, ok)
	assert.Equal(t, models.StatusWaiting, task.Status)
}

func TestCompleteFromEngageRecordsNotifications(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.db.SetLastRoute(nav.RouteEngage))
	h.boot()
	require.Equal(t, nav.RouteEngage, h.app.Route())

	// first actionable task is "Refactor auth module" worth 200 XP,
	// enough to take the seeded user from 320/500 to a new level
	h.key('c')

	task, ok := h.store.Task(3)
	require.True(t, ok)
	assert.Equal(t, models.StatusCompleted, task.Status)

	u, ok := h.store.User()
	require.True(t, ok)
	assert.Equal(t, 6, u.Level)

	// the session sees the same refreshed user as the store
	su, ok := h.app.deps.Session.User()
	require.True(t, ok)
	assert.Equal(t, u, su)

	notes, err := h.db.ListNotifications(0)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, 2, h.app.unread)
}

func TestClarifyInboxItem(t *testing.T) {
	h := newHarness(t, true)
	h.boot()

	h.send(views.Navigate{Route: nav.RouteClarify, TaskID: 1})
	require.Equal(t, nav.RouteClarify, h.app.Route())

	h.typeText("Draft outline")
	h.press(tea.KeyEnter)
	h.typeText("Send it")
	h.press(tea.KeyTab)
	h.press(tea.KeyRight) // Med -> Hard
	h.press(tea.KeyTab)
	h.press(tea.KeyRight) // 30m -> 1h
	h.press(tea.KeyCtrlS)

	assert.Equal(t, nav.RouteOrganize, h.app.Route())
	task, ok := h.backend.Task(1)
	require.True(t, ok)
	assert.Equal(t, models.StatusClarified, task.Status)
	assert.Equal(t, models.DifficultyHard, task.Difficulty)
	assert.Equal(t, models.Duration1h, task.EstimatedTime)
	assert.Equal(t, 200, task.XPReward)
	require.Len(t, task.Subtasks, 2)
	assert.Equal(t, "Draft outline", task.Subtasks[0].Text)
	assert.Equal(t, "Send it", task.Subtasks[1].Text)
}

func TestStaleSnapshotIsDropped(t *testing.T) {
	h := newHarness(t, true)
	h.boot()

	user, ok := h.store.User()
	require.True(t, ok)
	newer, older := user.Clone(), user.Clone()
	newer.Gold, older.Gold = 700, 10

	h.app.onSnapshot(state.Snapshot{Version: 1000, User: &newer})
	h.app.onSnapshot(state.Snapshot{Version: 999, User: &older})

	su, ok := h.app.deps.Session.User()
	require.True(t, ok)
	assert.Equal(t, 700, su.Gold)
	assert.EqualValues(t, 1000, h.app.snapVersion)
}

func TestSnapshotAfterLogoutDoesNotSignIn(t *testing.T) {
	h := newHarness(t, true)
	h.boot()
	require.True(t, h.app.deps.Session.IsAuthenticated())

	user, ok := h.store.User()
	require.True(t, ok)

	// a publish from a request still in flight when the user signed out
	h.app.deps.Session.Logout()
	h.app.onSnapshot(state.Snapshot{Version: 1000, User: &user})
	assert.False(t, h.app.deps.Session.IsAuthenticated())
}
