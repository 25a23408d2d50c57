package ui

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/coreterra/internal/api"
	"github.com/tgienger/coreterra/internal/db"
	"github.com/tgienger/coreterra/internal/logging"
	"github.com/tgienger/coreterra/internal/nav"
	"github.com/tgienger/coreterra/internal/session"
	"github.com/tgienger/coreterra/internal/state"
	"github.com/tgienger/coreterra/internal/ui/styles"
	"github.com/tgienger/coreterra/internal/ui/views"
)

const flashTTL = 4 * time.Second

type restoredMsg struct{ err error }
type loadedMsg struct{ err error }
type fatalMsg struct{ err error }
type clearFlashMsg struct{ seq int }

// navRequestMsg is a navigation that arrived through Navigate
type navRequestMsg struct{ views.Navigate }

// App routes between screens. It is the Navigator the API client calls
// when the backend rejects the session.
type App struct {
	deps   views.Deps
	styles *styles.Styles
	log    *slog.Logger
	now    func() time.Time

	route  nav.Route
	screen tea.Model
	ready  bool
	width  int
	height int

	flash    views.Flash
	flashSeq int
	unread   int

	navCh  chan views.Navigate
	snapCh chan state.Snapshot

	snapMu      sync.Mutex
	snapVersion uint64

	stopStore   func()
	stopSession func()
}

// Option configures an App
type Option func(*App)

// WithClock replaces time.Now (the calendar opens on the current month)
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// NewApp wires the app to the client, session, store and local db and
// registers itself as the client's navigator
func NewApp(ctx context.Context, client *api.Client, sess *session.Session, store *state.Store, database *db.DB, opts ...Option) *App {
	a := &App{
		deps: views.Deps{
			Ctx:     ctx,
			Client:  client,
			Session: sess,
			Store:   store,
			DB:      database,
		},
		styles: styles.NewStyles(),
		log:    logging.UI(),
		now:    time.Now,
		navCh:  make(chan views.Navigate, 8),
		snapCh: make(chan state.Snapshot, 1),
	}
	for _, opt := range opts {
		opt(a)
	}
	client.SetNavigator(a)
	a.stopStore = store.Subscribe(a.onSnapshot)
	a.stopSession = sess.Subscribe(func(st session.Status) {
		if !st.Authenticated && !st.Loading {
			a.Navigate(nav.RouteLogin)
		}
	})
	return a
}

// Navigate may be called from any goroutine
func (a *App) Navigate(r nav.Route) {
	select {
	case a.navCh <- views.Navigate{Route: r}:
	default:
		a.log.Warn("navigation dropped", "route", r)
	}
}

// Route is the screen currently shown
func (a *App) Route() nav.Route { return a.route }

// Close detaches the app from the store and session
func (a *App) Close() {
	a.stopStore()
	a.stopSession()
}

// onSnapshot forwards a store snapshot to the UI and hands the refreshed
// user to the session so both hold the same copy. Snapshots older than the
// last one seen are dropped.
func (a *App) onSnapshot(s state.Snapshot) {
	a.snapMu.Lock()
	defer a.snapMu.Unlock()
	if s.Version < a.snapVersion {
		a.log.Debug("stale snapshot dropped", "version", s.Version, "have", a.snapVersion)
		return
	}
	a.snapVersion = s.Version
	a.pushSnapshot(s)
	if s.User != nil {
		a.deps.Session.SetUser(*s.User)
	}
}

// pushSnapshot keeps only the newest snapshot waiting for the UI
func (a *App) pushSnapshot(s state.Snapshot) {
	select {
	case a.snapCh <- s:
		return
	default:
	}
	select {
	case <-a.snapCh:
	default:
	}
	select {
	case a.snapCh <- s:
	default:
	}
}

func (a *App) waitNav() tea.Msg { return navRequestMsg{<-a.navCh} }

func (a *App) waitSnapshot() tea.Msg { return views.Snapshot{Snapshot: <-a.snapCh} }

func (a *App) waitFatal() tea.Msg {
	err, ok := <-a.deps.Store.Fatal()
	if !ok {
		return nil
	}
	return fatalMsg{err: err}
}

func (a *App) Init() tea.Cmd {
	ctx, sess := a.deps.Ctx, a.deps.Session
	return tea.Batch(
		a.waitNav,
		a.waitSnapshot,
		a.waitFatal,
		func() tea.Msg { return restoredMsg{err: sess.Restore(ctx)} },
	)
}

func (a *App) load() tea.Msg {
	return loadedMsg{err: a.deps.Store.Load(a.deps.Ctx)}
}

// open switches to route after applying the auth guard
func (a *App) open(req views.Navigate) tea.Cmd {
	route := nav.Guard(a.deps.Session.IsAuthenticated(), req.Route)
	if route != req.Route {
		a.log.Debug("route guarded", "requested", req.Route, "route", route)
	}
	a.route = route
	a.screen = a.screenFor(route, req.TaskID)
	a.ready = true

	if route != nav.RouteLogin {
		if err := a.deps.DB.SetLastRoute(route); err != nil {
			a.log.Warn("save last route", "err", err)
		}
	}
	a.refreshUnread()

	w, h := a.width, a.screenHeight()
	return tea.Batch(
		a.screen.Init(),
		func() tea.Msg { return tea.WindowSizeMsg{Width: w, Height: h} },
	)
}

func (a *App) navigate(req views.Navigate) tea.Cmd {
	if req.Route == nav.RouteLogin {
		if a.ready && a.route == nav.RouteLogin {
			return nil
		}
		a.deps.Session.Logout()
	}
	a.log.Debug("navigate", "route", req.Route, "task", req.TaskID)
	return a.open(req)
}

func (a *App) screenFor(r nav.Route, taskID int64) tea.Model {
	d := a.deps
	switch r {
	case nav.RouteLogin:
		return views.NewLoginView(d)
	case nav.RouteInbox:
		return views.NewTaskListView(d, views.ModeInbox)
	case nav.RouteCapture:
		return views.NewCaptureView(d)
	case nav.RouteClarify:
		return views.NewClarifyView(d, taskID)
	case nav.RouteOrganize:
		return views.NewOrganizeView(d)
	case nav.RouteEngage:
		return views.NewTaskListView(d, views.ModeEngage)
	case nav.RouteTaskDetails:
		return views.NewTaskDetailView(d, taskID)
	case nav.RouteReview:
		return views.NewTaskListView(d, views.ModeReview)
	case nav.RouteProjects:
		return views.NewProjectListView(d)
	case nav.RouteCalendar:
		return views.NewCalendarView(d, a.now())
	case nav.RouteProfile:
		return views.NewProfileView(d)
	case nav.RouteShop:
		return views.NewShopView(d)
	case nav.RouteAchievements:
		return views.NewAchievementsView(d)
	case nav.RouteTeam:
		return views.NewTeamView(d)
	case nav.RouteNotifications:
		return views.NewNotificationsView(d)
	}
	return views.NewHomeView(d)
}

func (a *App) refreshUnread() {
	n, err := a.deps.DB.UnreadNotifications()
	if err != nil {
		a.log.Warn("count notifications", "err", err)
		return
	}
	a.unread = n
}

func (a *App) screenHeight() int {
	return max(a.height-1, 0)
}

func (a *App) setFlash(f views.Flash) tea.Cmd {
	a.flash = f
	a.flashSeq++
	seq := a.flashSeq
	return tea.Tick(flashTTL, func(time.Time) tea.Msg { return clearFlashMsg{seq: seq} })
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.screen == nil {
			return a, nil
		}
		msg.Height = a.screenHeight()
		_, cmd := a.screen.Update(msg)
		return a, cmd

	case restoredMsg:
		if msg.err != nil {
			a.log.Error("restore session", "err", msg.err)
			cmd := a.setFlash(views.Flash{Text: "Cannot reach the server", Err: true})
			return a, tea.Batch(cmd, a.open(views.Navigate{Route: nav.RouteLogin}))
		}
		if !a.deps.Session.IsAuthenticated() {
			return a, a.open(views.Navigate{Route: nav.RouteLogin})
		}
		return a, tea.Batch(a.load, a.open(views.Navigate{Route: a.deps.DB.LastRoute()}))

	case views.LoggedIn:
		return a, tea.Batch(a.load, a.open(views.Navigate{Route: a.deps.DB.LastRoute()}))

	case loadedMsg:
		if msg.err != nil {
			a.log.Warn("initial load incomplete", "err", msg.err)
			return a, a.setFlash(views.Flash{Text: "Some data could not be loaded", Err: true})
		}
		return a, nil

	case navRequestMsg:
		return a, tea.Batch(a.waitNav, a.navigate(msg.Navigate))

	case views.Navigate:
		return a, a.navigate(msg)

	case views.Snapshot:
		a.refreshUnread()
		var cmd tea.Cmd
		if a.screen != nil {
			_, cmd = a.screen.Update(msg)
		}
		return a, tea.Batch(a.waitSnapshot, cmd)

	case fatalMsg:
		a.log.Error("backend unreachable", "err", msg.err)
		return a, tea.Batch(a.waitFatal, a.setFlash(views.Flash{Text: "Cannot reach the server", Err: true}))

	case views.Flash:
		a.refreshUnread()
		cmd := a.setFlash(msg)
		if a.screen != nil {
			_, screenCmd := a.screen.Update(msg)
			cmd = tea.Batch(cmd, screenCmd)
		}
		return a, cmd

	case clearFlashMsg:
		if msg.seq == a.flashSeq {
			a.flash = views.Flash{}
		}
		return a, nil
	}

	if a.screen == nil {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a, nil
	}
	_, cmd := a.screen.Update(msg)
	return a, cmd
}

func (a *App) View() string {
	if !a.ready {
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center,
			a.styles.TitleMuted.Render("Loading..."))
	}
	return a.screen.View() + "\n" + a.statusBar()
}

func (a *App) statusBar() string {
	s := a.styles
	left := s.StatusBar.Render(string(a.route))
	if a.unread > 0 {
		left += s.TaskPriority.Render(styles.IconBell + " " + strconv.Itoa(a.unread))
	}
	if a.flash.Text != "" {
		style := s.Flash
		if a.flash.Err {
			style = s.Error
		}
		left += "  " + style.Render(a.flash.Text)
	}
	return left
}
