package state

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tgienger/coreterra/internal/api"
	"github.com/tgienger/coreterra/internal/logging"
	"github.com/tgienger/coreterra/internal/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrNotEnoughGold = errors.New("not enough gold")
	ErrNoUser        = errors.New("user not loaded")
)

// Snapshot is a copy of everything the store holds. Version increases with
// every published snapshot, so a subscriber can drop one that arrives late.
type Snapshot struct {
	Version  uint64
	Tasks    []models.Task
	Projects []models.Project
	User     *models.User
	Loading  bool
}

// Task returns the task with id from the snapshot
func (s Snapshot) Task(id int64) (models.Task, bool) {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

// Notifier receives a record of rewards and purchases. *db.DB implements it.
type Notifier interface {
	AddNotification(n models.Notification) (*models.Notification, error)
}

// Store is the single writer of the cached tasks, projects and user. Every
// mutation goes to the backend first and the cache only changes once the
// backend has answered.
type Store struct {
	client   *api.Client
	validate *validator.Validate
	notifier Notifier
	log      *slog.Logger
	fatal    chan error

	mu       sync.RWMutex
	tasks    []models.Task
	projects []models.Project
	user     *models.User
	loading  bool
	version  uint64

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

type Option func(*Store)

// WithNotifier records rewards and purchases
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithFatalBuffer sizes the fatal channel. Errors that do not fit are
// dropped and only logged.
func WithFatalBuffer(n int) Option {
	return func(s *Store) { s.fatal = make(chan error, n) }
}

// New returns an empty store. It reports Loading until Load has run.
func New(client *api.Client, opts ...Option) *Store {
	s := &Store{
		client:   client,
		validate: validator.New(),
		log:      logging.State(),
		fatal:    make(chan error, 16),
		loading:  true,
		subs:     map[int]func(Snapshot){},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fatal delivers failures to reach the backend at all. Everything else is
// returned to the caller of the operation.
func (s *Store) Fatal() <-chan error { return s.fatal }

// Load runs the three refreshes concurrently and clears Loading once all of
// them have settled. A failing collection does not stop the others.
func (s *Store) Load(ctx context.Context) error {
	s.setLoading(true)

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i, refresh := range []func(context.Context) error{
		s.RefreshTasks, s.RefreshProjects, s.RefreshUser,
	} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = refresh(ctx)
		}()
	}
	wg.Wait()

	s.setLoading(false)
	return errors.Join(errs...)
}

// RefreshTasks replaces the task list with the backend's. On failure the
// previous list stays.
func (s *Store) RefreshTasks(ctx context.Context) error {
	tasks, err := s.client.Tasks().List(ctx, "")
	if err != nil {
		return s.fail("refresh tasks", err)
	}
	s.mu.Lock()
	s.tasks = tasks
	s.mu.Unlock()
	s.publish()
	return nil
}

func (s *Store) RefreshProjects(ctx context.Context) error {
	projects, err := s.client.Projects().List(ctx)
	if err != nil {
		return s.fail("refresh projects", err)
	}
	s.mu.Lock()
	s.projects = projects
	s.mu.Unlock()
	s.publish()
	return nil
}

func (s *Store) RefreshUser(ctx context.Context) error {
	u, err := s.client.Users().Me(ctx)
	if err != nil {
		return s.fail("refresh user", err)
	}
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
	s.publish()
	return nil
}

// Snapshot returns a deep copy of the current state
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Version:  s.version,
		Tasks:    make([]models.Task, len(s.tasks)),
		Projects: append([]models.Project(nil), s.projects...),
		Loading:  s.loading,
	}
	for i, t := range s.tasks {
		snap.Tasks[i] = t.Clone()
	}
	if s.user != nil {
		u := s.user.Clone()
		snap.User = &u
	}
	return snap
}

// Loading is true until the initial Load has settled
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Task returns a copy of the cached task
func (s *Store) Task(id int64) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.taskIndex(id); i >= 0 {
		return s.tasks[i].Clone(), true
	}
	return models.Task{}, false
}

// TasksByStatus returns cached tasks in any of the given statuses, in cache order
func (s *Store) TasksByStatus(statuses ...models.TaskStatus) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Task
	for _, t := range s.tasks {
		for _, st := range statuses {
			if t.Status == st {
				out = append(out, t.Clone())
				break
			}
		}
	}
	return out
}

// User returns a copy of the cached user
func (s *Store) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return s.user.Clone(), true
}

// Subscribe registers fn to receive a snapshot after every change. The
// returned function removes it.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// publish sends a fresh snapshot to subscribers in subscription order,
// outside the state lock. Concurrent publishes may deliver out of order;
// Version tells them apart.
func (s *Store) publish() {
	s.mu.Lock()
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.subMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Snapshot), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
	s.publish()
}

// fail logs err and forwards transport failures to the fatal channel
func (s *Store) fail(op string, err error) error {
	if api.IsFatal(err) {
		s.log.Error(op+" failed: backend unreachable", "error", err)
		select {
		case s.fatal <- err:
		default:
			s.log.Warn("fatal channel full, dropping error", "op", op)
		}
	} else {
		s.log.Warn(op+" failed", "error", err)
	}
	return err
}

func (s *Store) taskIndex(id int64) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) projectIndex(id string) int {
	for i := range s.projects {
		if s.projects[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) notify(n models.Notification) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.AddNotification(n); err != nil {
		s.log.Warn("record notification", "kind", n.Kind, "error", err)
	}
}
