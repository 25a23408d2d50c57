package mockapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"

	"github.com/tgienger/coreterra/internal/logging"
	"github.com/tgienger/coreterra/internal/models"
)

// TokenTTL is how long issued tokens stay valid
const TokenTTL = 30 * 24 * time.Hour

type credential struct {
	userID   int64
	username string
	hash     []byte
}

type fault struct {
	status int
	detail string
}

// Server is an in-memory Coreterra backend with the same routes and
// semantics as the real one
type Server struct {
	mu sync.Mutex

	secret     []byte
	bcryptCost int
	now        func() time.Time
	log        *slog.Logger

	creds        map[string]credential
	users        map[int64]*models.User
	tasks        []models.Task
	projects     []models.Project
	shop         []models.ShopItem
	achievements []models.Achievement
	events       []models.CalendarEvent
	contexts     []models.Context
	categories   []models.ScheduledCategory
	team         []models.TeamMember
	reports      []models.Report

	faults    map[string]fault
	taskHook  func(*models.Task)
	calls     map[string]int
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	engine    *gin.Engine
}

// Option configures a Server
type Option func(*Server)

// WithSecret sets the HS256 signing key
func WithSecret(secret string) Option {
	return func(s *Server) { s.secret = []byte(secret) }
}

// WithBcryptCost lowers hashing cost; tests use bcrypt.MinCost
func WithBcryptCost(cost int) Option {
	return func(s *Server) { s.bcryptCost = cost }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New builds a server holding seed
func New(seed Seed, opts ...Option) (*Server, error) {
	s := &Server{
		secret:     []byte("coreterra-secret-key-change-in-production"),
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
		log:        logging.Mock(),
		creds:      map[string]credential{},
		users:      map[int64]*models.User{},
		faults:     map[string]fault{},
		calls:      map[string]int{},
		registry:   prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, a := range seed.Accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", a.Username, err)
		}
		u := a.User.Clone()
		s.users[u.ID] = &u
		s.creds[strings.ToLower(a.Username)] = credential{userID: u.ID, username: a.Username, hash: hash}
	}
	for _, t := range seed.Tasks {
		s.tasks = append(s.tasks, t.Clone())
	}
	s.projects = append(s.projects, seed.Projects...)
	s.shop = append(s.shop, seed.Shop...)
	s.achievements = append(s.achievements, seed.Achievements...)
	s.events = append(s.events, seed.Events...)
	s.contexts = append(s.contexts, seed.Contexts...)
	s.categories = append(s.categories, seed.Categories...)
	s.team = append(s.team, seed.Team...)
	s.reports = append(s.reports, seed.Reports...)

	s.requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coreterra_mock_requests_total",
			Help: "Requests served by the mock backend",
		},
		[]string{"method", "route", "status"},
	)
	if err := s.registry.Register(s.requests); err != nil {
		return nil, err
	}

	s.engine = s.routes()
	return s, nil
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler { return s.engine }

// Fail makes every request matching method and route (a gin path such as
// "/api/tasks/:id") answer with status until Clear is called
func (s *Server) Fail(method, route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method+" "+route] = fault{status: status, detail: http.StatusText(status)}
}

// Clear removes every injected fault
func (s *Server) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = map[string]fault{}
}

// OnTaskWrite installs a hook that may rewrite a task after every create,
// update or complete, before it is stored and returned. It stands in for
// server-side derived fields.
func (s *Server) OnTaskWrite(fn func(*models.Task)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskHook = fn
}

// Calls returns how many requests reached method+route
func (s *Server) Calls(method, route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+route]
}

// Task returns the stored copy of a task
func (s *Server) Task(id int64) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.taskIndex(id); i >= 0 {
		return s.tasks[i].Clone(), true
	}
	return models.Task{}, false
}

// User returns the stored copy of a user
func (s *Server) User(id int64) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, false
	}
	return u.Clone(), true
}

// SetGold overwrites a user's gold balance
func (s *Server) SetGold(userID int64, gold int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.Gold = gold
	}
}

// IssueToken signs a token for a seeded user
func (s *Server) IssueToken(username string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	cred, ok := s.creds[strings.ToLower(username)]
	s.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("unknown user %q", username)
	}
	return s.sign(cred, ttl)
}

func (s *Server) sign(cred credential, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  cred.userID,
		"username": cred.username,
		"exp":      s.now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

type principal struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

var errBadToken = errors.New("could not validate credentials")

func (s *Server) verify(raw string) (principal, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return principal{}, errBadToken
	}
	id, ok := claims["user_id"].(float64)
	if !ok {
		return principal{}, errBadToken
	}
	name, _ := claims["username"].(string)
	return principal{UserID: int64(id), Username: name}, nil
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.instrument(), s.injectFaults())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Coreterra API", "version": "1.0.0"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	r.POST("/api/auth/login", s.login)

	api := r.Group("/api", s.requireAuth())
	{
		api.GET("/auth/me", s.me)

		api.GET("/tasks", s.listTasks)
		api.POST("/tasks", s.createTask)
		api.GET("/tasks/:id", s.getTask)
		api.PUT("/tasks/:id", s.updateTask)
		api.DELETE("/tasks/:id", s.deleteTask)
		api.POST("/tasks/:id/complete", s.completeTask)

		api.GET("/projects", s.listProjects)
		api.POST("/projects", s.createProject)
		api.GET("/projects/:id", s.getProject)
		api.PUT("/projects/:id", s.updateProject)
		api.DELETE("/projects/:id", s.deleteProject)

		api.GET("/users/me", s.getUser)
		api.PUT("/users/me", s.updateUser)

		api.GET("/gamification/shop", s.listShop)
		api.POST("/gamification/shop/:id/buy", s.buy)
		api.GET("/gamification/achievements", s.listAchievements)

		api.GET("/calendar/events", s.listEvents)
		api.GET("/contexts", s.listContexts)
		api.GET("/contexts/scheduled/categories", s.listCategories)
		api.GET("/teams", s.listTeam)
		api.GET("/reports", s.listReports)
		api.GET("/reports/daily", s.dailyReport)
	}
	return r
}

func (s *Server) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		route := c.FullPath()
		s.mu.Lock()
		s.calls[c.Request.Method+" "+route]++
		s.mu.Unlock()

		c.Next()

		status := c.Writer.Status()
		s.requests.WithLabelValues(c.Request.Method, route, fmt.Sprint(status)).Inc()
		s.log.Debug("served", "method", c.Request.Method, "route", route,
			"status", status, "elapsed", time.Since(start))
	}
}

func (s *Server) injectFaults() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		f, ok := s.faults[c.Request.Method+" "+c.FullPath()]
		s.mu.Unlock()
		if ok {
			c.AbortWithStatusJSON(f.status, gin.H{"detail": f.detail})
			return
		}
		c.Next()
	}
}

const principalKey = "principal"

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
			return
		}
		p, err := s.verify(raw)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

func currentPrincipal(c *gin.Context) principal {
	p, _ := c.Get(principalKey)
	pr, _ := p.(principal)
	return pr
}

func detail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": msg})
}
