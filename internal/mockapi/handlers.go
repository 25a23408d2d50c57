package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/tgienger/coreterra/internal/models"
)

// DefaultCompleteXP is awarded when a completed task carries no reward
const DefaultCompleteXP = 50

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	cred, ok := s.creds[strings.ToLower(req.Username)]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(cred.hash, []byte(req.Password)) != nil {
		c.Header("WWW-Authenticate", "Bearer")
		detail(c, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	token, err := s.sign(cred, TokenTTL)
	if err != nil {
		detail(c, http.StatusInternalServerError, "could not issue token")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"user_id":      cred.userID,
	})
}

func (s *Server) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentPrincipal(c))
}

// Tasks

func (s *Server) taskIndex(id int64) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func taskID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		detail(c, http.StatusUnprocessableEntity, "task id must be an integer")
		return 0, false
	}
	return id, true
}

func (s *Server) listTasks(c *gin.Context) {
	status := models.TaskStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		detail(c, http.StatusUnprocessableEntity, fmt.Sprintf("unknown status %q", status))
		return
	}

	s.mu.Lock()
	out := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if status == "" || t.Status == status {
			out = append(out, t.Clone())
		}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) getTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	t, found := s.Task(id)
	if !found {
		detail(c, http.StatusNotFound, "Task not found")
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) createTask(c *gin.Context) {
	var draft models.TaskDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if strings.TrimSpace(draft.Title) == "" {
		detail(c, http.StatusUnprocessableEntity, "title is required")
		return
	}
	if draft.Status == "" {
		draft.Status = models.StatusInbox
	}
	if !draft.Status.Valid() {
		detail(c, http.StatusUnprocessableEntity, fmt.Sprintf("unknown status %q", draft.Status))
		return
	}

	s.mu.Lock()
	var next int64 = 1
	for _, t := range s.tasks {
		if t.ID >= next {
			next = t.ID + 1
		}
	}
	t := models.Task{
		ID:          next,
		Title:       draft.Title,
		Status:      draft.Status,
		Priority:    draft.Priority,
		Description: draft.Description,
		CreatedAt:   s.now().UTC().Format("2006-01-02T15:04:05.000000"),
	}
	if s.taskHook != nil {
		s.taskHook(&t)
	}
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()

	c.JSON(http.StatusCreated, t.Clone())
}

func (s *Server) updateTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	var patch map[string]json.RawMessage
	if err := c.ShouldBindJSON(&patch); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	delete(patch, "id")
	if raw, ok := patch["status"]; ok {
		var st models.TaskStatus
		if err := json.Unmarshal(raw, &st); err != nil || !st.Valid() {
			detail(c, http.StatusUnprocessableEntity, "invalid status")
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.taskIndex(id)
	if i < 0 {
		detail(c, http.StatusNotFound, "Task not found")
		return
	}
	updated := s.tasks[i].Clone()
	if err := overlay(&updated, patch); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	updated.ID = id
	if s.taskHook != nil {
		s.taskHook(&updated)
	}
	s.tasks[i] = updated
	c.JSON(http.StatusOK, updated.Clone())
}

func (s *Server) deleteTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.taskIndex(id)
	if i < 0 {
		detail(c, http.StatusNotFound, "Task not found")
		return
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	c.Status(http.StatusNoContent)
}

// completeTask marks the task completed and pays out its reward. A reward of
// zero falls back to DefaultCompleteXP.
func (s *Server) completeTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	p := currentPrincipal(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.taskIndex(id)
	if i < 0 {
		detail(c, http.StatusNotFound, "Task not found")
		return
	}
	t := &s.tasks[i]
	t.Status = models.StatusCompleted
	if s.taskHook != nil {
		s.taskHook(t)
	}

	if u, found := s.users[p.UserID]; found {
		xp := t.XPReward
		if xp == 0 {
			xp = DefaultCompleteXP
		}
		u.CurrentXP += xp
		u.Gold += int(float64(xp) * 0.5)
		if u.MaxXP <= 0 {
			u.MaxXP = 500
		}
		if u.CurrentXP >= u.MaxXP {
			u.Level++
			u.CurrentXP = 0
			u.MaxXP = int(float64(u.MaxXP) * 1.2)
			s.log.Info("level up", "user_id", u.ID, "level", u.Level)
		}
	}

	c.JSON(http.StatusOK, t.Clone())
}

// Projects

func (s *Server) projectIndex(id string) int {
	for i := range s.projects {
		if s.projects[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) listProjects(c *gin.Context) {
	s.mu.Lock()
	out := append([]models.Project{}, s.projects...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) getProject(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.projectIndex(c.Param("id"))
	if i < 0 {
		detail(c, http.StatusNotFound, "Project not found")
		return
	}
	c.JSON(http.StatusOK, s.projects[i])
}

func (s *Server) createProject(c *gin.Context) {
	var draft models.ProjectDraft
	if err := c.ShouldBindJSON(&draft); err != nil || strings.TrimSpace(draft.Title) == "" {
		detail(c, http.StatusUnprocessableEntity, "title is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := models.Project{
		ID:          fmt.Sprintf("p%d", len(s.projects)+1),
		Title:       draft.Title,
		Description: draft.Description,
	}
	for s.projectIndex(p.ID) >= 0 {
		p.ID += "x"
	}
	s.projects = append(s.projects, p)
	c.JSON(http.StatusCreated, p)
}

func (s *Server) updateProject(c *gin.Context) {
	var patch map[string]json.RawMessage
	if err := c.ShouldBindJSON(&patch); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	delete(patch, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.projectIndex(c.Param("id"))
	if i < 0 {
		detail(c, http.StatusNotFound, "Project not found")
		return
	}
	updated := s.projects[i]
	if err := overlay(&updated, patch); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.projects[i] = updated
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteProject(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.projectIndex(c.Param("id"))
	if i < 0 {
		detail(c, http.StatusNotFound, "Project not found")
		return
	}
	s.projects = append(s.projects[:i], s.projects[i+1:]...)
	c.Status(http.StatusNoContent)
}

// Users

func (s *Server) getUser(c *gin.Context) {
	p := currentPrincipal(c)
	u, ok := s.User(p.UserID)
	if !ok {
		detail(c, http.StatusNotFound, "User not found")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) updateUser(c *gin.Context) {
	var patch map[string]json.RawMessage
	if err := c.ShouldBindJSON(&patch); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	delete(patch, "id")
	p := currentPrincipal(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[p.UserID]
	if !ok {
		detail(c, http.StatusNotFound, "User not found")
		return
	}
	updated := u.Clone()
	if err := overlay(&updated, patch); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	updated.ID = u.ID
	*u = updated
	c.JSON(http.StatusOK, u.Clone())
}

// Gamification

func (s *Server) listShop(c *gin.Context) {
	s.mu.Lock()
	out := append([]models.ShopItem{}, s.shop...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) buy(c *gin.Context) {
	itemID := c.Param("id")
	p := currentPrincipal(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	var item *models.ShopItem
	for i := range s.shop {
		if s.shop[i].ID == itemID {
			item = &s.shop[i]
			break
		}
	}
	if item == nil {
		detail(c, http.StatusNotFound, "Item not found")
		return
	}
	u, ok := s.users[p.UserID]
	if !ok {
		detail(c, http.StatusNotFound, "User not found")
		return
	}
	if u.Gold < item.Cost {
		detail(c, http.StatusBadRequest, "Not enough gold")
		return
	}
	u.Gold -= item.Cost
	if !u.Owns(item.ID) {
		u.Inventory = append(u.Inventory, item.ID)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Purchased " + item.Name, "item": *item})
}

func (s *Server) listAchievements(c *gin.Context) {
	s.mu.Lock()
	out := append([]models.Achievement{}, s.achievements...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

// Lookups

func (s *Server) listEvents(c *gin.Context) {
	s.mu.Lock()
	out := append([]models.CalendarEvent{}, s.events...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) listContexts(c *gin.Context) {
	s.mu.Lock()
	out := append([]models.Context{}, s.contexts...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) listCategories(c *gin.Context) {
	s.mu.Lock()
	out := append([]models.ScheduledCategory{}, s.categories...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) listTeam(c *gin.Context) {
	s.mu.Lock()
	out := append([]models.TeamMember{}, s.team...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) listReports(c *gin.Context) {
	kind := c.Query("type")
	s.mu.Lock()
	out := make([]models.Report, 0, len(s.reports))
	for _, r := range s.reports {
		if kind == "" || r.Type == kind {
			out = append(out, r)
		}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

// dailyReport returns the most recent daily report, or null when there is none
func (s *Server) dailyReport(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.reports) - 1; i >= 0; i-- {
		if s.reports[i].Type == "daily" {
			c.JSON(http.StatusOK, s.reports[i])
			return
		}
	}
	c.JSON(http.StatusOK, nil)
}

// overlay applies the keys present in patch onto dst. An explicit null
// removes the field.
func overlay[T any](dst *T, patch map[string]json.RawMessage) error {
	raw, err := json.Marshal(dst)
	if err != nil {
		return err
	}
	base := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &base); err != nil {
		return err
	}
	for k, v := range patch {
		if string(v) == "null" {
			delete(base, k)
			continue
		}
		base[k] = v
	}
	raw, err = json.Marshal(base)
	if err != nil {
		return err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("invalid field value: %w", err)
	}
	*dst = out
	return nil
}
