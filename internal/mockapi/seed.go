package mockapi

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tgienger/coreterra/internal/models"
)

// Account is a seeded user together with its login
type Account struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	User     models.User `json:"user"`
}

// Seed is the initial content of a mock backend
type Seed struct {
	Accounts     []Account                  `json:"accounts"`
	Tasks        []models.Task              `json:"tasks"`
	Projects     []models.Project           `json:"projects"`
	Shop         []models.ShopItem          `json:"shop"`
	Achievements []models.Achievement       `json:"achievements"`
	Events       []models.CalendarEvent     `json:"events"`
	Contexts     []models.Context           `json:"contexts"`
	Categories   []models.ScheduledCategory `json:"categories"`
	Team         []models.TeamMember        `json:"team"`
	Reports      []models.Report            `json:"reports"`
}

// LoadSeed reads a seed from a YAML file. Keys use the same names as the
// JSON API (currentXP, xpReward, ...).
func LoadSeed(path string) (Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed: %w", err)
	}
	return ParseSeed(raw)
}

// ParseSeed decodes YAML (or JSON, which is valid YAML) seed content
func ParseSeed(raw []byte) (Seed, error) {
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return Seed{}, fmt.Errorf("parse seed: %w", err)
	}
	asJSON, err := json.Marshal(generic)
	if err != nil {
		return Seed{}, fmt.Errorf("convert seed: %w", err)
	}
	var s Seed
	if err := json.Unmarshal(asJSON, &s); err != nil {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}
	return s, nil
}

// DefaultUsername and DefaultPassword log into the default seed
const (
	DefaultUsername = "demo"
	DefaultPassword = "coreterra"
)

// DefaultSeed returns a small workspace with one user
func DefaultSeed() Seed {
	return Seed{
		Accounts: []Account{{
			Username: DefaultUsername,
			Password: DefaultPassword,
			User: models.User{
				ID:        1,
				Name:      "Alex Rivera",
				Avatar:    "https://i.pravatar.cc/150?u=coreterra-demo",
				Role:      "Product Engineer",
				Level:     5,
				CurrentXP: 320,
				MaxXP:     500,
				Gold:      150,
				Streak:    4,
				Inventory: []string{},
				Stats: models.UserStats{
					Focus: 12, Execution: 14, Planning: 9,
					Teamwork: 11, Expertise: 15, Streak: 4,
				},
			},
		}},
		Tasks: []models.Task{
			{ID: 1, Title: "Reply to design review thread", Status: models.StatusInbox, CreatedAt: "2026-10-12T09:00:00"},
			{ID: 2, Title: "Plan sprint demo", Status: models.StatusInbox, CreatedAt: "2026-10-12T10:30:00"},
			{
				ID: 3, Title: "Refactor auth module", Status: models.StatusOrganized, Priority: true,
				ProjectID: models.Ptr("p1"), Difficulty: models.DifficultyHard, EstimatedTime: models.Duration1h,
				XPReward: 200, GoldReward: models.Ptr(100), Progress: models.Ptr(50),
				Subtasks: []models.Subtask{
					{ID: 1, Text: "Extract token store", Done: true},
					{ID: 2, Text: "Add 401 handling", Done: true},
					{ID: 3, Text: "Write tests"},
					{ID: 4, Text: "Update docs"},
				},
				CreatedAt: "2026-10-10T08:00:00",
			},
			{
				ID: 4, Title: "Update onboarding docs", Status: models.StatusClarified,
				Difficulty: models.DifficultyEasy, EstimatedTime: models.Duration30m,
				XPReward: 20, GoldReward: models.Ptr(10), CreatedAt: "2026-10-11T14:00:00",
			},
			{ID: 5, Title: "Vendor contract answer", Status: models.StatusWaiting, CreatedAt: "2026-10-09T16:00:00"},
			{ID: 6, Title: "Ship release notes", Status: models.StatusCompleted, XPReward: 50, CreatedAt: "2026-10-08T11:00:00"},
		},
		Projects: []models.Project{
			{ID: "p1", Title: "Platform hardening", Description: "Security and reliability work", Progress: 40, TotalTasks: 5, CompletedTasks: 2},
			{ID: "p2", Title: "Q4 launch", Description: "Marketing site and release", Progress: 10, TotalTasks: 10, CompletedTasks: 1},
		},
		Shop: []models.ShopItem{
			{ID: "potion-focus", Name: "Focus Potion", Cost: 50, Type: "consumable", Effect: map[string]any{"focus": 2}},
			{ID: "theme-night", Name: "Night Theme", Cost: 120, Type: "cosmetic"},
			{ID: "streak-freeze", Name: "Streak Freeze", Cost: 200, Type: "consumable"},
		},
		Achievements: []models.Achievement{
			{ID: 1, Title: "Inbox Zero", Desc: "Process every inbox item", Icon: "inbox", Color: "text-blue-600", Bg: "bg-blue-50", Border: "border-blue-200", Unlocked: true},
			{ID: 2, Title: "Week Warrior", Desc: "Keep a 7 day streak", Icon: "local_fire_department", Color: "text-orange-600", Bg: "bg-orange-50", Border: "border-orange-200"},
			{ID: 3, Title: "Team Player", Desc: "Delegate five tasks", Icon: "group", Color: "text-green-600", Bg: "bg-green-50", Border: "border-green-200"},
		},
		Events: []models.CalendarEvent{
			{ID: 1, Date: 3, Title: "Design sync", Type: "appointment", Time: "10:00"},
			{ID: 2, Date: 14, Title: "Release cut", Type: "deadline"},
			{ID: 3, Date: 21, Title: "Quarterly review", Type: "appointment", Time: "15:30"},
		},
		Contexts: []models.Context{
			{ID: "@home", Name: "@Home", Icon: "home", Count: 2},
			{ID: "@office", Name: "@Office", Icon: "business", Count: 5},
			{ID: "@computer", Name: "@Computer", Icon: "computer", Count: 7},
		},
		Categories: []models.ScheduledCategory{
			{ID: "morning", Label: "Morning"},
			{ID: "afternoon", Label: "Afternoon"},
			{ID: "evening", Label: "Evening"},
		},
		Team: []models.TeamMember{
			{ID: 1, Name: "Sarah Jenkins", Role: "Frontend", Status: "Available", Capacity: 35},
			{ID: 2, Name: "Michael Chen", Role: "QA Lead", Status: "Busy", Capacity: 95},
			{ID: 3, Name: "Alex Morgan", Role: "Designer", Status: "Available", Capacity: 20},
		},
		Reports: []models.Report{
			{ID: 1, Type: "weekly", Date: "2026-10-05", Metrics: map[string]any{"completed": 12, "xp": 640}},
			{ID: 2, Type: "daily", Date: "2026-10-11", Metrics: map[string]any{"completed": 3, "xp": 150}},
		},
	}
}
