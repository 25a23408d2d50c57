package derive

import (
	"math"

	"github.com/tgienger/coreterra/internal/models"
)

const (
	// fallbackBaseXP applies to an unknown duration bucket
	fallbackBaseXP = 10

	// GoldRate converts XP into gold
	GoldRate = 0.5

	// SubtaskXP is the feedback shown when a subtask is checked off
	SubtaskXP = 10

	// DefaultCompletionXP is paid for a task completed without a reward set
	DefaultCompletionXP = 50
)

var baseXP = map[models.Duration]int{
	models.Duration15m: 10,
	models.Duration30m: 20,
	models.Duration1h:  50,
	models.Duration2h:  100,
}

var difficultyMultiplier = map[models.Difficulty]int{
	models.DifficultyEasy: 1,
	models.DifficultyMed:  2,
	models.DifficultyHard: 4,
}

// Reward is the XP and gold a task pays out
type Reward struct {
	XP   int
	Gold int
}

// BaseXP returns the XP for a duration bucket before the difficulty multiplier
func BaseXP(d models.Duration) int {
	if xp, ok := baseXP[d]; ok {
		return xp
	}
	return fallbackBaseXP
}

// Multiplier returns the XP multiplier for a difficulty
func Multiplier(f models.Difficulty) int {
	if m, ok := difficultyMultiplier[f]; ok {
		return m
	}
	return 1
}

// EstimateReward computes XP = base[d] * mult[f] and gold = floor(XP * 0.5)
func EstimateReward(d models.Duration, f models.Difficulty) Reward {
	xp := BaseXP(d) * Multiplier(f)
	return Reward{XP: xp, Gold: GoldFor(xp)}
}

// GoldFor converts XP into gold
func GoldFor(xp int) int {
	return int(math.Floor(float64(xp) * GoldRate))
}

// CompletionXP is the XP completing t pays out
func CompletionXP(t models.Task) int {
	if t.XPReward > 0 {
		return t.XPReward
	}
	return DefaultCompletionXP
}

// LevelUp applies the backend's level rule to a copy of u after gaining xp.
// The server stays authoritative; this is only used to annotate feedback.
func LevelUp(u models.User, xp int) (models.User, bool) {
	u.CurrentXP += xp
	maxXP := u.MaxXP
	if maxXP <= 0 {
		maxXP = 500
	}
	if u.CurrentXP < maxXP {
		return u, false
	}
	u.Level++
	u.CurrentXP = 0
	u.MaxXP = int(float64(maxXP) * 1.2)
	return u, true
}
