package derive

import (
	"math"

	"github.com/tgienger/coreterra/internal/models"
)

// Progress returns the rounded percentage of done subtasks, 0 when there are none
func Progress(subtasks []models.Subtask) int {
	if len(subtasks) == 0 {
		return 0
	}
	done := 0
	for _, s := range subtasks {
		if s.Done {
			done++
		}
	}
	return int(math.Round(float64(done) / float64(len(subtasks)) * 100))
}

// Percent returns part/total as a rounded percentage, 0 when total is 0
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
