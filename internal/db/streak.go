package db

import (
	"time"

	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/model"
)

// ComputeStreak counts consecutive calendar days ending today that appear in
// days (YYYY-MM-DD, UTC). A run that stops yesterday counts as zero, and
// repeated days count once.
func ComputeStreak(days []string, today time.Time) int {
	seen := make(map[string]struct{}, len(days))
	for _, d := range days {
		seen[model.DayOf(d)] = struct{}{}
	}

	today = today.UTC()
	streak := 0
	for {
		expected := today.AddDate(0, 0, -streak).Format(model.DayLayout)
		if _, ok := seen[expected]; !ok {
			return streak
		}
		streak++
	}
}
