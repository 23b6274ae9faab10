package model

import "time"

// DayLayout is the calendar-day format used for streaks.
const DayLayout = "2006-01-02"

// Progress marks one completion of an exercise. Rows are never updated.
type Progress struct {
	ID          int    `db:"id"           json:"id"`
	ExerciseID  int    `db:"exercise_id"  json:"exerciseId"`
	CompletedAt string `db:"completed_at" json:"completedAt"`
	PlaylistID  *int   `db:"playlist_id"  json:"playlistId,omitempty"`
}

// NewProgress holds the fields of a completion event. CompletedAt is set by
// the caller, never by the store.
type NewProgress struct {
	ExerciseID  int
	CompletedAt string
	PlaylistID  *int
}

// Day returns the calendar-day portion of CompletedAt.
func (p Progress) Day() string {
	return DayOf(p.CompletedAt)
}

// DayOf truncates a completion timestamp to its YYYY-MM-DD prefix.
func DayOf(completedAt string) string {
	if len(completedAt) < len(DayLayout) {
		return completedAt
	}
	return completedAt[:len(DayLayout)]
}

// FormatCompletedAt renders t the way completion timestamps are stored.
func FormatCompletedAt(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
