package model

import "time"

// Playlist is an ordered list of exercise ids. Active is derived from the
// single active-playlist pointer and is never stored on the row itself.
// Version starts at 1 and grows by one on every update.
type Playlist struct {
	ID          int       `db:"id"           json:"id"`
	Name        string    `db:"name"         json:"name"`
	ExerciseIDs IntList   `db:"exercise_ids" json:"exerciseIds"`
	Active      bool      `db:"active"       json:"active"`
	Version     int       `db:"version"      json:"-"`
	CreatedAt   time.Time `db:"created_at"   json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at"   json:"updatedAt"`
}

// NewPlaylist holds the fields accepted when creating a playlist.
type NewPlaylist struct {
	Name        string
	ExerciseIDs []int
}

// PlaylistPatch enumerates the mutable playlist fields. Nil means unchanged.
type PlaylistPatch struct {
	Name        *string
	ExerciseIDs *[]int
}

// IsEmpty reports whether the patch changes nothing.
func (p PlaylistPatch) IsEmpty() bool {
	return p.Name == nil && p.ExerciseIDs == nil
}

// ApplyTo copies the set fields onto pl.
func (p PlaylistPatch) ApplyTo(pl *Playlist) {
	if p.Name != nil {
		pl.Name = *p.Name
	}
	if p.ExerciseIDs != nil {
		pl.ExerciseIDs = append(IntList{}, (*p.ExerciseIDs)...)
	}
}

// Contains reports whether exerciseID is already in the playlist.
func (pl Playlist) Contains(exerciseID int) bool {
	for _, id := range pl.ExerciseIDs {
		if id == exerciseID {
			return true
		}
	}
	return false
}
