package model

import "time"

// Exercise is a single activity in the library. Duration is in seconds.
type Exercise struct {
	ID           int        `db:"id"               json:"id"`
	Name         string     `db:"name"             json:"name"`
	Description  string     `db:"description"      json:"description"`
	Duration     int        `db:"duration_seconds" json:"duration"`
	AgeGroups    StringList `db:"age_groups"       json:"ageGroups"`
	Category     string     `db:"category"         json:"category"`
	VideoURL     string     `db:"video_url"        json:"videoUrl"`
	ThumbnailURL *string    `db:"thumbnail_url"    json:"thumbnailUrl,omitempty"`
	Completed    bool       `db:"completed"        json:"completed"`
	Pinned       bool       `db:"pinned"           json:"pinned"`
	CreatedAt    time.Time  `db:"created_at"       json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at"       json:"updatedAt"`
}

// NewExercise holds the fields accepted when creating an exercise.
// Completed and Pinned always start false.
type NewExercise struct {
	Name         string
	Description  string
	Duration     int
	AgeGroups    []string
	Category     string
	VideoURL     string
	ThumbnailURL *string
}

// ExercisePatch enumerates the mutable exercise fields. Nil means unchanged.
// Pinned is deliberately absent: it only moves through pin/unpin.
type ExercisePatch struct {
	Name         *string
	Description  *string
	Duration     *int
	AgeGroups    *[]string
	Category     *string
	VideoURL     *string
	ThumbnailURL *string
	Completed    *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p ExercisePatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Duration == nil &&
		p.AgeGroups == nil && p.Category == nil && p.VideoURL == nil &&
		p.ThumbnailURL == nil && p.Completed == nil
}

// ApplyTo copies the set fields onto e.
func (p ExercisePatch) ApplyTo(e *Exercise) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Duration != nil {
		e.Duration = *p.Duration
	}
	if p.AgeGroups != nil {
		e.AgeGroups = append(StringList{}, (*p.AgeGroups)...)
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.VideoURL != nil {
		e.VideoURL = *p.VideoURL
	}
	if p.ThumbnailURL != nil {
		thumb := *p.ThumbnailURL
		e.ThumbnailURL = &thumb
	}
	if p.Completed != nil {
		e.Completed = *p.Completed
	}
}
