// exposes a Store interface that is passed to API calls w/ param requirements
package db

import (
	"context"
	"errors"
	"time"

	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/model"
)

var (
	// ErrNotFound is returned for get/update/delete/pin on a missing id.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an exercise is already in a playlist.
	ErrDuplicate = errors.New("already exists")
	// ErrInvalidOrder is returned when a reorder is not a permutation.
	ErrInvalidOrder = errors.New("order must contain every exercise exactly once")
)

type Store interface {
	// exercise functions
	GetExercise(ctx context.Context, id int) (model.Exercise, error)
	ListExercises(ctx context.Context, category string) ([]model.Exercise, error)
	CountExercises(ctx context.Context) (int, error)
	CreateExercise(ctx context.Context, in model.NewExercise) (model.Exercise, error)
	UpdateExercise(ctx context.Context, id int, patch model.ExercisePatch) (model.Exercise, error)
	DeleteExercise(ctx context.Context, id int) (bool, error)
	PinExercise(ctx context.Context, id int) (model.Exercise, error)
	UnpinExercise(ctx context.Context, id int) (model.Exercise, error)

	// playlist functions
	GetPlaylist(ctx context.Context, id int) (model.Playlist, error)
	ListPlaylists(ctx context.Context) ([]model.Playlist, error)
	GetActivePlaylist(ctx context.Context) (model.Playlist, error)
	CreatePlaylist(ctx context.Context, in model.NewPlaylist) (model.Playlist, error)
	UpdatePlaylist(ctx context.Context, id int, patch model.PlaylistPatch) (model.Playlist, error)
	DeletePlaylist(ctx context.Context, id int) (bool, error)
	SetActivePlaylist(ctx context.Context, id int) error

	// progress functions
	GetProgress(ctx context.Context, exerciseID int) ([]model.Progress, error)
	ListProgress(ctx context.Context) ([]model.Progress, error)
	ListTodayProgress(ctx context.Context) ([]model.Progress, error)
	CreateProgress(ctx context.Context, in model.NewProgress) (model.Progress, error)
	GetStreakDays(ctx context.Context) (int, error)
}

// Option configures a Store implementation.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, which decides "today" for streaks and
// today's progress, and stamps created/updated times.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
