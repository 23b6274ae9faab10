package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/model"
)

type sqlStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// compile-time check that sqlStore implements Store
var _ Store = (*sqlStore)(nil)

// NewSQLStore returns a Store backed by PostgreSQL or SQLite. Queries are
// written with "?" placeholders and rebound for the connection's driver.
// Writes return only the id and re-read the row, since SQLite does not
// carry declared column types through RETURNING.
func NewSQLStore(db *sqlx.DB, opts ...Option) Store {
	o := buildOptions(opts)
	return &sqlStore{db: db, now: o.now}
}

const exerciseColumns = `
	id, name, description, duration_seconds, age_groups, category,
	video_url, thumbnail_url, completed, pinned, created_at, updated_at`

// @ EXERCISE
func (s *sqlStore) GetExercise(ctx context.Context, id int) (model.Exercise, error) {
	var e model.Exercise
	q := s.db.Rebind(`SELECT ` + exerciseColumns + ` FROM exercises WHERE id = ?;`)
	if err := s.db.GetContext(ctx, &e, q, id); err != nil {
		return model.Exercise{}, notFound(err, "GetExercise")
	}
	return e, nil
}

func (s *sqlStore) ListExercises(ctx context.Context, category string) ([]model.Exercise, error) {
	out := []model.Exercise{}
	q := `SELECT ` + exerciseColumns + ` FROM exercises`
	args := []any{}
	if category != "" {
		q += ` WHERE category = ?`
		args = append(args, category)
	}
	q += ` ORDER BY id;`

	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(q), args...); err != nil {
		log.Error().Err(err).Str("category", category).Msg("[db] ListExercises: failed to select exercises")
		return nil, err
	}
	return out, nil
}

func (s *sqlStore) CountExercises(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM exercises;`); err != nil {
		log.Error().Err(err).Msg("[db] CountExercises: failed to count exercises")
		return 0, err
	}
	return n, nil
}

func (s *sqlStore) CreateExercise(ctx context.Context, in model.NewExercise) (model.Exercise, error) {
	now := s.now().UTC()
	q := s.db.Rebind(`
	INSERT INTO exercises
	(name, description, duration_seconds, age_groups, category, video_url, thumbnail_url, completed, pinned, created_at, updated_at)
	VALUES
	(?,    ?,           ?,                ?,          ?,        ?,         ?,             FALSE,     FALSE,  ?,          ?)
	RETURNING id;`)

	var id int
	if err := s.db.GetContext(ctx, &id, q,
		in.Name,
		in.Description,
		in.Duration,
		model.StringList(in.AgeGroups),
		in.Category,
		in.VideoURL,
		in.ThumbnailURL,
		now,
		now,
	); err != nil {
		log.Error().Err(err).Msg("[db] CreateExercise: failed to insert exercise")
		return model.Exercise{}, err
	}
	return s.GetExercise(ctx, id)
}

func (s *sqlStore) UpdateExercise(ctx context.Context, id int, patch model.ExercisePatch) (model.Exercise, error) {
	var ageGroups any
	if patch.AgeGroups != nil {
		ageGroups = model.StringList(*patch.AgeGroups)
	}

	q := s.db.Rebind(`
		UPDATE exercises
		SET
		name             = COALESCE(?, name),
		description      = COALESCE(?, description),
		duration_seconds = COALESCE(?, duration_seconds),
		age_groups       = COALESCE(?, age_groups),
		category         = COALESCE(?, category),
		video_url        = COALESCE(?, video_url),
		thumbnail_url    = COALESCE(?, thumbnail_url),
		completed        = COALESCE(?, completed),
		updated_at       = ?
		WHERE id = ?
		RETURNING id;`)

	var updated int
	err := s.db.GetContext(ctx, &updated, q,
		patch.Name,
		patch.Description,
		patch.Duration,
		ageGroups,
		patch.Category,
		patch.VideoURL,
		patch.ThumbnailURL,
		patch.Completed,
		s.now().UTC(),
		id,
	)
	if err != nil {
		return model.Exercise{}, notFound(err, "UpdateExercise")
	}
	return s.GetExercise(ctx, updated)
}

func (s *sqlStore) DeleteExercise(ctx context.Context, id int) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM exercises WHERE id = ?;`), id)
	if err != nil {
		log.Error().Err(err).Int("exercise_id", id).Msg("[db] DeleteExercise: failed to delete exercise")
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *sqlStore) PinExercise(ctx context.Context, id int) (model.Exercise, error) {
	return s.setPinned(ctx, id, true)
}

func (s *sqlStore) UnpinExercise(ctx context.Context, id int) (model.Exercise, error) {
	return s.setPinned(ctx, id, false)
}

func (s *sqlStore) setPinned(ctx context.Context, id int, pinned bool) (model.Exercise, error) {
	q := s.db.Rebind(`
		UPDATE exercises
		SET pinned = ?, updated_at = ?
		WHERE id = ?
		RETURNING id;`)
	var updated int
	if err := s.db.GetContext(ctx, &updated, q, pinned, s.now().UTC(), id); err != nil {
		return model.Exercise{}, notFound(err, "setPinned")
	}
	return s.GetExercise(ctx, updated)
}

// notFound maps sql.ErrNoRows to ErrNotFound and logs anything else.
func notFound(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	log.Error().Err(err).Msgf("[db] %s: query failed", op)
	return err
}
