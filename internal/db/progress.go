package db

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/model"
)

const progressColumns = `id, exercise_id, completed_at, playlist_id`

// @ PROGRESS
func (s *sqlStore) GetProgress(ctx context.Context, exerciseID int) ([]model.Progress, error) {
	out := []model.Progress{}
	q := s.db.Rebind(`SELECT ` + progressColumns + ` FROM progress WHERE exercise_id = ? ORDER BY id;`)
	if err := s.db.SelectContext(ctx, &out, q, exerciseID); err != nil {
		log.Error().Err(err).Int("exercise_id", exerciseID).Msg("[db] GetProgress: failed to select progress")
		return nil, err
	}
	return out, nil
}

func (s *sqlStore) ListProgress(ctx context.Context) ([]model.Progress, error) {
	out := []model.Progress{}
	if err := s.db.SelectContext(ctx, &out, `SELECT `+progressColumns+` FROM progress ORDER BY id;`); err != nil {
		log.Error().Err(err).Msg("[db] ListProgress: failed to select progress")
		return nil, err
	}
	return out, nil
}

func (s *sqlStore) ListTodayProgress(ctx context.Context) ([]model.Progress, error) {
	out := []model.Progress{}
	today := s.now().UTC().Format(model.DayLayout)
	q := s.db.Rebind(`
		SELECT ` + progressColumns + `
		  FROM progress
		 WHERE substr(completed_at, 1, 10) = ?
		 ORDER BY id;`)
	if err := s.db.SelectContext(ctx, &out, q, today); err != nil {
		log.Error().Err(err).Msg("[db] ListTodayProgress: failed to select progress")
		return nil, err
	}
	return out, nil
}

func (s *sqlStore) CreateProgress(ctx context.Context, in model.NewProgress) (model.Progress, error) {
	var p model.Progress
	q := s.db.Rebind(`
	INSERT INTO progress (exercise_id, completed_at, playlist_id)
	VALUES (?, ?, ?)
	RETURNING ` + progressColumns + `;`)
	if err := s.db.GetContext(ctx, &p, q, in.ExerciseID, in.CompletedAt, in.PlaylistID); err != nil {
		log.Error().Err(err).Int("exercise_id", in.ExerciseID).Msg("[db] CreateProgress: failed to insert progress")
		return model.Progress{}, err
	}
	return p, nil
}

func (s *sqlStore) GetStreakDays(ctx context.Context) (int, error) {
	var days []string
	if err := s.db.SelectContext(ctx, &days, `SELECT DISTINCT substr(completed_at, 1, 10) FROM progress;`); err != nil {
		log.Error().Err(err).Msg("[db] GetStreakDays: failed to select days")
		return 0, err
	}
	return ComputeStreak(days, s.now()), nil
}
