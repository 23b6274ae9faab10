package db

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/model"
)

// playlistSelect joins the single app_state row so "active" is derived from
// the pointer instead of a per-row flag.
const playlistSelect = `
	SELECT
	p.id,
	p.name,
	p.exercise_ids,
	CASE WHEN s.active_playlist_id = p.id THEN TRUE ELSE FALSE END AS active,
	p.version,
	p.created_at,
	p.updated_at
	FROM playlists p
	LEFT JOIN app_state s ON s.id = 1`

// @ PLAYLIST
func (s *sqlStore) GetPlaylist(ctx context.Context, id int) (model.Playlist, error) {
	var p model.Playlist
	q := s.db.Rebind(playlistSelect + ` WHERE p.id = ?;`)
	if err := s.db.GetContext(ctx, &p, q, id); err != nil {
		return model.Playlist{}, notFound(err, "GetPlaylist")
	}
	return p, nil
}

func (s *sqlStore) ListPlaylists(ctx context.Context) ([]model.Playlist, error) {
	out := []model.Playlist{}
	if err := s.db.SelectContext(ctx, &out, playlistSelect+` ORDER BY p.id;`); err != nil {
		log.Error().Err(err).Msg("[db] ListPlaylists: failed to select playlists")
		return nil, err
	}
	return out, nil
}

func (s *sqlStore) GetActivePlaylist(ctx context.Context) (model.Playlist, error) {
	var p model.Playlist
	q := playlistSelect + ` WHERE s.active_playlist_id = p.id;`
	if err := s.db.GetContext(ctx, &p, q); err != nil {
		return model.Playlist{}, notFound(err, "GetActivePlaylist")
	}
	return p, nil
}

func (s *sqlStore) CreatePlaylist(ctx context.Context, in model.NewPlaylist) (model.Playlist, error) {
	now := s.now().UTC()
	q := s.db.Rebind(`
	INSERT INTO playlists (name, exercise_ids, created_at, updated_at)
	VALUES (?, ?, ?, ?)
	RETURNING id;`)

	var id int
	if err := s.db.GetContext(ctx, &id, q, in.Name, model.IntList(in.ExerciseIDs), now, now); err != nil {
		log.Error().Err(err).Msg("[db] CreatePlaylist: failed to insert playlist")
		return model.Playlist{}, err
	}
	return s.GetPlaylist(ctx, id)
}

func (s *sqlStore) UpdatePlaylist(ctx context.Context, id int, patch model.PlaylistPatch) (model.Playlist, error) {
	var exerciseIDs any
	if patch.ExerciseIDs != nil {
		exerciseIDs = model.IntList(*patch.ExerciseIDs)
	}

	q := s.db.Rebind(`
		UPDATE playlists
		SET
		name         = COALESCE(?, name),
		exercise_ids = COALESCE(?, exercise_ids),
		version      = version + 1,
		updated_at   = ?
		WHERE id = ?
		RETURNING id;`)

	var updated int
	if err := s.db.GetContext(ctx, &updated, q, patch.Name, exerciseIDs, s.now().UTC(), id); err != nil {
		return model.Playlist{}, notFound(err, "UpdatePlaylist")
	}
	return s.GetPlaylist(ctx, updated)
}

// DeletePlaylist clears the active pointer when it targets id, then removes
// the row, in one transaction.
func (s *sqlStore) DeletePlaylist(ctx context.Context, id int) (deleted bool, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error().Err(rbErr).Msg("[db] DeletePlaylist: rollback failed")
			}
			return
		}
		err = tx.Commit()
	}()

	if _, err = tx.ExecContext(ctx, tx.Rebind(`
		UPDATE app_state
		   SET active_playlist_id = NULL
		 WHERE id = 1 AND active_playlist_id = ?;`), id); err != nil {
		log.Error().Err(err).Int("playlist_id", id).Msg("[db] DeletePlaylist: failed to clear active pointer")
		return false, err
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM playlists WHERE id = ?;`), id)
	if err != nil {
		log.Error().Err(err).Int("playlist_id", id).Msg("[db] DeletePlaylist: failed to delete playlist")
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetActivePlaylist moves the single pointer in one statement, so concurrent
// activations leave exactly one winner.
func (s *sqlStore) SetActivePlaylist(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE app_state
		   SET active_playlist_id = ?
		 WHERE id = 1
		   AND EXISTS (SELECT 1 FROM playlists WHERE id = ?);`), id, id)
	if err != nil {
		log.Error().Err(err).Int("playlist_id", id).Msg("[db] SetActivePlaylist: failed to update pointer")
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
