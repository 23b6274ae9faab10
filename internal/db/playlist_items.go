package db

import (
	"context"

	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/model"
)

// AppendExercise adds exerciseID to the end of the playlist. The exercise must
// exist and must not already be in the playlist.
func AppendExercise(ctx context.Context, s Store, playlistID, exerciseID int) (model.Playlist, error) {
	p, err := s.GetPlaylist(ctx, playlistID)
	if err != nil {
		return model.Playlist{}, err
	}
	if _, err := s.GetExercise(ctx, exerciseID); err != nil {
		return model.Playlist{}, err
	}
	if p.Contains(exerciseID) {
		return model.Playlist{}, ErrDuplicate
	}

	ids := append([]int(p.ExerciseIDs), exerciseID)
	return s.UpdatePlaylist(ctx, playlistID, model.PlaylistPatch{ExerciseIDs: &ids})
}

// RemoveExercise drops every occurrence of exerciseID from the playlist.
// Removing an id that is not present returns ErrNotFound.
func RemoveExercise(ctx context.Context, s Store, playlistID, exerciseID int) (model.Playlist, error) {
	p, err := s.GetPlaylist(ctx, playlistID)
	if err != nil {
		return model.Playlist{}, err
	}
	if !p.Contains(exerciseID) {
		return model.Playlist{}, ErrNotFound
	}

	ids := make([]int, 0, len(p.ExerciseIDs))
	for _, id := range p.ExerciseIDs {
		if id != exerciseID {
			ids = append(ids, id)
		}
	}
	return s.UpdatePlaylist(ctx, playlistID, model.PlaylistPatch{ExerciseIDs: &ids})
}

// ReorderExercises replaces the playlist order. order must hold exactly the
// ids already in the playlist.
func ReorderExercises(ctx context.Context, s Store, playlistID int, order []int) (model.Playlist, error) {
	p, err := s.GetPlaylist(ctx, playlistID)
	if err != nil {
		return model.Playlist{}, err
	}
	if !isPermutation(p.ExerciseIDs, order) {
		return model.Playlist{}, ErrInvalidOrder
	}

	ids := append([]int{}, order...)
	return s.UpdatePlaylist(ctx, playlistID, model.PlaylistPatch{ExerciseIDs: &ids})
}

func isPermutation(current, order []int) bool {
	if len(current) != len(order) {
		return false
	}
	counts := make(map[int]int, len(current))
	for _, id := range current {
		counts[id]++
	}
	for _, id := range order {
		if counts[id] == 0 {
			return false
		}
		counts[id]--
	}
	return true
}
