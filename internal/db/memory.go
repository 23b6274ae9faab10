package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/model"
)

// memoryStore keeps everything in process. It backs local development when
// no DATABASE_URL is set, and the handler tests.
type memoryStore struct {
	mu  sync.RWMutex
	now func() time.Time

	exercises map[int]model.Exercise
	playlists map[int]model.Playlist
	progress  []model.Progress
	activeID  int

	nextExerciseID int
	nextPlaylistID int
	nextProgressID int
}

var _ Store = (*memoryStore)(nil)

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore(opts ...Option) Store {
	o := buildOptions(opts)
	return &memoryStore{
		now:            o.now,
		exercises:      make(map[int]model.Exercise),
		playlists:      make(map[int]model.Playlist),
		nextExerciseID: 1,
		nextPlaylistID: 1,
		nextProgressID: 1,
	}
}

func copyExercise(e model.Exercise) model.Exercise {
	e.AgeGroups = append(model.StringList{}, e.AgeGroups...)
	if e.ThumbnailURL != nil {
		thumb := *e.ThumbnailURL
		e.ThumbnailURL = &thumb
	}
	return e
}

func (m *memoryStore) copyPlaylist(p model.Playlist) model.Playlist {
	p.ExerciseIDs = append(model.IntList{}, p.ExerciseIDs...)
	p.Active = m.activeID != 0 && m.activeID == p.ID
	return p
}

func copyProgress(p model.Progress) model.Progress {
	if p.PlaylistID != nil {
		id := *p.PlaylistID
		p.PlaylistID = &id
	}
	return p
}

// @ EXERCISE
func (m *memoryStore) GetExercise(_ context.Context, id int) (model.Exercise, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.exercises[id]
	if !ok {
		return model.Exercise{}, ErrNotFound
	}
	return copyExercise(e), nil
}

func (m *memoryStore) ListExercises(_ context.Context, category string) ([]model.Exercise, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Exercise, 0, len(m.exercises))
	for _, e := range m.exercises {
		if category != "" && e.Category != category {
			continue
		}
		out = append(out, copyExercise(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) CountExercises(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.exercises), nil
}

func (m *memoryStore) CreateExercise(_ context.Context, in model.NewExercise) (model.Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	e := model.Exercise{
		ID:          m.nextExerciseID,
		Name:        in.Name,
		Description: in.Description,
		Duration:    in.Duration,
		AgeGroups:   append(model.StringList{}, in.AgeGroups...),
		Category:    in.Category,
		VideoURL:    in.VideoURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.ThumbnailURL != nil {
		thumb := *in.ThumbnailURL
		e.ThumbnailURL = &thumb
	}
	m.nextExerciseID++
	m.exercises[e.ID] = e
	return copyExercise(e), nil
}

func (m *memoryStore) UpdateExercise(_ context.Context, id int, patch model.ExercisePatch) (model.Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.exercises[id]
	if !ok {
		return model.Exercise{}, ErrNotFound
	}
	patch.ApplyTo(&e)
	e.UpdatedAt = m.now().UTC()
	m.exercises[id] = e
	return copyExercise(e), nil
}

func (m *memoryStore) DeleteExercise(_ context.Context, id int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.exercises[id]; !ok {
		return false, nil
	}
	delete(m.exercises, id)
	return true, nil
}

func (m *memoryStore) PinExercise(_ context.Context, id int) (model.Exercise, error) {
	return m.setPinned(id, true)
}

func (m *memoryStore) UnpinExercise(_ context.Context, id int) (model.Exercise, error) {
	return m.setPinned(id, false)
}

func (m *memoryStore) setPinned(id int, pinned bool) (model.Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.exercises[id]
	if !ok {
		return model.Exercise{}, ErrNotFound
	}
	e.Pinned = pinned
	e.UpdatedAt = m.now().UTC()
	m.exercises[id] = e
	return copyExercise(e), nil
}

// @ PLAYLIST
func (m *memoryStore) GetPlaylist(_ context.Context, id int) (model.Playlist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.playlists[id]
	if !ok {
		return model.Playlist{}, ErrNotFound
	}
	return m.copyPlaylist(p), nil
}

func (m *memoryStore) ListPlaylists(_ context.Context) ([]model.Playlist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Playlist, 0, len(m.playlists))
	for _, p := range m.playlists {
		out = append(out, m.copyPlaylist(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) GetActivePlaylist(_ context.Context) (model.Playlist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.playlists[m.activeID]
	if !ok {
		return model.Playlist{}, ErrNotFound
	}
	return m.copyPlaylist(p), nil
}

func (m *memoryStore) CreatePlaylist(_ context.Context, in model.NewPlaylist) (model.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	p := model.Playlist{
		ID:          m.nextPlaylistID,
		Name:        in.Name,
		ExerciseIDs: append(model.IntList{}, in.ExerciseIDs...),
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.nextPlaylistID++
	m.playlists[p.ID] = p
	return m.copyPlaylist(p), nil
}

func (m *memoryStore) UpdatePlaylist(_ context.Context, id int, patch model.PlaylistPatch) (model.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.playlists[id]
	if !ok {
		return model.Playlist{}, ErrNotFound
	}
	patch.ApplyTo(&p)
	p.Version++
	p.UpdatedAt = m.now().UTC()
	m.playlists[id] = p
	return m.copyPlaylist(p), nil
}

func (m *memoryStore) DeletePlaylist(_ context.Context, id int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.playlists[id]; !ok {
		return false, nil
	}
	delete(m.playlists, id)
	if m.activeID == id {
		m.activeID = 0
	}
	return true, nil
}

func (m *memoryStore) SetActivePlaylist(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.playlists[id]; !ok {
		return ErrNotFound
	}
	m.activeID = id
	return nil
}

// @ PROGRESS
func (m *memoryStore) GetProgress(_ context.Context, exerciseID int) ([]model.Progress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []model.Progress{}
	for _, p := range m.progress {
		if p.ExerciseID == exerciseID {
			out = append(out, copyProgress(p))
		}
	}
	return out, nil
}

func (m *memoryStore) ListProgress(_ context.Context) ([]model.Progress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Progress, 0, len(m.progress))
	for _, p := range m.progress {
		out = append(out, copyProgress(p))
	}
	return out, nil
}

func (m *memoryStore) ListTodayProgress(_ context.Context) ([]model.Progress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	today := m.now().UTC().Format(model.DayLayout)
	out := []model.Progress{}
	for _, p := range m.progress {
		if p.Day() == today {
			out = append(out, copyProgress(p))
		}
	}
	return out, nil
}

func (m *memoryStore) CreateProgress(_ context.Context, in model.NewProgress) (model.Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := copyProgress(model.Progress{
		ID:          m.nextProgressID,
		ExerciseID:  in.ExerciseID,
		CompletedAt: in.CompletedAt,
		PlaylistID:  in.PlaylistID,
	})
	m.nextProgressID++
	m.progress = append(m.progress, p)
	return copyProgress(p), nil
}

func (m *memoryStore) GetStreakDays(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	days := make([]string, 0, len(m.progress))
	for _, p := range m.progress {
		days = append(days, p.Day())
	}
	return ComputeStreak(days, m.now()), nil
}
