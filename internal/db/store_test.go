package db

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/model"
)

var fixedNow = time.Date(2026, 5, 20, 9, 30, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type storeFactory func(t *testing.T, c *clock) Store

func openSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()
	conn, err := Open(ctx, DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, RunMigrations(ctx, conn))
	return conn
}

func factories() map[string]storeFactory {
	f := map[string]storeFactory{
		"memory": func(t *testing.T, c *clock) Store {
			return NewMemoryStore(WithClock(c.Now))
		},
		"sqlite": func(t *testing.T, c *clock) Store {
			return NewSQLStore(openSQLite(t), WithClock(c.Now))
		},
	}

	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		f["postgres"] = func(t *testing.T, c *clock) Store {
			ctx := context.Background()
			conn, err := Open(ctx, DriverPostgres, url)
			require.NoError(t, err)
			t.Cleanup(func() { _ = conn.Close() })
			require.NoError(t, RunMigrations(ctx, conn))
			_, err = conn.ExecContext(ctx, `TRUNCATE exercises, playlists, progress, app_state RESTART IDENTITY CASCADE;`)
			require.NoError(t, err)
			require.NoError(t, RunMigrations(ctx, conn))
			return NewSQLStore(conn, WithClock(c.Now))
		}
	}
	return f
}

// forEachStore runs fn against every Store implementation with a fresh,
// empty store and a clock pinned to fixedNow.
func forEachStore(t *testing.T, fn func(t *testing.T, s Store, c *clock)) {
	for name, factory := range factories() {
		t.Run(name, func(t *testing.T) {
			c := &clock{now: fixedNow}
			fn(t, factory(t, c), c)
		})
	}
}

func newFrogJumps() model.NewExercise {
	thumb := "/uploads/frog.png"
	return model.NewExercise{
		Name:         "Frog Jumps",
		Description:  "Squat down and leap like a frog",
		Duration:     120,
		AgeGroups:    []string{"3-5", "6-8"},
		Category:     "cardio",
		VideoURL:     "/uploads/frog.mp4",
		ThumbnailURL: &thumb,
	}
}

// withoutUpdatedAt drops the fields that legitimately change on every write.
func withoutUpdatedAt(e model.Exercise) model.Exercise {
	e.UpdatedAt = time.Time{}
	e.CreatedAt = time.Time{}
	return e
}

func TestCreateExerciseDefaults(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, _ *clock) {
		ctx := context.Background()

		first, err := s.CreateExercise(ctx, newFrogJumps())
		require.NoError(t, err)
		second, err := s.CreateExercise(ctx, model.NewExercise{Name: "Bear Crawl", Category: "strength"})
		require.NoError(t, err)

		assert.NotZero(t, first.ID)
		assert.NotEqual(t, first.ID, second.ID)
		assert.False(t, first.Pinned)
		assert.False(t, first.Completed)
		assert.Equal(t, model.StringList{"3-5", "6-8"}, first.AgeGroups)
		require.NotNil(t, first.ThumbnailURL)
		assert.Equal(t, "/uploads/frog.png", *first.ThumbnailURL)
		assert.True(t, first.CreatedAt.Equal(fixedNow))

		assert.Nil(t, second.ThumbnailURL)
		assert.NotNil(t, second.AgeGroups)
		assert.Empty(t, second.AgeGroups)

		n, err := s.CountExercises(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}

func TestListExercisesByCategory(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, _ *clock) {
		ctx := context.Background()

		for _, in := range []model.NewExercise{
			{Name: "Frog Jumps", Category: "cardio"},
			{Name: "Tree Pose", Category: "balance"},
			{Name: "Star Jumps", Category: "cardio"},
		} {
			_, err := s.CreateExercise(ctx, in)
			require.NoError(t, err)
		}

		all, err := s.ListExercises(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 3)

		cardio, err := s.ListExercises(ctx, "cardio")
		require.NoError(t, err)
		require.Len(t, cardio, 2)
		assert.Equal(t, "Frog Jumps", cardio[0].Name)
		assert.Equal(t, "Star Jumps", cardio[1].Name)

		none, err := s.ListExercises(ctx, "Cardio")
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})
}

func TestUpdateExerciseRoundTrip(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, c *clock) {
		ctx := context.Background()

		created, err := s.CreateExercise(ctx, newFrogJumps())
		require.NoError(t, err)

		c.Set(fixedNow.Add(time.Hour))
		name := "X"
		_, err = s.UpdateExercise(ctx, created.ID, model.ExercisePatch{Name: &name})
		require.NoError(t, err)

		got, err := s.GetExercise(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "X", got.Name)
		assert.True(t, got.UpdatedAt.Equal(fixedNow.Add(time.Hour)))

		want := withoutUpdatedAt(created)
		want.Name = "X"
		assert.Equal(t, want, withoutUpdatedAt(got))
	})
}

func TestUpdateExerciseEveryField(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, _ *clock) {
		ctx := context.Background()

		created, err := s.CreateExercise(ctx, model.NewExercise{Name: "Bear Crawl"})
		require.NoError(t, err)

		desc, dur, cat, video, thumb, done := "Walk on hands and feet", 45, "strength", "/uploads/bear.mp4", "/uploads/bear.png", true
		groups := []string{"6-8"}
		got, err := s.UpdateExercise(ctx, created.ID, model.ExercisePatch{
			Description:  &desc,
			Duration:     &dur,
			AgeGroups:    &groups,
			Category:     &cat,
			VideoURL:     &video,
			ThumbnailURL: &thumb,
			Completed:    &done,
		})
		require.NoError(t, err)

		assert.Equal(t, "Bear Crawl", got.Name)
		assert.Equal(t, desc, got.Description)
		assert.Equal(t, dur, got.Duration)
		assert.Equal(t, model.StringList{"6-8"}, got.AgeGroups)
		assert.Equal(t, cat, got.Category)
		assert.Equal(t, video, got.VideoURL)
		require.NotNil(t, got.ThumbnailURL)
		assert.Equal(t, thumb, *got.ThumbnailURL)
		assert.True(t, got.Completed)
		assert.False(t, got.Pinned)
	})
}

func TestExerciseNotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, _ *clock) {
		ctx := context.Background()
		name := "ghost"

		_, err := s.GetExercise(ctx, 404)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.UpdateExercise(ctx, 404, model.ExercisePatch{Name: &name})
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.PinExercise(ctx, 404)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.UnpinExercise(ctx, 404)
		assert.ErrorIs(t, err, ErrNotFound)

		deleted, err := s.DeleteExercise(ctx, 404)
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestPinThenUnpin(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, _ *clock) {
		ctx := context.Background()

		created, err := s.CreateExercise(ctx, newFrogJumps())
		require.NoError(t, err)

		pinned, err := s.PinExercise(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, pinned.Pinned)

		unpinned, err := s.UnpinExercise(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, unpinned.Pinned)
		assert.Equal(t, withoutUpdatedAt(created), withoutUpdatedAt(unpinned))
	})
}

func TestDeleteExerciseLeavesDanglingPlaylistID(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, _ *clock) {
		ctx := context.Background()

		e, err := s.CreateExercise(ctx, newFrogJumps())
		require.NoError(t, err)
		p, err := s.CreatePlaylist(ctx, model.NewPlaylist{Name: "Morning", ExerciseIDs: []int{e.ID, 99}})
		require.NoError(t, err)
		_, err = s.CreateProgress(ctx, model.NewProgress{ExerciseID: e.ID, CompletedAt: model.FormatCompletedAt(fixedNow)})
		require.NoError(t, err)

		deleted, err := s.DeleteExercise(ctx, e.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = s.GetExercise(ctx, e.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		got, err := s.GetPlaylist(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, model.IntList{e.ID, 99}, got.ExerciseIDs)

		rows, err := s.GetProgress(ctx, e.ID)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})
}

func TestActivePlaylistScenario(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, _ *clock) {
		ctx := context.Background()

		_, err := s.GetActivePlaylist(ctx)
		assert.ErrorIs(t, err, ErrNotFound)

		today, err := s.CreatePlaylist(ctx, model.NewPlaylist{Name: "Today", ExerciseIDs: []int{1, 2, 3}})
		require.NoError(t, err)
		assert.False(t, today.Active)
		assert.Equal(t, model.IntList{1, 2, 3}, today.ExerciseIDs)

		require.NoError(t, s.SetActivePlaylist(ctx, today.ID))
		active, err := s.GetActivePlaylist(ctx)
		require.NoError(t, err)
		assert.Equal(t, today.ID, active.ID)
		assert.True(t, active.Active)

		tomorrow, err := s.CreatePlaylist(ctx, model.NewPlaylist{Name: "Tomorrow"})
		require.NoError(t, err)
		require.NoError(t, s.SetActivePlaylist(ctx, tomorrow.ID))

		first, err := s.GetPlaylist(ctx, today.ID)
		require.NoError(t, err)
		assert.False(t, first.Active)

		active, err = s.GetActivePlaylist(ctx)
		require.NoError(t, err)
		assert.Equal(t, tomorrow.ID, active.ID)
		assert.Empty(t, active.ExerciseIDs)
	})
}

func countActive(t *testing.T, s Store) int {
	t.Helper()
	all, err := s.ListPlaylists(context.Background())
	require.NoError(t, err)
	n := 0
	for _, p := range all {
		if p.Active {
			n++
		}
	}
	return n
}

func TestSetActivePlaylistKeepsExactlyOne(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, _ *clock) {
		ctx := context.Background()

		var ids []int
		for _, name := range []string{"A", "B", "C", "D"} {
			p, err := s.CreatePlaylist(ctx, model.NewPlaylist{Name: name})
			require.NoError(t, err)
			ids = append(ids, p.ID)
		}

		for _, id := range []int{ids[0], ids[2], ids[2], ids[1], ids[3]} {
			require.NoError(t, s.SetActivePlaylist(ctx, id))
			assert.Equal(t, 1, countActive(t, s))
		}

		assert.ErrorIs(t, s.SetActivePlaylist(ctx, 999), ErrNotFound)
		active, err := s.GetActivePlaylist(ctx)
		require.NoError(t, err)
		assert.Equal(t, ids[3], active.ID)
	})
}

func TestSetActivePlaylistConcurrent(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, _ *clock) {
		ctx := context.Background()

		var ids []int
		for i := 0; i < 8; i++ {
			p, err := s.CreatePlaylist(ctx, model.NewPlaylist{Name: "P"})
			require.NoError(t, err)
			ids = append(ids, p.ID)
		}
		require.NoError(t, s.SetActivePlaylist(ctx, ids[0]))

		var wg sync.WaitGroup
		errs := make(chan error, 64)
		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				errs <- s.SetActivePlaylist(ctx, id)
			}(ids[i%len(ids)])
		}

		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				all, err := s.ListPlaylists(ctx)
				if err != nil {
					errs <- err
					return
				}
				n := 0
				for _, p := range all {
					if p.Active {
						n++
					}
				}
				if n != 1 {
					errs <- assert.AnError
				}
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			assert.NoError(t, err)
		}
		assert.Equal(t, 1, countActive(t, s))
	})
}

func TestDeleteActivePlaylistClearsPointer(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, _ *clock) {
		ctx := context.Background()

		keep, err := s.CreatePlaylist(ctx, model.NewPlaylist{Name: "Keep"})
		require.NoError(t, err)
		gone, err := s.CreatePlaylist(ctx, model.NewPlaylist{Name: "Gone"})
		require.NoError(t, err)
		require.NoError(t, s.SetActivePlaylist(ctx, gone.ID))

		deleted, err := s.DeletePlaylist(ctx, gone.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = s.GetActivePlaylist(ctx)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, 0, countActive(t, s))

		deleted, err = s.DeletePlaylist(ctx, gone.ID)
		require.NoError(t, err)
		assert.False(t, deleted)

		require.NoError(t, s.SetActivePlaylist(ctx, keep.ID))
		deleted, err = s.DeletePlaylist(ctx, gone.ID)
		require.NoError(t, err)
		assert.False(t, deleted)
		assert.Equal(t, 1, countActive(t, s))
	})
}

func TestUpdatePlaylist(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, _ *clock) {
		ctx := context.Background()

		p, err := s.CreatePlaylist(ctx, model.NewPlaylist{Name: "Morning", ExerciseIDs: []int{3, 1}})
		require.NoError(t, err)
		assert.Equal(t, 1, p.Version)
		require.NoError(t, s.SetActivePlaylist(ctx, p.ID))

		ids := []int{1, 3, 2}
		got, err := s.UpdatePlaylist(ctx, p.ID, model.PlaylistPatch{ExerciseIDs: &ids})
		require.NoError(t, err)
		assert.Equal(t, "Morning", got.Name)
		assert.Equal(t, model.IntList{1, 3, 2}, got.ExerciseIDs)
		assert.True(t, got.Active)
		assert.Equal(t, 2, got.Version)

		// same body, same clock: the version still moves
		got, err = s.UpdatePlaylist(ctx, p.ID, model.PlaylistPatch{ExerciseIDs: &ids})
		require.NoError(t, err)
		assert.Equal(t, 3, got.Version)

		active, err := s.GetActivePlaylist(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, active.Version)

		name := "Evening"
		_, err = s.UpdatePlaylist(ctx, 404, model.PlaylistPatch{Name: &name})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPlaylistItemHelpers(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, _ *clock) {
		ctx := context.Background()

		var ids []int
		for _, name := range []string{"Frog Jumps", "Tree Pose", "Star Jumps"} {
			e, err := s.CreateExercise(ctx, model.NewExercise{Name: name})
			require.NoError(t, err)
			ids = append(ids, e.ID)
		}
		p, err := s.CreatePlaylist(ctx, model.NewPlaylist{Name: "Mix", ExerciseIDs: ids[:2]})
		require.NoError(t, err)

		got, err := AppendExercise(ctx, s, p.ID, ids[2])
		require.NoError(t, err)
		assert.Equal(t, model.IntList{ids[0], ids[1], ids[2]}, got.ExerciseIDs)

		_, err = AppendExercise(ctx, s, p.ID, ids[0])
		assert.ErrorIs(t, err, ErrDuplicate)
		_, err = AppendExercise(ctx, s, p.ID, 999)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = AppendExercise(ctx, s, 999, ids[0])
		assert.ErrorIs(t, err, ErrNotFound)

		got, err = ReorderExercises(ctx, s, p.ID, []int{ids[2], ids[0], ids[1]})
		require.NoError(t, err)
		assert.Equal(t, model.IntList{ids[2], ids[0], ids[1]}, got.ExerciseIDs)

		_, err = ReorderExercises(ctx, s, p.ID, []int{ids[2], ids[0]})
		assert.ErrorIs(t, err, ErrInvalidOrder)
		_, err = ReorderExercises(ctx, s, p.ID, []int{ids[2], ids[0], ids[0]})
		assert.ErrorIs(t, err, ErrInvalidOrder)

		got, err = RemoveExercise(ctx, s, p.ID, ids[0])
		require.NoError(t, err)
		assert.Equal(t, model.IntList{ids[2], ids[1]}, got.ExerciseIDs)

		_, err = RemoveExercise(ctx, s, p.ID, ids[0])
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestProgressQueries(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, _ *clock) {
		ctx := context.Background()
		playlistID := 4

		yesterday := model.FormatCompletedAt(fixedNow.AddDate(0, 0, -1))
		today := model.FormatCompletedAt(fixedNow)

		first, err := s.CreateProgress(ctx, model.NewProgress{ExerciseID: 1, CompletedAt: yesterday})
		require.NoError(t, err)
		second, err := s.CreateProgress(ctx, model.NewProgress{ExerciseID: 2, CompletedAt: today, PlaylistID: &playlistID})
		require.NoError(t, err)
		_, err = s.CreateProgress(ctx, model.NewProgress{ExerciseID: 1, CompletedAt: today})
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
		assert.Nil(t, first.PlaylistID)
		require.NotNil(t, second.PlaylistID)
		assert.Equal(t, 4, *second.PlaylistID)
		assert.Equal(t, today, second.CompletedAt)

		all, err := s.ListProgress(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		todays, err := s.ListTodayProgress(ctx)
		require.NoError(t, err)
		require.Len(t, todays, 2)
		for _, p := range todays {
			assert.Equal(t, "2026-05-20", p.Day())
		}

		forOne, err := s.GetProgress(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, forOne, 2)

		none, err := s.GetProgress(ctx, 42)
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})
}

func TestGetStreakDays(t *testing.T) {
	day := func(offset int) string {
		return model.FormatCompletedAt(fixedNow.AddDate(0, 0, offset))
	}

	cases := []struct {
		name string
		rows []string
		want int
	}{
		{"no progress", nil, 0},
		{"only today", []string{day(0)}, 1},
		{"only yesterday", []string{day(-1)}, 0},
		{"three days ending today", []string{day(-2), day(-1), day(0)}, 3},
		{"gap breaks the run", []string{day(0), day(-1), day(-3), day(-4)}, 2},
		{"same day counted once", []string{day(0), day(0), day(-1), day(-1)}, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			forEachStore(t, func(t *testing.T, s Store, _ *clock) {
				ctx := context.Background()
				for _, at := range tc.rows {
					_, err := s.CreateProgress(ctx, model.NewProgress{ExerciseID: 1, CompletedAt: at})
					require.NoError(t, err)
				}

				streak, err := s.GetStreakDays(ctx)
				require.NoError(t, err)
				assert.Equal(t, tc.want, streak)
			})
		})
	}
}

func TestStreakFollowsClock(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, c *clock) {
		ctx := context.Background()
		_, err := s.CreateProgress(ctx, model.NewProgress{ExerciseID: 1, CompletedAt: model.FormatCompletedAt(fixedNow)})
		require.NoError(t, err)

		c.Set(fixedNow.AddDate(0, 0, 1))
		streak, err := s.GetStreakDays(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, streak)

		todays, err := s.ListTodayProgress(ctx)
		require.NoError(t, err)
		assert.Empty(t, todays)
	})
}
