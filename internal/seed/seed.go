// Package seed loads a TOML exercise catalog into a store.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/db"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/model"
)

//go:embed catalog.toml
var defaultCatalog []byte

// Catalog is the on-disk seed format.
type Catalog struct {
	Exercises []ExerciseSeed `toml:"exercises"`
	Playlists []PlaylistSeed `toml:"playlists"`
}

type ExerciseSeed struct {
	Name         string   `toml:"name"`
	Description  string   `toml:"description"`
	Duration     string   `toml:"duration"`
	AgeGroups    []string `toml:"age_groups"`
	Category     string   `toml:"category"`
	VideoURL     string   `toml:"video_url"`
	ThumbnailURL string   `toml:"thumbnail_url"`
}

// PlaylistSeed references exercises by name.
type PlaylistSeed struct {
	Name      string   `toml:"name"`
	Exercises []string `toml:"exercises"`
	Active    bool     `toml:"active"`
}

// Result summarises a seeding run.
type Result struct {
	Skipped   bool
	Exercises int
	Playlists int
}

// Default returns the embedded demo catalog.
func Default() (Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file, or the embedded default when path is empty.
func Load(path string) (Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Catalog, error) {
	var c Catalog
	if err := toml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return c, c.validate()
}

func (c Catalog) validate() error {
	names := make(map[string]struct{}, len(c.Exercises))
	for i, e := range c.Exercises {
		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("exercise #%d has no name", i+1)
		}
		if _, err := model.ParseDuration(e.Duration); err != nil {
			return fmt.Errorf("exercise %q: %w", e.Name, err)
		}
		if _, dup := names[e.Name]; dup {
			return fmt.Errorf("exercise %q is listed twice", e.Name)
		}
		names[e.Name] = struct{}{}
	}

	active := 0
	for _, p := range c.Playlists {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("playlist with exercises %v has no name", p.Exercises)
		}
		for _, name := range p.Exercises {
			if _, ok := names[name]; !ok {
				return fmt.Errorf("playlist %q references unknown exercise %q", p.Name, name)
			}
		}
		if p.Active {
			active++
		}
	}
	if active > 1 {
		return fmt.Errorf("%d playlists are marked active, at most one may be", active)
	}
	return nil
}

// Apply writes the catalog into s. A store that already holds exercises is
// left alone unless force is set.
func Apply(ctx context.Context, s db.Store, c Catalog, force bool) (Result, error) {
	existing, err := s.CountExercises(ctx)
	if err != nil {
		return Result{}, err
	}
	if existing > 0 && !force {
		log.Info().Int("exercises", existing).Msg("[seed] store already populated, skipping")
		return Result{Skipped: true}, nil
	}

	ids := make(map[string]int, len(c.Exercises))
	for _, e := range c.Exercises {
		seconds, err := model.ParseDuration(e.Duration)
		if err != nil {
			return Result{}, fmt.Errorf("exercise %q: %w", e.Name, err)
		}
		in := model.NewExercise{
			Name:        e.Name,
			Description: e.Description,
			Duration:    seconds,
			AgeGroups:   e.AgeGroups,
			Category:    e.Category,
			VideoURL:    e.VideoURL,
		}
		if e.ThumbnailURL != "" {
			thumb := e.ThumbnailURL
			in.ThumbnailURL = &thumb
		}

		created, err := s.CreateExercise(ctx, in)
		if err != nil {
			return Result{}, fmt.Errorf("failed to seed exercise %q: %w", e.Name, err)
		}
		ids[e.Name] = created.ID
	}

	for _, p := range c.Playlists {
		exerciseIDs := make([]int, 0, len(p.Exercises))
		for _, name := range p.Exercises {
			exerciseIDs = append(exerciseIDs, ids[name])
		}

		created, err := s.CreatePlaylist(ctx, model.NewPlaylist{Name: p.Name, ExerciseIDs: exerciseIDs})
		if err != nil {
			return Result{}, fmt.Errorf("failed to seed playlist %q: %w", p.Name, err)
		}
		if p.Active {
			if err := s.SetActivePlaylist(ctx, created.ID); err != nil {
				return Result{}, fmt.Errorf("failed to activate playlist %q: %w", p.Name, err)
			}
		}
	}

	res := Result{Exercises: len(c.Exercises), Playlists: len(c.Playlists)}
	log.Info().Int("exercises", res.Exercises).Int("playlists", res.Playlists).Msg("[seed] catalog loaded")
	return res, nil
}
