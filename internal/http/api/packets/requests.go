package packets

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/model"
)

// Duration is exercise length in seconds. It decodes from a JSON number or
// from a label such as "2 minutes".
type Duration int

func (d *Duration) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var label string
		if err := json.Unmarshal(b, &label); err != nil {
			return err
		}
		seconds, err := model.ParseDuration(label)
		if err != nil {
			return err
		}
		*d = Duration(seconds)
		return nil
	}

	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("%w: %s", model.ErrInvalidDuration, string(b))
	}
	if f < 0 {
		return fmt.Errorf("%w: negative", model.ErrInvalidDuration)
	}
	if f > model.MaxDurationSeconds {
		return fmt.Errorf("%w: exceeds one day", model.ErrInvalidDuration)
	}
	*d = Duration(math.Round(f))
	return nil
}

// CreateExerciseRequest is the JSON form of POST /exercises.
type CreateExerciseRequest struct {
	Name         string   `json:"name"         binding:"required"`
	Description  string   `json:"description"`
	Duration     Duration `json:"duration"`
	AgeGroups    []string `json:"ageGroups"`
	Category     string   `json:"category"     binding:"required"`
	VideoURL     string   `json:"videoUrl"`
	ThumbnailURL *string  `json:"thumbnailUrl"`
}

func (r CreateExerciseRequest) ToModel() model.NewExercise {
	return model.NewExercise{
		Name:         strings.TrimSpace(r.Name),
		Description:  r.Description,
		Duration:     int(r.Duration),
		AgeGroups:    r.AgeGroups,
		Category:     strings.TrimSpace(r.Category),
		VideoURL:     r.VideoURL,
		ThumbnailURL: r.ThumbnailURL,
	}
}

// CreateExerciseForm is the multipart form of POST /exercises. The video file
// travels in the "video" part. AgeGroups is a JSON array or a comma list.
type CreateExerciseForm struct {
	Name         string `form:"name"         binding:"required"`
	Description  string `form:"description"`
	Duration     string `form:"duration"`
	AgeGroups    string `form:"ageGroups"`
	Category     string `form:"category"     binding:"required"`
	VideoURL     string `form:"videoUrl"`
	ThumbnailURL string `form:"thumbnailUrl"`
}

func (f CreateExerciseForm) ToModel() (model.NewExercise, error) {
	seconds, err := model.ParseDuration(f.Duration)
	if err != nil {
		return model.NewExercise{}, err
	}
	groups, err := ParseAgeGroups(f.AgeGroups)
	if err != nil {
		return model.NewExercise{}, err
	}

	in := model.NewExercise{
		Name:        strings.TrimSpace(f.Name),
		Description: f.Description,
		Duration:    seconds,
		AgeGroups:   groups,
		Category:    strings.TrimSpace(f.Category),
		VideoURL:    f.VideoURL,
	}
	if f.ThumbnailURL != "" {
		thumb := f.ThumbnailURL
		in.ThumbnailURL = &thumb
	}
	return in, nil
}

// ParseAgeGroups accepts `["3-5","6-8"]` or `3-5, 6-8`.
func ParseAgeGroups(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}, nil
	}
	if strings.HasPrefix(raw, "[") {
		var groups []string
		if err := json.Unmarshal([]byte(raw), &groups); err != nil {
			return nil, fmt.Errorf("ageGroups must be a JSON array of strings: %w", err)
		}
		return groups, nil
	}

	groups := []string{}
	for _, g := range strings.Split(raw, ",") {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}
	return groups, nil
}

// UpdateExerciseRequest is PATCH /exercises/:id. Pinned is not accepted here.
type UpdateExerciseRequest struct {
	Name         *string   `json:"name"`
	Description  *string   `json:"description"`
	Duration     *Duration `json:"duration"`
	AgeGroups    *[]string `json:"ageGroups"`
	Category     *string   `json:"category"`
	VideoURL     *string   `json:"videoUrl"`
	ThumbnailURL *string   `json:"thumbnailUrl"`
	Completed    *bool     `json:"completed"`
}

func (r UpdateExerciseRequest) ToPatch() (model.ExercisePatch, error) {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return model.ExercisePatch{}, fmt.Errorf("name must not be empty")
	}
	if r.Category != nil && strings.TrimSpace(*r.Category) == "" {
		return model.ExercisePatch{}, fmt.Errorf("category must not be empty")
	}

	p := model.ExercisePatch{
		Name:         r.Name,
		Description:  r.Description,
		AgeGroups:    r.AgeGroups,
		Category:     r.Category,
		VideoURL:     r.VideoURL,
		ThumbnailURL: r.ThumbnailURL,
		Completed:    r.Completed,
	}
	if r.Duration != nil {
		seconds := int(*r.Duration)
		p.Duration = &seconds
	}
	return p, nil
}

type CreatePlaylistRequest struct {
	Name        string `json:"name"        binding:"required"`
	ExerciseIDs []int  `json:"exerciseIds"`
}

func (r CreatePlaylistRequest) ToModel() model.NewPlaylist {
	ids := r.ExerciseIDs
	if ids == nil {
		ids = []int{}
	}
	return model.NewPlaylist{Name: strings.TrimSpace(r.Name), ExerciseIDs: ids}
}

type UpdatePlaylistRequest struct {
	Name        *string `json:"name"`
	ExerciseIDs *[]int  `json:"exerciseIds"`
}

func (r UpdatePlaylistRequest) ToPatch() (model.PlaylistPatch, error) {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return model.PlaylistPatch{}, fmt.Errorf("name must not be empty")
	}
	return model.PlaylistPatch{Name: r.Name, ExerciseIDs: r.ExerciseIDs}, nil
}

type AddPlaylistExerciseRequest struct {
	ExerciseID int `json:"exerciseId" binding:"required"`
}

type ReorderPlaylistRequest struct {
	ExerciseIDs []int `json:"exerciseIds" binding:"required"`
}

// CreateProgressRequest is POST /progress. CompletedAt defaults to now.
type CreateProgressRequest struct {
	ExerciseID  int     `json:"exerciseId"  binding:"required"`
	CompletedAt *string `json:"completedAt"`
	PlaylistID  *int    `json:"playlistId"`
}
