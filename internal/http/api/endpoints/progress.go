package endpoints

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/db"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/http/api"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/http/api/packets"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/model"
)

type ProgressController struct {
	store db.Store
	now   func() time.Time
}

func newProgressController(store db.Store, now func() time.Time) *ProgressController {
	if now == nil {
		now = time.Now
	}
	return &ProgressController{store: store, now: now}
}

// ProgressModule mounts the /progress endpoints. now stamps completions that
// arrive without a completedAt.
func ProgressModule(store db.Store, now func() time.Time) api.Module {
	ctl := newProgressController(store, now)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/progress", ctl.listProgress)
		c.GET("/progress/today", ctl.listTodayProgress)
		c.GET("/progress/streak", ctl.getStreak)
		c.POST("/progress", ctl.createProgress)
	})
}

func (p *ProgressController) listProgress(ctx *gin.Context) (any, *api.Error) {
	if raw := ctx.Query("exerciseId"); raw != "" {
		exerciseID, err := strconv.Atoi(raw)
		if err != nil || exerciseID <= 0 {
			return nil, api.NewError(http.StatusBadRequest, "invalid exerciseId")
		}
		rows, err := p.store.GetProgress(ctx.Request.Context(), exerciseID)
		if err != nil {
			return nil, api.StoreError(err, "progress")
		}
		return rows, nil
	}

	rows, err := p.store.ListProgress(ctx.Request.Context())
	if err != nil {
		return nil, api.StoreError(err, "progress")
	}
	return rows, nil
}

func (p *ProgressController) listTodayProgress(ctx *gin.Context) (any, *api.Error) {
	rows, err := p.store.ListTodayProgress(ctx.Request.Context())
	if err != nil {
		return nil, api.StoreError(err, "progress")
	}
	return rows, nil
}

func (p *ProgressController) getStreak(ctx *gin.Context) (any, *api.Error) {
	streak, err := p.store.GetStreakDays(ctx.Request.Context())
	if err != nil {
		return nil, api.StoreError(err, "streak")
	}
	return packets.StreakResponse{Streak: streak}, nil
}

func (p *ProgressController) createProgress(ctx *gin.Context) (any, *api.Error) {
	var req packets.CreateProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Debug().Err(err).Msg("[progress] create: bad request")
		return nil, api.NewError(http.StatusBadRequest, err.Error())
	}
	if req.ExerciseID < 0 {
		return nil, api.NewError(http.StatusBadRequest, "invalid exerciseId")
	}

	completedAt := model.FormatCompletedAt(p.now())
	if req.CompletedAt != nil {
		t, err := time.Parse(time.RFC3339, *req.CompletedAt)
		if err != nil {
			return nil, api.NewError(http.StatusBadRequest, "completedAt must be an RFC 3339 timestamp")
		}
		completedAt = model.FormatCompletedAt(t)
	}

	row, err := p.store.CreateProgress(ctx.Request.Context(), model.NewProgress{
		ExerciseID:  req.ExerciseID,
		CompletedAt: completedAt,
		PlaylistID:  req.PlaylistID,
	})
	if err != nil {
		return nil, api.StoreError(err, "progress")
	}
	return api.Created(row), nil
}
