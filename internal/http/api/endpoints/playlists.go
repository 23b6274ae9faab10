package endpoints

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/cache"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/db"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/http/api"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/http/api/packets"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/model"
)

const etagTTL = 24 * time.Hour

type PlaylistController struct {
	store db.Store
	cache cache.Cache
}

func newPlaylistController(store db.Store, c cache.Cache) *PlaylistController {
	return &PlaylistController{store: store, cache: c}
}

// PlaylistModule mounts the /playlists endpoints.
func PlaylistModule(store db.Store, c cache.Cache) api.Module {
	ctl := newPlaylistController(store, c)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/playlists", ctl.listPlaylists)
		c.POST("/playlists", ctl.createPlaylist)
		c.GET("/playlists/active", ctl.getActivePlaylist)
		c.GET("/playlists/:id", ctl.getPlaylist)
		c.PATCH("/playlists/:id", ctl.updatePlaylist)
		c.DELETE("/playlists/:id", ctl.deletePlaylist)
		c.POST("/playlists/:id/activate", ctl.activatePlaylist)

		c.POST("/playlists/:id/exercises", ctl.addExercise)
		c.PUT("/playlists/:id/exercises", ctl.reorderExercises)
		c.DELETE("/playlists/:id/exercises/:exerciseId", ctl.removeExercise)
	})
}

// etagKey includes the row version, so an ETag computed from an older read
// can only ever be stored under that older version's key.
func etagKey(playlistID, version int) string {
	return fmt.Sprintf("playlist:%d:%d:etag", playlistID, version)
}

// invalidate drops the cached ETag of a superseded playlist version. A failed
// delete only leaves an unreachable entry until etagTTL.
func (p *PlaylistController) invalidate(ctx context.Context, playlistID, version int) {
	if version < 1 {
		return
	}
	key := etagKey(playlistID, version)
	if err := p.cache.Del(ctx, key); err != nil {
		log.Warn().Err(err).Str("etag_key", key).Msg("[playlist] failed to invalidate ETag cache")
		return
	}
	log.Debug().Str("etag_key", key).Msg("[playlist] invalidated ETag cache")
}

func computeETag(pl model.Playlist) (string, error) {
	body, err := json.Marshal(pl)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`, nil
}

// etagFor returns the cached ETag for pl, computing and caching it on a miss.
func (p *PlaylistController) etagFor(ctx context.Context, pl model.Playlist) (string, error) {
	key := etagKey(pl.ID, pl.Version)
	if etag, ok, err := p.cache.Get(ctx, key); err != nil {
		log.Warn().Err(err).Str("etag_key", key).Msg("[playlist] ETag cache read failed")
	} else if ok {
		return etag, nil
	}

	etag, err := computeETag(pl)
	if err != nil {
		return "", err
	}
	if err := p.cache.Set(ctx, key, etag, etagTTL); err != nil {
		log.Warn().Err(err).Str("etag_key", key).Msg("[playlist] ETag cache write failed")
	}
	return etag, nil
}

func (p *PlaylistController) listPlaylists(ctx *gin.Context) (any, *api.Error) {
	all, err := p.store.ListPlaylists(ctx.Request.Context())
	if err != nil {
		return nil, api.StoreError(err, "playlists")
	}
	return all, nil
}

func (p *PlaylistController) getPlaylist(ctx *gin.Context) (any, *api.Error) {
	id, apiErr := api.ParamID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	pl, err := p.store.GetPlaylist(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.StoreError(err, "playlist")
	}
	return pl, nil
}

func (p *PlaylistController) getActivePlaylist(ctx *gin.Context) (any, *api.Error) {
	pl, err := p.store.GetActivePlaylist(ctx.Request.Context())
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, api.NewError(http.StatusNotFound, "no active playlist")
		}
		return nil, api.StoreError(err, "playlist")
	}

	etag, err := p.etagFor(ctx.Request.Context(), pl)
	if err != nil {
		log.Error().Err(err).Int("playlist_id", pl.ID).Msg("[playlist] could not compute ETag")
		return pl, nil
	}

	ctx.Header("ETag", etag)
	if match := ctx.GetHeader("If-None-Match"); match != "" && match == etag {
		ctx.AbortWithStatus(http.StatusNotModified)
		return nil, nil
	}
	return pl, nil
}

func (p *PlaylistController) createPlaylist(ctx *gin.Context) (any, *api.Error) {
	var req packets.CreatePlaylistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Debug().Err(err).Msg("[playlist] create: bad request")
		return nil, api.NewError(http.StatusBadRequest, err.Error())
	}

	pl, err := p.store.CreatePlaylist(ctx.Request.Context(), req.ToModel())
	if err != nil {
		return nil, api.StoreError(err, "playlist")
	}
	log.Info().Int("playlist_id", pl.ID).Msg("[playlist] created")
	return api.Created(pl), nil
}

func (p *PlaylistController) updatePlaylist(ctx *gin.Context) (any, *api.Error) {
	id, apiErr := api.ParamID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	var req packets.UpdatePlaylistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.NewError(http.StatusBadRequest, err.Error())
	}
	patch, err := req.ToPatch()
	if err != nil {
		return nil, api.NewError(http.StatusBadRequest, err.Error())
	}

	if patch.IsEmpty() {
		pl, err := p.store.GetPlaylist(ctx.Request.Context(), id)
		if err != nil {
			return nil, api.StoreError(err, "playlist")
		}
		return pl, nil
	}

	pl, err := p.store.UpdatePlaylist(ctx.Request.Context(), id, patch)
	if err != nil {
		return nil, api.StoreError(err, "playlist")
	}
	p.invalidate(ctx.Request.Context(), id, pl.Version-1)
	return pl, nil
}

func (p *PlaylistController) deletePlaylist(ctx *gin.Context) (any, *api.Error) {
	id, apiErr := api.ParamID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	version := 0
	if old, err := p.store.GetPlaylist(ctx.Request.Context(), id); err == nil {
		version = old.Version
	}

	deleted, err := p.store.DeletePlaylist(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.StoreError(err, "playlist")
	}
	if !deleted {
		return nil, api.StoreError(db.ErrNotFound, "playlist")
	}
	p.invalidate(ctx.Request.Context(), id, version)
	log.Info().Int("playlist_id", id).Msg("[playlist] deleted")
	return api.NoContent(), nil
}

func (p *PlaylistController) activatePlaylist(ctx *gin.Context) (any, *api.Error) {
	id, apiErr := api.ParamID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	reqCtx := ctx.Request.Context()

	previous := 0
	if old, err := p.store.GetActivePlaylist(reqCtx); err == nil {
		previous = old.ID
	}

	if err := p.store.SetActivePlaylist(reqCtx, id); err != nil {
		return nil, api.StoreError(err, "playlist")
	}

	pl, err := p.store.GetPlaylist(reqCtx, id)
	if err != nil {
		return nil, api.StoreError(err, "playlist")
	}
	log.Info().Int("playlist_id", id).Int("previous_playlist_id", previous).Msg("[playlist] activated")
	return pl, nil
}

func (p *PlaylistController) addExercise(ctx *gin.Context) (any, *api.Error) {
	id, apiErr := api.ParamID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	var req packets.AddPlaylistExerciseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.NewError(http.StatusBadRequest, err.Error())
	}

	pl, err := db.AppendExercise(ctx.Request.Context(), p.store, id, req.ExerciseID)
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, api.NewError(http.StatusConflict, "exercise is already in the playlist")
		}
		return nil, api.StoreError(err, "playlist or exercise")
	}
	p.invalidate(ctx.Request.Context(), id, pl.Version-1)
	return pl, nil
}

func (p *PlaylistController) removeExercise(ctx *gin.Context) (any, *api.Error) {
	id, apiErr := api.ParamID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	exerciseID, apiErr := api.ParamID(ctx, "exerciseId")
	if apiErr != nil {
		return nil, apiErr
	}

	pl, err := db.RemoveExercise(ctx.Request.Context(), p.store, id, exerciseID)
	if err != nil {
		return nil, api.StoreError(err, "playlist exercise")
	}
	p.invalidate(ctx.Request.Context(), id, pl.Version-1)
	return pl, nil
}

func (p *PlaylistController) reorderExercises(ctx *gin.Context) (any, *api.Error) {
	id, apiErr := api.ParamID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	var req packets.ReorderPlaylistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.NewError(http.StatusBadRequest, err.Error())
	}

	pl, err := db.ReorderExercises(ctx.Request.Context(), p.store, id, req.ExerciseIDs)
	if err != nil {
		return nil, api.StoreError(err, "playlist")
	}
	p.invalidate(ctx.Request.Context(), id, pl.Version-1)
	return pl, nil
}
