package endpoints

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/db"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/http/api"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/http/api/packets"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/model"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/video"
)

// VideoHost is the part of the video client the API uses.
type VideoHost interface {
	PullUpload(ctx context.Context, sourceURL, name, description string) (video.Video, error)
	GetVideo(ctx context.Context, id string) (video.Video, error)
}

type VideoController struct {
	store         db.Store
	host          VideoHost
	publicBaseURL string
}

// VideoModule mounts the video host endpoints. A nil host answers 503 so the
// rest of the API is unaffected by missing credentials.
func VideoModule(store db.Store, host VideoHost, publicBaseURL string) api.Module {
	ctl := &VideoController{store: store, host: host, publicBaseURL: strings.TrimSuffix(publicBaseURL, "/")}
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/exercises/:id/publish", ctl.publishExercise)
		c.GET("/videos/:videoId", ctl.getVideo)
	})
}

func upstreamError(err error) *api.Error {
	var upstream *video.UpstreamError
	switch {
	case errors.Is(err, video.ErrNotConfigured):
		return api.NewError(http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &upstream) && upstream.StatusCode == http.StatusNotFound:
		return api.NewError(http.StatusNotFound, "video not found")
	case errors.As(err, &upstream):
		return api.NewError(http.StatusBadGateway, upstream.Error())
	default:
		log.Error().Err(err).Msg("[video] request failed")
		return api.NewError(http.StatusBadGateway, "video host request failed")
	}
}

// absoluteURL resolves relative upload paths against the public base URL so
// the video host can fetch them.
func (v *VideoController) absoluteURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.IsAbs() {
		return raw, nil
	}
	base, err := url.Parse(v.publicBaseURL + "/")
	if err != nil {
		return "", err
	}
	return base.ResolveReference(u).String(), nil
}

func (v *VideoController) publishExercise(ctx *gin.Context) (any, *api.Error) {
	if v.host == nil {
		return nil, upstreamError(video.ErrNotConfigured)
	}
	id, apiErr := api.ParamID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	reqCtx := ctx.Request.Context()

	ex, err := v.store.GetExercise(reqCtx, id)
	if err != nil {
		return nil, api.StoreError(err, "exercise")
	}
	if ex.VideoURL == "" {
		return nil, api.NewError(http.StatusBadRequest, "exercise has no video to publish")
	}
	source, err := v.absoluteURL(ex.VideoURL)
	if err != nil {
		return nil, api.NewError(http.StatusBadRequest, "exercise video URL is invalid")
	}

	hosted, err := v.host.PullUpload(reqCtx, source, ex.Name, ex.Description)
	if err != nil {
		return nil, upstreamError(err)
	}

	link := hosted.Link
	updated, err := v.store.UpdateExercise(reqCtx, id, model.ExercisePatch{VideoURL: &link})
	if err != nil {
		return nil, api.StoreError(err, "exercise")
	}
	videoID := hosted.ID()
	log.Info().Int("exercise_id", id).Str("video_id", videoID).Msg("[video] exercise published")
	return packets.PublishResponse{Exercise: updated, Video: hosted, VideoID: videoID}, nil
}

func (v *VideoController) getVideo(ctx *gin.Context) (any, *api.Error) {
	if v.host == nil {
		return nil, upstreamError(video.ErrNotConfigured)
	}
	videoID := ctx.Param("videoId")
	for _, r := range videoID {
		if r < '0' || r > '9' {
			return nil, api.NewError(http.StatusBadRequest, "invalid videoId")
		}
	}

	hosted, err := v.host.GetVideo(ctx.Request.Context(), videoID)
	if err != nil {
		return nil, upstreamError(err)
	}
	return hosted, nil
}
