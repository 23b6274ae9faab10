package endpoints

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/db"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/http/api"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/http/api/packets"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/model"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/storage"
)

// multipartOverhead leaves room for form fields next to the video part.
const multipartOverhead = 1 << 20

type ExerciseController struct {
	store db.Store
	blobs storage.BlobStore
}

func newExerciseController(store db.Store, blobs storage.BlobStore) *ExerciseController {
	return &ExerciseController{store: store, blobs: blobs}
}

// ExerciseModule mounts the /exercises endpoints.
func ExerciseModule(store db.Store, blobs storage.BlobStore) api.Module {
	ctl := newExerciseController(store, blobs)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/exercises", ctl.listExercises)
		c.POST("/exercises", ctl.createExercise)
		c.GET("/exercises/:id", ctl.getExercise)
		c.PATCH("/exercises/:id", ctl.updateExercise)
		c.DELETE("/exercises/:id", ctl.deleteExercise)

		c.PATCH("/exercises/:id/pin", ctl.pinExercise)
		c.PATCH("/exercises/:id/unpin", ctl.unpinExercise)
	})
}

func (e *ExerciseController) listExercises(ctx *gin.Context) (any, *api.Error) {
	category := strings.TrimSpace(ctx.Query("category"))
	all, err := e.store.ListExercises(ctx.Request.Context(), category)
	if err != nil {
		return nil, api.StoreError(err, "exercises")
	}
	return all, nil
}

func (e *ExerciseController) getExercise(ctx *gin.Context) (any, *api.Error) {
	id, apiErr := api.ParamID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	ex, err := e.store.GetExercise(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.StoreError(err, "exercise")
	}
	return ex, nil
}

func (e *ExerciseController) createExercise(ctx *gin.Context) (any, *api.Error) {
	var (
		in     model.NewExercise
		apiErr *api.Error
	)
	if strings.HasPrefix(ctx.ContentType(), "multipart/") {
		in, apiErr = e.bindMultipart(ctx)
	} else {
		in, apiErr = bindJSONExercise(ctx)
	}
	if apiErr != nil {
		return nil, apiErr
	}

	ex, err := e.store.CreateExercise(ctx.Request.Context(), in)
	if err != nil {
		return nil, api.StoreError(err, "exercise")
	}
	log.Info().Int("exercise_id", ex.ID).Str("category", ex.Category).Msg("[exercise] created")
	return api.Created(ex), nil
}

func bindJSONExercise(ctx *gin.Context) (model.NewExercise, *api.Error) {
	var req packets.CreateExerciseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Debug().Err(err).Msg("[exercise] create: bad request")
		return model.NewExercise{}, api.NewError(http.StatusBadRequest, err.Error())
	}
	return req.ToModel(), nil
}

func (e *ExerciseController) bindMultipart(ctx *gin.Context) (model.NewExercise, *api.Error) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, storage.MaxUploadSize+multipartOverhead)

	var form packets.CreateExerciseForm
	if err := ctx.ShouldBind(&form); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return model.NewExercise{}, api.NewError(http.StatusBadRequest, "upload rejected: file too large")
		}
		log.Debug().Err(err).Msg("[exercise] create: bad form")
		return model.NewExercise{}, api.NewError(http.StatusBadRequest, err.Error())
	}

	in, err := form.ToModel()
	if err != nil {
		return model.NewExercise{}, api.NewError(http.StatusBadRequest, err.Error())
	}

	fh, err := ctx.FormFile("video")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return in, nil
	case err != nil:
		return model.NewExercise{}, api.NewError(http.StatusBadRequest, err.Error())
	}

	url, err := storage.SaveVideo(ctx.Request.Context(), e.blobs, fh)
	if err != nil {
		var uploadErr *storage.UploadError
		if errors.As(err, &uploadErr) {
			return model.NewExercise{}, api.NewError(http.StatusBadRequest, uploadErr.Error())
		}
		log.Error().Err(err).Str("filename", fh.Filename).Msg("[exercise] create: could not store video")
		return model.NewExercise{}, api.NewError(http.StatusInternalServerError, "could not store video")
	}
	in.VideoURL = url
	return in, nil
}

func (e *ExerciseController) updateExercise(ctx *gin.Context) (any, *api.Error) {
	id, apiErr := api.ParamID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	var req packets.UpdateExerciseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.NewError(http.StatusBadRequest, err.Error())
	}
	patch, err := req.ToPatch()
	if err != nil {
		return nil, api.NewError(http.StatusBadRequest, err.Error())
	}

	if patch.IsEmpty() {
		ex, err := e.store.GetExercise(ctx.Request.Context(), id)
		if err != nil {
			return nil, api.StoreError(err, "exercise")
		}
		return ex, nil
	}

	ex, err := e.store.UpdateExercise(ctx.Request.Context(), id, patch)
	if err != nil {
		return nil, api.StoreError(err, "exercise")
	}
	return ex, nil
}

func (e *ExerciseController) deleteExercise(ctx *gin.Context) (any, *api.Error) {
	id, apiErr := api.ParamID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	deleted, err := e.store.DeleteExercise(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.StoreError(err, "exercise")
	}
	if !deleted {
		return nil, api.StoreError(db.ErrNotFound, "exercise")
	}
	log.Info().Int("exercise_id", id).Msg("[exercise] deleted")
	return api.NoContent(), nil
}

func (e *ExerciseController) pinExercise(ctx *gin.Context) (any, *api.Error) {
	return e.setPinned(ctx, true)
}

func (e *ExerciseController) unpinExercise(ctx *gin.Context) (any, *api.Error) {
	return e.setPinned(ctx, false)
}

func (e *ExerciseController) setPinned(ctx *gin.Context, pinned bool) (any, *api.Error) {
	id, apiErr := api.ParamID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	var (
		ex  model.Exercise
		err error
	)
	if pinned {
		ex, err = e.store.PinExercise(ctx.Request.Context(), id)
	} else {
		ex, err = e.store.UnpinExercise(ctx.Request.Context(), id)
	}
	if err != nil {
		return nil, api.StoreError(err, "exercise")
	}
	return ex, nil
}
