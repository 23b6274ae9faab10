package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/db"
)

// Error is what handlers return instead of writing a failure themselves.
// It is rendered as {"error": Message} with status Code.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Result lets a handler pick a status other than 200.
type Result struct {
	Status int
	Body   any
}

func Created(body any) Result {
	return Result{Status: http.StatusCreated, Body: body}
}

func NoContent() Result {
	return Result{Status: http.StatusNoContent}
}

type HandlerFunc func(ctx *gin.Context) (any, *Error)

// ResolveEndpoint adapts a HandlerFunc to gin. Handlers that already wrote
// the response (e.g. 304) return nil, nil.
func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		if apiErr != nil {
			ctx.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
			return
		}
		if ctx.Writer.Written() {
			return
		}

		switch r := result.(type) {
		case Result:
			if r.Status == http.StatusNoContent {
				ctx.Status(http.StatusNoContent)
				return
			}
			ctx.JSON(r.Status, r.Body)
		default:
			ctx.JSON(http.StatusOK, result)
		}
	}
}

// StoreError maps store sentinels to HTTP errors. what names the resource,
// e.g. "exercise", for the 404 and 500 messages.
func StoreError(err error, what string) *Error {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return NewError(http.StatusNotFound, what+" not found")
	case errors.Is(err, db.ErrDuplicate):
		return NewError(http.StatusConflict, what+" already exists")
	case errors.Is(err, db.ErrInvalidOrder):
		return NewError(http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Str("resource", what).Msg("[api] store operation failed")
		return NewError(http.StatusInternalServerError, "could not process "+what)
	}
}

// ParamID parses a positive integer path parameter.
func ParamID(ctx *gin.Context, name string) (int, *Error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		return 0, NewError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
