package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/http/api"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/http/api/endpoints"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/http/api/packets"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/storage"
)

// NewRouter builds the gin engine with recovery, request logging and CORS.
func NewRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"If-None-Match",
		},
		ExposeHeaders: []string{
			"Content-Length",
			"ETag",
		},
		AllowCredentials: false,
	}))
	return r
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, env *Environment, now func() time.Time) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, packets.PingResponse{Status: "ok", Store: env.StoreName()})
	})

	api.MountGroup(r, api.GroupConfig{
		Prefix:     "/api",
		Middleware: []gin.HandlerFunc{middleware.Timeout(env.Config.Server.RequestTimeout)},
	},
		endpoints.ExerciseModule(env.Store, env.Blobs),
		endpoints.PlaylistModule(env.Store, env.Cache),
		endpoints.ProgressModule(env.Store, now),
		endpoints.VideoModule(env.Store, env.Videos, env.Config.Server.PublicBaseURL),
	)

	// Static content
	if local, ok := env.Blobs.(*storage.LocalStorage); ok {
		r.Static(storage.DefaultURLPrefix, local.Dir())
	}
}
