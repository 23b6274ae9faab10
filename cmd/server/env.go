package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/cache"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/config"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/db"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/http/api/endpoints"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/storage"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/video"
)

// cacheSweepInterval is how often the in-memory ETag cache drops expired keys.
const cacheSweepInterval = 10 * time.Minute

// Environment is everything the server needs once configuration is loaded.
type Environment struct {
	Config config.Config
	DB     *sqlx.DB // nil for the in-memory store
	Store  db.Store
	Cache  cache.Cache
	Blobs  storage.BlobStore
	Videos endpoints.VideoHost

	closers []func() error
}

// StoreName reports which backend Store is, for /ping.
func (e *Environment) StoreName() string {
	if e.DB == nil {
		return "memory"
	}
	return e.DB.DriverName()
}

func (e *Environment) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			log.Warn().Err(err).Msg("close failed")
		}
	}
}

// OpenStore connects and migrates the configured database, or returns the
// in-memory store when no DATABASE_URL is set.
func OpenStore(ctx context.Context, cfg config.Config) (*sqlx.DB, db.Store, error) {
	if cfg.Database.URL == "" {
		log.Warn().Msg("[db] DATABASE_URL not set, using in-memory store")
		return nil, db.NewMemoryStore(), nil
	}

	conn, err := db.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.RunMigrations(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("db migrate: %w", err)
	}
	return conn, db.NewSQLStore(conn), nil
}

// LoadEnvironment builds the store, cache, blob storage and video host.
// Redis and Vimeo are optional: without them the server falls back to the
// in-memory cache and answers the video endpoints with 503.
func LoadEnvironment(ctx context.Context, cfg config.Config) (*Environment, error) {
	env := &Environment{Config: cfg}

	conn, store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	env.DB, env.Store = conn, store
	if conn != nil {
		env.closers = append(env.closers, conn.Close)
	}

	env.Cache = initCache(ctx, cfg, env)

	blobs, err := InitStorage(cfg)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Blobs = blobs

	videos, err := initVideoHost(ctx, cfg)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Videos = videos

	return env, nil
}

func initCache(ctx context.Context, cfg config.Config, env *Environment) cache.Cache {
	if cfg.Redis.Address != "" {
		rc := cache.NewRedisCache(cfg.Redis.Address, cfg.Redis.Username, cfg.Redis.Password)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()

		err := rc.Ping(pingCtx)
		if err == nil {
			log.Info().Str("address", cfg.Redis.Address).Msg("[cache] using redis")
			env.closers = append(env.closers, rc.Close)
			return rc
		}
		log.Error().Err(err).Str("address", cfg.Redis.Address).Msg("[cache] redis unreachable, falling back to memory")
		_ = rc.Close()
	}
	return cache.NewMemoryCache(ctx, cacheSweepInterval)
}

// initVideoHost returns a nil VideoHost, not a nil *video.Client, when
// Vimeo credentials are absent.
func initVideoHost(ctx context.Context, cfg config.Config) (endpoints.VideoHost, error) {
	vc := video.Config{
		AccessToken:  cfg.Vimeo.AccessToken,
		ClientID:     cfg.Vimeo.ClientID,
		ClientSecret: cfg.Vimeo.ClientSecret,
	}
	if !vc.Configured() {
		log.Info().Msg("[video] Vimeo credentials not set, publishing disabled")
		return nil, nil
	}

	client, err := video.New(ctx, vc)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Vimeo client: %w", err)
	}
	return client, nil
}
