package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/config"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/seed"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("application error")
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "pocketbuddy",
		Usage: "REST backend for the My Pocket Buddy exercise app",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Directory holding config.yaml and .env",
				Value:   ".",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			seedCommand(),
		},
		DefaultCommand: "serve",
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "seed",
				Usage: "Load the demo catalog when the store is empty",
			},
		},
		Action: serve,
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply database migrations and exit",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := requireDatabase(cfg, "migrate"); err != nil {
				return err
			}
			conn, _, err := OpenStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer conn.Close()
			log.Info().Str("driver", cfg.Database.Driver).Msg("[db] migrations applied")
			return nil
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Load a demo catalog of exercises and playlists",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "TOML catalog to load instead of the built-in one",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Seed even if exercises already exist",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := requireDatabase(cfg, "seed"); err != nil {
				return err
			}
			conn, store, err := OpenStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer conn.Close()

			file := cmd.String("file")
			if file == "" {
				file = cfg.SeedFile
			}
			catalog, err := seed.Load(file)
			if err != nil {
				return err
			}
			res, err := seed.Apply(ctx, store, catalog, cmd.Bool("force"))
			if err != nil {
				return err
			}
			logSeedResult(res)
			return nil
		},
	}
}

// requireDatabase stops one-shot commands that would otherwise write to the
// in-memory store and exit.
func requireDatabase(cfg config.Config, command string) error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required to %s", command)
	}
	return nil
}

func loadConfig(cmd *cli.Command) (config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	setupLogger(cfg)
	return cfg, nil
}

func setupLogger(cfg config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
}

func logSeedResult(res seed.Result) {
	if res.Skipped {
		log.Info().Msg("[seed] store already has exercises, skipped")
		return
	}
	log.Info().Int("exercises", res.Exercises).Int("playlists", res.Playlists).Msg("[seed] catalog loaded")
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := LoadEnvironment(ctx, cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	if cmd.Bool("seed") {
		catalog, err := seed.Load(cfg.SeedFile)
		if err != nil {
			return err
		}
		res, err := seed.Apply(ctx, env.Store, catalog, false)
		if err != nil {
			return err
		}
		logSeedResult(res)
	}

	r := NewRouter()
	RegisterRoutes(r, env, time.Now)

	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", cfg.Server.Address).Str("store", env.StoreName()).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("server exiting")
	return nil
}
