package main

import (
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/config"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/storage"
)

// InitStorage selects and returns the configured storage backend
func InitStorage(cfg config.Config) (storage.BlobStore, error) {
	if cfg.Spaces.Enabled {
		spacesStorage, err := storage.NewSpacesStorage(storage.SpacesConfig{
			Endpoint:  cfg.Spaces.Endpoint,
			Region:    cfg.Spaces.Region,
			Bucket:    cfg.Spaces.Bucket,
			CDNURL:    cfg.Spaces.CDNURL,
			AccessKey: cfg.Spaces.AccessKey,
			SecretKey: cfg.Spaces.SecretKey,
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("cdn", cfg.Spaces.CDNURL).Msg("[storage] using DigitalOcean Spaces")
		return spacesStorage, nil
	}

	local := storage.NewLocalStorage(cfg.Uploads.Dir)
	log.Info().Str("dir", local.Dir()).Msg("[storage] using local file storage")
	return local, nil
}
