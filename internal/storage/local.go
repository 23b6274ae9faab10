package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// LocalStorage writes uploads to a directory that the HTTP server exposes
// under URLPrefix.
type LocalStorage struct {
	uploadDir string
	urlPrefix string
	now       func() time.Time
}

const DefaultURLPrefix = "/uploads"

func NewLocalStorage(uploadDir string) *LocalStorage {
	return &LocalStorage{uploadDir: uploadDir, urlPrefix: DefaultURLPrefix, now: time.Now}
}

// Dir returns the directory files are written to.
func (ls *LocalStorage) Dir() string {
	return ls.uploadDir
}

func (ls *LocalStorage) Save(ctx context.Context, r io.Reader, filename, contentType string) (string, error) {
	name := objectName(filename, contentType, ls.now())
	log.Debug().Str("original", filename).Str("normalized", name).Msg("[storage] file upload normalized")

	if err := os.MkdirAll(ls.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	uploadPath := filepath.Join(ls.uploadDir, name)
	dst, err := os.Create(uploadPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}

	if _, err := io.Copy(dst, contextReader{ctx: ctx, r: r}); err != nil {
		_ = dst.Close()
		_ = os.Remove(uploadPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(uploadPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return ls.urlPrefix + "/" + name, nil
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
