package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BlobStore persists an uploaded file and returns the URL it is served from.
type BlobStore interface {
	Save(ctx context.Context, r io.Reader, filename, contentType string) (string, error)
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// normalizeFilename creates a unique, normalized filename without spaces:
// basename_timestamp_shortid.ext
func normalizeFilename(originalFilename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	baseName := strings.TrimSuffix(filepath.Base(originalFilename), filepath.Ext(originalFilename))

	baseName = strings.ReplaceAll(baseName, " ", "_")
	baseName = unsafeChars.ReplaceAllString(baseName, "")
	if baseName == "" {
		baseName = "file"
	}
	if !isSafeExt(ext) {
		ext = ""
	}

	timestamp := now.UTC().Format("20060102_150405")
	shortID := strings.SplitN(uuid.NewString(), "-", 2)[0]

	return fmt.Sprintf("%s_%s_%s%s", baseName, timestamp, shortID, ext)
}

// objectName normalizes filename and, when it carries no usable extension,
// derives one from contentType.
func objectName(filename, contentType string, now time.Time) string {
	name := normalizeFilename(filename, now)
	if filepath.Ext(name) == "" {
		name += extensionFor(contentType)
	}
	return name
}

func isSafeExt(ext string) bool {
	return len(ext) > 1 && unsafeChars.ReplaceAllString(ext[1:], "") == ext[1:]
}

// extensionFor picks a file extension for content types the upload path accepts.
func extensionFor(contentType string) string {
	switch contentType {
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	case "video/quicktime":
		return ".mov"
	case "video/x-msvideo":
		return ".avi"
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	default:
		return ""
	}
}

func getContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".avi":
		return "video/x-msvideo"
	case ".mov":
		return "video/quicktime"
	default:
		return "application/octet-stream"
	}
}
