package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"

	"github.com/gabriel-vasile/mimetype"
)

// MaxUploadSize caps a single exercise video.
const MaxUploadSize int64 = 100 << 20

// sniffLen matches the header size mimetype reads by default.
const sniffLen = 3072

var allowedVideoTypes = map[string]struct{}{
	"video/mp4":       {},
	"video/webm":      {},
	"video/quicktime": {},
	"video/x-msvideo": {},
}

// UploadError is a rejected upload: wrong type or too large.
type UploadError struct {
	Reason string
}

func (e *UploadError) Error() string {
	return "upload rejected: " + e.Reason
}

// IsAllowedVideoType reports whether contentType may be stored.
func IsAllowedVideoType(contentType string) bool {
	_, ok := allowedVideoTypes[contentType]
	return ok
}

// ResolveContentType returns the media type of an upload. A declared type is
// trusted unless it is empty or application/octet-stream, in which case the
// leading bytes are sniffed. The returned reader replays the sniffed bytes.
func ResolveContentType(declared string, r io.Reader) (string, io.Reader, error) {
	if declared != "" {
		if mediaType, _, err := mime.ParseMediaType(declared); err == nil {
			declared = mediaType
		}
		if declared != "application/octet-stream" {
			return declared, r, nil
		}
	}

	header := make([]byte, sniffLen)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, fmt.Errorf("failed to read upload header: %w", err)
	}
	header = header[:n]

	detected := mimetype.Detect(header).String()
	if mediaType, _, err := mime.ParseMediaType(detected); err == nil {
		detected = mediaType
	}
	return detected, io.MultiReader(bytes.NewReader(header), r), nil
}

// SaveVideo validates a multipart video part and hands it to store.
func SaveVideo(ctx context.Context, store BlobStore, fh *multipart.FileHeader) (string, error) {
	if fh.Size > MaxUploadSize {
		return "", &UploadError{Reason: fmt.Sprintf("file exceeds %d MiB", MaxUploadSize>>20)}
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	contentType, body, err := ResolveContentType(fh.Header.Get("Content-Type"), src)
	if err != nil {
		return "", err
	}
	if !IsAllowedVideoType(contentType) {
		return "", &UploadError{Reason: fmt.Sprintf("content type %q is not an allowed video type", contentType)}
	}

	return store.Save(ctx, io.LimitReader(body, MaxUploadSize), fh.Filename, contentType)
}
