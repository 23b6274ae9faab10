package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/rs/zerolog/log"
)

// SpacesStorage uploads to an S3-compatible bucket (DigitalOcean Spaces)
// and returns the CDN URL of the object.
type SpacesStorage struct {
	uploader *s3manager.Uploader
	bucket   string
	cdnURL   string
	now      func() time.Time
}

type SpacesConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	CDNURL    string
	AccessKey string
	SecretKey string
}

func NewSpacesStorage(cfg SpacesConfig) (*SpacesStorage, error) {
	awsConfig := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		Endpoint:         aws.String(cfg.Endpoint),
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(false),
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &SpacesStorage{
		uploader: s3manager.NewUploader(sess),
		bucket:   cfg.Bucket,
		cdnURL:   cfg.CDNURL,
		now:      time.Now,
	}, nil
}

func (ss *SpacesStorage) Save(ctx context.Context, r io.Reader, filename, contentType string) (string, error) {
	name := objectName(filename, contentType, ss.now())
	log.Debug().Str("original", filename).Str("normalized", name).Msg("[storage] file upload normalized")

	if contentType == "" {
		contentType = getContentType(name)
	}
	key := "uploads/" + name

	_, err := ss.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(ss.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("[storage] failed to upload file to Spaces")
		return "", fmt.Errorf("failed to upload to Spaces: %w", err)
	}

	return fmt.Sprintf("%s/%s", strings.TrimSuffix(ss.cdnURL, "/"), key), nil
}
