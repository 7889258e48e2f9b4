package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type PutInput struct {
	Filename    string
	ContentType string
}

type PutResult struct {
	Key string
	URL string
}

// Storage archives exported reports.
type Storage interface {
	Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error)
	Delete(ctx context.Context, key string) error
}

type Config struct {
	Driver        string
	LocalDir      string
	URLPrefix     string
	S3Region      string
	S3Bucket      string
	S3Prefix      string
	PublicBaseURL string
}

func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Driver {
	case "", "local":
		dir := cfg.LocalDir
		if dir == "" {
			dir = "./storage/reports"
		}
		prefix := cfg.URLPrefix
		if prefix == "" {
			prefix = "/reports"
		}
		return NewLocal(dir, prefix), nil
	case "s3":
		if cfg.S3Region == "" || cfg.S3Bucket == "" || cfg.PublicBaseURL == "" {
			return nil, fmt.Errorf("s3 storage requires region, bucket and public base url")
		}
		return NewS3(ctx, S3Config{
			Region:        cfg.S3Region,
			Bucket:        cfg.S3Bucket,
			Prefix:        cfg.S3Prefix,
			PublicBaseURL: cfg.PublicBaseURL,
		})
	}
	return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
}

// objectKey keeps the report name readable and unique: a date folder, a
// random id and the original extension.
func objectKey(filename string, now time.Time) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%s-%s%s", now.Format("2006/01/02"), base, uuid.NewString()[:8], ext)
}
