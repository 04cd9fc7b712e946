// Package storage uploads files to cloud storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/markuphq/markup/internal/retry"
	"google.golang.org/api/option"
)

type API interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	CreateBucket(ctx context.Context, project, bucket string) error
	Upload(ctx context.Context, bucket, object string, r io.Reader) error
	Close() error
}

type client struct {
	*gcs.Client
}

func NewAPI(ctx context.Context, opts ...option.ClientOption) (API, error) {
	c, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &client{c}, nil
}

func (c *client) BucketExists(ctx context.Context, bucket string) (bool, error) {
	_, err := c.Bucket(bucket).Attrs(ctx)
	if errors.Is(err, gcs.ErrBucketNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (c *client) CreateBucket(ctx context.Context, project, bucket string) error {
	return c.Bucket(bucket).Create(ctx, project, nil)
}

func (c *client) Upload(ctx context.Context, bucket, object string, r io.Reader) error {
	w := c.Bucket(bucket).Object(object).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// ParseURL splits gs://bucket/path/to/object into bucket and object path.
func ParseURL(raw string) (string, string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "gs" || u.Host == "" {
		return "", "", fmt.Errorf("invalid url %q, the url should be in the form of gs://bucket_name/path/to/blob", raw)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

type Service struct {
	api     API
	exec    *retry.Executor
	project string
	logger  *slog.Logger
}

func New(api API, exec *retry.Executor, project string, logger *slog.Logger) *Service {
	return &Service{api: api, exec: exec, project: project, logger: logger}
}

func (s *Service) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := retry.Do(ctx, s.exec, "get bucket", func(ctx context.Context) (bool, error) {
		return s.api.BucketExists(ctx, bucket)
	})
	if err != nil {
		return fmt.Errorf("failed to get bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}

	s.logger.Info("bucket not found, creating it", "bucket", bucket)
	return s.exec.Run(ctx, "create bucket", func(ctx context.Context) error {
		return s.api.CreateBucket(ctx, s.project, bucket)
	})
}

func (s *Service) uploadFile(ctx context.Context, src, bucket, object string) error {
	return s.exec.Run(ctx, "upload object", func(ctx context.Context) error {
		f, err := os.Open(src)
		if err != nil {
			return err
		}
		defer f.Close()
		return s.api.Upload(ctx, bucket, object, f)
	})
}

// UploadFile copies src to the gs:// url dst.
func (s *Service) UploadFile(ctx context.Context, src, dst string) error {
	bucket, object, err := ParseURL(dst)
	if err != nil {
		return err
	}
	if info, err := os.Stat(src); err != nil || info.IsDir() {
		return fmt.Errorf("the file %q could not be found", src)
	}
	if err := s.ensureBucket(ctx, bucket); err != nil {
		return err
	}

	s.logger.Info("uploading file", "file", src, "url", dst)
	if err := s.uploadFile(ctx, src, bucket, object); err != nil {
		return fmt.Errorf("error when uploading file %q to %q: %w", src, dst, err)
	}
	return nil
}

// UploadDir copies every regular file below dir to the gs:// url dst keeping
// relative paths. Symlinks are skipped. It returns the number of uploaded files.
func (s *Service) UploadDir(ctx context.Context, dir, dst string) (int, error) {
	bucket, prefix, err := ParseURL(dst)
	if err != nil {
		return 0, err
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return 0, fmt.Errorf("the directory %q could not be found", dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if err := s.ensureBucket(ctx, bucket); err != nil {
		return 0, err
	}

	s.logger.Info("uploading directory", "dir", dir, "url", dst, "files", len(files))
	for _, f := range files {
		rel, err := filepath.Rel(dir, f)
		if err != nil {
			return 0, err
		}
		object := path.Join(prefix, filepath.ToSlash(rel))
		if err := s.uploadFile(ctx, f, bucket, object); err != nil {
			return 0, fmt.Errorf("error when uploading file %q to gs://%s/%s: %w", f, bucket, object, err)
		}
	}
	return len(files), nil
}
