package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const (
	TextCodeUploadFailed = "UPLOAD_FAILED"
	TextCodeTooLarge     = "PAYLOAD_TOO_LARGE"

	DefaultMaxSize = 6 << 20
	DefaultTimeout = 30 * time.Second
)

// Uploader stores a payload under name and returns a publicly resolvable URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, name string) (string, error)
}

// StorageConfig points a StorageUploader at a Supabase Storage bucket.
type StorageConfig struct {
	URL     string        `yaml:"url" json:"url"`
	Bucket  string        `yaml:"bucket" json:"bucket"`
	APIKey  string        `yaml:"api_key" json:"-"`
	MaxSize int           `yaml:"max_size" json:"max_size"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	Upsert  bool          `yaml:"upsert" json:"upsert"`
}

// Validate checks the storage settings.
func (c StorageConfig) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.URL, validation.Required, is.RequestURL),
		validation.Field(&c.Bucket, validation.Required),
		validation.Field(&c.APIKey, validation.Required),
		validation.Field(&c.MaxSize, validation.Min(0)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "invalid storage config")
	}
	return nil
}

// StorageUploader posts objects to the Supabase Storage REST API.
type StorageUploader struct {
	cfg    StorageConfig
	client *http.Client
	logger *slog.Logger
}

// Option configures a StorageUploader.
type Option func(*StorageUploader)

// WithHTTPClient replaces the default client, whose timeout is cfg.Timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(u *StorageUploader) {
		if client != nil {
			u.client = client
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(u *StorageUploader) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// NewStorageUploader validates cfg and returns an uploader for its bucket.
func NewStorageUploader(cfg StorageConfig, opts ...Option) (*StorageUploader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")

	u := &StorageUploader{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(u)
		}
	}
	return u, nil
}

// Upload stores data as name in the bucket. An empty name becomes a random uuid
// with an extension matching the sniffed content type. The request is not
// retried.
func (u *StorageUploader) Upload(ctx context.Context, data []byte, name string) (string, error) {
	if len(data) == 0 {
		return "", goerrors.New("upload data is empty", goerrors.CategoryValidation).
			WithTextCode(TextCodeUploadFailed)
	}
	if len(data) > u.cfg.MaxSize {
		return "", goerrors.New(fmt.Sprintf("upload of %d bytes exceeds %d", len(data), u.cfg.MaxSize), goerrors.CategoryValidation).
			WithTextCode(TextCodeTooLarge).
			WithCode(http.StatusRequestEntityTooLarge)
	}

	contentType := http.DetectContentType(data)
	name = objectName(name, contentType)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.objectURL(name), bytes.NewReader(data))
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "build upload request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+u.cfg.APIKey)
	req.Header.Set("apikey", u.cfg.APIKey)
	if u.cfg.Upsert {
		req.Header.Set("x-upsert", "true")
	}

	resp, err := u.client.Do(req)
	if err != nil {
		category := goerrors.CategoryExternal
		if ctx.Err() != nil {
			category = goerrors.CategoryOperation
		}
		return "", u.fail(ctx, goerrors.Wrap(err, category, "upload "+name).WithTextCode(TextCodeUploadFailed))
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			u.logger.Warn("failed to close upload response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		category := goerrors.HTTPStatusToCategory(resp.StatusCode)
		if resp.StatusCode >= 500 {
			category = goerrors.CategoryExternal
		}
		err := goerrors.New(fmt.Sprintf("upload %s: status %d", name, resp.StatusCode), category).
			WithCode(resp.StatusCode).
			WithTextCode(TextCodeUploadFailed).
			WithMetadata(map[string]any{
				"bucket": u.cfg.Bucket,
				"object": name,
				"body":   strings.TrimSpace(string(body)),
			})
		return "", u.fail(ctx, err)
	}

	u.logger.DebugContext(ctx, "object uploaded", "bucket", u.cfg.Bucket, "object", name, "bytes", len(data))
	return u.PublicURL(name), nil
}

// PublicURL is the address under which a public bucket serves name.
func (u *StorageUploader) PublicURL(name string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", u.cfg.URL, url.PathEscape(u.cfg.Bucket), escapePath(name))
}

func (u *StorageUploader) objectURL(name string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", u.cfg.URL, url.PathEscape(u.cfg.Bucket), escapePath(name))
}

func (u *StorageUploader) fail(ctx context.Context, err *goerrors.Error) error {
	u.logger.LogAttrs(ctx, slog.LevelWarn, "upload failed", goerrors.ToSlogAttributes(err)...)
	return err
}

func objectName(name, contentType string) string {
	name = strings.TrimLeft(path.Clean("/"+strings.TrimSpace(name)), "/")
	if name != "" {
		return name
	}
	return uuid.NewString() + extensionFor(contentType)
}

func extensionFor(contentType string) string {
	switch strings.SplitN(contentType, ";", 2)[0] {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}

// escapePath escapes each segment but keeps the folder separators.
func escapePath(name string) string {
	segments := strings.Split(name, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
