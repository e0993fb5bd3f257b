package di

import (
	"context"
	"log/slog"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-synapse/domain"
	"github.com/goliatone/go-synapse/internal/logging"
	"github.com/goliatone/go-synapse/internal/metrics"
	"github.com/goliatone/go-synapse/media"
	"github.com/goliatone/go-synapse/paging"
	"github.com/goliatone/go-synapse/pkg/config"
	"github.com/goliatone/go-synapse/remote"
	"github.com/goliatone/go-synapse/repositorycache"
	"github.com/goliatone/go-synapse/usecase"
	"github.com/uptrace/bun"
)

const TextCodeStorageDisabled = "STORAGE_DISABLED"

// App holds the wired repositories, list sources and use cases for one
// configuration. Close releases the database and drops the cache.
type App struct {
	Config    *config.Config
	DB        *bun.DB
	Metrics   *metrics.Metrics
	Container *Container

	Users    *repositorycache.CachedRepository[domain.User]
	Profiles *repositorycache.CachedRepository[domain.UserProfile]
	Posts    *repositorycache.CachedRepository[domain.Post]
	Messages *remote.EntitySource[domain.ChatMessage]
	Uploader media.Uploader

	// Feed lists every post, newest first.
	Feed *paging.OffsetSource[domain.Post]

	GetUser       *usecase.Interactor[string, domain.User]
	GetProfile    *usecase.Interactor[string, domain.UserProfile]
	GetPost       *usecase.Interactor[string, domain.Post]
	UpdateProfile *usecase.Interactor[domain.UserProfile, domain.UserProfile]
	UploadImage   *usecase.Interactor[usecase.UploadImageParams, string]
	SendMessage   *usecase.Interactor[usecase.SendMessageParams, domain.ChatMessage]

	logger *slog.Logger
}

// AppOption configures NewApp.
type AppOption func(*appSettings)

type appSettings struct {
	logger   *slog.Logger
	uploader media.Uploader
}

// WithAppLogger replaces the operational logger.
func WithAppLogger(logger *slog.Logger) AppOption {
	return func(s *appSettings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithUploader replaces the uploader built from the storage section.
func WithUploader(uploader media.Uploader) AppOption {
	return func(s *appSettings) { s.uploader = uploader }
}

// NewApp opens the database and wires every component from cfg. The sqlite
// mirror gets its schema created on start.
func NewApp(ctx context.Context, cfg *config.Config, opts ...AppOption) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := appSettings{logger: logging.Op()}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}

	db, err := remote.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := remote.Ping(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	if cfg.Database.Driver == remote.DriverSQLite {
		if err := remote.CreateSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	app, err := newApp(cfg, db, s)
	if err != nil {
		db.Close()
		return nil, err
	}

	app.logger.Info("app ready",
		"driver", cfg.Database.Driver,
		"cache_backend", string(cfg.Cache.Backend),
		"storage", cfg.StorageEnabled(),
	)
	return app, nil
}

func newApp(cfg *config.Config, db *bun.DB, s appSettings) (*App, error) {
	m := metrics.New(cfg.Metrics.Namespace, cfg.Metrics.Enabled)

	container, err := NewContainer(cfg.Cache, WithObserver(m), WithLogger(s.logger))
	if err != nil {
		return nil, err
	}

	uploader := s.uploader
	if uploader == nil {
		if uploader, err = newUploader(cfg, s.logger); err != nil {
			return nil, err
		}
	}

	// profiles are read by the id of the user they belong to
	profiles := NewCachedRepository[domain.UserProfile](container,
		remote.NewEntitySource[domain.UserProfile](db, "user_id"),
		repositorycache.WithIDOf(func(p domain.UserProfile) string { return p.UserID }),
	)

	app := &App{
		Config:    cfg,
		DB:        db,
		Metrics:   m,
		Container: container,
		Users:     NewCachedRepository[domain.User](container, remote.NewEntitySource[domain.User](db, "id")),
		Profiles:  profiles,
		Posts:     NewCachedRepository[domain.Post](container, remote.NewEntitySource[domain.Post](db, "id")),
		Messages:  remote.NewEntitySource[domain.ChatMessage](db, "id"),
		Uploader:  uploader,
		logger:    s.logger,
	}

	app.Feed = app.postSource("feed")

	ucOpts := []usecase.Option{usecase.WithLogger(s.logger), usecase.WithObserver(m)}
	app.GetUser = usecase.NewGetUser(app.Users, ucOpts...)
	app.GetProfile = usecase.NewGetProfile(app.Profiles, ucOpts...)
	app.GetPost = usecase.NewGetPost(app.Posts, ucOpts...)
	app.UpdateProfile = usecase.NewUpdateProfile(app.Profiles, ucOpts...)
	app.UploadImage = usecase.NewUploadImage(app.Uploader, ucOpts...)
	app.SendMessage = usecase.NewSendMessage(app.Messages, ucOpts...)

	return app, nil
}

func newUploader(cfg *config.Config, logger *slog.Logger) (media.Uploader, error) {
	if !cfg.StorageEnabled() {
		return disabledUploader{}, nil
	}
	return media.NewStorageUploader(cfg.Storage, media.WithLogger(logger))
}

// UserPosts lists the posts written by userID, newest first.
func (a *App) UserPosts(userID string) *paging.OffsetSource[domain.Post] {
	return a.postSource("user_posts", remote.Where("author_id", userID))
}

// ChatMessages lists the messages of chatID in the order they were sent.
func (a *App) ChatMessages(chatID string) *paging.OffsetSource[domain.ChatMessage] {
	query := remote.NewRangeQuery[domain.ChatMessage](a.DB,
		remote.Where("chat_id", chatID),
		remote.OrderBy("sent_at ASC"),
	)
	return paging.NewOffsetSource[domain.ChatMessage](query, a.pagingOptions("chat_messages")...)
}

// PageSize is the configured load size for list sources.
func (a *App) PageSize() int {
	return a.Config.Paging.PageSize
}

// Close drops every cached entry and closes the database.
func (a *App) Close() error {
	if err := a.Container.Reset(context.Background()); err != nil {
		a.logger.Warn("cache reset failed", "error", err)
	}
	if err := a.DB.Close(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "close database")
	}
	return nil
}

func (a *App) postSource(name string, filters ...remote.RangeOption) *paging.OffsetSource[domain.Post] {
	opts := append(filters, remote.OrderBy("created_at DESC"))
	query := remote.NewRangeQuery[domain.Post](a.DB, opts...)
	return paging.NewOffsetSource[domain.Post](query, a.pagingOptions(name)...)
}

func (a *App) pagingOptions(name string) []paging.Option {
	opts := []paging.Option{
		paging.WithName(name),
		paging.WithObserver(a.Metrics),
		paging.WithLogger(a.logger),
	}
	if a.Config.Paging.EndOnEmptyOnly {
		opts = append(opts, paging.WithEndOnEmptyOnly())
	}
	return opts
}

type disabledUploader struct{}

func (disabledUploader) Upload(context.Context, []byte, string) (string, error) {
	return "", goerrors.New("storage is not configured", goerrors.CategoryOperation).
		WithTextCode(TextCodeStorageDisabled)
}
