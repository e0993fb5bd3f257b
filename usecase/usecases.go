package usecase

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-synapse/domain"
)

// EntityGetter loads one entity by id. *repositorycache.CachedRepository
// satisfies it.
type EntityGetter[T any] interface {
	Get(ctx context.Context, id string) (T, error)
}

// EntitySaver writes one entity and returns the stored row.
type EntitySaver[T any] interface {
	Save(ctx context.Context, record T) (T, error)
}

// MessageSender inserts a chat message.
type MessageSender interface {
	Create(ctx context.Context, message domain.ChatMessage) (domain.ChatMessage, error)
}

// Uploader stores a payload under name and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, name string) (string, error)
}

type UploadImageParams struct {
	Data []byte
	Name string
}

type SendMessageParams struct {
	ChatID   string
	SenderID string
	Text     string
}

func NewGetUser(repo EntityGetter[domain.User], opts ...Option) *Interactor[string, domain.User] {
	return New("get_user", getter(repo), opts...)
}

func NewGetProfile(repo EntityGetter[domain.UserProfile], opts ...Option) *Interactor[string, domain.UserProfile] {
	return New("get_profile", getter(repo), opts...)
}

func NewGetPost(repo EntityGetter[domain.Post], opts ...Option) *Interactor[string, domain.Post] {
	return New("get_post", getter(repo), opts...)
}

// NewUpdateProfile validates the profile before handing it to repo.
func NewUpdateProfile(repo EntitySaver[domain.UserProfile], opts ...Option) *Interactor[domain.UserProfile, domain.UserProfile] {
	return New("update_profile", func(ctx context.Context, profile domain.UserProfile) (domain.UserProfile, error) {
		if err := profile.Validate(); err != nil {
			return domain.UserProfile{}, err
		}
		return repo.Save(ctx, profile)
	}, opts...)
}

// NewUploadImage rejects empty payloads. An empty name lets the uploader pick one.
func NewUploadImage(uploader Uploader, opts ...Option) *Interactor[UploadImageParams, string] {
	return New("upload_image", func(ctx context.Context, params UploadImageParams) (string, error) {
		if len(params.Data) == 0 {
			return "", goerrors.New("image data is empty", goerrors.CategoryValidation).
				WithTextCode(TextCodeInvalidArgs)
		}
		return uploader.Upload(ctx, params.Data, params.Name)
	}, opts...)
}

func NewSendMessage(sender MessageSender, opts ...Option) *Interactor[SendMessageParams, domain.ChatMessage] {
	return New("send_message", func(ctx context.Context, params SendMessageParams) (domain.ChatMessage, error) {
		message, err := domain.NewChatMessage(params.ChatID, params.SenderID, params.Text)
		if err != nil {
			return domain.ChatMessage{}, err
		}
		return sender.Create(ctx, message)
	}, opts...)
}

func getter[T any](repo EntityGetter[T]) Operation[string, T] {
	return func(ctx context.Context, id string) (T, error) {
		if id == "" {
			var zero T
			return zero, goerrors.New("id is required", goerrors.CategoryValidation).
				WithTextCode(TextCodeInvalidArgs)
		}
		return repo.Get(ctx, id)
	}
}
