package domain

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	MaxBioLength     = 500
	MaxPostLength    = 2000
	MaxMessageLength = 4000
)

// Post is a feed entry. A post carries text, an image or both.
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:po" json:"-"`

	ID         string     `bun:"id,pk" json:"id"`
	AuthorID   string     `bun:"author_id,notnull" json:"author_id"`
	Content    *string    `bun:"content" json:"content,omitempty"`
	ImageURL   *string    `bun:"image_url" json:"image_url,omitempty"`
	LikesCount *int64     `bun:"likes_count" json:"likes_count,omitempty"`
	CreatedAt  *time.Time `bun:"created_at" json:"created_at,omitempty"`
}

// NewPost builds a validated post with a fresh id. Empty content and image are
// stored as NULL.
func NewPost(authorID, content, imageURL string) (Post, error) {
	now := time.Now().UTC()
	p := Post{
		ID:        uuid.NewString(),
		AuthorID:  strings.TrimSpace(authorID),
		Content:   optional(strings.TrimSpace(content)),
		ImageURL:  optional(strings.TrimSpace(imageURL)),
		CreatedAt: &now,
	}
	if err := p.Validate(); err != nil {
		return Post{}, err
	}
	return p, nil
}

// Validate checks a post before it is written.
func (p Post) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.ID, validation.Required, is.UUID),
		validation.Field(&p.AuthorID, validation.Required),
		validation.Field(&p.Content,
			validation.Length(1, MaxPostLength),
			validation.When(p.ImageURL == nil, validation.Required.Error("content or image is required")),
		),
		validation.Field(&p.ImageURL, validation.NilOrNotEmpty, is.RequestURL),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "invalid post")
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
