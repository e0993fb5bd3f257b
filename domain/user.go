package domain

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// User is an account row. Nullable columns are pointers.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u" json:"-"`

	ID          string     `bun:"id,pk" json:"id"`
	Username    string     `bun:"username,notnull" json:"username"`
	Email       *string    `bun:"email" json:"email,omitempty"`
	DisplayName *string    `bun:"display_name" json:"display_name,omitempty"`
	AvatarURL   *string    `bun:"avatar_url" json:"avatar_url,omitempty"`
	CreatedAt   *time.Time `bun:"created_at" json:"created_at,omitempty"`
}

// Name returns DisplayName when set, else Username.
func (u User) Name() string {
	if u.DisplayName != nil && *u.DisplayName != "" {
		return *u.DisplayName
	}
	return u.Username
}

// UserProfile holds the editable profile of a user.
type UserProfile struct {
	bun.BaseModel `bun:"table:profiles,alias:p" json:"-"`

	ID             string     `bun:"id,pk" json:"id"`
	UserID         string     `bun:"user_id,notnull" json:"user_id"`
	Bio            *string    `bun:"bio" json:"bio,omitempty"`
	Website        *string    `bun:"website" json:"website,omitempty"`
	Location       *string    `bun:"location" json:"location,omitempty"`
	AvatarURL      *string    `bun:"avatar_url" json:"avatar_url,omitempty"`
	FollowersCount *int64     `bun:"followers_count" json:"followers_count,omitempty"`
	FollowingCount *int64     `bun:"following_count" json:"following_count,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at" json:"updated_at,omitempty"`
}

// Validate checks the fields a client is allowed to edit.
func (p UserProfile) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.ID, validation.Required),
		validation.Field(&p.UserID, validation.Required),
		validation.Field(&p.Bio, validation.NilOrNotEmpty, validation.Length(1, MaxBioLength)),
		validation.Field(&p.Website, validation.NilOrNotEmpty, is.RequestURL),
		validation.Field(&p.AvatarURL, validation.NilOrNotEmpty, is.RequestURL),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "invalid profile")
	}
	return nil
}
