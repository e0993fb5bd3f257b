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

// ChatMessage is one message in a chat thread.
type ChatMessage struct {
	bun.BaseModel `bun:"table:chat_messages,alias:cm" json:"-"`

	ID       string     `bun:"id,pk" json:"id"`
	ChatID   string     `bun:"chat_id,notnull" json:"chat_id"`
	SenderID string     `bun:"sender_id,notnull" json:"sender_id"`
	Text     *string    `bun:"text" json:"text,omitempty"`
	ImageURL *string    `bun:"image_url" json:"image_url,omitempty"`
	SentAt   time.Time  `bun:"sent_at,notnull" json:"sent_at"`
	ReadAt   *time.Time `bun:"read_at" json:"read_at,omitempty"`
}

// NewChatMessage builds a validated text message stamped with the current time.
func NewChatMessage(chatID, senderID, text string) (ChatMessage, error) {
	m := ChatMessage{
		ID:       uuid.NewString(),
		ChatID:   strings.TrimSpace(chatID),
		SenderID: strings.TrimSpace(senderID),
		Text:     optional(strings.TrimSpace(text)),
		SentAt:   time.Now().UTC(),
	}
	if err := m.Validate(); err != nil {
		return ChatMessage{}, err
	}
	return m, nil
}

// Validate checks a message before it is sent.
func (m ChatMessage) Validate() error {
	err := validation.ValidateStruct(&m,
		validation.Field(&m.ID, validation.Required, is.UUID),
		validation.Field(&m.ChatID, validation.Required),
		validation.Field(&m.SenderID, validation.Required),
		validation.Field(&m.Text,
			validation.Length(1, MaxMessageLength),
			validation.When(m.ImageURL == nil, validation.Required.Error("text or image is required")),
		),
		validation.Field(&m.ImageURL, validation.NilOrNotEmpty, is.RequestURL),
		validation.Field(&m.SentAt, validation.Required),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "invalid chat message")
	}
	return nil
}

// IsRead reports whether the recipient has read the message.
func (m ChatMessage) IsRead() bool {
	return m.ReadAt != nil
}
