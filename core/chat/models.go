package chat

import (
	"time"

	"github.com/trezcool/darasa/core"
)

// Message is durable and written once; broadcast is a side effect, the
// persisted copy is authoritative even if the broadcast is lost.
type Message struct {
	ID          string    `json:"id" bson:"_id"`
	Content     string    `json:"content" bson:"content"`
	SenderID    string    `json:"sender_id" bson:"sender_id"`
	GroupID     string    `json:"group_id,omitempty" bson:"group_id,omitempty"`
	RecipientID string    `json:"recipient_id,omitempty" bson:"recipient_id,omitempty"`
	IsDirect    bool      `json:"is_direct" bson:"is_direct"`
	ClientKey   string    `json:"client_key,omitempty" bson:"client_key,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"` // UTC
}

// NewMessage contains information needed to post a group message.
// ClientKey is a client-generated idempotency key: re-sending the same
// (sender, key) pair returns the already-persisted message instead of
// writing a duplicate.
type NewMessage struct {
	Content   string `json:"content" validate:"required"`
	GroupID   string `json:"group_id" validate:"required"`
	ClientKey string `json:"client_key"`
}

func (nm *NewMessage) Validate() error {
	nm.Content = core.CleanString(nm.Content)
	return core.Validate.Struct(nm)
}

// NewDirectMessage contains information needed to send a direct message.
type NewDirectMessage struct {
	Content     string `json:"content" validate:"required"`
	RecipientID string `json:"recipient_id" validate:"required"`
	ClientKey   string `json:"client_key"`
}

func (nm *NewDirectMessage) Validate() error {
	nm.Content = core.CleanString(nm.Content)
	return core.Validate.Struct(nm)
}

// Excerpt returns the first 50 characters of the message content,
// for use in notification texts.
func (m Message) Excerpt() string {
	const max = 50
	if len(m.Content) > max {
		return m.Content[:max] + "..."
	}
	return m.Content
}
