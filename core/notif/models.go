package notif

import (
	"encoding/json"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

// Notification types
const (
	TypeSystem  = "system"
	TypeMessage = "message"
	TypeGroup   = "group"
	TypeQuiz    = "quiz"
	TypeContent = "content"
)

// Related record kinds
const (
	KindUser    = "user"
	KindGroup   = "group"
	KindQuiz    = "quiz"
	KindContent = "content"
	KindMessage = "message"
)

// Notification is durable; it is only ever mutated to flip Read to true,
// and only deleted as a cascade when its recipient account is deleted.
type Notification struct {
	ID          string    `json:"id" bson:"_id"`
	RecipientID string    `json:"recipient_id" bson:"recipient_id"`
	Title       string    `json:"title" bson:"title"`
	Message     string    `json:"message" bson:"message"`
	Type        string    `json:"type" bson:"type"`
	Read        bool      `json:"read" bson:"read"`
	RelatedID   string    `json:"related_id,omitempty" bson:"related_id,omitempty"`
	RelatedKind string    `json:"related_kind,omitempty" bson:"related_kind,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"` // UTC
}

// Template describes a notification to dispatch; the dispatcher fills in the
// recipient, read flag and timestamp.
type Template struct {
	Title       string `json:"title" validate:"required"`
	Message     string `json:"message" validate:"required"`
	Type        string `json:"type" validate:"omitempty,oneof=system message group quiz content"`
	RelatedID   string `json:"related_id"`
	RelatedKind string `json:"related_kind" validate:"omitempty,oneof=user group quiz content message"`
}

func (t *Template) Validate() error {
	t.Title = core.CleanString(t.Title)
	t.Message = core.CleanString(t.Message)
	if t.Type == "" {
		t.Type = TypeSystem
	}
	return core.Validate.Struct(t)
}

// PushPayload is the wire shape of a live-pushed notification.
type PushPayload struct {
	Type        string    `json:"type"`
	Title       string    `json:"title,omitempty"`
	Message     string    `json:"message,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	RelatedID   string    `json:"related_id,omitempty"`
	RelatedKind string    `json:"related_kind,omitempty"`
}

// RecipientSet is every user ("all"), every user holding a role
// ("students", "admins") or an explicit id list; it decodes from all the
// JSON shapes the API accepts.
type RecipientSet struct {
	All  bool
	Role string
	IDs  []string
}

func (rs *RecipientSet) UnmarshalJSON(data []byte) error {
	var kw string
	if err := json.Unmarshal(data, &kw); err == nil {
		switch kw {
		case "all":
			rs.All = true
		case "students":
			rs.Role = user.RoleStudent
		case "admins":
			rs.Role = user.RoleAdmin
		default:
			return errInvalidRecipients
		}
		return nil
	}
	return json.Unmarshal(data, &rs.IDs)
}
