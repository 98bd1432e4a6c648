package content

import (
	"time"

	"github.com/trezcool/darasa/core"
)

type Content struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	FileURL     string    `json:"file_url" bson:"file_url"`
	UploadedBy  string    `json:"uploaded_by" bson:"uploaded_by"`
	GroupID     string    `json:"group_id,omitempty" bson:"group_id,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"` // UTC
}

// NewContent contains information needed to register uploaded content.
type NewContent struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	FileURL     string `json:"file_url" validate:"required,uri"`
	GroupID     string `json:"group_id"`
}

func (nc *NewContent) Validate() error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	return core.Validate.Struct(nc)
}
