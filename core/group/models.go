package group

import (
	"time"

	"github.com/trezcool/darasa/core"
)

type Group struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	CreatorID   string    `json:"creator_id" bson:"creator_id"`
	MemberIDs   []string  `json:"member_ids" bson:"member_ids"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"` // UTC
}

func (g *Group) HasMember(userID string) bool {
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// NewGroup contains information needed to create a new Group.
type NewGroup struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (ng *NewGroup) Validate() error {
	ng.Name = core.CleanString(ng.Name)
	ng.Description = core.CleanString(ng.Description)
	return core.Validate.Struct(ng)
}
