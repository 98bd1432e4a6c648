package group

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound      = errors.New("group not found")
	ErrAlreadyMember = errors.New("already a member of this group")
)

type (
	Repository interface {
		CreateGroup(ctx context.Context, grp Group) (Group, error)
		GetGroupByID(ctx context.Context, id string) (Group, error)
		QueryAllGroups(ctx context.Context) ([]Group, error)
		QueryGroupsByMember(ctx context.Context, userID string) ([]Group, error)
		AddGroupMember(ctx context.Context, groupID, userID string) error
		// RemoveMemberEverywhere pulls the user out of every group's member set.
		RemoveMemberEverywhere(ctx context.Context, userID string) error
		CountGroups(ctx context.Context) (int64, error)
		DeleteGroup(ctx context.Context, id string) error
		DeleteGroupsByCreator(ctx context.Context, userID string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, ng NewGroup, creatorID string) (Group, error) {
	grp := Group{
		Name:        ng.Name,
		Description: ng.Description,
		CreatorID:   creatorID,
		MemberIDs:   []string{creatorID}, // creator joins their own group
		CreatedAt:   time.Now().UTC(),
	}
	return svc.repo.CreateGroup(ctx, grp)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Group, error) {
	return svc.repo.GetGroupByID(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Group, error) {
	return svc.repo.QueryAllGroups(ctx)
}

func (svc *Service) QueryForUser(ctx context.Context, userID string) ([]Group, error) {
	return svc.repo.QueryGroupsByMember(ctx, userID)
}

func (svc *Service) Join(ctx context.Context, groupID, userID string) (Group, error) {
	grp, err := svc.repo.GetGroupByID(ctx, groupID)
	if err != nil {
		return Group{}, err
	}
	if grp.HasMember(userID) {
		return Group{}, core.NewValidationError(ErrAlreadyMember)
	}
	if err = svc.repo.AddGroupMember(ctx, groupID, userID); err != nil {
		return Group{}, err
	}
	grp.MemberIDs = append(grp.MemberIDs, userID)
	return grp, nil
}

func (svc *Service) Count(ctx context.Context) (int64, error) {
	return svc.repo.CountGroups(ctx)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteGroup(ctx, id)
}

// RemoveUser drops the user's memberships and the groups they created.
// Used as part of the account deletion cascade.
func (svc *Service) RemoveUser(ctx context.Context, userID string) error {
	if err := svc.repo.RemoveMemberEverywhere(ctx, userID); err != nil {
		return err
	}
	return svc.repo.DeleteGroupsByCreator(ctx, userID)
}
