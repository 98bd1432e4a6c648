package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/group"
)

type groupRepository struct {
	db *groupTable
}

var _ group.Repository = (*groupRepository)(nil)

func NewGroupRepository(db *DB) group.Repository {
	return &groupRepository{db: db.group}
}

func (repo *groupRepository) CreateGroup(_ context.Context, grp group.Group) (group.Group, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if grp.ID == "" {
		grp.ID = uuid.New().String()
	}
	repo.db.table[grp.ID] = &grp
	return grp, nil
}

func (repo *groupRepository) GetGroupByID(_ context.Context, id string) (group.Group, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if grp, ok := repo.db.table[id]; ok {
		return *grp, nil
	}
	return group.Group{}, group.ErrNotFound
}

func (repo *groupRepository) QueryAllGroups(_ context.Context) ([]group.Group, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	groups := make([]group.Group, 0, len(repo.db.table))
	for _, grp := range repo.db.table {
		groups = append(groups, *grp)
	}
	sortGroups(groups)
	return groups, nil
}

func (repo *groupRepository) QueryGroupsByMember(_ context.Context, userID string) ([]group.Group, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var groups []group.Group
	for _, grp := range repo.db.table {
		if grp.HasMember(userID) {
			groups = append(groups, *grp)
		}
	}
	sortGroups(groups)
	return groups, nil
}

func sortGroups(groups []group.Group) {
	sort.Slice(groups, func(i, j int) bool { return groups[i].CreatedAt.After(groups[j].CreatedAt) })
}

func (repo *groupRepository) AddGroupMember(_ context.Context, groupID, userID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	grp, ok := repo.db.table[groupID]
	if !ok {
		return group.ErrNotFound
	}
	if !grp.HasMember(userID) {
		grp.MemberIDs = append(grp.MemberIDs, userID)
	}
	return nil
}

func (repo *groupRepository) RemoveMemberEverywhere(_ context.Context, userID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, grp := range repo.db.table {
		for i, id := range grp.MemberIDs {
			if id == userID {
				grp.MemberIDs = append(grp.MemberIDs[:i], grp.MemberIDs[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (repo *groupRepository) CountGroups(_ context.Context) (int64, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return int64(len(repo.db.table)), nil
}

func (repo *groupRepository) DeleteGroup(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.table, id)
	return nil
}

func (repo *groupRepository) DeleteGroupsByCreator(_ context.Context, userID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for id, grp := range repo.db.table {
		if grp.CreatorID == userID {
			delete(repo.db.table, id)
		}
	}
	return nil
}
