package mongodb

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/darasa/core/group"
)

type groupRepository struct {
	col *mongo.Collection
}

var _ group.Repository = (*groupRepository)(nil)

func NewGroupRepository(db *mongo.Database) group.Repository {
	return &groupRepository{col: db.Collection(groupsCollection)}
}

func (repo *groupRepository) CreateGroup(ctx context.Context, grp group.Group) (group.Group, error) {
	if grp.ID == "" {
		grp.ID = uuid.New().String()
	}
	if _, err := repo.col.InsertOne(ctx, grp); err != nil {
		return group.Group{}, errors.Wrap(err, "inserting group")
	}
	return grp, nil
}

func (repo *groupRepository) GetGroupByID(ctx context.Context, id string) (group.Group, error) {
	var grp group.Group
	if err := repo.col.FindOne(ctx, bson.M{"_id": id}).Decode(&grp); err != nil {
		if err == mongo.ErrNoDocuments {
			return group.Group{}, group.ErrNotFound
		}
		return group.Group{}, errors.Wrap(err, "finding group")
	}
	return grp, nil
}

func (repo *groupRepository) QueryAllGroups(ctx context.Context) ([]group.Group, error) {
	return repo.query(ctx, bson.M{})
}

func (repo *groupRepository) QueryGroupsByMember(ctx context.Context, userID string) ([]group.Group, error) {
	return repo.query(ctx, bson.M{"member_ids": userID})
}

func (repo *groupRepository) query(ctx context.Context, filter bson.M) ([]group.Group, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cur, err := repo.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying groups")
	}
	var groups []group.Group
	if err = cur.All(ctx, &groups); err != nil {
		return nil, errors.Wrap(err, "decoding groups")
	}
	return groups, nil
}

func (repo *groupRepository) AddGroupMember(ctx context.Context, groupID, userID string) error {
	res, err := repo.col.UpdateOne(ctx, bson.M{"_id": groupID}, bson.M{
		"$addToSet": bson.M{"member_ids": userID},
	})
	if err != nil {
		return errors.Wrap(err, "adding group member")
	}
	if res.MatchedCount == 0 {
		return group.ErrNotFound
	}
	return nil
}

func (repo *groupRepository) RemoveMemberEverywhere(ctx context.Context, userID string) error {
	_, err := repo.col.UpdateMany(ctx, bson.M{"member_ids": userID}, bson.M{
		"$pull": bson.M{"member_ids": userID},
	})
	return errors.Wrap(err, "removing group member")
}

func (repo *groupRepository) CountGroups(ctx context.Context) (int64, error) {
	n, err := repo.col.CountDocuments(ctx, bson.M{})
	return n, errors.Wrap(err, "counting groups")
}

func (repo *groupRepository) DeleteGroup(ctx context.Context, id string) error {
	res, err := repo.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "deleting group")
	}
	if res.DeletedCount == 0 {
		return group.ErrNotFound
	}
	return nil
}

func (repo *groupRepository) DeleteGroupsByCreator(ctx context.Context, userID string) error {
	_, err := repo.col.DeleteMany(ctx, bson.M{"creator_id": userID})
	return errors.Wrap(err, "deleting groups by creator")
}
