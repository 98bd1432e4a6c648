package mongodb

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/darasa/core/content"
)

type contentRepository struct {
	col *mongo.Collection
}

var _ content.Repository = (*contentRepository)(nil)

func NewContentRepository(db *mongo.Database) content.Repository {
	return &contentRepository{col: db.Collection(contentCollection)}
}

func (repo *contentRepository) CreateContent(ctx context.Context, cnt content.Content) (content.Content, error) {
	if cnt.ID == "" {
		cnt.ID = uuid.New().String()
	}
	if _, err := repo.col.InsertOne(ctx, cnt); err != nil {
		return content.Content{}, errors.Wrap(err, "inserting content")
	}
	return cnt, nil
}

func (repo *contentRepository) QueryAllContent(ctx context.Context) ([]content.Content, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := repo.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying content")
	}
	var cnts []content.Content
	if err = cur.All(ctx, &cnts); err != nil {
		return nil, errors.Wrap(err, "decoding content")
	}
	return cnts, nil
}

func (repo *contentRepository) CountContent(ctx context.Context) (int64, error) {
	n, err := repo.col.CountDocuments(ctx, bson.M{})
	return n, errors.Wrap(err, "counting content")
}

func (repo *contentRepository) DeleteContentByGroup(ctx context.Context, groupID string) error {
	_, err := repo.col.DeleteMany(ctx, bson.M{"group_id": groupID})
	return errors.Wrap(err, "deleting content")
}
