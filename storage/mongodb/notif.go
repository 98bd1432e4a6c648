package mongodb

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/darasa/core/notif"
)

type notificationRepository struct {
	col *mongo.Collection
}

var _ notif.Repository = (*notificationRepository)(nil)

func NewNotificationRepository(db *mongo.Database) notif.Repository {
	return &notificationRepository{col: db.Collection(notificationsCollection)}
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, nf notif.Notification) (notif.Notification, error) {
	if nf.ID == "" {
		nf.ID = uuid.New().String()
	}
	if _, err := repo.col.InsertOne(ctx, nf); err != nil {
		return notif.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return nf, nil
}

func (repo *notificationRepository) CreateNotifications(ctx context.Context, nfs []notif.Notification) ([]notif.Notification, error) {
	if len(nfs) == 0 {
		return nfs, nil
	}
	docs := make([]interface{}, len(nfs))
	for i := range nfs {
		if nfs[i].ID == "" {
			nfs[i].ID = uuid.New().String()
		}
		docs[i] = nfs[i]
	}
	if _, err := repo.col.InsertMany(ctx, docs); err != nil {
		return nil, errors.Wrap(err, "inserting notifications")
	}
	return nfs, nil
}

func (repo *notificationRepository) GetNotificationByID(ctx context.Context, id string) (notif.Notification, error) {
	var nf notif.Notification
	if err := repo.col.FindOne(ctx, bson.M{"_id": id}).Decode(&nf); err != nil {
		if err == mongo.ErrNoDocuments {
			return notif.Notification{}, notif.ErrNotFound
		}
		return notif.Notification{}, errors.Wrap(err, "finding notification")
	}
	return nf, nil
}

func (repo *notificationRepository) QueryUserNotifications(ctx context.Context, recipientID string) ([]notif.Notification, error) {
	return repo.query(ctx, bson.M{"recipient_id": recipientID})
}

func (repo *notificationRepository) QueryUnreadNotifications(ctx context.Context, recipientID string) ([]notif.Notification, error) {
	return repo.query(ctx, bson.M{"recipient_id": recipientID, "read": false})
}

func (repo *notificationRepository) query(ctx context.Context, filter bson.M) ([]notif.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := repo.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	var nfs []notif.Notification
	if err = cur.All(ctx, &nfs); err != nil {
		return nil, errors.Wrap(err, "decoding notifications")
	}
	return nfs, nil
}

func (repo *notificationRepository) SetNotificationRead(ctx context.Context, id string) error {
	res, err := repo.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return errors.Wrap(err, "updating notification")
	}
	if res.MatchedCount == 0 {
		return notif.ErrNotFound
	}
	return nil
}

func (repo *notificationRepository) SetAllNotificationsRead(ctx context.Context, recipientID string) error {
	_, err := repo.col.UpdateMany(
		ctx,
		bson.M{"recipient_id": recipientID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	return errors.Wrap(err, "updating notifications")
}

func (repo *notificationRepository) DeleteNotificationsByRecipient(ctx context.Context, recipientID string) error {
	_, err := repo.col.DeleteMany(ctx, bson.M{"recipient_id": recipientID})
	return errors.Wrap(err, "deleting notifications")
}
