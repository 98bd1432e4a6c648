package mongodb

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/darasa/core/chat"
)

type messageRepository struct {
	col *mongo.Collection
}

var _ chat.Repository = (*messageRepository)(nil)

func NewMessageRepository(db *mongo.Database) chat.Repository {
	return &messageRepository{col: db.Collection(messagesCollection)}
}

func (repo *messageRepository) CreateMessage(ctx context.Context, msg chat.Message) (chat.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if _, err := repo.col.InsertOne(ctx, msg); err != nil {
		return chat.Message{}, errors.Wrap(err, "inserting message")
	}
	return msg, nil
}

func (repo *messageRepository) GetMessageByClientKey(ctx context.Context, senderID, key string) (chat.Message, error) {
	var msg chat.Message
	err := repo.col.FindOne(ctx, bson.M{"sender_id": senderID, "client_key": key}).Decode(&msg)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return chat.Message{}, chat.ErrNotFound
		}
		return chat.Message{}, errors.Wrap(err, "finding message by client key")
	}
	return msg, nil
}

func (repo *messageRepository) QueryGroupMessages(ctx context.Context, groupID string) ([]chat.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := repo.col.Find(ctx, bson.M{"group_id": groupID}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying group messages")
	}
	var msgs []chat.Message
	if err = cur.All(ctx, &msgs); err != nil {
		return nil, errors.Wrap(err, "decoding messages")
	}
	return msgs, nil
}

func (repo *messageRepository) DeleteMessagesBySender(ctx context.Context, senderID string) error {
	_, err := repo.col.DeleteMany(ctx, bson.M{"sender_id": senderID})
	return errors.Wrap(err, "deleting messages by sender")
}

func (repo *messageRepository) DeleteMessagesByGroup(ctx context.Context, groupID string) error {
	_, err := repo.col.DeleteMany(ctx, bson.M{"group_id": groupID})
	return errors.Wrap(err, "deleting messages by group")
}
