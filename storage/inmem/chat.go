package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/chat"
)

type messageRepository struct {
	db *messageTable
}

var _ chat.Repository = (*messageRepository)(nil)

func NewMessageRepository(db *DB) chat.Repository {
	return &messageRepository{db: db.message}
}

func (repo *messageRepository) CreateMessage(_ context.Context, msg chat.Message) (chat.Message, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	repo.db.table[msg.ID] = &msg
	return msg, nil
}

func (repo *messageRepository) GetMessageByClientKey(_ context.Context, senderID, key string) (chat.Message, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, msg := range repo.db.table {
		if msg.SenderID == senderID && msg.ClientKey == key {
			return *msg, nil
		}
	}
	return chat.Message{}, chat.ErrNotFound
}

func (repo *messageRepository) QueryGroupMessages(_ context.Context, groupID string) ([]chat.Message, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var msgs []chat.Message
	for _, msg := range repo.db.table {
		if msg.GroupID == groupID {
			msgs = append(msgs, *msg)
		}
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	return msgs, nil
}

func (repo *messageRepository) DeleteMessagesBySender(_ context.Context, senderID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for id, msg := range repo.db.table {
		if msg.SenderID == senderID {
			delete(repo.db.table, id)
		}
	}
	return nil
}

func (repo *messageRepository) DeleteMessagesByGroup(_ context.Context, groupID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for id, msg := range repo.db.table {
		if msg.GroupID == groupID {
			delete(repo.db.table, id)
		}
	}
	return nil
}
