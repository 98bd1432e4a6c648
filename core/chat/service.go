package chat

import (
	"context"
	"errors"
	"time"
)

var (
	// errors
	ErrNotFound = errors.New("message not found")
)

type (
	Repository interface {
		CreateMessage(ctx context.Context, msg Message) (Message, error)
		// GetMessageByClientKey returns ErrNotFound when no message with this
		// (sender, key) pair exists.
		GetMessageByClientKey(ctx context.Context, senderID, key string) (Message, error)
		// QueryGroupMessages returns a group's messages, oldest first.
		QueryGroupMessages(ctx context.Context, groupID string) ([]Message, error)
		DeleteMessagesBySender(ctx context.Context, senderID string) error
		DeleteMessagesByGroup(ctx context.Context, groupID string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Send persists a group message. A message may reach the server twice (once
// over the API, once over the socket); the client-generated ClientKey makes
// the second write return the first message instead of duplicating it.
func (svc *Service) Send(ctx context.Context, nm NewMessage, senderID string) (Message, error) {
	if nm.ClientKey != "" {
		if msg, err := svc.repo.GetMessageByClientKey(ctx, senderID, nm.ClientKey); err == nil {
			return msg, nil
		} else if err != ErrNotFound {
			return Message{}, err
		}
	}
	msg := Message{
		Content:   nm.Content,
		SenderID:  senderID,
		GroupID:   nm.GroupID,
		ClientKey: nm.ClientKey,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateMessage(ctx, msg)
}

// SendDirect persists a direct message to a single recipient.
func (svc *Service) SendDirect(ctx context.Context, nm NewDirectMessage, senderID string) (Message, error) {
	if nm.ClientKey != "" {
		if msg, err := svc.repo.GetMessageByClientKey(ctx, senderID, nm.ClientKey); err == nil {
			return msg, nil
		} else if err != ErrNotFound {
			return Message{}, err
		}
	}
	msg := Message{
		Content:     nm.Content,
		SenderID:    senderID,
		RecipientID: nm.RecipientID,
		IsDirect:    true,
		ClientKey:   nm.ClientKey,
		CreatedAt:   time.Now().UTC(),
	}
	return svc.repo.CreateMessage(ctx, msg)
}

func (svc *Service) GroupHistory(ctx context.Context, groupID string) ([]Message, error) {
	return svc.repo.QueryGroupMessages(ctx, groupID)
}

func (svc *Service) DeleteBySender(ctx context.Context, senderID string) error {
	return svc.repo.DeleteMessagesBySender(ctx, senderID)
}

func (svc *Service) DeleteByGroup(ctx context.Context, groupID string) error {
	return svc.repo.DeleteMessagesByGroup(ctx, groupID)
}
