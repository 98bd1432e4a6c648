package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/notif"
)

type notificationRepository struct {
	db *notificationTable
}

var _ notif.Repository = (*notificationRepository)(nil)

func NewNotificationRepository(db *DB) notif.Repository {
	return &notificationRepository{db: db.notification}
}

func (repo *notificationRepository) CreateNotification(_ context.Context, nf notif.Notification) (notif.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if nf.ID == "" {
		nf.ID = uuid.New().String()
	}
	repo.db.table[nf.ID] = &nf
	return nf, nil
}

func (repo *notificationRepository) CreateNotifications(ctx context.Context, nfs []notif.Notification) ([]notif.Notification, error) {
	for i, nf := range nfs {
		created, err := repo.CreateNotification(ctx, nf)
		if err != nil {
			return nil, err
		}
		nfs[i] = created
	}
	return nfs, nil
}

func (repo *notificationRepository) GetNotificationByID(_ context.Context, id string) (notif.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if nf, ok := repo.db.table[id]; ok {
		return *nf, nil
	}
	return notif.Notification{}, notif.ErrNotFound
}

func (repo *notificationRepository) QueryUserNotifications(_ context.Context, recipientID string) ([]notif.Notification, error) {
	return repo.query(func(nf *notif.Notification) bool { return nf.RecipientID == recipientID })
}

func (repo *notificationRepository) QueryUnreadNotifications(_ context.Context, recipientID string) ([]notif.Notification, error) {
	return repo.query(func(nf *notif.Notification) bool { return nf.RecipientID == recipientID && !nf.Read })
}

func (repo *notificationRepository) query(match func(*notif.Notification) bool) ([]notif.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var nfs []notif.Notification
	for _, nf := range repo.db.table {
		if match(nf) {
			nfs = append(nfs, *nf)
		}
	}
	sort.Slice(nfs, func(i, j int) bool { return nfs[i].CreatedAt.After(nfs[j].CreatedAt) })
	return nfs, nil
}

func (repo *notificationRepository) SetNotificationRead(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	nf, ok := repo.db.table[id]
	if !ok {
		return notif.ErrNotFound
	}
	nf.Read = true
	return nil
}

func (repo *notificationRepository) SetAllNotificationsRead(_ context.Context, recipientID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, nf := range repo.db.table {
		if nf.RecipientID == recipientID {
			nf.Read = true
		}
	}
	return nil
}

func (repo *notificationRepository) DeleteNotificationsByRecipient(_ context.Context, recipientID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for id, nf := range repo.db.table {
		if nf.RecipientID == recipientID {
			delete(repo.db.table, id)
		}
	}
	return nil
}
