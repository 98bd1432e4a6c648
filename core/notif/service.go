package notif

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// EventNotification is the event name used for live-pushed notifications.
const EventNotification = "notification"

var (
	// errors
	ErrNotFound          = errors.New("notification not found")
	ErrForbidden         = errors.New("not authorized")
	errInvalidRecipients = errors.New("invalid recipients format")
)

type (
	Repository interface {
		CreateNotification(ctx context.Context, n Notification) (Notification, error)
		CreateNotifications(ctx context.Context, ns []Notification) ([]Notification, error)
		GetNotificationByID(ctx context.Context, id string) (Notification, error)
		// QueryUserNotifications returns a recipient's notifications, most recent first.
		QueryUserNotifications(ctx context.Context, recipientID string) ([]Notification, error)
		// QueryUnreadNotifications returns a recipient's unread notifications, most recent first.
		QueryUnreadNotifications(ctx context.Context, recipientID string) ([]Notification, error)
		// SetNotificationRead flips the read flag to true; the transition is
		// monotonic, there is no way back.
		SetNotificationRead(ctx context.Context, id string) error
		SetAllNotificationsRead(ctx context.Context, recipientID string) error
		DeleteNotificationsByRecipient(ctx context.Context, recipientID string) error
	}

	// Pusher delivers a payload to a user's live connection, if any.
	// An offline recipient is a normal outcome, not an error; a returned
	// error means a stale or saturated connection and is never surfaced
	// past the dispatcher.
	Pusher interface {
		PushToUser(userID, event string, payload interface{}) error
	}

	Service struct {
		repo    Repository
		pusher  Pusher
		logger  core.Logger
		timeout time.Duration
	}
)

func NewService(repo Repository, pusher Pusher, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		pusher:  pusher,
		logger:  logger,
		timeout: conf.Database.Timeout,
	}
}

// Dispatch is the single path by which a durable Notification is created.
// The persistence write must succeed before any live push is attempted; if
// it fails the whole dispatch fails and nothing is pushed. Push failures are
// logged and swallowed: the durable record is the authoritative state and
// the client pulls it on reconnect.
func (svc *Service) Dispatch(ctx context.Context, recipientID string, tpl Template) (Notification, error) {
	if tpl.Type == "" {
		tpl.Type = TypeSystem
	}

	ctx, cancel := context.WithTimeout(ctx, svc.timeout)
	defer cancel()

	n, err := svc.repo.CreateNotification(ctx, svc.build(recipientID, tpl))
	if err != nil {
		return Notification{}, pkgerrors.Wrap(err, "creating notification")
	}

	svc.push(n)
	return n, nil
}

// DispatchBulk creates one independent record per recipient (so each
// recipient's read state is their own) and then attempts a live push to
// every recipient that is online.
func (svc *Service) DispatchBulk(ctx context.Context, recipientIDs []string, tpl Template) ([]Notification, error) {
	if tpl.Type == "" {
		tpl.Type = TypeSystem
	}
	if len(recipientIDs) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, svc.timeout)
	defer cancel()

	records := make([]Notification, 0, len(recipientIDs))
	for _, rid := range recipientIDs {
		records = append(records, svc.build(rid, tpl))
	}
	ns, err := svc.repo.CreateNotifications(ctx, records)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "creating notifications")
	}

	for _, n := range ns {
		svc.push(n)
	}
	return ns, nil
}

// MarkRead flips the notification's read flag. Only the recipient may do
// so; marking an already-read notification is a no-op success.
func (svc *Service) MarkRead(ctx context.Context, id, requestingUserID string) error {
	n, err := svc.repo.GetNotificationByID(ctx, id)
	if err != nil {
		return err
	}
	if n.RecipientID != requestingUserID {
		return ErrForbidden
	}
	if n.Read {
		return nil
	}
	return svc.repo.SetNotificationRead(ctx, id)
}

func (svc *Service) MarkAllRead(ctx context.Context, userID string) error {
	return svc.repo.SetAllNotificationsRead(ctx, userID)
}

func (svc *Service) ListForUser(ctx context.Context, userID string) ([]Notification, error) {
	return svc.repo.QueryUserNotifications(ctx, userID)
}

func (svc *Service) ListUnread(ctx context.Context, userID string) ([]Notification, error) {
	return svc.repo.QueryUnreadNotifications(ctx, userID)
}

// DeleteForUser removes a recipient's notifications; only used as part of
// the account deletion cascade.
func (svc *Service) DeleteForUser(ctx context.Context, userID string) error {
	return svc.repo.DeleteNotificationsByRecipient(ctx, userID)
}

func (svc *Service) build(recipientID string, tpl Template) Notification {
	return Notification{
		RecipientID: recipientID,
		Title:       tpl.Title,
		Message:     tpl.Message,
		Type:        tpl.Type,
		RelatedID:   tpl.RelatedID,
		RelatedKind: tpl.RelatedKind,
		CreatedAt:   time.Now().UTC(),
	}
}

func (svc *Service) push(n Notification) {
	payload := PushPayload{
		Type:        n.Type,
		Title:       n.Title,
		Message:     n.Message,
		Timestamp:   n.CreatedAt,
		RelatedID:   n.RelatedID,
		RelatedKind: n.RelatedKind,
	}
	if err := svc.pusher.PushToUser(n.RecipientID, EventNotification, payload); err != nil {
		// stale connection; the durable record stands in
		svc.logger.Warn("notification push failed", err, map[string]interface{}{"recipient": n.RecipientID})
	}
}
