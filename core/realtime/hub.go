package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/chat"
	"github.com/trezcool/darasa/core/group"
	"github.com/trezcool/darasa/core/notif"
	"github.com/trezcool/darasa/core/user"
)

// globalChannel carries presence-wide events (user status changes); every
// connection joins it on authentication.
const globalChannel = "global"

// UserChannel is the synthetic private channel id of a user, used for
// direct delivery (notifications, direct messages).
func UserChannel(userID string) string { return "user:" + userID }

type (
	// Authenticator verifies a bearer credential and yields a principal.
	Authenticator interface {
		Authenticate(ctx context.Context, credential string) (userID, username string, err error)
	}

	Deps struct {
		Auth     Authenticator
		UserSvc  *user.Service
		GroupSvc *group.Service
		ChatSvc  *chat.Service
		NotifSvc *notif.Service
	}

	handlerFunc func(c *Client, data json.RawMessage)

	// Hub owns the socket side of the app: it upgrades connections, runs
	// the per-connection event loop against an explicit handler table and
	// coordinates the presence registry and channel router. Connection
	// teardown goes through a single path that clears every structure the
	// connection appears in.
	Hub struct {
		registry *Registry
		router   *Router
		deps     Deps
		logger   core.Logger
		timeout  time.Duration

		handlers map[string]handlerFunc
		upgrader websocket.Upgrader
	}
)

func NewHub(registry *Registry, router *Router, deps Deps, logger core.Logger, conf *core.Config) *Hub {
	h := &Hub{
		registry: registry,
		router:   router,
		deps:     deps,
		logger:   logger,
		timeout:  conf.Database.Timeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // CORS is enforced at the HTTP layer
		},
	}
	h.handlers = map[string]handlerFunc{
		EventAuthenticate:     h.onAuthenticate,
		EventJoinChannel:      h.onJoinChannel,
		EventLeaveChannel:     h.onLeaveChannel,
		EventSendMessage:      h.onChatSend,
		EventTyping:           h.onTyping,
		EventReadNotification: h.onReadNotification,
		EventDirectMessage:    h.onDirectMessage,
		EventUpdateStatus:     h.onUpdateStatus,
	}
	return h
}

func (h *Hub) Registry() *Registry { return h.registry }
func (h *Hub) Router() *Router     { return h.router }

// ServeWS upgrades the request and runs the connection's event loop until
// it closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	sock, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := newClient(sock)
	h.logger.Debug("client connected", map[string]interface{}{"conn": c.ID()})

	go c.writePump()
	c.readPump(h) // blocks for the lifetime of the connection
	return nil
}

// handleEvent dispatches an inbound frame through the handler table; events
// run sequentially on the connection's read goroutine, which gives every
// producer FIFO ordering towards its subscribers.
func (h *Hub) handleEvent(c *Client, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.logger.Debug("dropping malformed frame", err, map[string]interface{}{"conn": c.ID()})
		return
	}
	handler, ok := h.handlers[env.Event]
	if !ok {
		h.logger.Debug("unknown event", map[string]interface{}{"event": env.Event, "conn": c.ID()})
		return
	}
	handler(c, env.Data)
}

// dropClient atomically removes the connection from the presence registry
// and every channel it is subscribed to, then closes its queue.
func (h *Hub) dropClient(c *Client) {
	h.registry.Unregister(c)
	h.router.LeaveAll(c)
	c.shutdown()
	h.logger.Debug("client disconnected", map[string]interface{}{"conn": c.ID(), "user": c.UserID()})
}

// Event handlers

func (h *Hub) onAuthenticate(c *Client, data json.RawMessage) {
	var p AuthenticatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.sendAuthError(c, "invalid payload")
		return
	}

	ctx, cancel := h.ctx()
	defer cancel()
	userID, username, err := h.deps.Auth.Authenticate(ctx, p.Token)
	if err != nil {
		h.logger.Debug("socket authentication failed", err, map[string]interface{}{"conn": c.ID()})
		h.sendAuthError(c, "invalid token")
		return
	}

	c.setUser(userID, username)
	h.registry.Register(c)
	h.router.Join(c, UserChannel(userID))
	h.router.Join(c, globalChannel)

	if err = c.Enqueue(EventConnectionSuccess, ConnectionSuccessPayload{UserID: userID, Username: username}); err != nil {
		h.logger.Warn("connection success push failed", err)
	}
}

func (h *Hub) onJoinChannel(c *Client, data json.RawMessage) {
	if c.UserID() == "" {
		return
	}
	var p ChannelPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	h.router.Join(c, p.ChannelID)
}

func (h *Hub) onLeaveChannel(c *Client, data json.RawMessage) {
	if c.UserID() == "" {
		return
	}
	var p ChannelPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	h.router.Leave(c, p.ChannelID)
}

func (h *Hub) onChatSend(c *Client, data json.RawMessage) {
	if c.UserID() == "" {
		return
	}
	var p SendMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}

	nm := chat.NewMessage{Content: p.Content, GroupID: p.ChannelID, ClientKey: p.ClientKey}
	if err := nm.Validate(); err != nil {
		return
	}

	ctx, cancel := h.ctx()
	defer cancel()

	// durability precedes broadcast: the persisted copy is the record,
	// the push is only a notification of its existence
	msg, err := h.deps.ChatSvc.Send(ctx, nm, c.UserID())
	if err != nil {
		h.logger.Error("persisting chat message", err, map[string]interface{}{"user": c.UserID()})
		return
	}

	h.broadcast(p.ChannelID, EventMessageReceived, MessageReceivedPayload{
		MessageID: msg.ID,
		SenderID:  msg.SenderID,
		Content:   msg.Content,
		ChannelID: msg.GroupID,
		CreatedAt: msg.CreatedAt,
	}, c.ID())

	h.notifyGroupMessage(ctx, c, msg)
}

// notifyGroupMessage creates one notification per group member, excluding
// the sender.
func (h *Hub) notifyGroupMessage(ctx context.Context, c *Client, msg chat.Message) {
	grp, err := h.deps.GroupSvc.GetByID(ctx, msg.GroupID)
	if err != nil {
		h.logger.Warn("loading group for message notifications", err, map[string]interface{}{"group": msg.GroupID})
		return
	}
	tpl := notif.Template{
		Title:       "New message",
		Message:     fmt.Sprintf("%s sent a message in %s", c.Username(), grp.Name),
		Type:        notif.TypeMessage,
		RelatedID:   grp.ID,
		RelatedKind: notif.KindGroup,
	}
	for _, memberID := range grp.MemberIDs {
		if memberID == msg.SenderID {
			continue
		}
		if _, err = h.deps.NotifSvc.Dispatch(ctx, memberID, tpl); err != nil {
			h.logger.Error("dispatching message notification", err, map[string]interface{}{"recipient": memberID})
		}
	}
}

func (h *Hub) onTyping(c *Client, data json.RawMessage) {
	if c.UserID() == "" {
		return
	}
	var p TypingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	h.broadcast(p.ChannelID, EventTypingChanged, TypingChangedPayload{
		UserID:    c.UserID(),
		ChannelID: p.ChannelID,
		IsTyping:  p.IsTyping,
	}, c.ID())
}

func (h *Hub) onReadNotification(c *Client, data json.RawMessage) {
	if c.UserID() == "" {
		return
	}
	var p ReadNotificationPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}

	ctx, cancel := h.ctx()
	defer cancel()
	if err := h.deps.NotifSvc.MarkRead(ctx, p.NotificationID, c.UserID()); err != nil {
		h.logger.Debug("marking notification read", err, map[string]interface{}{"notification": p.NotificationID})
	}
}

func (h *Hub) onDirectMessage(c *Client, data json.RawMessage) {
	if c.UserID() == "" {
		return
	}
	var p DirectMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}

	nm := chat.NewDirectMessage{Content: p.Content, RecipientID: p.RecipientID, ClientKey: p.ClientKey}
	if err := nm.Validate(); err != nil {
		return
	}

	ctx, cancel := h.ctx()
	defer cancel()

	if _, err := h.deps.UserSvc.GetByID(ctx, p.RecipientID); err != nil {
		h.logger.Debug("direct message to unknown recipient", err, map[string]interface{}{"recipient": p.RecipientID})
		return
	}

	msg, err := h.deps.ChatSvc.SendDirect(ctx, nm, c.UserID())
	if err != nil {
		h.logger.Error("persisting direct message", err, map[string]interface{}{"user": c.UserID()})
		return
	}

	if err = h.registry.PushToUser(p.RecipientID, EventDirectMessage, DirectMessageReceivedPayload{
		MessageID: msg.ID,
		SenderID:  msg.SenderID,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}); err != nil {
		h.logger.Warn("direct message push failed", err, map[string]interface{}{"recipient": p.RecipientID})
	}

	tpl := notif.Template{
		Title:       "New Direct Message",
		Message:     fmt.Sprintf("%s sent you a message: %q", c.Username(), msg.Excerpt()),
		Type:        notif.TypeMessage,
		RelatedID:   c.UserID(),
		RelatedKind: notif.KindUser,
	}
	if _, err = h.deps.NotifSvc.Dispatch(ctx, p.RecipientID, tpl); err != nil {
		h.logger.Error("dispatching direct message notification", err, map[string]interface{}{"recipient": p.RecipientID})
	}
}

func (h *Hub) onUpdateStatus(c *Client, data json.RawMessage) {
	if c.UserID() == "" {
		return
	}
	var p UpdateStatusPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	h.broadcast(globalChannel, EventUserStatusChange, UserStatusChangePayload{
		UserID: c.UserID(),
		Status: p.Status,
	}, c.ID())
}

// helpers

func (h *Hub) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), h.timeout)
}

func (h *Hub) broadcast(channelID, event string, payload interface{}, exclude ...string) {
	for _, err := range h.router.Broadcast(channelID, event, payload, exclude...) {
		h.logger.Warn("broadcast push failed", err, map[string]interface{}{"channel": channelID, "event": event})
	}
}

func (h *Hub) sendAuthError(c *Client, msg string) {
	if err := c.Enqueue(EventAuthenticationError, ErrorPayload{Message: msg}); err != nil {
		h.logger.Warn("auth error push failed", err)
	}
}
