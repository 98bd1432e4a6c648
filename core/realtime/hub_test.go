package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/chat"
	"github.com/trezcool/darasa/core/group"
	"github.com/trezcool/darasa/core/notif"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	inmemdb "github.com/trezcool/darasa/storage/inmem"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

// tokenAuth resolves "tok-<id>" credentials against the user table.
type tokenAuth struct {
	svc *user.Service
}

func (a tokenAuth) Authenticate(ctx context.Context, credential string) (string, string, error) {
	if len(credential) < 5 || credential[:4] != "tok-" {
		return "", "", user.ErrNotFound
	}
	usr, err := a.svc.GetByID(ctx, credential[4:])
	if err != nil {
		return "", "", err
	}
	return usr.ID, usr.Username, nil
}

type hubEnv struct {
	hub      *Hub
	usrSvc   *user.Service
	grpSvc   *group.Service
	chatSvc  *chat.Service
	notifSvc *notif.Service
}

func setupHub(t *testing.T) *hubEnv {
	t.Helper()

	db, err := inmemdb.Open()
	require.NoError(t, err)

	usrSvc := user.NewService(inmemdb.NewUserRepository(db), emailsvc.NewConsoleServiceMock())
	grpSvc := group.NewService(inmemdb.NewGroupRepository(db))
	chatSvc := chat.NewService(inmemdb.NewMessageRepository(db))

	registry := NewRegistry()
	router := NewRouter()
	notifSvc := notif.NewService(inmemdb.NewNotificationRepository(db), registry, nopLogger{}, core.Conf)

	hub := NewHub(registry, router, Deps{
		Auth:     tokenAuth{svc: usrSvc},
		UserSvc:  usrSvc,
		GroupSvc: grpSvc,
		ChatSvc:  chatSvc,
		NotifSvc: notifSvc,
	}, nopLogger{}, core.Conf)

	return &hubEnv{hub: hub, usrSvc: usrSvc, grpSvc: grpSvc, chatSvc: chatSvc, notifSvc: notifSvc}
}

func (env *hubEnv) createUser(t *testing.T, uname string) user.User {
	t.Helper()
	usr, err := env.usrSvc.Create(context.Background(), user.NewUser{
		Username: uname,
		Email:    uname + "@test.cd",
		Password: "Billiards8!",
		Role:     user.RoleStudent,
	})
	require.NoError(t, err)
	return usr
}

// connect simulates a fresh authenticated connection.
func (env *hubEnv) connect(t *testing.T, usr user.User) *Client {
	t.Helper()
	c := newClient(nil)
	env.hub.handleEvent(c, frame(t, EventAuthenticate, AuthenticatePayload{Token: "tok-" + usr.ID}))

	got := receive(t, c)
	require.Equal(t, EventConnectionSuccess, got.Event)
	return c
}

func frame(t *testing.T, event string, payload interface{}) []byte {
	t.Helper()
	data, err := marshalEvent(event, payload)
	require.NoError(t, err)
	return data
}

func TestHub_authenticate(t *testing.T) {
	env := setupHub(t)
	usr := env.createUser(t, "awe")

	c := newClient(nil)
	env.hub.handleEvent(c, frame(t, EventAuthenticate, AuthenticatePayload{Token: "tok-" + usr.ID}))

	got := receive(t, c)
	assert.Equal(t, EventConnectionSuccess, got.Event)
	var p ConnectionSuccessPayload
	require.NoError(t, json.Unmarshal(got.Data, &p))
	assert.Equal(t, usr.ID, p.UserID)
	assert.Equal(t, usr.Username, p.Username)

	// presence and private/global channel membership
	live, ok := env.hub.Registry().Lookup(usr.ID)
	assert.True(t, ok)
	assert.Equal(t, c.ID(), live.ID())
	assert.True(t, env.hub.Router().Subscribed(c, UserChannel(usr.ID)))
	assert.True(t, env.hub.Router().Subscribed(c, globalChannel))
}

func TestHub_authenticate_badToken(t *testing.T) {
	env := setupHub(t)

	c := newClient(nil)
	env.hub.handleEvent(c, frame(t, EventAuthenticate, AuthenticatePayload{Token: "lol"}))

	got := receive(t, c)
	assert.Equal(t, EventAuthenticationError, got.Event)
	assert.Equal(t, 0, env.hub.Registry().Online())
}

func TestHub_unknownAndMalformedFrames(t *testing.T) {
	env := setupHub(t)
	usr := env.createUser(t, "awe")
	c := env.connect(t, usr)

	env.hub.handleEvent(c, []byte("{not json"))
	env.hub.handleEvent(c, frame(t, "lolEvent", nil))
	assert.Empty(t, c.send)
}

func TestHub_sendMessage(t *testing.T) {
	env := setupHub(t)
	sender := env.createUser(t, "awe")
	member := env.createUser(t, "king")

	grp, err := env.grpSvc.Create(context.Background(), group.NewGroup{Name: "Maths"}, sender.ID)
	require.NoError(t, err)
	_, err = env.grpSvc.Join(context.Background(), grp.ID, member.ID)
	require.NoError(t, err)

	sc := env.connect(t, sender)
	mc := env.connect(t, member)
	env.hub.handleEvent(sc, frame(t, EventJoinChannel, ChannelPayload{ChannelID: grp.ID}))
	env.hub.handleEvent(mc, frame(t, EventJoinChannel, ChannelPayload{ChannelID: grp.ID}))

	env.hub.handleEvent(sc, frame(t, EventSendMessage, SendMessagePayload{Content: "hey", ChannelID: grp.ID, ClientKey: "k1"}))

	// the other member hears it; the sender does not hear their own echo
	got := receive(t, mc)
	assert.Equal(t, EventMessageReceived, got.Event)
	var p MessageReceivedPayload
	require.NoError(t, json.Unmarshal(got.Data, &p))
	assert.Equal(t, sender.ID, p.SenderID)
	assert.Equal(t, "hey", p.Content)
	assert.Equal(t, grp.ID, p.ChannelID)

	// the member is also notified durably and live
	got = receive(t, mc)
	assert.Equal(t, notif.EventNotification, got.Event)
	assert.Empty(t, sc.send)

	nfs, err := env.notifSvc.ListUnread(context.Background(), member.ID)
	require.NoError(t, err)
	require.Len(t, nfs, 1)
	assert.Equal(t, "New message", nfs[0].Title)
	assert.Equal(t, fmt.Sprintf("%s sent a message in %s", sender.Username, grp.Name), nfs[0].Message)

	// the message is durable
	msgs, err := env.chatSvc.GroupHistory(context.Background(), grp.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hey", msgs[0].Content)
}

func TestHub_sendMessage_clientKeyIdempotent(t *testing.T) {
	env := setupHub(t)
	sender := env.createUser(t, "awe")

	grp, err := env.grpSvc.Create(context.Background(), group.NewGroup{Name: "Maths"}, sender.ID)
	require.NoError(t, err)

	sc := env.connect(t, sender)
	env.hub.handleEvent(sc, frame(t, EventJoinChannel, ChannelPayload{ChannelID: grp.ID}))

	// a client retrying the same frame must not create a duplicate
	data := frame(t, EventSendMessage, SendMessagePayload{Content: "hey", ChannelID: grp.ID, ClientKey: "k1"})
	env.hub.handleEvent(sc, data)
	env.hub.handleEvent(sc, data)

	msgs, err := env.chatSvc.GroupHistory(context.Background(), grp.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestHub_sendMessage_unauthenticated(t *testing.T) {
	env := setupHub(t)

	c := newClient(nil)
	env.hub.handleEvent(c, frame(t, EventSendMessage, SendMessagePayload{Content: "hey", ChannelID: "grp1"}))
	assert.Empty(t, c.send)
}

func TestHub_typing(t *testing.T) {
	env := setupHub(t)
	typer := env.createUser(t, "awe")
	other := env.createUser(t, "king")

	tc := env.connect(t, typer)
	oc := env.connect(t, other)
	env.hub.handleEvent(tc, frame(t, EventJoinChannel, ChannelPayload{ChannelID: "grp1"}))
	env.hub.handleEvent(oc, frame(t, EventJoinChannel, ChannelPayload{ChannelID: "grp1"}))

	env.hub.handleEvent(tc, frame(t, EventTyping, TypingPayload{ChannelID: "grp1", IsTyping: true}))

	got := receive(t, oc)
	assert.Equal(t, EventTypingChanged, got.Event)
	var p TypingChangedPayload
	require.NoError(t, json.Unmarshal(got.Data, &p))
	assert.Equal(t, typer.ID, p.UserID)
	assert.True(t, p.IsTyping)
	assert.Empty(t, tc.send)
}

func TestHub_directMessage(t *testing.T) {
	env := setupHub(t)
	sender := env.createUser(t, "awe")
	recipient := env.createUser(t, "king")

	sc := env.connect(t, sender)
	rc := env.connect(t, recipient)

	env.hub.handleEvent(sc, frame(t, EventDirectMessage, DirectMessagePayload{RecipientID: recipient.ID, Content: "psst"}))

	got := receive(t, rc)
	assert.Equal(t, EventDirectMessage, got.Event)
	var p DirectMessageReceivedPayload
	require.NoError(t, json.Unmarshal(got.Data, &p))
	assert.Equal(t, sender.ID, p.SenderID)
	assert.Equal(t, "psst", p.Content)

	// followed by the live notification
	got = receive(t, rc)
	assert.Equal(t, notif.EventNotification, got.Event)
	assert.Empty(t, sc.send)

	nfs, err := env.notifSvc.ListUnread(context.Background(), recipient.ID)
	require.NoError(t, err)
	require.Len(t, nfs, 1)
	assert.Equal(t, "New Direct Message", nfs[0].Title)
	assert.Equal(t, sender.ID, nfs[0].RelatedID)
}

func TestHub_directMessage_offlineRecipient(t *testing.T) {
	env := setupHub(t)
	sender := env.createUser(t, "awe")
	recipient := env.createUser(t, "king")

	sc := env.connect(t, sender)
	env.hub.handleEvent(sc, frame(t, EventDirectMessage, DirectMessagePayload{RecipientID: recipient.ID, Content: "psst"}))

	// no live connection, but the durable record is there for reconnect
	nfs, err := env.notifSvc.ListUnread(context.Background(), recipient.ID)
	require.NoError(t, err)
	assert.Len(t, nfs, 1)
}

func TestHub_directMessage_unknownRecipient(t *testing.T) {
	env := setupHub(t)
	sender := env.createUser(t, "awe")

	sc := env.connect(t, sender)
	env.hub.handleEvent(sc, frame(t, EventDirectMessage, DirectMessagePayload{RecipientID: "ghost", Content: "psst"}))
	assert.Empty(t, sc.send)
}

func TestHub_readNotification(t *testing.T) {
	env := setupHub(t)
	usr := env.createUser(t, "awe")
	other := env.createUser(t, "king")

	nf, err := env.notifSvc.Dispatch(context.Background(), usr.ID, notif.Template{Title: "hey", Message: "there"})
	require.NoError(t, err)

	// someone else's connection cannot read it
	oc := env.connect(t, other)
	env.hub.handleEvent(oc, frame(t, EventReadNotification, ReadNotificationPayload{NotificationID: nf.ID}))
	nfs, err := env.notifSvc.ListUnread(context.Background(), usr.ID)
	require.NoError(t, err)
	assert.Len(t, nfs, 1)

	uc := env.connect(t, usr)
	// drain the notification pushed on dispatch, if any
	for len(uc.send) > 0 {
		<-uc.send
	}
	env.hub.handleEvent(uc, frame(t, EventReadNotification, ReadNotificationPayload{NotificationID: nf.ID}))
	nfs, err = env.notifSvc.ListUnread(context.Background(), usr.ID)
	require.NoError(t, err)
	assert.Empty(t, nfs)
}

func TestHub_updateStatus(t *testing.T) {
	env := setupHub(t)
	usr := env.createUser(t, "awe")
	other := env.createUser(t, "king")

	uc := env.connect(t, usr)
	oc := env.connect(t, other)

	env.hub.handleEvent(uc, frame(t, EventUpdateStatus, UpdateStatusPayload{Status: "away"}))

	got := receive(t, oc)
	assert.Equal(t, EventUserStatusChange, got.Event)
	var p UserStatusChangePayload
	require.NoError(t, json.Unmarshal(got.Data, &p))
	assert.Equal(t, usr.ID, p.UserID)
	assert.Equal(t, "away", p.Status)
	assert.Empty(t, uc.send)
}

func TestHub_dropClient(t *testing.T) {
	env := setupHub(t)
	usr := env.createUser(t, "awe")

	c := env.connect(t, usr)
	env.hub.handleEvent(c, frame(t, EventJoinChannel, ChannelPayload{ChannelID: "grp1"}))

	env.hub.dropClient(c)

	_, ok := env.hub.Registry().Lookup(usr.ID)
	assert.False(t, ok)
	assert.False(t, env.hub.Router().Subscribed(c, "grp1"))
	assert.False(t, env.hub.Router().Subscribed(c, globalChannel))

	// dropping twice is safe
	env.hub.dropClient(c)
}
