package chat_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core/chat"
	inmemdb "github.com/trezcool/darasa/storage/inmem"
)

func setup(t *testing.T) *chat.Service {
	t.Helper()
	db, err := inmemdb.Open()
	require.NoError(t, err)
	return chat.NewService(inmemdb.NewMessageRepository(db))
}

func TestService_Send(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	msg, err := svc.Send(ctx, chat.NewMessage{Content: "hey", GroupID: "grp1"}, "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "u1", msg.SenderID)
	assert.Equal(t, "grp1", msg.GroupID)
	assert.False(t, msg.IsDirect)
	assert.False(t, msg.CreatedAt.IsZero())
}

func TestService_Send_clientKeyIdempotent(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	nm := chat.NewMessage{Content: "hey", GroupID: "grp1", ClientKey: "k1"}
	first, err := svc.Send(ctx, nm, "u1")
	require.NoError(t, err)

	// the retry returns the original message, no duplicate is written
	second, err := svc.Send(ctx, nm, "u1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	msgs, err := svc.GroupHistory(ctx, "grp1")
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	// the key is scoped per sender
	_, err = svc.Send(ctx, nm, "u2")
	require.NoError(t, err)
	msgs, err = svc.GroupHistory(ctx, "grp1")
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestService_Send_noKeyAlwaysWrites(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	nm := chat.NewMessage{Content: "hey", GroupID: "grp1"}
	_, err := svc.Send(ctx, nm, "u1")
	require.NoError(t, err)
	_, err = svc.Send(ctx, nm, "u1")
	require.NoError(t, err)

	msgs, err := svc.GroupHistory(ctx, "grp1")
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestService_SendDirect(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	msg, err := svc.SendDirect(ctx, chat.NewDirectMessage{Content: "psst", RecipientID: "u2"}, "u1")
	require.NoError(t, err)
	assert.True(t, msg.IsDirect)
	assert.Equal(t, "u2", msg.RecipientID)
	assert.Empty(t, msg.GroupID)
}

func TestService_GroupHistory_oldestFirst(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	for _, content := range []string{"one", "two", "three"} {
		_, err := svc.Send(ctx, chat.NewMessage{Content: content, GroupID: "grp1"}, "u1")
		require.NoError(t, err)
	}
	_, err := svc.Send(ctx, chat.NewMessage{Content: "elsewhere", GroupID: "grp2"}, "u1")
	require.NoError(t, err)

	msgs, err := svc.GroupHistory(ctx, "grp1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Content)
	assert.Equal(t, "two", msgs[1].Content)
	assert.Equal(t, "three", msgs[2].Content)
}

func TestService_DeleteBySender(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	_, err := svc.Send(ctx, chat.NewMessage{Content: "mine", GroupID: "grp1"}, "u1")
	require.NoError(t, err)
	_, err = svc.Send(ctx, chat.NewMessage{Content: "theirs", GroupID: "grp1"}, "u2")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBySender(ctx, "u1"))
	msgs, err := svc.GroupHistory(ctx, "grp1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "theirs", msgs[0].Content)
}

func TestMessage_Excerpt(t *testing.T) {
	short := chat.Message{Content: "hey"}
	assert.Equal(t, "hey", short.Excerpt())

	long := chat.Message{Content: strings.Repeat("a", 60)}
	assert.Equal(t, strings.Repeat("a", 50)+"...", long.Excerpt())

	exact := chat.Message{Content: strings.Repeat("a", 50)}
	assert.Equal(t, strings.Repeat("a", 50), exact.Excerpt())
}
