package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"onpointe/prevention/internal/domain"
)

type messagingFixture struct {
	svc      MessagingService
	threads  *memThreads
	messages *memMessages
	users    *memUsers
	threadID string
}

var sentAt = time.Date(2026, 10, 15, 18, 30, 0, 0, time.UTC)

func newMessagingFixture(t *testing.T) messagingFixture {
	t.Helper()
	f := messagingFixture{
		threads:  newMemThreads(),
		messages: &memMessages{now: sentAt},
		users: newMemUsers(
			domain.User{ID: "pt1", Name: "Pat", Role: domain.RolePT},
			domain.User{ID: "d1", Name: "Ann", Role: domain.RoleDancer, PTID: "pt1"},
		),
	}
	id, err := f.threads.Create(context.Background(), &domain.Thread{DancerID: "d1", PTID: "pt1"})
	require.NoError(t, err)
	f.threadID = id
	f.svc = NewMessagingService(f.threads, f.messages, f.users, zap.NewNop())
	return f
}

func TestMessagingService_Send(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	msg, err := f.svc.Send(ctx, "d1", f.threadID, "  My ankle is tight  ")
	require.NoError(t, err)
	assert.Equal(t, "My ankle is tight", msg.Text)
	assert.Equal(t, "d1", msg.SenderUID)

	thread, err := f.threads.GetByID(ctx, f.threadID)
	require.NoError(t, err)
	assert.Equal(t, "My ankle is tight", thread.LastMessageText)
	assert.Equal(t, sentAt, thread.LastMessageAt)
	assert.Equal(t, 1, thread.Unread["pt1"])
	assert.Zero(t, thread.Unread["d1"])
}

func TestMessagingService_SendRejections(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, "d1", f.threadID, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = f.svc.Send(ctx, "d1", f.threadID, strings.Repeat("é", MaxMessageLength+1))
	assert.ErrorIs(t, err, ErrMessageTooLong)

	_, err = f.svc.Send(ctx, "d1", f.threadID, strings.Repeat("é", MaxMessageLength))
	assert.NoError(t, err, "the limit counts characters, not bytes")

	_, err = f.svc.Send(ctx, "stranger", f.threadID, "hi")
	assert.ErrorIs(t, err, ErrNotThreadMember)

	_, err = f.svc.Send(ctx, "d1", "missing", "hi")
	assert.ErrorIs(t, err, ErrNotThreadMember)

	_, err = f.svc.Send(ctx, "d1", "", "hi")
	assert.Error(t, err)
}

func TestMessagingService_GetMyThreads(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()
	_, err := f.svc.Send(ctx, "d1", f.threadID, "hello")
	require.NoError(t, err)

	threads, err := f.svc.GetMyThreads(ctx, "pt1")
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, domain.ThreadSummary{
		ThreadID:        f.threadID,
		PeerUID:         "d1",
		PeerName:        "Ann",
		LastMessageText: "hello",
		LastMessageAt:   sentAt.UnixMilli(),
		UnreadCount:     1,
	}, threads[0])

	mine, err := f.svc.GetMyThreads(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Pat", mine[0].PeerName)
	assert.Zero(t, mine[0].UnreadCount)
}

func TestMessagingService_GetMyThreadsWithoutNames(t *testing.T) {
	f := newMessagingFixture(t)
	f.users.err = errors.New("users unavailable")

	threads, err := f.svc.GetMyThreads(context.Background(), "pt1")

	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Empty(t, threads[0].PeerName)
	assert.Zero(t, threads[0].LastMessageAt)
}

func TestMessagingService_GetMyThreadsEmpty(t *testing.T) {
	f := newMessagingFixture(t)

	threads, err := f.svc.GetMyThreads(context.Background(), "nobody")

	require.NoError(t, err)
	assert.NotNil(t, threads)
	assert.Empty(t, threads)
}

func TestMessagingService_MarkRead(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()
	_, err := f.svc.Send(ctx, "d1", f.threadID, "hello")
	require.NoError(t, err)

	require.NoError(t, f.svc.MarkRead(ctx, "pt1", f.threadID))

	thread, _ := f.threads.GetByID(ctx, f.threadID)
	assert.Zero(t, thread.Unread["pt1"])
	assert.ErrorIs(t, f.svc.MarkRead(ctx, "stranger", f.threadID), ErrNotThreadMember)
}
