package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_Feed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, "author")
	a := env.user(t, "a")
	b := env.user(t, "b")
	first := env.post(t, author, "First", "")
	second := env.post(t, author, "Second", "")

	_, err := env.likes.TogglePost(ctx, a, first.Slug)
	require.NoError(t, err)
	_, err = env.likes.TogglePost(ctx, b, second.Slug)
	require.NoError(t, err)

	_, err = env.notifications.Feed(ctx, nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	unread, err := env.notifications.UnreadCount(ctx, author)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	feed, err := env.notifications.Feed(ctx, author)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, b.ID, feed[0].SenderID, "newest first")
	assert.False(t, feed[0].Read, "the feed shows what was unread when opened")

	unread, err = env.notifications.UnreadCount(ctx, author)
	require.NoError(t, err)
	assert.Zero(t, unread)

	feed, err = env.notifications.Feed(ctx, author)
	require.NoError(t, err)
	assert.True(t, feed[0].Read)

	empty, err := env.notifications.Feed(ctx, a)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestNotificationService_Anonymous(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	n, err := env.notifications.UnreadCount(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	latest, err := env.notifications.Latest(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, latest)
}
